package order

import (
	"errors"
	"fmt"
)

var (
	ErrEventNotFound       = errors.New("event not found")
	ErrEventNotPublished   = errors.New("event is not published")
	ErrEventClosed         = errors.New("event has ended")
	ErrAuthExpired         = errors.New("authentication expired")
	ErrTicketTypeNotFound  = errors.New("ticket type not found")
	ErrAddonNotFound       = errors.New("addon not found")
	ErrPromoCodeNotFound   = errors.New("promo code not found")
	ErrEmptyOrder          = errors.New("order contains no tickets")
	ErrOrderNotFound       = errors.New("order not found")
	ErrNotOrderOwner       = errors.New("order belongs to another user")
	ErrPaymentNotConfirmed = errors.New("payment not confirmed")
	ErrOrderCompleted      = errors.New("order already completed")
)

// InsufficientInventoryError reports a cart line that asks for more tickets
// than remain. Remaining can be zero.
type InsufficientInventoryError struct {
	TicketTypeName string
	Requested      int
	Remaining      int
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("insufficient inventory for %q: requested %d, %d remaining",
		e.TicketTypeName, e.Requested, e.Remaining)
}

// QuantityBoundsError reports a cart line outside the ticket type's
// per-order limits.
type QuantityBoundsError struct {
	TicketTypeName string
	Requested      int
	Min            int
	Max            int
}

func (e *QuantityBoundsError) Error() string {
	return fmt.Sprintf("quantity %d for %q is outside allowed range [%d, %d]",
		e.Requested, e.TicketTypeName, e.Min, e.Max)
}

// WebhookError carries both a safe public message and the internal detail
// for a failed webhook delivery, plus the status code to answer with.
type WebhookError struct {
	Category      string
	StatusCode    int
	PublicError   string
	InternalError string
	OriginalErr   error
}

func (e *WebhookError) Error() string {
	if e.OriginalErr != nil {
		return fmt.Sprintf("%s: %s: %v", e.Category, e.InternalError, e.OriginalErr)
	}
	return fmt.Sprintf("%s: %s", e.Category, e.InternalError)
}

func (e *WebhookError) Unwrap() error { return e.OriginalErr }
