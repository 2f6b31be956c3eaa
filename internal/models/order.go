package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Payment states an order moves through. Transitions are owned by the
// payment reconciler; PENDING -> SUCCESSFUL / FAILED, applied exactly once.
const (
	PaymentStatusPending    = "PENDING"
	PaymentStatusSuccessful = "SUCCESSFUL"
	PaymentStatusFailed     = "FAILED"
)

// Fulfillment states. COMPLETED means every ticket carries attendee
// details and a check-in code.
const (
	OrderStatusPending   = "PENDING"
	OrderStatusCompleted = "COMPLETED"
)

// Order is one buyer's checkout attempt: tickets plus optional add-ons.
type Order struct {
	bun.BaseModel `bun:"table:orders"`

	ID              string    `bun:"id,pk" json:"id"`
	UserID          string    `bun:"user_id,notnull" json:"userId"`
	EventID         string    `bun:"event_id,notnull" json:"eventId"`
	FirstName       string    `bun:"first_name,notnull" json:"firstName"`
	LastName        string    `bun:"last_name,notnull" json:"lastName"`
	Email           string    `bun:"email,notnull" json:"email"`
	Phone           string    `bun:"phone,nullzero" json:"phone,omitempty"`
	PromoCodeID     string    `bun:"promo_code_id,nullzero" json:"promocodeId,omitempty"`
	PaymentStatus   string    `bun:"payment_status,notnull,default:'PENDING'" json:"paymentStatus"`
	PaymentID       string    `bun:"payment_id,nullzero" json:"paymentId,omitempty"`
	AmountPaidCents int64     `bun:"amount_paid_cents" json:"amountPaidCents"`
	SessionID       string    `bun:"session_id,nullzero" json:"-"`
	Status          string    `bun:"status,notnull,default:'PENDING'" json:"status"`
	CreatedAt       time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`

	Event   *Event        `bun:"rel:belongs-to,join:event_id=id" json:"event,omitempty"`
	Tickets []*Ticket     `bun:"rel:has-many,join:id=order_id" json:"tickets,omitempty"`
	Addons  []*AddonOrder `bun:"rel:has-many,join:id=order_id" json:"addonOrders,omitempty"`
}
