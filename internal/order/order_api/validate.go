package order_api

import (
	"fmt"
	"strings"

	"ms-ordering/internal/models"
)

// ValidationError names the first offending field of a rejected request.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ValidateCreateOrder checks shape and ranges; semantic checks (event on
// sale, inventory) belong to the service.
func ValidateCreateOrder(req *models.CreateOrderRequest) *ValidationError {
	if req.EventID == "" {
		return invalid("eventId", "is required")
	}
	if strings.TrimSpace(req.FirstName) == "" {
		return invalid("firstName", "is required")
	}
	if strings.TrimSpace(req.LastName) == "" {
		return invalid("lastName", "is required")
	}
	if err := validateEmail(req.Email); err != nil {
		return err
	}
	if len(req.TicketOrders) == 0 {
		return invalid("ticketOrders", "at least one ticket is required")
	}
	seen := make(map[string]bool, len(req.TicketOrders))
	for i, line := range req.TicketOrders {
		field := fmt.Sprintf("ticketOrders[%d]", i)
		if line.TicketTypeID == "" {
			return invalid(field+".ticketTypeId", "is required")
		}
		if line.Quantity < 0 {
			return invalid(field+".quantity", "must not be negative")
		}
		if seen[line.TicketTypeID] {
			return invalid(field+".ticketTypeId", "duplicate ticket type")
		}
		seen[line.TicketTypeID] = true
	}
	for i, line := range req.AddonOrders {
		field := fmt.Sprintf("addonOrders[%d]", i)
		if line.AddonID == "" {
			return invalid(field+".addonId", "is required")
		}
		if line.Quantity < 0 {
			return invalid(field+".quantity", "must not be negative")
		}
	}
	return nil
}

// ValidateFillTicketDetails checks the fulfillment payload shape.
func ValidateFillTicketDetails(req *models.FillTicketDetailsRequest) *ValidationError {
	if req.OrderID == "" {
		return invalid("orderId", "is required")
	}
	if len(req.Tickets) == 0 {
		return invalid("tickets", "at least one ticket is required")
	}
	for i, t := range req.Tickets {
		field := fmt.Sprintf("tickets[%d]", i)
		if t.TicketID == "" {
			return invalid(field+".ticketId", "is required")
		}
		if strings.TrimSpace(t.FirstName) == "" {
			return invalid(field+".firstName", "is required")
		}
		if strings.TrimSpace(t.LastName) == "" {
			return invalid(field+".lastName", "is required")
		}
		if err := validateEmailField(field+".email", t.Email); err != nil {
			return err
		}
	}
	return nil
}

func validateEmail(email string) *ValidationError {
	return validateEmailField("email", email)
}

func validateEmailField(field, email string) *ValidationError {
	email = strings.TrimSpace(email)
	if email == "" {
		return invalid(field, "is required")
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 || !strings.Contains(email[at:], ".") {
		return invalid(field, "is not a valid email address")
	}
	return nil
}
