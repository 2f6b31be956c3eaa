package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Ticket is one purchased seat. It is created with empty attendee fields
// at order time; fulfillment later binds an attendee and a check-in code.
// Its existence on a SUCCESSFUL order is what counts against inventory.
type Ticket struct {
	bun.BaseModel `bun:"table:tickets"`

	ID           string    `bun:"id,pk" json:"id"`
	OrderID      string    `bun:"order_id,notnull" json:"orderId"`
	TicketTypeID string    `bun:"ticket_type_id,notnull" json:"ticketTypeId"`
	FirstName    string    `bun:"first_name,nullzero" json:"firstName,omitempty"`
	LastName     string    `bun:"last_name,nullzero" json:"lastName,omitempty"`
	Email        string    `bun:"email,nullzero" json:"email,omitempty"`
	Phone        string    `bun:"phone,nullzero" json:"phone,omitempty"`
	Gender       string    `bun:"gender,nullzero" json:"gender,omitempty"`
	CheckinCode  string    `bun:"checkin_code,nullzero" json:"checkinCode,omitempty"`
	QRCode       []byte    `bun:"qr_code,nullzero" json:"-"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`

	TicketType *TicketType `bun:"rel:belongs-to,join:ticket_type_id=id" json:"ticketType,omitempty"`
}
