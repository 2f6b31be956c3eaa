package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Ticket type visibility rules.
const (
	VisibilityVisible = "VISIBLE"
	VisibilityHidden  = "HIDDEN"
	VisibilityCustom  = "CUSTOM"
)

// TicketType is a priced admission category with a fixed total quantity.
// Prices are integer minor units (cents) end to end.
type TicketType struct {
	bun.BaseModel `bun:"table:ticket_types"`

	ID          string    `bun:"id,pk" json:"id"`
	EventID     string    `bun:"event_id,notnull" json:"eventId"`
	Name        string    `bun:"name,notnull" json:"name"`
	PriceCents  int64     `bun:"price_cents,notnull" json:"priceCents"`
	Quantity    int       `bun:"quantity,notnull" json:"quantity"`
	Visibility  string    `bun:"visibility,notnull,default:'VISIBLE'" json:"visibility"`
	SalesStart  time.Time `bun:"sales_start,nullzero" json:"salesStart,omitempty"`
	SalesEnd    time.Time `bun:"sales_end,nullzero" json:"salesEnd,omitempty"`
	MinPerOrder int       `bun:"min_per_order,nullzero" json:"minPerOrder,omitempty"`
	MaxPerOrder int       `bun:"max_per_order,nullzero" json:"maxPerOrder,omitempty"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
}

// VisibleAt reports whether the ticket type should be shown to buyers.
func (t *TicketType) VisibleAt(now time.Time) bool {
	switch t.Visibility {
	case VisibilityHidden:
		return false
	case VisibilityCustom:
		return !now.Before(t.SalesStart) && !now.After(t.SalesEnd)
	default:
		return true
	}
}
