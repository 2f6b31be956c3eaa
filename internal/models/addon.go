package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Addon is an optional event extra (parking, merch). Add-ons are priced
// independently of tickets and are never inventory-constrained here.
type Addon struct {
	bun.BaseModel `bun:"table:addons"`

	ID         string    `bun:"id,pk" json:"id"`
	EventID    string    `bun:"event_id,notnull" json:"eventId"`
	Name       string    `bun:"name,notnull" json:"name"`
	PriceCents int64     `bun:"price_cents,notnull" json:"priceCents"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
}

// AddonOrder attaches a quantity of an add-on to an order.
type AddonOrder struct {
	bun.BaseModel `bun:"table:addon_orders"`

	ID       string `bun:"id,pk" json:"id"`
	OrderID  string `bun:"order_id,notnull" json:"orderId"`
	AddonID  string `bun:"addon_id,notnull" json:"addonId"`
	Quantity int    `bun:"quantity,notnull" json:"quantity"`

	Addon *Addon `bun:"rel:belongs-to,join:addon_id=id" json:"addon,omitempty"`
}
