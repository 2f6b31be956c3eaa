package models

import (
	"time"

	"github.com/uptrace/bun"
)

// PromoCode is a redeemable discount token scoped to specific ticket types.
// Exactly one of AbsoluteDiscountCents / PercentageDiscount is meaningful;
// the absolute amount wins when both are set.
type PromoCode struct {
	bun.BaseModel `bun:"table:promo_codes"`

	ID                    string    `bun:"id,pk" json:"id"`
	Key                   string    `bun:"key,unique,notnull" json:"key"`
	Name                  string    `bun:"name,nullzero" json:"name,omitempty"`
	RedemptionLimit       int       `bun:"redemption_limit,notnull" json:"limit"`
	AbsoluteDiscountCents int64     `bun:"absolute_discount_cents" json:"absoluteDiscountCents"`
	PercentageDiscount    int64     `bun:"percentage_discount" json:"percentageDiscount"`
	PromoStart            time.Time `bun:"promo_start,notnull" json:"promoStart"`
	PromoEnd              time.Time `bun:"promo_end,notnull" json:"promoEnd"`
	TicketTypeIDs         []string  `bun:"ticket_type_ids,array" json:"ticketTypeIds"`
	CreatedAt             time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
}

// AppliesTo reports whether the code covers the given ticket type.
func (p *PromoCode) AppliesTo(ticketTypeID string) bool {
	for _, id := range p.TicketTypeIDs {
		if id == ticketTypeID {
			return true
		}
	}
	return false
}
