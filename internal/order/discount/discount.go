// Package discount evaluates promo codes against carts. All arithmetic is
// integer cents; discounts floor, so the charged remainder rounds up.
package discount

import (
	"time"

	"ms-ordering/internal/models"
)

// Activation policies for combining the redemption and window conditions.
const (
	PolicyAny = "any"
	PolicyAll = "all"
)

// Active reports whether the code can be redeemed right now. Two conditions
// feed it: the code has redemptions left, and the current time falls inside
// its validity window. Under PolicyAny either condition alone suffices;
// under PolicyAll both must hold.
func Active(code *models.PromoCode, redeemedCount int, now time.Time, policy string) bool {
	if code == nil {
		return false
	}
	hasRedemptions := redeemedCount < code.RedemptionLimit
	inWindow := !now.Before(code.PromoStart) && now.Before(code.PromoEnd)
	if policy == PolicyAll {
		return hasRedemptions && inWindow
	}
	return hasRedemptions || inWindow
}

// CoversTicketType reports whether the code's scope includes the ticket
// type. A code with an empty scope covers every ticket type.
func CoversTicketType(code *models.PromoCode, ticketTypeID string) bool {
	if code == nil {
		return false
	}
	if len(code.TicketTypeIDs) == 0 {
		return true
	}
	return code.AppliesTo(ticketTypeID)
}

// PerUnitDiscount returns the discount applied to one ticket of the given
// unit price, in cents. An absolute amount wins over a percentage when both
// are set. The result never exceeds the unit price.
func PerUnitDiscount(code *models.PromoCode, unitPriceCents int64) int64 {
	if code == nil || unitPriceCents <= 0 {
		return 0
	}
	var d int64
	switch {
	case code.AbsoluteDiscountCents > 0:
		d = code.AbsoluteDiscountCents
	case code.PercentageDiscount > 0:
		d = unitPriceCents * code.PercentageDiscount / 100
	}
	if d > unitPriceCents {
		return unitPriceCents
	}
	if d < 0 {
		return 0
	}
	return d
}

// DiscountedUnitPrice is the per-ticket price after the discount.
func DiscountedUnitPrice(code *models.PromoCode, unitPriceCents int64) int64 {
	return unitPriceCents - PerUnitDiscount(code, unitPriceCents)
}
