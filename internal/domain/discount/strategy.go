package discount

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-discount/internal/domain/order"
)

// Strategy computes the discount fraction for an order. The result is not
// capped; the Registry applies MaxDiscount. Implementations must depend only
// on the order fields and must not keep state between calls.
type Strategy interface {
	Calculate(o *order.Order) decimal.Decimal
}

// StrategyFunc adapts a plain function to Strategy.
type StrategyFunc func(o *order.Order) decimal.Decimal

// Calculate calls f(o).
func (f StrategyFunc) Calculate(o *order.Order) decimal.Decimal {
	return f(o)
}

// Fixed returns a Strategy that always yields the given fraction.
func Fixed(fraction decimal.Decimal) Strategy {
	return StrategyFunc(func(*order.Order) decimal.Decimal {
		return fraction
	})
}

var (
	pct2  = decimal.RequireFromString("0.02")
	pct3  = decimal.RequireFromString("0.03")
	pct5  = decimal.RequireFromString("0.05")
	pct10 = decimal.RequireFromString("0.10")
	pct20 = decimal.RequireFromString("0.20")

	amount100 = decimal.NewFromInt(100)
	amount200 = decimal.NewFromInt(200)
	amount500 = decimal.NewFromInt(500)
)

// RegularStrategy grants 5% on totals over 100, 2% for more than 5 items and
// 3% with a loyalty card, at most 10% in total.
type RegularStrategy struct{}

// Calculate sums the Regular bonuses that o qualifies for.
func (RegularStrategy) Calculate(o *order.Order) decimal.Decimal {
	fraction := decimal.Zero
	if o.Total.GreaterThan(amount100) {
		fraction = fraction.Add(pct5)
	}
	if o.ItemsCount > 5 {
		fraction = fraction.Add(pct2)
	}
	if o.LoyaltyCard() {
		fraction = fraction.Add(pct3)
	}
	return fraction
}

// PremiumStrategy grants a 10% base discount, plus 5% on totals over 200 and
// 2% with a loyalty card.
type PremiumStrategy struct{}

// Calculate returns the Premium base plus the bonuses that o qualifies for.
func (PremiumStrategy) Calculate(o *order.Order) decimal.Decimal {
	fraction := pct10
	if o.Total.GreaterThan(amount200) {
		fraction = fraction.Add(pct5)
	}
	if o.LoyaltyCard() {
		fraction = fraction.Add(pct2)
	}
	return fraction
}

// VIPStrategy grants a 20% base discount, plus 5% for more than 10 items and
// 10% when the total is over 500 and the client holds a loyalty card.
type VIPStrategy struct{}

// Calculate returns the VIP base plus the bonuses that o qualifies for.
func (VIPStrategy) Calculate(o *order.Order) decimal.Decimal {
	fraction := pct20
	if o.ItemsCount > 10 {
		fraction = fraction.Add(pct5)
	}
	if o.Total.GreaterThan(amount500) && o.LoyaltyCard() {
		fraction = fraction.Add(pct10)
	}
	return fraction
}
