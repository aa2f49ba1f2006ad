package discount

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-discount/internal/domain/order"
)

// CalculateFinalPrice prices o with the given registry. A nil registry is
// replaced by a fresh NewDefaultRegistry.
func CalculateFinalPrice(o *order.Order, r *Registry) (decimal.Decimal, error) {
	if r == nil {
		r = NewDefaultRegistry()
	}
	return r.CalculateFinalPrice(o)
}
