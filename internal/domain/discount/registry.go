package discount

import (
	"slices"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-discount/internal/domain/order"
)

var (
	// ErrInvalidRegistration is returned by Register for an empty key or a nil strategy.
	ErrInvalidRegistration = errors.New("invalid strategy registration")
	// ErrOrderRequired is returned when a calculation receives a nil order.
	ErrOrderRequired = errors.New("order required")
)

// MaxDiscount is the largest fraction ever applied to an order.
var MaxDiscount = decimal.RequireFromString("0.5")

// Quote is the breakdown of a single price calculation.
type Quote struct {
	ClientType order.ClientType
	Total      decimal.Decimal
	// Resolved is false when no strategy is registered for the client type and
	// the order pays full price.
	Resolved        bool
	RawDiscount     decimal.Decimal
	AppliedDiscount decimal.Decimal
	Capped          bool
	FinalPrice      decimal.Decimal
}

// Registry maps client types to discount strategies and computes final prices.
//
// A Registry is not safe for concurrent use. Create one per calculation
// context instead of sharing it between goroutines.
type Registry struct {
	strategies map[order.ClientType]Strategy
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{strategies: make(map[order.ClientType]Strategy)}
}

// NewDefaultRegistry creates a Registry with the Regular, Premium and VIP
// strategies registered.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.strategies[order.ClientRegular] = RegularStrategy{}
	r.strategies[order.ClientPremium] = PremiumStrategy{}
	r.strategies[order.ClientVIP] = VIPStrategy{}
	return r
}

// Register stores s under key, replacing any previous strategy for that key.
func (r *Registry) Register(key order.ClientType, s Strategy) error {
	if key == "" || s == nil {
		return ErrInvalidRegistration
	}
	r.strategies[key] = s
	return nil
}

// Unregister removes the strategy for key. Missing keys are ignored.
func (r *Registry) Unregister(key order.ClientType) {
	delete(r.strategies, key)
}

// UnregisterAll removes every strategy.
func (r *Registry) UnregisterAll() {
	clear(r.strategies)
}

// Keys returns the registered client types in sorted order.
func (r *Registry) Keys() []order.ClientType {
	keys := make([]order.ClientType, 0, len(r.strategies))
	for k := range r.strategies {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// CalculateFinalPrice returns the discounted price of o rounded to cents.
func (r *Registry) CalculateFinalPrice(o *order.Order) (decimal.Decimal, error) {
	q, err := r.Quote(o)
	if err != nil {
		return decimal.Zero, err
	}
	return q.FinalPrice, nil
}

// Quote resolves the strategy for o, caps the fraction at MaxDiscount and
// rounds the final price half away from zero to two decimal places. An
// unregistered client type is not an error: the order pays full price.
func (r *Registry) Quote(o *order.Order) (Quote, error) {
	if o == nil {
		return Quote{}, ErrOrderRequired
	}

	q := Quote{
		ClientType:  o.ClientType,
		Total:       o.Total,
		RawDiscount: decimal.Zero,
	}
	if s, ok := r.strategies[o.ClientType]; ok {
		q.Resolved = true
		q.RawDiscount = s.Calculate(o)
	}

	q.AppliedDiscount = q.RawDiscount
	if q.RawDiscount.GreaterThan(MaxDiscount) {
		q.AppliedDiscount = MaxDiscount
		q.Capped = true
	}

	q.FinalPrice = o.Total.Mul(decimal.NewFromInt(1).Sub(q.AppliedDiscount)).Round(2)
	return q, nil
}
