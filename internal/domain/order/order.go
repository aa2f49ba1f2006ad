package order

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ClientType classifies a client into a discount tier.
type ClientType string

const (
	// ClientRegular is the default tier.
	ClientRegular ClientType = "Regular"
	// ClientPremium is the paid membership tier.
	ClientPremium ClientType = "Premium"
	// ClientVIP is the highest tier.
	ClientVIP ClientType = "VIP"
)

// KnownClientTypes lists the tiers shipped with the default strategies.
var KnownClientTypes = []ClientType{ClientRegular, ClientPremium, ClientVIP}

// ParseClientType matches s against the known tiers case-insensitively and
// returns the canonical value. Unknown values are returned as-is with ok=false.
func ParseClientType(s string) (ClientType, bool) {
	s = strings.TrimSpace(s)
	for _, ct := range KnownClientTypes {
		if strings.EqualFold(s, string(ct)) {
			return ct, true
		}
	}
	return ClientType(s), false
}

// Order is the input to a price calculation. It is never mutated by the
// discount code.
type Order struct {
	ClientType ClientType
	Total      decimal.Decimal
	ItemsCount int
	// HasLoyaltyCard is optional; nil means the client has no card.
	HasLoyaltyCard *bool
}

// LoyaltyCard reports whether the client holds a loyalty card.
func (o *Order) LoyaltyCard() bool {
	if o.HasLoyaltyCard == nil {
		return false
	}
	return *o.HasLoyaltyCard
}

// WithLoyaltyCard returns a pointer suitable for Order.HasLoyaltyCard.
func WithLoyaltyCard(v bool) *bool {
	return &v
}
