package discount

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/kart-discount/internal/domain/order"
)

// compositeStrategy mirrors the Regular rules with a lower items threshold.
type compositeStrategy struct{}

func (compositeStrategy) Calculate(o *order.Order) decimal.Decimal {
	fraction := decimal.Zero
	if o.Total.GreaterThan(d("100")) {
		fraction = fraction.Add(d("0.05"))
	}
	if o.ItemsCount > 3 {
		fraction = fraction.Add(d("0.02"))
	}
	if o.LoyaltyCard() {
		fraction = fraction.Add(d("0.03"))
	}
	return fraction
}

func requirePrice(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, d(want).Equal(got), "expected final price %s, got %s", want, got)
}

func TestRegistry_AppliesRegisteredStrategy(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(order.ClientRegular, Fixed(d("0.1"))))

	got, err := r.CalculateFinalPrice(&order.Order{ClientType: order.ClientRegular, Total: d("200"), ItemsCount: 1})
	require.NoError(t, err)
	requirePrice(t, "180", got)
}

func TestRegistry_UnresolvedClientTypePaysFullPrice(t *testing.T) {
	r := NewRegistry()

	q, err := r.Quote(&order.Order{ClientType: order.ClientPremium, Total: d("120"), ItemsCount: 2})
	require.NoError(t, err)
	assert.False(t, q.Resolved)
	assert.True(t, q.RawDiscount.IsZero())
	requirePrice(t, "120", q.FinalPrice)
}

func TestRegistry_UnresolvedClientTypeRoundsTotal(t *testing.T) {
	r := NewDefaultRegistry()

	got, err := r.CalculateFinalPrice(&order.Order{ClientType: "Gold", Total: d("19.999")})
	require.NoError(t, err)
	requirePrice(t, "20.00", got)
}

func TestRegistry_Unregister(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(order.ClientVIP, Fixed(d("0.2"))))
	o := &order.Order{ClientType: order.ClientVIP, Total: d("100"), ItemsCount: 1}

	got, err := r.CalculateFinalPrice(o)
	require.NoError(t, err)
	requirePrice(t, "80", got)

	r.Unregister(order.ClientVIP)

	got, err = r.CalculateFinalPrice(o)
	require.NoError(t, err)
	requirePrice(t, "100", got)

	// Removing a missing key is a no-op.
	r.Unregister(order.ClientVIP)
	r.Unregister("Unknown")
	assert.Empty(t, r.Keys())
}

func TestRegistry_UnregisterAll(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(order.ClientRegular, Fixed(d("0.05"))))
	require.NoError(t, r.Register(order.ClientPremium, Fixed(d("0.1"))))
	o := &order.Order{ClientType: order.ClientRegular, Total: d("50"), ItemsCount: 1}

	got, err := r.CalculateFinalPrice(o)
	require.NoError(t, err)
	requirePrice(t, "47.50", got)

	r.UnregisterAll()
	assert.Empty(t, r.Keys())

	got, err = r.CalculateFinalPrice(o)
	require.NoError(t, err)
	requirePrice(t, "50", got)
}

func TestRegistry_RegisterOverwrites(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(order.ClientRegular, Fixed(d("0.1"))))
	require.NoError(t, r.Register(order.ClientRegular, Fixed(d("0.3"))))

	got, err := r.CalculateFinalPrice(&order.Order{ClientType: order.ClientRegular, Total: d("100")})
	require.NoError(t, err)
	requirePrice(t, "70", got)
	assert.Equal(t, []order.ClientType{order.ClientRegular}, r.Keys())
}

func TestRegistry_InvalidRegistration(t *testing.T) {
	r := NewDefaultRegistry()
	before := r.Keys()

	err := r.Register("", Fixed(d("0.1")))
	require.ErrorIs(t, err, ErrInvalidRegistration)

	err = r.Register(order.ClientRegular, nil)
	require.ErrorIs(t, err, ErrInvalidRegistration)
	assert.Equal(t, "invalid strategy registration", err.Error())

	assert.Equal(t, before, r.Keys())
	// The built-in Regular strategy is still in place.
	got, err := r.CalculateFinalPrice(&order.Order{ClientType: order.ClientRegular, Total: d("80"), ItemsCount: 3})
	require.NoError(t, err)
	requirePrice(t, "80", got)
}

func TestRegistry_OrderRequired(t *testing.T) {
	r := NewDefaultRegistry()

	_, err := r.CalculateFinalPrice(nil)
	require.ErrorIs(t, err, ErrOrderRequired)
	assert.Equal(t, "order required", err.Error())

	_, err = r.Quote(nil)
	require.ErrorIs(t, err, ErrOrderRequired)
}

func TestRegistry_CapsAtMaxDiscount(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(order.ClientPremium, Fixed(d("0.9"))))

	q, err := r.Quote(&order.Order{ClientType: order.ClientPremium, Total: d("300"), ItemsCount: 1})
	require.NoError(t, err)
	assert.True(t, q.Capped)
	assert.True(t, d("0.9").Equal(q.RawDiscount))
	assert.True(t, MaxDiscount.Equal(q.AppliedDiscount))
	requirePrice(t, "150", q.FinalPrice)
}

func TestRegistry_ExactlyMaxDiscountIsNotCapped(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(order.ClientVIP, Fixed(d("0.5"))))

	q, err := r.Quote(&order.Order{ClientType: order.ClientVIP, Total: d("10")})
	require.NoError(t, err)
	assert.False(t, q.Capped)
	requirePrice(t, "5", q.FinalPrice)
}

func TestRegistry_CompositeStrategy(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(order.ClientRegular, compositeStrategy{}))

	got, err := r.CalculateFinalPrice(&order.Order{
		ClientType:     order.ClientRegular,
		Total:          d("150"),
		ItemsCount:     4,
		HasLoyaltyCard: order.WithLoyaltyCard(true),
	})
	require.NoError(t, err)
	requirePrice(t, "135", got)
}

func TestRegistry_RoundsFractionalCents(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(order.ClientRegular, Fixed(d("0.12345"))))

	// 19.999 * 0.87655 = 17.53012345
	got, err := r.CalculateFinalPrice(&order.Order{ClientType: order.ClientRegular, Total: d("19.999"), ItemsCount: 1})
	require.NoError(t, err)
	requirePrice(t, "17.53", got)
}

func TestRegistry_RoundsHalfAwayFromZero(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(order.ClientRegular, Fixed(d("0.5"))))

	// 0.25 * 0.5 = 0.125
	got, err := r.CalculateFinalPrice(&order.Order{ClientType: order.ClientRegular, Total: d("0.25")})
	require.NoError(t, err)
	requirePrice(t, "0.13", got)
}

func TestRegistry_Idempotent(t *testing.T) {
	r := NewDefaultRegistry()
	o := &order.Order{ClientType: order.ClientPremium, Total: d("333.33"), ItemsCount: 1}

	first, err := r.CalculateFinalPrice(o)
	require.NoError(t, err)
	second, err := r.CalculateFinalPrice(o)
	require.NoError(t, err)

	assert.True(t, first.Equal(second))
}

func TestRegistry_Keys(t *testing.T) {
	r := NewDefaultRegistry()
	assert.Equal(t, []order.ClientType{order.ClientPremium, order.ClientRegular, order.ClientVIP}, r.Keys())
}

func TestRegistry_PriceBounds(t *testing.T) {
	r := NewDefaultRegistry()
	require.NoError(t, r.Register("Gold", Fixed(d("0.75"))))

	clientTypes := []order.ClientType{order.ClientRegular, order.ClientPremium, order.ClientVIP, "Gold", "Unknown"}
	totals := []string{"0", "0.01", "99.99", "100", "100.01", "200.5", "500", "500.01", "1234.56"}
	counts := []int{0, 5, 6, 10, 11, 50}
	cards := []*bool{nil, order.WithLoyaltyCard(false), order.WithLoyaltyCard(true)}

	for _, ct := range clientTypes {
		for _, total := range totals {
			for _, n := range counts {
				for _, card := range cards {
					o := &order.Order{ClientType: ct, Total: d(total), ItemsCount: n, HasLoyaltyCard: card}
					q, err := r.Quote(o)
					require.NoError(t, err)

					assert.False(t, q.AppliedDiscount.IsNegative())
					assert.True(t, q.AppliedDiscount.LessThanOrEqual(MaxDiscount))
					assert.True(t, q.FinalPrice.LessThanOrEqual(o.Total.Round(2)),
						"%s %s: final %s above total", ct, total, q.FinalPrice)
					assert.True(t, q.FinalPrice.GreaterThanOrEqual(o.Total.Mul(MaxDiscount).Round(2)),
						"%s %s: final %s below half", ct, total, q.FinalPrice)
				}
			}
		}
	}
}
