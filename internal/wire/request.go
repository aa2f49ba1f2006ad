// Package wire converts quote requests and quotes to and from JSON.
package wire

import (
	"fmt"
	"io"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-discount/internal/domain/order"
)

// ErrInvalidRequest is wrapped by every decoding or validation failure.
var ErrInvalidRequest = errors.New("invalid request")

// FieldError reports a problem with a single request field. Field is empty
// when the body itself is malformed.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid request: %s", e.Reason)
	}
	return fmt.Sprintf("invalid request: %s: %s", e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error {
	return ErrInvalidRequest
}

// CardChecker reports whether a loyalty card number is known.
type CardChecker interface {
	Has(card string) bool
}

// Request is a decoded quote request.
type Request struct {
	ClientType     string
	Total          decimal.Decimal
	ItemsCount     int
	HasLoyaltyCard *bool
	LoyaltyCard    string

	hasTotal      bool
	hasItemsCount bool
}

// DecodeRequest parses a quote request object.
func DecodeRequest(data []byte) (Request, error) {
	var req Request
	d := jx.DecodeBytes(data)
	if d.Next() != jx.Object {
		return Request{}, &FieldError{Reason: "expected JSON object"}
	}

	if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "client_type":
			v, err := d.Str()
			if err != nil {
				return &FieldError{Field: "client_type", Reason: "must be a string"}
			}
			req.ClientType = v
		case "total":
			v, err := decodeDecimal(d)
			if err != nil {
				return &FieldError{Field: "total", Reason: err.Error()}
			}
			req.Total = v
			req.hasTotal = true
		case "items_count":
			v, err := d.Int()
			if err != nil {
				return &FieldError{Field: "items_count", Reason: "must be an integer"}
			}
			req.ItemsCount = v
			req.hasItemsCount = true
		case "has_loyalty_card":
			if d.Next() == jx.Null {
				return d.Null()
			}
			v, err := d.Bool()
			if err != nil {
				return &FieldError{Field: "has_loyalty_card", Reason: "must be a boolean"}
			}
			req.HasLoyaltyCard = &v
		case "loyalty_card":
			if d.Next() == jx.Null {
				return d.Null()
			}
			v, err := d.Str()
			if err != nil {
				return &FieldError{Field: "loyalty_card", Reason: "must be a string"}
			}
			req.LoyaltyCard = v
		default:
			return d.Skip()
		}
		return nil
	}); err != nil {
		var fErr *FieldError
		if errors.As(err, &fErr) {
			return Request{}, fErr
		}
		return Request{}, &FieldError{Reason: err.Error()}
	}
	if err := d.Skip(); err != io.EOF {
		return Request{}, &FieldError{Reason: "unexpected data after object"}
	}

	return req, nil
}

// Amount bounds. Pricing rescales a decimal to its exponent, so the exponent
// must stay small.
const (
	minExponent = -8
	maxExponent = 15
	maxDigits   = 24
)

// decodeDecimal accepts a JSON number or a numeric string.
func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	var raw string
	switch d.Next() {
	case jx.Number:
		v, err := d.Raw()
		if err != nil {
			return decimal.Zero, err
		}
		raw = string(v)
	case jx.String:
		v, err := d.Str()
		if err != nil {
			return decimal.Zero, err
		}
		raw = v
	default:
		return decimal.Zero, errors.New("must be a number")
	}

	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, errors.New("must be a number")
	}
	if exp := v.Exponent(); exp < minExponent || exp > maxExponent || v.NumDigits() > maxDigits {
		return decimal.Zero, errors.New("out of range")
	}
	return v, nil
}

// Order validates the request and builds the order to price. When the request
// carries a card number but no explicit loyalty flag, cards decides the flag.
// A nil cards ignores card numbers.
func (r Request) Order(cards CardChecker) (*order.Order, error) {
	if r.ClientType == "" {
		return nil, &FieldError{Field: "client_type", Reason: "required"}
	}
	if !r.hasTotal {
		return nil, &FieldError{Field: "total", Reason: "required"}
	}
	if !r.hasItemsCount {
		return nil, &FieldError{Field: "items_count", Reason: "required"}
	}

	clientType, _ := order.ParseClientType(r.ClientType)
	o := &order.Order{
		ClientType:     clientType,
		Total:          r.Total,
		ItemsCount:     r.ItemsCount,
		HasLoyaltyCard: r.HasLoyaltyCard,
	}
	if o.HasLoyaltyCard == nil && r.LoyaltyCard != "" && cards != nil {
		o.HasLoyaltyCard = order.WithLoyaltyCard(cards.Has(r.LoyaltyCard))
	}

	if err := o.Validate(); err != nil {
		var vErr *order.ValidationError
		if errors.As(err, &vErr) {
			return nil, &FieldError{Field: vErr.Field, Reason: vErr.Reason}
		}
		return nil, errors.Wrap(err, "validate order")
	}
	return o, nil
}
