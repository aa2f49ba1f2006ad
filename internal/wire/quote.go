package wire

import (
	"github.com/go-faster/jx"

	"github.com/xenking/kart-discount/internal/domain/discount"
	"github.com/xenking/kart-discount/internal/domain/order"
)

// EncodeQuote writes q as a JSON object.
func EncodeQuote(e *jx.Encoder, q discount.Quote) {
	e.ObjStart()
	QuoteFields(e, q)
	e.ObjEnd()
}

// QuoteFields writes the fields of q into an already opened object.
func QuoteFields(e *jx.Encoder, q discount.Quote) {
	e.FieldStart("client_type")
	e.Str(string(q.ClientType))
	e.FieldStart("total")
	e.Float64(q.Total.InexactFloat64())
	e.FieldStart("final_price")
	e.Float64(q.FinalPrice.InexactFloat64())
	e.FieldStart("discount")
	e.Float64(q.AppliedDiscount.InexactFloat64())
	e.FieldStart("raw_discount")
	e.Float64(q.RawDiscount.InexactFloat64())
	e.FieldStart("capped")
	e.Bool(q.Capped)
	e.FieldStart("strategy_resolved")
	e.Bool(q.Resolved)
}

// EncodeError writes the error body shared by every endpoint.
func EncodeError(e *jx.Encoder, code int, message string) {
	e.ObjStart()
	e.FieldStart("code")
	e.Int(code)
	e.FieldStart("message")
	e.Str(message)
	e.ObjEnd()
}

// EncodeTiers writes the list of priced client types.
func EncodeTiers(e *jx.Encoder, tiers []order.ClientType) {
	e.ObjStart()
	e.FieldStart("tiers")
	e.ArrStart()
	for _, t := range tiers {
		e.Str(string(t))
	}
	e.ArrEnd()
	e.ObjEnd()
}
