package handler

import (
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/kart-discount/internal/domain/discount"
	"github.com/xenking/kart-discount/internal/wire"
)

// Quote handles POST /api/quote.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lg := zctx.From(ctx)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "read request body")
		return
	}

	req, err := wire.DecodeRequest(body)
	if err != nil {
		lg.Debug("Invalid quote request", zap.Error(err))
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	o, err := req.Order(h.cards)
	if err != nil {
		lg.Debug("Invalid quote request", zap.Error(err))
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	q, err := discount.NewDefaultRegistry().Quote(o)
	if err != nil {
		lg.Error("Quote failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("discount.client_type", string(q.ClientType)),
		attribute.Bool("discount.strategy_resolved", q.Resolved),
	}
	h.quotes.Add(ctx, 1, metric.WithAttributes(attrs...))
	trace.SpanFromContext(ctx).SetAttributes(append(attrs,
		attribute.Bool("discount.capped", q.Capped),
		attribute.String("discount.applied", q.AppliedDiscount.String()),
	)...)

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		wire.EncodeQuote(e, q)
	})
}

// Tiers handles GET /api/tiers.
func (h *Handler) Tiers(w http.ResponseWriter, _ *http.Request) {
	tiers := discount.NewDefaultRegistry().Keys()
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		wire.EncodeTiers(e, tiers)
	})
}
