// Package handler serves the quote HTTP API.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"go.opentelemetry.io/otel/metric"

	"github.com/xenking/kart-discount/internal/wire"
)

// MaxBodySize is the largest accepted quote request body.
const MaxBodySize = 64 << 10

const meterName = "github.com/xenking/kart-discount/internal/handler"

// HandlerConfig holds the Handler dependencies.
type HandlerConfig struct {
	// Cards resolves loyalty card numbers. Nil disables card lookup.
	Cards wire.CardChecker
	// MeterProvider is used for the per-tier quote counter.
	MeterProvider metric.MeterProvider
}

// Handler prices orders over HTTP. Every request builds its own registry,
// so Handler itself holds no pricing state.
type Handler struct {
	cards  wire.CardChecker
	quotes metric.Int64Counter
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) (*Handler, error) {
	if cfg.MeterProvider == nil {
		return nil, errors.New("meter provider is required")
	}
	quotes, err := cfg.MeterProvider.Meter(meterName).Int64Counter("discount.quotes",
		metric.WithDescription("Number of priced orders"),
		metric.WithUnit("{quote}"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create quote counter")
	}
	return &Handler{cards: cfg.Cards, quotes: quotes}, nil
}

// Routes returns the API router. Paths include the /api prefix; callers may
// register further routes on it.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	r.Post("/api/quote", h.Quote)
	r.Get("/api/tiers", h.Tiers)
	return r
}

func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	var e jx.Encoder
	encode(&e)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		wire.EncodeError(e, status, message)
	})
}
