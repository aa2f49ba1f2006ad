package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/kart-discount/internal/handler"
	"github.com/xenking/kart-discount/internal/loyalty"
	"github.com/xenking/kart-discount/internal/wire"
	"github.com/xenking/kart-discount/pkg/health"
	"github.com/xenking/kart-discount/pkg/httpmiddleware"
)

// Run loads the loyalty index, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the API server.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	healthSvc := health.New()
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.AddLivenessCheck("gc_pause", time.Second, health.GCMaxPauseCheck(time.Second))

	// Nil interface, not a typed nil, when no card lists are configured.
	var cards wire.CardChecker
	if len(cfg.Loyalty.Files) > 0 {
		start := time.Now()
		idx, err := loyalty.Load(ctx, loyalty.Options{
			Files:             cfg.Loyalty.Files,
			Capacity:          cfg.Loyalty.Capacity,
			FalsePositiveRate: cfg.Loyalty.FalsePositiveRate,
		})
		if err != nil {
			return errors.Wrap(err, "load loyalty cards")
		}
		lg.Info("Loyalty index loaded",
			zap.Strings("files", cfg.Loyalty.Files),
			zap.Uint64("cards", idx.Len()),
			zap.Duration("took", time.Since(start)),
		)
		healthSvc.AddReadinessCheck("loyalty", time.Second, health.NonEmptyCheck("loyalty index", idx.Len))
		cards = idx
	} else {
		lg.Info("No loyalty card files configured, card numbers are ignored")
	}

	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	h, err := handler.NewHandler(handler.HandlerConfig{
		Cards:         cards,
		MeterProvider: m.MeterProvider(),
	})
	if err != nil {
		return errors.Wrap(err, "create handler")
	}

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler:           newRouter(lg, m.TracerProvider(), m.MeterProvider(), healthSvc, h.Routes()),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

// newRouter adds the health probes to the API router and wraps it in the
// middleware chain.
func newRouter(
	lg *zap.Logger,
	tp trace.TracerProvider,
	mp metric.MeterProvider,
	healthSvc *health.Health,
	api chi.Router,
) http.Handler {
	api.Get("/livez", healthSvc.LiveEndpoint)
	api.Get("/readyz", healthSvc.ReadyEndpoint)

	return httpmiddleware.Wrap(api,
		httpmiddleware.InjectLogger(lg),
		httpmiddleware.Recovery(),
		httpmiddleware.RequestID(),
		httpmiddleware.Instrument("discount-api", httpmiddleware.MakeRouteFinder(api), tp, mp),
		httpmiddleware.LogRequests(),
	)
}
