// Command quote prices a JSON-lines order file and writes one quote per line.
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/xenking/kart-discount/internal/batch"
	"github.com/xenking/kart-discount/internal/domain/discount"
	"github.com/xenking/kart-discount/internal/loyalty"
	"github.com/xenking/kart-discount/internal/wire"
)

type config struct {
	Input           string   `required:"true" usage:"Order file, JSON lines, plain or .gz" flag:"input"`
	Output          string   `usage:"Output file, stdout when empty" flag:"output"`
	LoyaltyCards    []string `usage:"Loyalty card list files, plain or .gz" flag:"loyalty-cards"`
	LoyaltyCapacity uint     `default:"1000000" usage:"Expected number of loyalty cards" flag:"loyalty-capacity"`
}

func main() {
	var cfg config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "QUOTE",
		SkipFiles: true,
	})
	if err := loader.Load(); err != nil {
		_, _ = io.WriteString(os.Stderr, err.Error()+"\n")
		os.Exit(2)
	}

	lg, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = lg.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, lg, cfg); err != nil {
		lg.Error("Quote run failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, lg *zap.Logger, cfg config) error {
	var cards wire.CardChecker
	if len(cfg.LoyaltyCards) > 0 {
		idx, err := loyalty.Load(ctx, loyalty.Options{
			Files:    cfg.LoyaltyCards,
			Capacity: cfg.LoyaltyCapacity,
		})
		if err != nil {
			return errors.Wrap(err, "load loyalty cards")
		}
		lg.Info("Loyalty index loaded", zap.Uint64("cards", idx.Len()))
		cards = idx
	}

	out := io.Writer(os.Stdout)
	var f *os.File
	if cfg.Output != "" {
		var err error
		if f, err = os.Create(cfg.Output); err != nil {
			return errors.Wrap(err, "create output")
		}
		defer func() { _ = f.Close() }()
		out = f
	}

	start := time.Now()
	stats, err := batch.NewRunner(discount.NewDefaultRegistry(), cards, lg).Run(ctx, cfg.Input, out)
	if err != nil {
		return errors.Wrap(err, "run batch")
	}
	if f != nil {
		if err := f.Close(); err != nil {
			return errors.Wrap(err, "close output")
		}
	}
	lg.Info("Quote run completed",
		zap.String("input", cfg.Input),
		zap.Int("lines", stats.Lines),
		zap.Int("quoted", stats.Quoted),
		zap.Int("failed", stats.Failed),
		zap.Duration("took", time.Since(start)),
	)
	return nil
}
