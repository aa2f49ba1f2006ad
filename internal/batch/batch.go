// Package batch prices JSON-lines order files one line at a time.
package batch

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"go.uber.org/zap"

	"github.com/xenking/kart-discount/internal/domain/discount"
	"github.com/xenking/kart-discount/internal/gzio"
	"github.com/xenking/kart-discount/internal/wire"
)

// Stats summarises a run.
type Stats struct {
	Lines  int
	Quoted int
	Failed int
}

// Runner prices orders sequentially with a single registry.
type Runner struct {
	registry *discount.Registry
	cards    wire.CardChecker
	lg       *zap.Logger
}

// NewRunner creates a Runner. cards may be nil.
func NewRunner(registry *discount.Registry, cards wire.CardChecker, lg *zap.Logger) *Runner {
	return &Runner{registry: registry, cards: cards, lg: lg}
}

// Run reads the file at path and writes one JSON line per non-blank input
// line to out: the quote, or an error object for lines that cannot be priced.
// Bad lines, over-long lines included, do not stop the run; I/O failures do.
func (r *Runner) Run(ctx context.Context, path string, out io.Writer) (Stats, error) {
	var (
		stats Stats
		e     jx.Encoder
		lineN int
	)
	w := bufio.NewWriter(out)

	err := gzio.ScanLines(ctx, path, func(line string, lineErr error) error {
		lineN++
		if lineErr == nil && strings.TrimSpace(line) == "" {
			return nil
		}
		stats.Lines++

		e.Reset()
		e.ObjStart()
		e.FieldStart("line")
		e.Int(lineN)
		if q, err := r.quote(line, lineErr); err != nil {
			stats.Failed++
			r.lg.Warn("Skipping order line", zap.Int("line", lineN), zap.Error(err))
			e.FieldStart("error")
			e.Str(err.Error())
		} else {
			stats.Quoted++
			wire.QuoteFields(&e, q)
		}
		e.ObjEnd()

		if _, err := w.Write(e.Bytes()); err != nil {
			return errors.Wrap(err, "write quote")
		}
		if err := w.WriteByte('\n'); err != nil {
			return errors.Wrap(err, "write quote")
		}
		return nil
	})
	// Quotes written before a failure are still delivered.
	if flushErr := w.Flush(); flushErr != nil && err == nil {
		err = errors.Wrap(flushErr, "flush output")
	}
	return stats, err
}

func (r *Runner) quote(line string, lineErr error) (discount.Quote, error) {
	if lineErr != nil {
		return discount.Quote{}, lineErr
	}
	req, err := wire.DecodeRequest([]byte(line))
	if err != nil {
		return discount.Quote{}, err
	}
	o, err := req.Order(r.cards)
	if err != nil {
		return discount.Quote{}, err
	}
	return r.registry.Quote(o)
}
