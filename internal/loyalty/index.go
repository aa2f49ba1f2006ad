// Package loyalty resolves loyalty card numbers against card lists issued by
// the loyalty programme.
//
// Card lists are newline separated files, optionally gzip-compressed. They are
// loaded into a bloom filter, so Has may report a false positive at the
// configured rate but never a false negative.
package loyalty

import (
	"context"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/kart-discount/internal/gzio"
)

const (
	// DefaultCapacity is the expected number of cards when Options.Capacity is zero.
	DefaultCapacity = 1_000_000
	// DefaultFalsePositiveRate is used when Options.FalsePositiveRate is zero.
	DefaultFalsePositiveRate = 0.001
)

// Options configures Load.
type Options struct {
	Files             []string
	Capacity          uint
	FalsePositiveRate float64
}

func (o Options) withDefaults() Options {
	if o.Capacity == 0 {
		o.Capacity = DefaultCapacity
	}
	if o.FalsePositiveRate <= 0 || o.FalsePositiveRate >= 1 {
		o.FalsePositiveRate = DefaultFalsePositiveRate
	}
	return o
}

// Index is a probabilistic set of loyalty card numbers. It is immutable after
// Load and safe for concurrent use.
type Index struct {
	filter *bloom.BloomFilter
	cards  uint64
}

// NewIndex builds an Index from the given card numbers.
func NewIndex(cards []string, opts Options) *Index {
	opts = opts.withDefaults()
	idx := &Index{filter: bloom.NewWithEstimates(opts.Capacity, opts.FalsePositiveRate)}
	for _, c := range cards {
		if card, ok := normalize(c); ok {
			idx.filter.AddString(card)
			idx.cards++
		}
	}
	return idx
}

// Load reads every card list in opts.Files concurrently and merges them into
// a single Index.
func Load(ctx context.Context, opts Options) (*Index, error) {
	opts = opts.withDefaults()
	if len(opts.Files) == 0 {
		return nil, errors.New("no loyalty card files")
	}

	filters := make([]*bloom.BloomFilter, len(opts.Files))
	counts := make([]uint64, len(opts.Files))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range opts.Files {
		g.Go(func() error {
			filter := bloom.NewWithEstimates(opts.Capacity, opts.FalsePositiveRate)
			if err := gzio.ScanLines(ctx, path, func(line string, lineErr error) error {
				if lineErr != nil {
					return lineErr
				}
				if card, ok := normalize(line); ok {
					filter.AddString(card)
					counts[i]++
				}
				return nil
			}); err != nil {
				return errors.Wrapf(err, "load card list %s", path)
			}
			filters[i] = filter
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	idx := &Index{filter: filters[0]}
	for i, f := range filters {
		idx.cards += counts[i]
		if i == 0 {
			continue
		}
		if err := idx.filter.Merge(f); err != nil {
			return nil, errors.Wrap(err, "merge card lists")
		}
	}
	return idx, nil
}

// Has reports whether card is a known loyalty card.
func (i *Index) Has(card string) bool {
	card, ok := normalize(card)
	if !ok {
		return false
	}
	return i.filter.TestString(card)
}

// Len returns the number of card lines added, duplicates included.
func (i *Index) Len() uint64 {
	return i.cards
}

// normalize trims and upper-cases a card number. Blank lines and lines
// starting with '#' are rejected.
func normalize(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "#") {
		return "", false
	}
	return strings.ToUpper(s), true
}
