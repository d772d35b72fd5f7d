package stats

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/maplewav/newslens/internal/types"
)

// Options configures one Compute run.
type Options struct {
	// TopN is the length of the source ranking.
	TopN int

	// CumulativeKs are the k values to compute coverage shares for.
	CumulativeKs []int

	// Bins is the histogram bucket count.
	Bins int
}

// DefaultOptions returns the option set the CLI uses when no flags are given.
func DefaultOptions() Options {
	return Options{
		TopN:         10,
		CumulativeKs: []int{1, 5, 10},
		Bins:         DefaultBins,
	}
}

// Report bundles the two independent summaries of one dataset snapshot.
// SkippedRecords carries the loader's malformed-row count so consumers see
// how many rows the summaries do not cover.
type Report struct {
	SkippedRecords int               `json:"skipped_records,omitempty" yaml:"skipped_records,omitempty"`
	WordCounts     *WordCountSummary `json:"word_counts"               yaml:"word_counts"`
	Sources        *SourceSummary    `json:"sources"                   yaml:"sources"`
}

// Compute runs both summaries over the same immutable record slice. The two
// passes are read-only and independent, so they run concurrently; parameters
// are validated up front so neither starts on an invalid request. On error no
// partial Report is returned.
func Compute(records []types.Article, opts Options) (*Report, error) {
	if err := validateOptions(opts); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, types.ErrEmptyDataset
	}

	var report Report
	var g errgroup.Group

	g.Go(func() error {
		wc, err := WordCounts(records, opts.Bins)
		if err != nil {
			return err
		}
		report.WordCounts = wc
		return nil
	})
	g.Go(func() error {
		src, err := Sources(records, opts.TopN, opts.CumulativeKs)
		if err != nil {
			return err
		}
		report.Sources = src
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &report, nil
}

func validateOptions(opts Options) error {
	if opts.TopN < 1 {
		return fmt.Errorf("%w: topN must be >= 1, got %d", types.ErrInvalidParameter, opts.TopN)
	}
	if opts.Bins < 1 {
		return fmt.Errorf("%w: bins must be >= 1, got %d", types.ErrInvalidParameter, opts.Bins)
	}
	for _, k := range opts.CumulativeKs {
		if k < 1 {
			return fmt.Errorf("%w: cumulative k must be >= 1, got %d", types.ErrInvalidParameter, k)
		}
	}
	return nil
}
