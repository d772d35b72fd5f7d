package stats

import (
	"fmt"
	"sort"

	"github.com/maplewav/newslens/internal/types"
)

// DefaultBins is the histogram bucket count used when none is configured.
const DefaultBins = 30

// Histogram holds equal-width bucket edges and per-bucket counts over the
// word-count range. Edges has one more entry than Counts; bucket i covers
// [Edges[i], Edges[i+1]), with the last bucket closed on the right.
type Histogram struct {
	Edges  []float64 `json:"edges"  yaml:"edges"`
	Counts []int     `json:"counts" yaml:"counts"`
}

// WordCountSummary holds descriptive statistics over the word_count column.
// It is a pure function of the input records, recomputed fully per call.
type WordCountSummary struct {
	TotalCount int       `json:"total_count" yaml:"total_count"`
	Mean       float64   `json:"mean"        yaml:"mean"`
	Min        int       `json:"min"         yaml:"min"`
	Max        int       `json:"max"         yaml:"max"`
	Median     float64   `json:"median"      yaml:"median"`
	P25        float64   `json:"p25"         yaml:"p25"`
	P75        float64   `json:"p75"         yaml:"p75"`
	Histogram  Histogram `json:"histogram"   yaml:"histogram"`
}

// WordCounts computes descriptive statistics over the word counts of records.
// Fails with ErrInvalidParameter for bins < 1 and with ErrEmptyDataset for an
// empty record slice; no partial summary is returned.
func WordCounts(records []types.Article, bins int) (*WordCountSummary, error) {
	if bins < 1 {
		return nil, fmt.Errorf("%w: bins must be >= 1, got %d", types.ErrInvalidParameter, bins)
	}
	if len(records) == 0 {
		return nil, types.ErrEmptyDataset
	}

	counts := make([]float64, len(records))
	var sum float64
	for i, rec := range records {
		counts[i] = float64(rec.WordCount)
		sum += counts[i]
	}
	sort.Float64s(counts)

	return &WordCountSummary{
		TotalCount: len(records),
		Mean:       sum / float64(len(records)),
		Min:        int(counts[0]),
		Max:        int(counts[len(counts)-1]),
		Median:     quantile(counts, 0.50),
		P25:        quantile(counts, 0.25),
		P75:        quantile(counts, 0.75),
		Histogram:  histogram(counts, bins),
	}, nil
}

// histogram buckets ascending-sorted values into equal-width bins over
// [min, max]. A degenerate range (min == max) collapses to a single bucket
// holding every record.
func histogram(sorted []float64, bins int) Histogram {
	lo := sorted[0]
	hi := sorted[len(sorted)-1]

	if lo == hi {
		return Histogram{
			Edges:  []float64{lo, hi},
			Counts: []int{len(sorted)},
		}
	}

	width := (hi - lo) / float64(bins)
	edges := make([]float64, bins+1)
	for i := range edges {
		edges[i] = lo + width*float64(i)
	}
	edges[bins] = hi // exact, not accumulated float steps

	counts := make([]int, bins)
	for _, v := range sorted {
		idx := int((v - lo) / width)
		if idx >= bins {
			idx = bins - 1 // values equal to max land in the last bucket
		}
		counts[idx]++
	}

	return Histogram{Edges: edges, Counts: counts}
}
