package stats

import (
	"fmt"
	"sort"

	"github.com/maplewav/newslens/internal/types"
)

// SourceCount is one source label with its occurrence count.
type SourceCount struct {
	Source string `json:"source" yaml:"source"`
	Count  int    `json:"count"  yaml:"count"`
}

// CumulativeShare is the percentage of all records covered by the top K
// sources, rounded half away from zero to one decimal.
type CumulativeShare struct {
	K     int     `json:"k"     yaml:"k"`
	Share float64 `json:"share" yaml:"share"`
}

// SourceSummary holds the source distribution of a dataset. Counts preserves
// first-seen order; TopN ranks by count descending with ties broken by
// first-seen order, so output is deterministic for a given record sequence.
type SourceSummary struct {
	TotalRecords     int               `json:"total_records"     yaml:"total_records"`
	UniqueSources    int               `json:"unique_sources"    yaml:"unique_sources"`
	SingletonCount   int               `json:"singleton_count"   yaml:"singleton_count"`
	Counts           []SourceCount     `json:"counts"            yaml:"counts"`
	TopN             []SourceCount     `json:"top_n"             yaml:"top_n"`
	CumulativeShares []CumulativeShare `json:"cumulative_shares" yaml:"cumulative_shares"`
}

// Sources computes the source distribution of records: per-label frequencies,
// unique and singleton counts, the topN ranking, and the cumulative coverage
// share for each requested k. Empty source labels count under the canonical
// "unknown" label, so every record contributes to exactly one count and the
// share at k = UniqueSources is 100.0. A k beyond UniqueSources clamps.
// Fails with ErrInvalidParameter for topN < 1 or any k < 1, and with
// ErrEmptyDataset for an empty record slice.
func Sources(records []types.Article, topN int, cumulativeKs []int) (*SourceSummary, error) {
	if topN < 1 {
		return nil, fmt.Errorf("%w: topN must be >= 1, got %d", types.ErrInvalidParameter, topN)
	}
	for _, k := range cumulativeKs {
		if k < 1 {
			return nil, fmt.Errorf("%w: cumulative k must be >= 1, got %d", types.ErrInvalidParameter, k)
		}
	}
	if len(records) == 0 {
		return nil, types.ErrEmptyDataset
	}

	// Frequencies accumulate into a slice in first-seen order; the index map
	// is lookup only, so map iteration order never reaches the output.
	index := make(map[string]int, 64)
	counts := make([]SourceCount, 0, 64)
	for _, rec := range records {
		label := types.NormalizeSource(rec.Source)
		i, ok := index[label]
		if !ok {
			i = len(counts)
			index[label] = i
			counts = append(counts, SourceCount{Source: label})
		}
		counts[i].Count++
	}

	singletons := 0
	for _, c := range counts {
		if c.Count == 1 {
			singletons++
		}
	}

	ranked := make([]SourceCount, len(counts))
	copy(ranked, counts)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})

	n := topN
	if n > len(ranked) {
		n = len(ranked)
	}

	total := len(records)
	shares := make([]CumulativeShare, 0, len(cumulativeKs))
	for _, k := range cumulativeKs {
		top := k
		if top > len(ranked) {
			top = len(ranked)
		}
		covered := 0
		for _, c := range ranked[:top] {
			covered += c.Count
		}
		shares = append(shares, CumulativeShare{
			K:     k,
			Share: round1(float64(covered) / float64(total) * 100),
		})
	}

	return &SourceSummary{
		TotalRecords:     total,
		UniqueSources:    len(counts),
		SingletonCount:   singletons,
		Counts:           counts,
		TopN:             ranked[:n:n],
		CumulativeShares: shares,
	}, nil
}
