package stats

import (
	"errors"
	"fmt"
	"math/rand"
	"reflect"
	"testing"

	"github.com/maplewav/newslens/internal/types"
)

func articlesFromSources(labels ...string) []types.Article {
	arts := make([]types.Article, len(labels))
	for i, l := range labels {
		arts[i] = types.Article{Source: l, WordCount: 100}
	}
	return arts
}

func repeatSources(label string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = label
	}
	return out
}

// newsroomFixture builds the 1657-record distribution from the original
// reports: A:96, B:40, C:40, D:36, and 1445 sources appearing once each.
// B appears before C so the 40-count tie has a defined first-seen order.
func newsroomFixture() []types.Article {
	var labels []string
	labels = append(labels, repeatSources("A", 96)...)
	labels = append(labels, repeatSources("B", 40)...)
	labels = append(labels, repeatSources("C", 40)...)
	labels = append(labels, repeatSources("D", 36)...)
	for i := 0; i < 1445; i++ {
		labels = append(labels, fmt.Sprintf("rare-%04d", i))
	}
	return articlesFromSources(labels...)
}

func TestSourcesNewsroomDistribution(t *testing.T) {
	s, err := Sources(newsroomFixture(), 4, []int{1, 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if s.TotalRecords != 1657 {
		t.Errorf("expected 1657 records, got %d", s.TotalRecords)
	}
	if s.UniqueSources != 1449 {
		t.Errorf("expected 1449 unique sources, got %d", s.UniqueSources)
	}
	if s.SingletonCount != 1445 {
		t.Errorf("expected 1445 singletons, got %d", s.SingletonCount)
	}

	want := []SourceCount{{"A", 96}, {"B", 40}, {"C", 40}, {"D", 36}}
	if !reflect.DeepEqual(s.TopN, want) {
		t.Errorf("expected top4 %v, got %v", want, s.TopN)
	}

	// 96/1657*100 = 5.7936 and 212/1657*100 = 12.7942, both rounded half
	// away from zero to one decimal.
	if s.CumulativeShares[0].Share != 5.8 {
		t.Errorf("expected share(1) 5.8, got %v", s.CumulativeShares[0].Share)
	}
	if s.CumulativeShares[1].Share != 12.8 {
		t.Errorf("expected share(4) 12.8, got %v", s.CumulativeShares[1].Share)
	}
}

func TestSourcesCountsMatchRecords(t *testing.T) {
	arts := articlesFromSources("x", "y", "x", "", "  ", "z", "x", "y")

	s, err := Sources(arts, 3, []int{1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sum := 0
	for _, c := range s.Counts {
		sum += c.Count
	}
	if sum != len(arts) {
		t.Errorf("expected counts to sum to %d, got %d", len(arts), sum)
	}
}

func TestSourcesUnknownLabelPolicy(t *testing.T) {
	// Empty and whitespace-only labels fold into the canonical "unknown"
	// label and count like any other source.
	arts := articlesFromSources("", "南方网", "   ", "南方网", "")

	s, err := Sources(arts, 2, []int{2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if s.UniqueSources != 2 {
		t.Fatalf("expected 2 unique sources, got %d", s.UniqueSources)
	}

	want := []SourceCount{{types.UnknownSource, 3}, {"南方网", 2}}
	if !reflect.DeepEqual(s.TopN, want) {
		t.Errorf("expected %v, got %v", want, s.TopN)
	}
	if s.CumulativeShares[0].Share != 100.0 {
		t.Errorf("expected share(2) 100.0, got %v", s.CumulativeShares[0].Share)
	}
}

func TestSourcesTieBreakFirstSeen(t *testing.T) {
	// beta and gamma both appear twice; beta was seen first and must rank
	// ahead. alpha outranks both on count.
	arts := articlesFromSources("beta", "alpha", "gamma", "alpha", "beta", "gamma", "alpha")

	s, err := Sources(arts, 3, []int{1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []SourceCount{{"alpha", 3}, {"beta", 2}, {"gamma", 2}}
	if !reflect.DeepEqual(s.TopN, want) {
		t.Errorf("expected %v, got %v", want, s.TopN)
	}
}

func TestSourcesSharesMonotonic(t *testing.T) {
	arts := newsroomFixture()
	ks := []int{1, 2, 3, 4, 10, 100, 1449}

	s, err := Sources(arts, 5, ks)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	prev := 0.0
	for _, cs := range s.CumulativeShares {
		if cs.Share < prev {
			t.Errorf("share(%d)=%v decreased below %v", cs.K, cs.Share, prev)
		}
		prev = cs.Share
	}

	last := s.CumulativeShares[len(s.CumulativeShares)-1]
	if last.Share != 100.0 {
		t.Errorf("expected share at k=unique to be 100.0, got %v", last.Share)
	}
}

func TestSourcesKBeyondUniqueClamps(t *testing.T) {
	arts := articlesFromSources("a", "b", "a")

	s, err := Sources(arts, 2, []int{50})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.CumulativeShares[0].K != 50 {
		t.Errorf("expected requested k preserved, got %d", s.CumulativeShares[0].K)
	}
	if s.CumulativeShares[0].Share != 100.0 {
		t.Errorf("expected clamped share 100.0, got %v", s.CumulativeShares[0].Share)
	}
}

func TestSourcesTopNBeyondUniqueClamps(t *testing.T) {
	arts := articlesFromSources("a", "b", "a")

	s, err := Sources(arts, 10, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.TopN) != 2 {
		t.Errorf("expected top list clamped to 2 sources, got %d", len(s.TopN))
	}
}

func TestSourcesInvalidParameters(t *testing.T) {
	arts := articlesFromSources("a", "b")

	if _, err := Sources(arts, 0, nil); !errors.Is(err, types.ErrInvalidParameter) {
		t.Errorf("topN=0: expected ErrInvalidParameter, got %v", err)
	}
	if _, err := Sources(arts, -3, nil); !errors.Is(err, types.ErrInvalidParameter) {
		t.Errorf("topN=-3: expected ErrInvalidParameter, got %v", err)
	}
	if _, err := Sources(arts, 5, []int{1, 0}); !errors.Is(err, types.ErrInvalidParameter) {
		t.Errorf("k=0: expected ErrInvalidParameter, got %v", err)
	}
}

func TestSourcesEmptyDataset(t *testing.T) {
	if _, err := Sources(nil, 5, []int{1}); !errors.Is(err, types.ErrEmptyDataset) {
		t.Fatalf("expected ErrEmptyDataset, got %v", err)
	}
}

func TestSourcesDeterministic(t *testing.T) {
	arts := newsroomFixture()

	first, err := Sources(arts, 10, []int{1, 5, 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Sources(arts, 10, []int{1, 5, 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("recomputation on unchanged dataset differs")
	}
}

func BenchmarkSources(b *testing.B) {
	rng := rand.New(rand.NewSource(2))
	labels := make([]string, 10000)
	for i := range labels {
		labels[i] = fmt.Sprintf("outlet-%02d", rng.Intn(50))
	}
	arts := articlesFromSources(labels...)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Sources(arts, 10, []int{1, 5, 10})
	}
}
