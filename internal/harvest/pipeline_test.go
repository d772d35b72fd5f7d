package harvest

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"testing"

	"github.com/maplewav/newslens/internal/dedup"
	"github.com/maplewav/newslens/internal/extract"
	"github.com/maplewav/newslens/internal/fetcher"
	"github.com/maplewav/newslens/internal/sources"
	"github.com/maplewav/newslens/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
	Level: slog.LevelError,
}))

type fakeDetector struct {
	lang string
}

func (d fakeDetector) Detect(text string) string {
	if text == "" {
		return ""
	}
	return d.lang
}

// pageFetcher serves a fixed page body for every URL.
type pageFetcher struct {
	body   string
	status int
	err    error
	calls  int
}

func (f *pageFetcher) Fetch(ctx context.Context, url string) (*fetcher.Response, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	status := f.status
	if status == 0 {
		status = 200
	}
	return &fetcher.Response{
		URL:        url,
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"text/html; charset=utf-8"}},
		Body:       []byte(f.body),
	}, nil
}

func (f *pageFetcher) Close() error { return nil }
func (f *pageFetcher) Type() string { return "fake" }

// --- Pipeline Tests ---

func TestPipelineRunsProcessorsInOrder(t *testing.T) {
	p := NewPipeline(testLogger)
	p.Use(&TrimProcessor{})
	p.Use(&SourceProcessor{})

	article := &types.Article{Title: "  标题  ", Source: "   "}
	got, err := p.Process(context.Background(), article)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Title != "标题" {
		t.Errorf("expected trimmed title, got %q", got.Title)
	}
	if got.Source != types.UnknownSource {
		t.Errorf("expected unknown source, got %q", got.Source)
	}
	if p.Len() != 2 {
		t.Errorf("expected 2 processors, got %d", p.Len())
	}
}

type dropAll struct{}

func (dropAll) Name() string { return "drop_all" }
func (dropAll) Process(ctx context.Context, a *types.Article) (*types.Article, error) {
	return nil, nil
}

func TestPipelineDropStopsChain(t *testing.T) {
	var reached bool
	p := NewPipeline(testLogger)
	p.Use(dropAll{})
	p.Use(processorFunc(func(a *types.Article) (*types.Article, error) {
		reached = true
		return a, nil
	}))

	got, err := p.Process(context.Background(), &types.Article{URL: "http://x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Error("expected dropped article to be nil")
	}
	if reached {
		t.Error("processors after a drop must not run")
	}
}

type processorFunc func(*types.Article) (*types.Article, error)

func (processorFunc) Name() string { return "func" }
func (f processorFunc) Process(ctx context.Context, a *types.Article) (*types.Article, error) {
	return f(a)
}

func TestPipelineWrapsErrors(t *testing.T) {
	sentinel := errors.New("boom")
	p := NewPipeline(testLogger)
	p.Use(processorFunc(func(a *types.Article) (*types.Article, error) {
		return nil, sentinel
	}))

	_, err := p.Process(context.Background(), &types.Article{URL: "http://x"})
	if err == nil {
		t.Fatal("expected error")
	}

	var pipeErr *types.PipelineError
	if !errors.As(err, &pipeErr) {
		t.Fatalf("expected PipelineError, got %T", err)
	}
	if pipeErr.Stage != "func" {
		t.Errorf("expected stage func, got %q", pipeErr.Stage)
	}
	if pipeErr.URL != "http://x" {
		t.Errorf("expected url in error, got %q", pipeErr.URL)
	}
	if !errors.Is(err, sentinel) {
		t.Error("expected wrapped error to unwrap to the cause")
	}
}

// --- Processor Tests ---

func TestDedupProcessorDropsRepeats(t *testing.T) {
	p := &DedupProcessor{Store: dedup.NewMemory()}

	first := &types.Article{URL: "https://news.southcn.com/a1.html"}
	got, err := p.Process(context.Background(), first)
	if err != nil || got == nil {
		t.Fatalf("expected first occurrence to pass, got (%v, %v)", got, err)
	}

	second := &types.Article{URL: "https://News.SouthCN.com/a1.html"}
	got, err = p.Process(context.Background(), second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Error("expected canonical duplicate to be dropped")
	}
}

func TestFulltextProcessorCountsBody(t *testing.T) {
	// 6 repeats x 35 Han characters; the three punctuation marks per
	// sentence do not count as words.
	body := strings.Repeat("广东经济持续回升向好，先进制造业投资保持两位数增长，外贸进出口总额再创新高。", 6)
	page := `<html><body><div class="left_zw"><p>` + body + `</p></div></body></html>`

	f := &pageFetcher{body: page}
	extractor := extract.New(sources.NewRegistry(testLogger), 0, testLogger)
	stats := &Stats{}
	p := NewFulltextProcessor(f, extractor, fakeDetector{lang: "zh"}, stats, testLogger)

	article := &types.Article{
		URL:         "https://www.chinanews.com.cn/gd/1.shtml",
		Description: "短描述",
	}
	got, err := p.Process(context.Background(), article)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.WordCount != 210 {
		t.Errorf("expected word count 210 from body, got %d", got.WordCount)
	}
	if got.Lang != "zh" {
		t.Errorf("expected lang zh, got %q", got.Lang)
	}
	if stats.Fetched.Load() != 1 || stats.Extracted.Load() != 1 {
		t.Errorf("expected fetched=1 extracted=1, got %d %d", stats.Fetched.Load(), stats.Extracted.Load())
	}
}

func TestFulltextProcessorKeepsArticleOnFetchError(t *testing.T) {
	f := &pageFetcher{err: &types.FetchError{URL: "http://x", Err: errors.New("down"), Retryable: true}}
	extractor := extract.New(sources.NewRegistry(testLogger), 0, testLogger)
	p := NewFulltextProcessor(f, extractor, fakeDetector{lang: "zh"}, &Stats{}, testLogger)

	article := &types.Article{URL: "https://news.southcn.com/a1.html", Description: "desc"}
	got, err := p.Process(context.Background(), article)
	if err != nil {
		t.Fatalf("fetch failure must not fail the article: %v", err)
	}
	if got == nil {
		t.Fatal("expected article to survive a fetch failure")
	}
	if got.WordCount != 0 {
		t.Errorf("expected word count untouched, got %d", got.WordCount)
	}
}

func TestFulltextProcessorKeepsArticleOnHTTPError(t *testing.T) {
	f := &pageFetcher{body: "not found", status: 404}
	extractor := extract.New(sources.NewRegistry(testLogger), 0, testLogger)
	stats := &Stats{}
	p := NewFulltextProcessor(f, extractor, fakeDetector{lang: "zh"}, stats, testLogger)

	got, err := p.Process(context.Background(), &types.Article{URL: "https://news.southcn.com/gone.html"})
	if err != nil || got == nil {
		t.Fatalf("expected article kept, got (%v, %v)", got, err)
	}
	if stats.Fetched.Load() != 0 {
		t.Error("non-2xx response must not count as fetched")
	}
}

func TestFulltextProcessorSkipsEmptyURL(t *testing.T) {
	f := &pageFetcher{body: "irrelevant"}
	extractor := extract.New(sources.NewRegistry(testLogger), 0, testLogger)
	p := NewFulltextProcessor(f, extractor, fakeDetector{lang: "zh"}, &Stats{}, testLogger)

	got, err := p.Process(context.Background(), &types.Article{Description: "仅有描述"})
	if err != nil || got == nil {
		t.Fatalf("expected article kept, got (%v, %v)", got, err)
	}
	if f.calls != 0 {
		t.Errorf("expected no fetch for empty url, got %d calls", f.calls)
	}
}

func TestWordCountProcessorFallsBackToDescription(t *testing.T) {
	p := &WordCountProcessor{Detector: fakeDetector{lang: "en"}}

	article := &types.Article{Description: "quarterly results beat expectations"}
	got, err := p.Process(context.Background(), article)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.WordCount != 4 {
		t.Errorf("expected word count 4 from description, got %d", got.WordCount)
	}
	if got.Lang != "en" {
		t.Errorf("expected lang en, got %q", got.Lang)
	}
}

func TestWordCountProcessorPreservesExistingCount(t *testing.T) {
	p := &WordCountProcessor{Detector: fakeDetector{lang: "zh"}}

	article := &types.Article{Description: "一二三", WordCount: 500, Lang: "zh"}
	got, err := p.Process(context.Background(), article)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.WordCount != 500 {
		t.Errorf("expected fulltext count preserved, got %d", got.WordCount)
	}
}
