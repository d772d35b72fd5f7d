package harvest

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/maplewav/newslens/internal/dedup"
	"github.com/maplewav/newslens/internal/extract"
	"github.com/maplewav/newslens/internal/fetcher"
	"github.com/maplewav/newslens/internal/textstat"
	"github.com/maplewav/newslens/internal/types"
)

// Processor transforms an article on its way to storage.
// Return nil to drop the article from the pipeline.
type Processor interface {
	// Name returns the processor's identifier.
	Name() string

	// Process transforms an article. Return nil to drop it.
	Process(ctx context.Context, article *types.Article) (*types.Article, error)
}

// Pipeline chains article processors together.
type Pipeline struct {
	processors []Processor
	logger     *slog.Logger
}

// NewPipeline creates an empty Pipeline.
func NewPipeline(logger *slog.Logger) *Pipeline {
	return &Pipeline{
		logger: logger.With("component", "pipeline"),
	}
}

// Use adds a processor to the pipeline chain.
func (p *Pipeline) Use(proc Processor) {
	p.processors = append(p.processors, proc)
	p.logger.Debug("processor added", "name", proc.Name(), "position", len(p.processors))
}

// Process runs the article through all processors in order.
func (p *Pipeline) Process(ctx context.Context, article *types.Article) (*types.Article, error) {
	current := article

	for _, proc := range p.processors {
		result, err := proc.Process(ctx, current)
		if err != nil {
			return nil, &types.PipelineError{
				Stage: proc.Name(),
				URL:   current.URL,
				Err:   err,
			}
		}
		if result == nil {
			// Article dropped by processor
			p.logger.Debug("article dropped", "stage", proc.Name(), "url", article.URL)
			return nil, nil
		}
		current = result
	}

	return current, nil
}

// Len returns the number of processors in the chain.
func (p *Pipeline) Len() int {
	return len(p.processors)
}

// --- Built-in Processors ---

// TrimProcessor trims whitespace from all string fields.
type TrimProcessor struct{}

func (p *TrimProcessor) Name() string { return "trim" }

func (p *TrimProcessor) Process(ctx context.Context, a *types.Article) (*types.Article, error) {
	a.ID = strings.TrimSpace(a.ID)
	a.Title = strings.TrimSpace(a.Title)
	a.Source = strings.TrimSpace(a.Source)
	a.URL = strings.TrimSpace(a.URL)
	a.PublishedAt = strings.TrimSpace(a.PublishedAt)
	a.Description = strings.TrimSpace(a.Description)
	return a, nil
}

// SourceProcessor maps blank source labels to the unknown bucket.
type SourceProcessor struct{}

func (p *SourceProcessor) Name() string { return "source" }

func (p *SourceProcessor) Process(ctx context.Context, a *types.Article) (*types.Article, error) {
	a.Source = types.NormalizeSource(a.Source)
	return a, nil
}

// DedupProcessor drops articles whose URL was harvested before and marks
// fresh URLs in the store.
type DedupProcessor struct {
	Store dedup.Store
}

func (p *DedupProcessor) Name() string { return "dedup" }

func (p *DedupProcessor) Process(ctx context.Context, a *types.Article) (*types.Article, error) {
	if a.URL == "" {
		return a, nil
	}

	seen, err := p.Store.Seen(a.URL)
	if err != nil {
		return nil, err
	}
	if seen {
		return nil, nil // Drop duplicate
	}
	if err := p.Store.Mark(a.URL); err != nil {
		return nil, err
	}
	return a, nil
}

// BodyExtractor pulls the article text out of a fetched page.
type BodyExtractor interface {
	Extract(pageURL string, body []byte, contentType string) (*extract.Result, error)
}

// LangDetector tags text with a language code.
type LangDetector interface {
	Detect(text string) string
}

// FulltextProcessor fetches the article page and replaces the
// description-based word count with one computed from the full body.
// Fetch and extraction failures keep the article; the word count then
// falls back to the description.
type FulltextProcessor struct {
	fetcher   fetcher.Fetcher
	extractor BodyExtractor
	detector  LangDetector
	stats     *Stats
	logger    *slog.Logger
}

// NewFulltextProcessor wires the body fetch and extraction stage.
func NewFulltextProcessor(f fetcher.Fetcher, e BodyExtractor, d LangDetector, stats *Stats, logger *slog.Logger) *FulltextProcessor {
	return &FulltextProcessor{
		fetcher:   f,
		extractor: e,
		detector:  d,
		stats:     stats,
		logger:    logger.With("component", "fulltext"),
	}
}

func (p *FulltextProcessor) Name() string { return "fulltext" }

func (p *FulltextProcessor) Process(ctx context.Context, a *types.Article) (*types.Article, error) {
	if a.URL == "" {
		return a, nil
	}

	resp, err := p.fetcher.Fetch(ctx, a.URL)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		p.logger.Warn("body fetch failed, keeping metadata", "url", a.URL, "error", err)
		return a, nil
	}
	if !resp.OK() {
		p.logger.Warn("body fetch returned non-2xx, keeping metadata", "url", a.URL, "status", resp.StatusCode)
		return a, nil
	}
	p.stats.Fetched.Add(1)

	result, err := p.extractor.Extract(a.URL, resp.Body, resp.ContentType())
	if err != nil {
		p.logger.Warn("body extraction failed, keeping metadata", "url", a.URL, "error", err)
		return a, nil
	}
	p.stats.Extracted.Add(1)

	a.WordCount = textstat.Count(result.Text)
	if lang := p.detector.Detect(result.Text); lang != "" {
		a.Lang = lang
	}
	if a.Title == "" {
		a.Title = result.Title
	}
	return a, nil
}

// WordCountProcessor fills in a word count from the description for
// articles the fulltext stage did not cover, and tags the language.
type WordCountProcessor struct {
	Detector LangDetector
}

func (p *WordCountProcessor) Name() string { return "wordcount" }

func (p *WordCountProcessor) Process(ctx context.Context, a *types.Article) (*types.Article, error) {
	if a.WordCount == 0 {
		a.WordCount = textstat.Count(a.Description)
	}
	if a.Lang == "" && p.Detector != nil {
		text := a.Description
		if text == "" {
			text = a.Title
		}
		a.Lang = p.Detector.Detect(text)
	}
	return a, nil
}
