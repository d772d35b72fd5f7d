package harvest

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/maplewav/newslens/internal/config"
	"github.com/maplewav/newslens/internal/newsapi"
	"github.com/maplewav/newslens/internal/storage"
	"github.com/maplewav/newslens/internal/types"
)

// MetaSource lists pages of article metadata.
type MetaSource interface {
	Page(ctx context.Context, q newsapi.PageQuery) ([]newsapi.ArticleMeta, error)
}

// Harvester sweeps API pages and fans articles out to a worker pool that
// runs the processing pipeline and hands results to storage in batches.
type Harvester struct {
	cfg      *config.Config
	source   MetaSource
	pipeline *Pipeline
	storage  storage.Storage
	stats    *Stats
	logger   *slog.Logger
}

// New creates a Harvester. The storage backend stays owned by the caller;
// Run stores batches but never closes it.
func New(cfg *config.Config, source MetaSource, pipe *Pipeline, store storage.Storage, logger *slog.Logger) *Harvester {
	return &Harvester{
		cfg:      cfg,
		source:   source,
		pipeline: pipe,
		storage:  store,
		stats:    &Stats{},
		logger:   logger.With("component", "harvester"),
	}
}

// Stats returns the run counters.
func (h *Harvester) Stats() *Stats {
	return h.stats
}

// Run executes one harvest: pages 1..N are fetched sequentially, articles
// are processed concurrently, and whatever was stored before a cancellation
// stays stored.
func (h *Harvester) Run(ctx context.Context) error {
	h.stats.StartTime = time.Now()
	h.logger.Info("harvest starting",
		"area", h.cfg.API.Area,
		"pages", h.cfg.API.Pages,
		"workers", h.cfg.Harvest.Workers,
		"fulltext", h.cfg.Harvest.Fulltext,
	)

	workers := h.cfg.Harvest.Workers
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan newsapi.ArticleMeta, workers*2)
	results := make(chan types.Article, workers*2)

	// One shared ticker paces all workers, so the politeness delay bounds
	// the global fetch rate. Without fulltext the workers never touch the
	// network and need no pacing.
	var ticker *time.Ticker
	if h.cfg.Harvest.Delay > 0 && h.cfg.Harvest.Fulltext {
		ticker = time.NewTicker(h.cfg.Harvest.Delay)
		defer ticker.Stop()
	}

	var g errgroup.Group
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			return h.worker(ctx, ticker, jobs, results)
		})
	}

	collectorDone := make(chan struct{})
	go func() {
		defer close(collectorDone)
		h.collect(results)
	}()

	h.sweep(ctx, jobs)
	close(jobs)

	werr := g.Wait()
	close(results)
	<-collectorDone

	h.logger.Info("harvest finished", "stats", h.stats.Snapshot())

	if werr != nil && !errors.Is(werr, context.Canceled) && !errors.Is(werr, context.DeadlineExceeded) {
		return werr
	}
	return ctx.Err()
}

// sweep fetches metadata pages sequentially and feeds the job channel.
func (h *Harvester) sweep(ctx context.Context, jobs chan<- newsapi.ArticleMeta) {
	for page := 1; page <= h.cfg.API.Pages; page++ {
		if ctx.Err() != nil {
			return
		}

		metas, err := h.source.Page(ctx, newsapi.PageQuery{
			Area:    h.cfg.API.Area,
			Page:    page,
			Num:     h.cfg.API.Num,
			Keyword: h.cfg.API.Keyword,
		})
		if err != nil {
			h.stats.Failed.Add(1)
			h.logger.Error("page fetch failed", "page", page, "error", err)
			if errors.Is(err, types.ErrAPIFailure) || errors.Is(err, types.ErrInvalidParameter) {
				// The API rejected the request; later pages would fail the same way.
				return
			}
			continue
		}

		h.stats.Pages.Add(1)
		h.stats.Metas.Add(int64(len(metas)))
		h.logger.Info("page fetched", "page", page, "articles", len(metas))

		if len(metas) == 0 {
			// Past the last page of results.
			return
		}

		for _, meta := range metas {
			select {
			case jobs <- meta:
			case <-ctx.Done():
				return
			}
		}
	}
}

// worker drains the job channel, running each article through the pipeline.
func (h *Harvester) worker(ctx context.Context, ticker *time.Ticker, jobs <-chan newsapi.ArticleMeta, results chan<- types.Article) error {
	for meta := range jobs {
		if err := h.politeWait(ctx, ticker); err != nil {
			return err
		}

		article := meta.Article()
		processed, err := h.pipeline.Process(ctx, &article)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			h.stats.Failed.Add(1)
			h.logger.Warn("article failed", "url", meta.URL, "error", err)
			continue
		}
		if processed == nil {
			h.stats.Dropped.Add(1)
			continue
		}

		results <- *processed
	}
	return nil
}

// collect batches processed articles into storage writes.
func (h *Harvester) collect(results <-chan types.Article) {
	batchSize := h.cfg.Storage.BatchSize
	if batchSize < 1 {
		batchSize = 1
	}
	batch := make([]types.Article, 0, batchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := h.storage.Store(batch); err != nil {
			h.stats.Failed.Add(int64(len(batch)))
			h.logger.Error("storage error", "error", err, "batch_size", len(batch))
		} else {
			h.stats.Stored.Add(int64(len(batch)))
		}
		batch = batch[:0]
	}

	for article := range results {
		batch = append(batch, article)
		if len(batch) >= batchSize {
			flush()
		}
	}
	flush()
}

func (h *Harvester) politeWait(ctx context.Context, ticker *time.Ticker) error {
	if ticker == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-ticker.C:
		return nil
	}
}
