package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/maplewav/newslens/internal/config"
	"github.com/maplewav/newslens/internal/dedup"
	"github.com/maplewav/newslens/internal/extract"
	"github.com/maplewav/newslens/internal/fetcher"
	"github.com/maplewav/newslens/internal/harvest"
	"github.com/maplewav/newslens/internal/newsapi"
	"github.com/maplewav/newslens/internal/sources"
	"github.com/maplewav/newslens/internal/storage"
	"github.com/maplewav/newslens/internal/textstat"
)

var (
	harvestArea     string
	harvestPages    int
	harvestNum      int
	harvestKeyword  string
	harvestWorkers  int
	harvestDelay    string
	harvestFulltext bool
	harvestOutput   string
	harvestFormat   string
	harvestDedup    string
	harvestRules    string
)

// harvestCmd creates the "harvest" subcommand.
func harvestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "harvest",
		Short: "Harvest regional news into a dataset",
		Long: `Fetch pages of area news metadata from the API, enrich each article with a
full-text word count, and write the dataset to the configured storage backend.

The harvest is resumable: with a persistent dedup store, articles seen in
earlier runs are skipped. Interrupting with Ctrl-C keeps everything stored
so far.`,
		RunE: runHarvest,
	}

	cmd.Flags().StringVar(&harvestArea, "area", "", "area name to query (e.g. 广东)")
	cmd.Flags().IntVarP(&harvestPages, "pages", "p", 0, "number of metadata pages to sweep")
	cmd.Flags().IntVar(&harvestNum, "num", 0, "articles per page")
	cmd.Flags().StringVarP(&harvestKeyword, "keyword", "k", "", "keyword filter passed to the API")
	cmd.Flags().IntVarP(&harvestWorkers, "workers", "n", 0, "number of concurrent workers")
	cmd.Flags().StringVar(&harvestDelay, "delay", "", "politeness delay between body fetches")
	cmd.Flags().BoolVar(&harvestFulltext, "fulltext", true, "fetch article bodies for exact word counts")
	cmd.Flags().StringVarP(&harvestOutput, "output", "o", "", "output directory")
	cmd.Flags().StringVarP(&harvestFormat, "format", "f", "", "storage backend: csv, json, jsonl, mongodb")
	cmd.Flags().StringVar(&harvestDedup, "dedup", "", "dedup store path (empty = in-memory)")
	cmd.Flags().StringVar(&harvestRules, "rules", "", "extraction rules file (yaml)")

	return cmd
}

// runHarvest executes the harvest command.
func runHarvest(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyHarvestOverrides(cmd, cfg)
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := setupLogger(&cfg.Logging)
	logger.Info("starting harvest",
		"area", cfg.API.Area,
		"pages", cfg.API.Pages,
		"workers", cfg.Harvest.Workers,
		"fulltext", cfg.Harvest.Fulltext,
		"output", cfg.Storage.OutputPath,
		"format", cfg.Storage.Type,
	)

	client := newsapi.New(&cfg.API, logger)

	registry := sources.NewRegistry(logger)
	if cfg.Extract.RulesFile != "" {
		if err := registry.LoadFile(cfg.Extract.RulesFile); err != nil {
			return fmt.Errorf("load extraction rules: %w", err)
		}
	}

	dedupStore, err := dedup.Open(cfg.Harvest.DedupPath, logger)
	if err != nil {
		return fmt.Errorf("open dedup store: %w", err)
	}
	defer dedupStore.Close()

	store, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("create storage: %w", err)
	}

	detector := textstat.NewDetector()

	pipe := harvest.NewPipeline(logger)
	h := harvest.New(cfg, client, pipe, store, logger)

	pipe.Use(&harvest.TrimProcessor{})
	pipe.Use(&harvest.SourceProcessor{})
	pipe.Use(&harvest.DedupProcessor{Store: dedupStore})
	if cfg.Harvest.Fulltext {
		httpFetcher, err := fetcher.NewHTTPFetcher(&cfg.Fetcher, logger)
		if err != nil {
			return fmt.Errorf("create fetcher: %w", err)
		}
		bodyFetcher := fetcher.NewRetrying(httpFetcher, cfg.Fetcher.MaxRetries, cfg.Fetcher.RetryDelay, logger)
		defer bodyFetcher.Close()

		extractor := extract.New(registry, cfg.Extract.MinTextLength, logger)
		pipe.Use(harvest.NewFulltextProcessor(bodyFetcher, extractor, detector, h.Stats(), logger))
	}
	pipe.Use(&harvest.WordCountProcessor{Detector: detector})

	// Handle graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down...", "signal", sig)
		cancel()
	}()

	start := time.Now()
	runErr := h.Run(ctx)

	// The file backends write on Close; a close failure means lost output.
	if cerr := store.Close(); cerr != nil {
		logger.Error("storage close failed", "error", cerr)
		if runErr == nil {
			runErr = fmt.Errorf("close storage: %w", cerr)
		}
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}

	elapsed := time.Since(start)
	stats := h.Stats().Snapshot()

	logger.Info("harvest complete",
		"elapsed", elapsed,
		"pages", stats["pages"],
		"stored", stats["stored"],
		"dropped", stats["dropped"],
		"failed", stats["failed"],
	)

	fmt.Printf("\n✅ Harvest complete in %s\n", elapsed.Round(time.Millisecond))
	fmt.Printf("   Pages:     %v fetched, %v articles listed\n", stats["pages"], stats["metas"])
	fmt.Printf("   Fulltext:  %v bodies fetched, %v extracted\n", stats["fetched"], stats["extracted"])
	fmt.Printf("   Articles:  %v stored, %v dropped, %v failed\n", stats["stored"], stats["dropped"], stats["failed"])
	fmt.Printf("   Output:    %s (%s)\n", cfg.Storage.OutputPath, store.Name())

	if errors.Is(runErr, context.Canceled) {
		fmt.Println("\n💡 Interrupted — everything harvested so far is stored.")
		fmt.Println("   Re-run with --dedup <path> to skip already-seen articles next time.")
	}

	return nil
}

// applyHarvestOverrides applies command-line flag values to the config.
func applyHarvestOverrides(cmd *cobra.Command, cfg *config.Config) {
	if harvestArea != "" {
		cfg.API.Area = harvestArea
	}
	if harvestPages > 0 {
		cfg.API.Pages = harvestPages
	}
	if harvestNum > 0 {
		cfg.API.Num = harvestNum
	}
	if harvestKeyword != "" {
		cfg.API.Keyword = harvestKeyword
	}
	if harvestWorkers > 0 {
		cfg.Harvest.Workers = harvestWorkers
	}
	if harvestDelay != "" {
		d, err := time.ParseDuration(harvestDelay)
		if err == nil {
			cfg.Harvest.Delay = d
		}
	}
	if cmd.Flags().Changed("fulltext") {
		cfg.Harvest.Fulltext = harvestFulltext
	}
	if harvestOutput != "" {
		cfg.Storage.OutputPath = harvestOutput
	}
	if harvestFormat != "" {
		cfg.Storage.Type = strings.ToLower(harvestFormat)
	}
	if cmd.Flags().Changed("dedup") {
		cfg.Harvest.DedupPath = harvestDedup
	}
	if harvestRules != "" {
		cfg.Extract.RulesFile = harvestRules
	}
}
