package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/maplewav/newslens/internal/config"
	"github.com/maplewav/newslens/internal/extract"
	"github.com/maplewav/newslens/internal/fetcher"
	"github.com/maplewav/newslens/internal/sources"
	"github.com/maplewav/newslens/internal/textstat"
)

var (
	scrapeMinLength int
	scrapeRules     string
	scrapeTimeout   string
	scrapeShowText  bool
)

// scrapeCmd creates the "scrape" subcommand.
func scrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape [url...]",
		Short: "Extract and count one or more article pages",
		Long: `Fetch the given article URLs, extract the body text using the per-outlet
rules, and print the word count for each page. Useful for checking what the
fulltext stage of a harvest would produce for a specific article.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runScrape,
	}

	cmd.Flags().IntVar(&scrapeMinLength, "min-length", 0, "minimum extracted text length in runes")
	cmd.Flags().StringVar(&scrapeRules, "rules", "", "extraction rules file (yaml)")
	cmd.Flags().StringVar(&scrapeTimeout, "timeout", "", "per-request timeout")
	cmd.Flags().BoolVar(&scrapeShowText, "text", false, "print the extracted text")

	return cmd
}

// runScrape executes the scrape command.
func runScrape(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if scrapeMinLength > 0 {
		cfg.Extract.MinTextLength = scrapeMinLength
	}
	if scrapeRules != "" {
		cfg.Extract.RulesFile = scrapeRules
	}
	if scrapeTimeout != "" {
		d, err := time.ParseDuration(scrapeTimeout)
		if err == nil {
			cfg.Fetcher.Timeout = d
		}
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	for _, rawURL := range args {
		if err := config.ValidateURL(rawURL); err != nil {
			return fmt.Errorf("invalid URL %q: %w", rawURL, err)
		}
	}

	logger := setupLogger(&cfg.Logging)

	registry := sources.NewRegistry(logger)
	if cfg.Extract.RulesFile != "" {
		if err := registry.LoadFile(cfg.Extract.RulesFile); err != nil {
			return fmt.Errorf("load extraction rules: %w", err)
		}
	}

	httpFetcher, err := fetcher.NewHTTPFetcher(&cfg.Fetcher, logger)
	if err != nil {
		return fmt.Errorf("create fetcher: %w", err)
	}
	bodyFetcher := fetcher.NewRetrying(httpFetcher, cfg.Fetcher.MaxRetries, cfg.Fetcher.RetryDelay, logger)
	defer bodyFetcher.Close()

	extractor := extract.New(registry, cfg.Extract.MinTextLength, logger)
	detector := textstat.NewDetector()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	var failed int
	for _, rawURL := range args {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := scrapeOne(ctx, bodyFetcher, extractor, detector, rawURL); err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			logger.Error("scrape failed", "url", rawURL, "error", err)
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d pages failed", failed, len(args))
	}
	return nil
}

func scrapeOne(ctx context.Context, f fetcher.Fetcher, e *extract.Extractor, d *textstat.Detector, rawURL string) error {
	resp, err := f.Fetch(ctx, rawURL)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	result, err := e.Extract(rawURL, resp.Body, resp.ContentType())
	if err != nil {
		return err
	}

	words := textstat.Count(result.Text)
	lang := d.Detect(result.Text)

	fmt.Printf("🔍 %s\n", rawURL)
	fmt.Printf("   Title:   %s\n", result.Title)
	fmt.Printf("   Rule:    %s (%s)\n", result.RuleName, result.Method)
	fmt.Printf("   Lang:    %s\n", lang)
	fmt.Printf("   Words:   %d\n", words)
	fmt.Printf("   Fetched: %d bytes in %s\n\n", len(resp.Body), resp.Duration.Round(time.Millisecond))

	if scrapeShowText {
		fmt.Println(result.Text)
		fmt.Println()
	}
	return nil
}
