package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/maplewav/newslens/internal/config"
)

var (
	cfgFile string
	verbose bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "newslens",
		Short: "NewsLens — regional news harvester and dataset analyzer",
		Long: `NewsLens harvests regional news metadata from the TianAPI area news feed,
enriches it with full-text word counts, and analyzes the resulting datasets.

Features:
  • Paged metadata harvest with a concurrent worker pool
  • Per-outlet full-text extraction rules with a readability fallback
  • CJK-aware word counting and language detection
  • URL dedup across runs (in-memory or persistent)
  • CSV, JSON, JSONL, MongoDB export
  • Word-count and source-distribution reports (JSON, YAML)`,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(harvestCmd())
	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(scrapeCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("NewsLens %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			fmt.Printf("API:\n")
			fmt.Printf("  Key:               %s\n", maskKey(cfg.API.Key))
			fmt.Printf("  Base URL:          %s\n", cfg.API.BaseURL)
			fmt.Printf("  Area:              %s\n", cfg.API.Area)
			fmt.Printf("  Pages:             %d\n", cfg.API.Pages)
			fmt.Printf("  Articles per page: %d\n", cfg.API.Num)
			fmt.Printf("  Timeout:           %s\n", cfg.API.Timeout)
			fmt.Printf("\nHarvest:\n")
			fmt.Printf("  Workers:           %d\n", cfg.Harvest.Workers)
			fmt.Printf("  Politeness Delay:  %s\n", cfg.Harvest.Delay)
			fmt.Printf("  Fulltext:          %v\n", cfg.Harvest.Fulltext)
			fmt.Printf("  Dedup Path:        %s\n", orMemory(cfg.Harvest.DedupPath))
			fmt.Printf("\nFetcher:\n")
			fmt.Printf("  Timeout:           %s\n", cfg.Fetcher.Timeout)
			fmt.Printf("  Max Retries:       %d\n", cfg.Fetcher.MaxRetries)
			fmt.Printf("  Follow Redirects:  %v\n", cfg.Fetcher.FollowRedirects)
			fmt.Printf("  Max Body Size:     %d bytes\n", cfg.Fetcher.MaxBodySize)
			fmt.Printf("  User Agents:       %d configured\n", len(cfg.Fetcher.UserAgents))
			fmt.Printf("\nExtract:\n")
			fmt.Printf("  Rules File:        %s\n", orNone(cfg.Extract.RulesFile))
			fmt.Printf("  Min Text Length:   %d runes\n", cfg.Extract.MinTextLength)
			fmt.Printf("\nAnalyze:\n")
			fmt.Printf("  Top N Sources:     %d\n", cfg.Analyze.TopN)
			fmt.Printf("  Cumulative Ks:     %v\n", cfg.Analyze.CumulativeKs)
			fmt.Printf("  Histogram Bins:    %d\n", cfg.Analyze.Bins)
			fmt.Printf("\nStorage:\n")
			fmt.Printf("  Type:              %s\n", cfg.Storage.Type)
			fmt.Printf("  Output Path:       %s\n", cfg.Storage.OutputPath)
			fmt.Printf("  Batch Size:        %d\n", cfg.Storage.BatchSize)
			return nil
		},
	}
	return cmd
}

// setupLogger creates a structured logger from the logging config.
// The verbose flag wins over the configured level.
func setupLogger(cfg *config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// maskKey hides the API key; it never appears in output or logs.
func maskKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	return "(set, hidden)"
}

func orMemory(path string) string {
	if path == "" {
		return "(in-memory)"
	}
	return path
}

func orNone(s string) string {
	if s == "" {
		return "(builtin rules only)"
	}
	return s
}
