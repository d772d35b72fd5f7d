package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/maplewav/newslens/internal/config"
	"github.com/maplewav/newslens/internal/dataset"
	"github.com/maplewav/newslens/internal/stats"
)

var (
	analyzeTop       int
	analyzeKs        string
	analyzeBins      int
	analyzeDelimiter string
	analyzeFormat    string
	analyzeOutput    string
)

// analyzeCmd creates the "analyze" subcommand.
func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [dataset.csv]",
		Short: "Analyze a harvested dataset",
		Long: `Load a harvested CSV dataset and report word-count statistics (quantiles,
histogram) and the source distribution (top outlets, cumulative coverage).

Malformed rows are skipped and counted, never silently dropped. The report
is written as JSON by default; use --format yaml for YAML.`,
		Args: cobra.ExactArgs(1),
		RunE: runAnalyze,
	}

	cmd.Flags().IntVarP(&analyzeTop, "top", "t", 0, "number of sources in the ranking")
	cmd.Flags().StringVar(&analyzeKs, "cumulative", "", "comma-separated k values for cumulative coverage (e.g. 1,5,10)")
	cmd.Flags().IntVarP(&analyzeBins, "bins", "b", 0, "word-count histogram bucket count")
	cmd.Flags().StringVar(&analyzeDelimiter, "delimiter", "", "CSV field delimiter")
	cmd.Flags().StringVarP(&analyzeFormat, "format", "f", "", "report format: json, yaml")
	cmd.Flags().StringVarP(&analyzeOutput, "output", "o", "", "report file path (default stdout)")

	return cmd
}

// runAnalyze executes the analyze command.
func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyAnalyzeOverrides(cfg)
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	format := strings.ToLower(analyzeFormat)
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "yaml" {
		return fmt.Errorf("unknown report format %q (want json or yaml)", analyzeFormat)
	}

	logger := setupLogger(&cfg.Logging)

	delim := ','
	if cfg.Analyze.Delimiter != "" {
		delim = rune(cfg.Analyze.Delimiter[0])
	}

	loader := dataset.NewLoader(delim, logger)
	res, err := loader.LoadFile(args[0])
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}

	report, err := stats.Compute(res.Articles, stats.Options{
		TopN:         cfg.Analyze.TopN,
		CumulativeKs: cfg.Analyze.CumulativeKs,
		Bins:         cfg.Analyze.Bins,
	})
	if err != nil {
		return fmt.Errorf("analyze %s: %w", args[0], err)
	}
	report.SkippedRecords = res.Skipped

	var out []byte
	switch format {
	case "yaml":
		out, err = yaml.Marshal(report)
	default:
		out, err = json.MarshalIndent(report, "", "  ")
		out = append(out, '\n')
	}
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	if analyzeOutput == "" {
		_, err = os.Stdout.Write(out)
		return err
	}

	if err := os.WriteFile(analyzeOutput, out, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	fmt.Printf("✅ Report written to %s\n", analyzeOutput)
	fmt.Printf("   Records:   %d analyzed, %d skipped\n", report.WordCounts.TotalCount, res.Skipped)
	fmt.Printf("   Sources:   %d unique\n", report.Sources.UniqueSources)
	fmt.Printf("   Words:     median %.1f (p25 %.1f, p75 %.1f)\n",
		report.WordCounts.Median, report.WordCounts.P25, report.WordCounts.P75)
	return nil
}

// applyAnalyzeOverrides applies command-line flag values to the config.
func applyAnalyzeOverrides(cfg *config.Config) {
	if analyzeTop > 0 {
		cfg.Analyze.TopN = analyzeTop
	}
	if analyzeBins > 0 {
		cfg.Analyze.Bins = analyzeBins
	}
	if analyzeDelimiter != "" {
		cfg.Analyze.Delimiter = analyzeDelimiter
	}
	if analyzeKs != "" {
		var ks []int
		for _, part := range strings.Split(analyzeKs, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			k, err := strconv.Atoi(part)
			if err != nil {
				continue
			}
			ks = append(ks, k)
		}
		if len(ks) > 0 {
			cfg.Analyze.CumulativeKs = ks
		}
	}
}
