package config

import (
	"fmt"
	"net/url"

	"github.com/maplewav/newslens/internal/types"
)

// Validate checks the configuration for invalid values. Out-of-range settings
// are rejected here, before any component starts; there are no silent
// defaults for bad input.
func Validate(cfg *Config) error {
	if cfg.API.Pages < 1 {
		return fmt.Errorf("%w: api.pages must be >= 1, got %d", types.ErrInvalidParameter, cfg.API.Pages)
	}
	if cfg.API.Num < 1 || cfg.API.Num > 50 {
		return fmt.Errorf("%w: api.num must be 1-50, got %d", types.ErrInvalidParameter, cfg.API.Num)
	}
	if cfg.API.Timeout <= 0 {
		return fmt.Errorf("%w: api.timeout must be > 0", types.ErrInvalidParameter)
	}
	if cfg.API.Retries < 0 {
		return fmt.Errorf("%w: api.retries must be >= 0, got %d", types.ErrInvalidParameter, cfg.API.Retries)
	}

	if cfg.Harvest.Workers < 1 {
		return fmt.Errorf("%w: harvest.workers must be >= 1, got %d", types.ErrInvalidParameter, cfg.Harvest.Workers)
	}
	if cfg.Harvest.Workers > 64 {
		return fmt.Errorf("%w: harvest.workers must be <= 64, got %d", types.ErrInvalidParameter, cfg.Harvest.Workers)
	}
	if cfg.Harvest.Delay < 0 {
		return fmt.Errorf("%w: harvest.delay must be >= 0", types.ErrInvalidParameter)
	}

	if cfg.Fetcher.Timeout <= 0 {
		return fmt.Errorf("%w: fetcher.timeout must be > 0", types.ErrInvalidParameter)
	}
	if cfg.Fetcher.MaxRetries < 0 {
		return fmt.Errorf("%w: fetcher.max_retries must be >= 0, got %d", types.ErrInvalidParameter, cfg.Fetcher.MaxRetries)
	}
	if cfg.Fetcher.MaxBodySize <= 0 {
		return fmt.Errorf("%w: fetcher.max_body_size must be > 0", types.ErrInvalidParameter)
	}
	if cfg.Fetcher.MaxRedirects < 0 {
		return fmt.Errorf("%w: fetcher.max_redirects must be >= 0", types.ErrInvalidParameter)
	}

	if cfg.Extract.MinTextLength < 1 {
		return fmt.Errorf("%w: extract.min_text_length must be >= 1, got %d", types.ErrInvalidParameter, cfg.Extract.MinTextLength)
	}

	if cfg.Analyze.TopN < 1 {
		return fmt.Errorf("%w: analyze.top_n must be >= 1, got %d", types.ErrInvalidParameter, cfg.Analyze.TopN)
	}
	if cfg.Analyze.Bins < 1 {
		return fmt.Errorf("%w: analyze.bins must be >= 1, got %d", types.ErrInvalidParameter, cfg.Analyze.Bins)
	}
	for _, k := range cfg.Analyze.CumulativeKs {
		if k < 1 {
			return fmt.Errorf("%w: analyze.cumulative_ks entries must be >= 1, got %d", types.ErrInvalidParameter, k)
		}
	}
	if len(cfg.Analyze.Delimiter) > 1 {
		return fmt.Errorf("%w: analyze.delimiter must be a single character, got %q", types.ErrInvalidParameter, cfg.Analyze.Delimiter)
	}

	validStorageTypes := map[string]bool{
		"csv": true, "json": true, "jsonl": true, "mongodb": true,
	}
	if !validStorageTypes[cfg.Storage.Type] {
		return fmt.Errorf("%w: storage.type %q is not supported (valid: csv, json, jsonl, mongodb)",
			types.ErrInvalidParameter, cfg.Storage.Type)
	}
	if cfg.Storage.Type == "mongodb" && cfg.Storage.Mongo.URI == "" {
		return fmt.Errorf("%w: storage.mongo.uri is required for mongodb storage", types.ErrInvalidParameter)
	}
	if cfg.Storage.BatchSize < 1 {
		return fmt.Errorf("%w: storage.batch_size must be >= 1, got %d", types.ErrInvalidParameter, cfg.Storage.BatchSize)
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("%w: logging.level must be debug/info/warn/error, got %q",
			types.ErrInvalidParameter, cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("%w: logging.format must be 'text' or 'json', got %q",
			types.ErrInvalidParameter, cfg.Logging.Format)
	}

	return nil
}

// ValidateURL checks if a URL string is usable for article fetching.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme must be http or https, got %q", types.ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: URL must have a host", types.ErrInvalidURL)
	}
	return nil
}
