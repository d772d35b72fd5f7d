package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configuration from file, environment, and CLI flags.
// Priority (highest to lowest): CLI flags > env vars > config file > defaults.
// A .env file in the working directory is folded into the environment first,
// so NEWSLENS_API_KEY can live there instead of the shell profile.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Missing .env is fine; it only exists to carry the API key locally.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")

	// Set defaults from struct
	setDefaults(v, cfg)

	// Environment variable support
	v.SetEnvPrefix("NEWSLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Load config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Search default locations
		v.SetConfigName("newslens")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".newslens"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is okay if not explicitly specified
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers default values in viper.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("api.key", cfg.API.Key)
	v.SetDefault("api.base_url", cfg.API.BaseURL)
	v.SetDefault("api.area", cfg.API.Area)
	v.SetDefault("api.pages", cfg.API.Pages)
	v.SetDefault("api.num", cfg.API.Num)
	v.SetDefault("api.keyword", cfg.API.Keyword)
	v.SetDefault("api.timeout", cfg.API.Timeout)
	v.SetDefault("api.retries", cfg.API.Retries)

	v.SetDefault("harvest.workers", cfg.Harvest.Workers)
	v.SetDefault("harvest.delay", cfg.Harvest.Delay)
	v.SetDefault("harvest.fulltext", cfg.Harvest.Fulltext)
	v.SetDefault("harvest.dedup_path", cfg.Harvest.DedupPath)

	v.SetDefault("fetcher.timeout", cfg.Fetcher.Timeout)
	v.SetDefault("fetcher.max_retries", cfg.Fetcher.MaxRetries)
	v.SetDefault("fetcher.retry_delay", cfg.Fetcher.RetryDelay)
	v.SetDefault("fetcher.follow_redirects", cfg.Fetcher.FollowRedirects)
	v.SetDefault("fetcher.max_redirects", cfg.Fetcher.MaxRedirects)
	v.SetDefault("fetcher.max_body_size", cfg.Fetcher.MaxBodySize)
	v.SetDefault("fetcher.idle_conn_timeout", cfg.Fetcher.IdleConnTimeout)
	v.SetDefault("fetcher.max_idle_conns", cfg.Fetcher.MaxIdleConns)
	v.SetDefault("fetcher.user_agents", cfg.Fetcher.UserAgents)

	v.SetDefault("extract.rules_file", cfg.Extract.RulesFile)
	v.SetDefault("extract.min_text_length", cfg.Extract.MinTextLength)

	v.SetDefault("analyze.top_n", cfg.Analyze.TopN)
	v.SetDefault("analyze.cumulative_ks", cfg.Analyze.CumulativeKs)
	v.SetDefault("analyze.bins", cfg.Analyze.Bins)
	v.SetDefault("analyze.delimiter", cfg.Analyze.Delimiter)

	v.SetDefault("storage.type", cfg.Storage.Type)
	v.SetDefault("storage.output_path", cfg.Storage.OutputPath)
	v.SetDefault("storage.batch_size", cfg.Storage.BatchSize)
	v.SetDefault("storage.mongo.uri", cfg.Storage.Mongo.URI)
	v.SetDefault("storage.mongo.database", cfg.Storage.Mongo.Database)
	v.SetDefault("storage.mongo.collection", cfg.Storage.Mongo.Collection)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
}
