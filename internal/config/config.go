package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for newslens.
type Config struct {
	API     APIConfig     `mapstructure:"api"     yaml:"api"`
	Harvest HarvestConfig `mapstructure:"harvest" yaml:"harvest"`
	Fetcher FetcherConfig `mapstructure:"fetcher" yaml:"fetcher"`
	Extract ExtractConfig `mapstructure:"extract" yaml:"extract"`
	Analyze AnalyzeConfig `mapstructure:"analyze" yaml:"analyze"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// APIConfig controls the areanews API client.
type APIConfig struct {
	Key     string        `mapstructure:"key"      yaml:"key"`
	BaseURL string        `mapstructure:"base_url" yaml:"base_url"`
	Area    string        `mapstructure:"area"     yaml:"area"`
	Pages   int           `mapstructure:"pages"    yaml:"pages"`
	Num     int           `mapstructure:"num"      yaml:"num"`
	Keyword string        `mapstructure:"keyword"  yaml:"keyword"`
	Timeout time.Duration `mapstructure:"timeout"  yaml:"timeout"`
	Retries int           `mapstructure:"retries"  yaml:"retries"`
}

// HarvestConfig controls the harvest run.
type HarvestConfig struct {
	Workers   int           `mapstructure:"workers"    yaml:"workers"`
	Delay     time.Duration `mapstructure:"delay"      yaml:"delay"`
	Fulltext  bool          `mapstructure:"fulltext"   yaml:"fulltext"`
	DedupPath string        `mapstructure:"dedup_path" yaml:"dedup_path"`
}

// FetcherConfig controls the article page fetcher.
type FetcherConfig struct {
	Timeout         time.Duration `mapstructure:"timeout"           yaml:"timeout"`
	MaxRetries      int           `mapstructure:"max_retries"       yaml:"max_retries"`
	RetryDelay      time.Duration `mapstructure:"retry_delay"       yaml:"retry_delay"`
	FollowRedirects bool          `mapstructure:"follow_redirects"  yaml:"follow_redirects"`
	MaxRedirects    int           `mapstructure:"max_redirects"     yaml:"max_redirects"`
	MaxBodySize     int64         `mapstructure:"max_body_size"     yaml:"max_body_size"`
	TLSInsecure     bool          `mapstructure:"tls_insecure"      yaml:"tls_insecure"`
	IdleConnTimeout time.Duration `mapstructure:"idle_conn_timeout" yaml:"idle_conn_timeout"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    yaml:"max_idle_conns"`
	UserAgents      []string      `mapstructure:"user_agents"       yaml:"user_agents"`
}

// ExtractConfig controls article body extraction.
type ExtractConfig struct {
	RulesFile     string `mapstructure:"rules_file"      yaml:"rules_file"`
	MinTextLength int    `mapstructure:"min_text_length" yaml:"min_text_length"`
}

// AnalyzeConfig controls dataset statistics.
type AnalyzeConfig struct {
	TopN         int    `mapstructure:"top_n"         yaml:"top_n"`
	CumulativeKs []int  `mapstructure:"cumulative_ks" yaml:"cumulative_ks"`
	Bins         int    `mapstructure:"bins"          yaml:"bins"`
	Delimiter    string `mapstructure:"delimiter"     yaml:"delimiter"`
}

// StorageConfig controls output/storage.
type StorageConfig struct {
	Type       string      `mapstructure:"type"        yaml:"type"`
	OutputPath string      `mapstructure:"output_path" yaml:"output_path"`
	BatchSize  int         `mapstructure:"batch_size"  yaml:"batch_size"`
	Mongo      MongoConfig `mapstructure:"mongo"       yaml:"mongo"`
}

// MongoConfig holds MongoDB connection settings.
type MongoConfig struct {
	URI        string `mapstructure:"uri"        yaml:"uri"`
	Database   string `mapstructure:"database"   yaml:"database"`
	Collection string `mapstructure:"collection" yaml:"collection"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "https://apis.tianapi.com/areanews/index",
			Area:    "广东",
			Pages:   3,
			Num:     10,
			Timeout: 15 * time.Second,
			Retries: 2,
		},
		Harvest: HarvestConfig{
			Workers:  4,
			Delay:    1 * time.Second,
			Fulltext: true,
		},
		Fetcher: FetcherConfig{
			Timeout:         30 * time.Second,
			MaxRetries:      3,
			RetryDelay:      2 * time.Second,
			FollowRedirects: true,
			MaxRedirects:    10,
			MaxBodySize:     10 * 1024 * 1024, // 10MB
			IdleConnTimeout: 90 * time.Second,
			MaxIdleConns:    100,
			UserAgents: []string{
				"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
				"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			},
		},
		Extract: ExtractConfig{
			MinTextLength: 200,
		},
		Analyze: AnalyzeConfig{
			TopN:         10,
			CumulativeKs: []int{1, 5, 10},
			Bins:         30,
			Delimiter:    ",",
		},
		Storage: StorageConfig{
			Type:       "csv",
			OutputPath: "./output",
			BatchSize:  25,
			Mongo: MongoConfig{
				Database:   "newslens",
				Collection: "articles",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
