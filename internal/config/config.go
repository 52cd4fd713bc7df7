// Package config loads and validates scraper configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Fetch    FetchConfig    `mapstructure:"fetch"`
	Sources  SourcesConfig  `mapstructure:"sources"`
	Output   OutputConfig   `mapstructure:"output"`
	Storage  StorageConfig  `mapstructure:"storage"`
	PubSub   PubSubConfig   `mapstructure:"pubsub"`
	Database DatabaseConfig `mapstructure:"database"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// FetchConfig controls the HTTP fetcher.
type FetchConfig struct {
	UserAgent       string        `mapstructure:"user_agent"`
	Timeout         time.Duration `mapstructure:"timeout"`
	MaxRetries      int           `mapstructure:"max_retries"`
	Backoff         float64       `mapstructure:"backoff"`
	PolitenessDelay time.Duration `mapstructure:"politeness_delay"`
}

// SourcesConfig tunes the extractors.
type SourcesConfig struct {
	SiteRoot            string `mapstructure:"site_root"`
	NewsLimit           int    `mapstructure:"news_limit"`
	VehicleContentLimit int    `mapstructure:"vehicle_content_limit"`
	LaunchTable         bool   `mapstructure:"launch_table"`
}

// OutputConfig sets where datasets are written.
type OutputConfig struct {
	Dir    string `mapstructure:"dir"`
	Prefix string `mapstructure:"prefix"`
}

// Storage providers.
const (
	ProviderLocal  = "local"
	ProviderGCS    = "gcs"
	ProviderMemory = "memory"
)

// StorageConfig selects the blob store for outputs.
type StorageConfig struct {
	Provider  string `mapstructure:"provider"`
	GCSBucket string `mapstructure:"gcs_bucket"`
}

// PubSubConfig holds metadata for run notifications.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	Topic     string `mapstructure:"topic"`
}

// Enabled reports whether notifications should be published.
func (p PubSubConfig) Enabled() bool {
	return p.ProjectID != "" && p.Topic != ""
}

// DatabaseConfig controls access to Postgres.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	LaunchTable     string        `mapstructure:"launch_table"`
	RunTable        string        `mapstructure:"run_table"`
	RecordRuns      bool          `mapstructure:"record_runs"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// MetricsConfig controls the pushgateway used by batch runs.
type MetricsConfig struct {
	PushgatewayURL string `mapstructure:"pushgateway_url"`
	Job            string `mapstructure:"job"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SCRAPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("fetch.user_agent", "")
	v.SetDefault("fetch.timeout", 20*time.Second)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.backoff", 1.5)
	v.SetDefault("fetch.politeness_delay", 600*time.Millisecond)
	v.SetDefault("sources.site_root", "https://www.isro.gov.in")
	v.SetDefault("sources.news_limit", 100)
	v.SetDefault("sources.vehicle_content_limit", 10000)
	v.SetDefault("sources.launch_table", false)
	v.SetDefault("output.dir", "data")
	v.SetDefault("output.prefix", "")
	v.SetDefault("storage.provider", ProviderLocal)
	v.SetDefault("storage.gcs_bucket", "")
	v.SetDefault("pubsub.project_id", "")
	v.SetDefault("pubsub.topic", "")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.launch_table", "launches")
	v.SetDefault("database.run_table", "scrape_runs")
	v.SetDefault("database.record_runs", false)
	v.SetDefault("metrics.pushgateway_url", "")
	v.SetDefault("metrics.job", "isro_scraper")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch.timeout must be > 0")
	}
	if c.Fetch.MaxRetries < 0 {
		return fmt.Errorf("fetch.max_retries must be >= 0")
	}
	if c.Fetch.Backoff < 0 {
		return fmt.Errorf("fetch.backoff must be >= 0")
	}
	if c.Fetch.PolitenessDelay < 0 {
		return fmt.Errorf("fetch.politeness_delay must be >= 0")
	}
	if !strings.HasPrefix(c.Sources.SiteRoot, "http") {
		return fmt.Errorf("sources.site_root must be an http(s) URL")
	}
	if c.Sources.NewsLimit <= 0 {
		return fmt.Errorf("sources.news_limit must be > 0")
	}
	if c.Sources.VehicleContentLimit <= 0 {
		return fmt.Errorf("sources.vehicle_content_limit must be > 0")
	}
	switch c.Storage.Provider {
	case ProviderLocal:
		if c.Output.Dir == "" {
			return fmt.Errorf("output.dir must be set for the local provider")
		}
	case ProviderGCS:
		if c.Storage.GCSBucket == "" {
			return fmt.Errorf("storage.gcs_bucket must be set for the gcs provider")
		}
	case ProviderMemory:
	default:
		return fmt.Errorf("storage.provider %q is not supported", c.Storage.Provider)
	}
	if (c.PubSub.ProjectID == "") != (c.PubSub.Topic == "") {
		return fmt.Errorf("pubsub.project_id and pubsub.topic must be set together")
	}
	if c.Database.RecordRuns && c.Database.DSN == "" {
		return fmt.Errorf("database.dsn must be set when database.record_runs is enabled")
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	return nil
}
