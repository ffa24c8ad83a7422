// Package config loads runtime settings from a YAML file with environment
// variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pevans/feedsnap/aggregator"
	"github.com/pevans/feedsnap/rss2json"
	"github.com/pevans/feedsnap/sources"
	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	StorageFile   = "file"
	StorageSQLite = "sqlite"
	StorageMemory = "memory"
)

// DefaultBudget caps the wall clock of one run.
const DefaultBudget = 5 * time.Minute

// DefaultPath is the config file read when none is given.
const DefaultPath = "feedsnap.yaml"

// Environment variables that override file settings.
const (
	EnvConfigPath  = "FEEDSNAP_CONFIG"
	EnvRegion      = "FEEDSNAP_REGION"
	EnvBucket      = "FEEDSNAP_BUCKET"
	EnvAPIKey      = "RSS2JSON_API_KEY"
	EnvStorageType = "FEEDSNAP_STORAGE_TYPE"
	EnvStorageDSN  = "FEEDSNAP_STORAGE_DSN"
	EnvAddr        = "FEEDSNAP_ADDR"
)

// ErrUnknownStorage is returned for a storage type other than file, sqlite
// or memory.
var ErrUnknownStorage = errors.New("storage type must be file, sqlite, or memory")

// StorageConfig selects where snapshots are written.
type StorageConfig struct {
	Type string `yaml:"type"`
	DSN  string `yaml:"dsn"`
}

// FetchConfig controls how feeds are fetched.
type FetchConfig struct {
	ServiceURL  string        `yaml:"service_url"`
	APIKey      string        `yaml:"api_key"`
	Count       int           `yaml:"count"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxRetries  int           `yaml:"max_retries"`
	BackoffBase time.Duration `yaml:"backoff_base"`
	Pacing      time.Duration `yaml:"pacing"`
	Concurrency int           `yaml:"concurrency"`
}

// Config represents the structure of feedsnap.yaml.
type Config struct {
	Region  string               `yaml:"region"`
	Bucket  string               `yaml:"bucket"`
	Addr    string               `yaml:"addr"`
	Budget  time.Duration        `yaml:"budget"`
	Storage StorageConfig        `yaml:"storage"`
	Fetch   FetchConfig          `yaml:"fetch"`
	Feeds   []sources.Descriptor `yaml:"feeds"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Region: "us-east-1",
		Bucket: "rss-aggregator",
		Addr:   "localhost:8080",
		Budget: DefaultBudget,
		Storage: StorageConfig{
			Type: StorageFile,
			DSN:  ".feedsnap",
		},
		Fetch: FetchConfig{
			ServiceURL:  rss2json.DefaultBaseURL,
			Count:       rss2json.DefaultCount,
			Timeout:     rss2json.DefaultTimeout,
			MaxRetries:  rss2json.DefaultMaxRetries,
			BackoffBase: rss2json.DefaultBackoffBase,
			Pacing:      aggregator.DefaultPacing,
			Concurrency: 1,
		},
	}
}

// Load reads the config file at path on top of the defaults, applies
// environment overrides and validates the result. A missing file is not an
// error; a file that exists but cannot be parsed is.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// File doesn't exist -- defaults and environment only
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	cfg.applyEnv(os.Getenv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// PathFromEnv returns the config path named by FEEDSNAP_CONFIG, or
// DefaultPath.
func PathFromEnv() string {
	if path := os.Getenv(EnvConfigPath); path != "" {
		return path
	}
	return DefaultPath
}

// applyEnv overrides settings from non-empty environment variables.
func (c *Config) applyEnv(getenv func(string) string) {
	overrides := []struct {
		key    string
		target *string
	}{
		{EnvRegion, &c.Region},
		{EnvBucket, &c.Bucket},
		{EnvAPIKey, &c.Fetch.APIKey},
		{EnvStorageType, &c.Storage.Type},
		{EnvStorageDSN, &c.Storage.DSN},
		{EnvAddr, &c.Addr},
	}

	for _, o := range overrides {
		if value := getenv(o.key); value != "" {
			*o.target = value
		}
	}
}

// Validate checks that the configuration can be used for a run.
func (c *Config) Validate() error {
	switch c.Storage.Type {
	case StorageFile, StorageSQLite, StorageMemory:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStorage, c.Storage.Type)
	}
	if c.Storage.Type != StorageMemory && c.Storage.DSN == "" {
		return errors.New("storage dsn is required")
	}
	if c.Bucket == "" {
		return errors.New("bucket is required")
	}
	if c.Budget < 0 {
		return errors.New("budget must not be negative")
	}
	if c.Fetch.ServiceURL == "" {
		return errors.New("fetch.service_url is required")
	}
	if c.Fetch.Concurrency < 1 {
		return errors.New("fetch.concurrency must be at least 1")
	}
	if c.Fetch.MaxRetries < 0 {
		return errors.New("fetch.max_retries must not be negative")
	}
	if c.Fetch.Timeout <= 0 {
		return errors.New("fetch.timeout must be positive")
	}
	if c.Fetch.Pacing < 0 || c.Fetch.BackoffBase < 0 {
		return errors.New("fetch.pacing and fetch.backoff_base must not be negative")
	}
	if err := sources.Validate(c.Feeds); err != nil {
		return fmt.Errorf("invalid feeds: %w", err)
	}
	return nil
}

// FeedList returns the configured feeds, or the compiled-in list when the
// file names none.
func (c *Config) FeedList() []sources.Descriptor {
	if len(c.Feeds) > 0 {
		return c.Feeds
	}
	return sources.Default()
}

// ClientConfig returns the conversion service client settings.
func (c *Config) ClientConfig() *rss2json.Config {
	return &rss2json.Config{
		BaseURL:     c.Fetch.ServiceURL,
		APIKey:      c.Fetch.APIKey,
		Count:       c.Fetch.Count,
		Timeout:     c.Fetch.Timeout,
		MaxRetries:  c.Fetch.MaxRetries,
		BackoffBase: c.Fetch.BackoffBase,
	}
}

// AggregatorConfig returns the pacing and concurrency settings, pacing every
// fetch against the conversion service host.
func (c *Config) AggregatorConfig() *aggregator.Config {
	return &aggregator.Config{
		Pacing:      c.Fetch.Pacing,
		Concurrency: c.Fetch.Concurrency,
		Upstream:    sources.Host(c.Fetch.ServiceURL),
	}
}
