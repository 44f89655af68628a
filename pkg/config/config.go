// Package config loads repo-stars settings from a YAML file, a .env file
// and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Sternrassler/repo-stars/pkg/cache"
	"github.com/Sternrassler/repo-stars/pkg/client"
	"github.com/Sternrassler/repo-stars/pkg/logging"
	"github.com/Sternrassler/repo-stars/pkg/pipeline"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	GitHub   GitHubConfig   `yaml:"github"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Cache    CacheConfig    `yaml:"cache"`
	Log      LogConfig      `yaml:"log"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

type GitHubConfig struct {
	Token     string        `yaml:"token"`
	APIURL    string        `yaml:"api_url"`
	UserAgent string        `yaml:"user_agent"`
	Timeout   time.Duration `yaml:"timeout"`
}

type PipelineConfig struct {
	EnforceQuota      *bool   `yaml:"enforce_quota"`
	Verbose           bool    `yaml:"verbose"`
	ResolutionWorkers int     `yaml:"resolution_workers"`
	FetchWorkers      int     `yaml:"fetch_workers"`
	QueueCapacity     *int    `yaml:"queue_capacity"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// CacheConfig enables the Redis ETag cache when RedisURL is set.
type CacheConfig struct {
	RedisURL  string        `yaml:"redis_url"`
	Retention time.Duration `yaml:"retention"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	Pretty     bool   `yaml:"pretty"`
	BufferSize int    `yaml:"buffer_size"`
}

// MetricsConfig serves /metrics on Addr when non-empty.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Load reads .env (if present), then path (if non-empty), expands ${VAR}
// references, applies environment overrides and fills defaults.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.setDefaults()

	return &cfg, nil
}

func (c *Config) applyEnv() {
	overrides := []struct {
		key string
		dst *string
	}{
		{"GITHUB_TOKEN", &c.GitHub.Token},
		{"GITHUB_API_URL", &c.GitHub.APIURL},
		{"REDIS_URL", &c.Cache.RedisURL},
		{"LOG_LEVEL", &c.Log.Level},
		{"METRICS_ADDR", &c.Metrics.Addr},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.key); v != "" {
			*o.dst = v
		}
	}
}

func (c *Config) setDefaults() {
	defaults := pipeline.DefaultOptions()

	if c.GitHub.APIURL == "" {
		c.GitHub.APIURL = client.DefaultBaseURL
	}
	if c.GitHub.UserAgent == "" {
		c.GitHub.UserAgent = client.DefaultUserAgent
	}
	if c.GitHub.Timeout == 0 {
		c.GitHub.Timeout = client.DefaultTimeout
	}
	if c.Pipeline.EnforceQuota == nil {
		enforce := defaults.EnforceQuota
		c.Pipeline.EnforceQuota = &enforce
	}
	if c.Pipeline.ResolutionWorkers == 0 {
		c.Pipeline.ResolutionWorkers = defaults.ResolutionWorkers
	}
	if c.Pipeline.FetchWorkers == 0 {
		c.Pipeline.FetchWorkers = defaults.FetchWorkers
	}
	if c.Pipeline.QueueCapacity == nil {
		capacity := defaults.QueueCapacity
		c.Pipeline.QueueCapacity = &capacity
	}
	if c.Cache.Retention == 0 {
		c.Cache.Retention = cache.DefaultRetention
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.BufferSize == 0 {
		c.Log.BufferSize = logging.DefaultBufferSize
	}
}

// Validate reports settings that would make the pipeline refuse to start.
func (c *Config) Validate() error {
	var errs []error
	if err := c.PipelineOptions().Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Cache.Retention < 0 {
		errs = append(errs, fmt.Errorf("cache retention must be >= 0 (got %v)", c.Cache.Retention))
	}
	if c.Log.BufferSize < 0 {
		errs = append(errs, fmt.Errorf("log buffer size must be >= 0 (got %d)", c.Log.BufferSize))
	}
	return errors.Join(errs...)
}

// PipelineOptions maps the config onto pipeline.Options.
func (c *Config) PipelineOptions() pipeline.Options {
	defaults := pipeline.DefaultOptions()
	enforce := defaults.EnforceQuota
	if c.Pipeline.EnforceQuota != nil {
		enforce = *c.Pipeline.EnforceQuota
	}
	capacity := defaults.QueueCapacity
	if c.Pipeline.QueueCapacity != nil {
		capacity = *c.Pipeline.QueueCapacity
	}
	return pipeline.Options{
		Credential:        c.GitHub.Token,
		EnforceQuota:      enforce,
		Verbose:           c.Pipeline.Verbose,
		ResolutionWorkers: c.Pipeline.ResolutionWorkers,
		FetchWorkers:      c.Pipeline.FetchWorkers,
		QueueCapacity:     capacity,
		APIBaseURL:        c.GitHub.APIURL,
		RequestsPerSecond: c.Pipeline.RequestsPerSecond,
		RequestTimeout:    c.GitHub.Timeout,
	}
}

// LoggingConfig maps the config onto logging.Config with the async sink on.
func (c *Config) LoggingConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.ParseLevel(c.Log.Level)
	cfg.Pretty = c.Log.Pretty
	cfg.Async = true
	cfg.BufferSize = c.Log.BufferSize
	return cfg
}
