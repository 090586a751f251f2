package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all gateway configuration.
type Config struct {
	Listen    string          `yaml:"listen"`
	LogLevel  string          `yaml:"log_level"`
	Upstream  UpstreamConfig  `yaml:"upstream"`
	Insight   InsightConfig   `yaml:"insight"`
	Router    RouterConfig    `yaml:"router"`
	Cache     CacheConfig     `yaml:"cache"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Batch     BatchConfig     `yaml:"batch"`
	Audit     AuditConfig     `yaml:"audit"`
}

// UpstreamConfig points at the reference data provider.
type UpstreamConfig struct {
	BaseURL           string        `yaml:"base_url"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
}

// InsightConfig points at an OpenAI-compatible generative provider.
type InsightConfig struct {
	BaseURL     string        `yaml:"base_url"`
	APIKey      string        `yaml:"api_key"`
	SpeechModel string        `yaml:"speech_model"`
	Voice       string        `yaml:"voice"`
	Timeout     time.Duration `yaml:"timeout"`
}

// RouterConfig maps model aliases to ordered model chains.
type RouterConfig struct {
	Default string        `yaml:"default"`
	Routes  []RouteConfig `yaml:"routes"`
}

// RouteConfig maps a client-facing alias to models tried in order.
type RouteConfig struct {
	Alias  string   `yaml:"alias"`
	Models []string `yaml:"models"`
}

// CacheConfig controls the response cache TTL classes.
type CacheConfig struct {
	ShortTTL      time.Duration `yaml:"short_ttl"`
	LongTTL       time.Duration `yaml:"long_ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// RateLimitConfig controls fixed-window admission.
type RateLimitConfig struct {
	Enabled     bool          `yaml:"enabled"`
	Window      time.Duration `yaml:"window"`
	Max         int           `yaml:"max"`
	TrustedHops int           `yaml:"trusted_hops"`
}

// BatchConfig bounds the batch endpoint.
type BatchConfig struct {
	MaxNames    int `yaml:"max_names"`
	Concurrency int `yaml:"concurrency"`
}

// AuditConfig controls the insight audit log.
type AuditConfig struct {
	Enabled       bool   `yaml:"enabled"`
	DBPath        string `yaml:"db_path"`
	RetentionDays int    `yaml:"retention_days"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Listen:   ":3000",
		LogLevel: "info",
		Upstream: UpstreamConfig{
			BaseURL:           "https://pokeapi.co/api/v2",
			Timeout:           10 * time.Second,
			RequestsPerSecond: 20,
			Burst:             20,
		},
		Insight: InsightConfig{
			BaseURL:     "https://generativelanguage.googleapis.com/v1beta/openai/",
			SpeechModel: "gemini-2.5-flash-preview-tts",
			Voice:       "Zephyr",
			Timeout:     30 * time.Second,
		},
		Router: RouterConfig{
			Default: "flash",
			Routes: []RouteConfig{
				{Alias: "flash", Models: []string{"gemini-2.5-flash"}},
				{Alias: "pro", Models: []string{"gemini-2.5-pro", "gemini-2.5-flash"}},
			},
		},
		Cache: CacheConfig{
			ShortTTL:      30 * time.Minute,
			LongTTL:       2 * time.Hour,
			SweepInterval: 5 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			Enabled:     true,
			Window:      time.Minute,
			Max:         200,
			TrustedHops: 0,
		},
		Batch: BatchConfig{
			MaxNames:    50,
			Concurrency: 10,
		},
		Audit: AuditConfig{
			Enabled:       false,
			DBPath:        "pokegate-audit.db",
			RetentionDays: 30,
		},
	}
}

// Load reads a YAML config file and expands environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Validate reports every invalid setting, joined into one error.
func (c *Config) Validate() error {
	var errs []error
	if !c.Router.hasDefaultRoute() {
		errs = append(errs, fmt.Errorf("router.default %q must name a route with at least one model", c.Router.Default))
	}
	if c.RateLimit.TrustedHops < 0 {
		errs = append(errs, errors.New("rate_limit.trusted_hops must not be negative"))
	}
	if c.Upstream.BaseURL == "" {
		errs = append(errs, errors.New("upstream.base_url is required"))
	}
	if c.Cache.ShortTTL <= 0 || c.Cache.LongTTL <= 0 {
		errs = append(errs, errors.New("cache TTLs must be positive"))
	}
	if c.RateLimit.Enabled && (c.RateLimit.Window <= 0 || c.RateLimit.Max <= 0) {
		errs = append(errs, errors.New("rate_limit.window and rate_limit.max must be positive"))
	}
	if c.Batch.MaxNames <= 0 {
		errs = append(errs, errors.New("batch.max_names must be positive"))
	}
	if c.Audit.Enabled && c.Audit.DBPath == "" {
		errs = append(errs, errors.New("audit.db_path is required when audit is enabled"))
	}
	return errors.Join(errs...)
}

func (r RouterConfig) hasDefaultRoute() bool {
	for _, route := range r.Routes {
		if !strings.EqualFold(route.Alias, r.Default) {
			continue
		}
		for _, m := range route.Models {
			if m != "" {
				return true
			}
		}
	}
	return false
}
