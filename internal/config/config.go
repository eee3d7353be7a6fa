// Package config provides configuration management for the sitemap generator.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"sitemapgen/internal/models"
)

// Configuration validation errors.
var (
	ErrMissingBaseURL      = errors.New("site.base_url is required")
	ErrInvalidBaseURL      = errors.New("site.base_url must be an absolute http(s) URL")
	ErrInvalidRoutePath    = errors.New("route path must start with '/'")
	ErrDuplicateRoute      = errors.New("duplicate route path")
	ErrInvalidPriority     = errors.New("priority must be between 0.0 and 1.0")
	ErrInvalidChangeFreq   = errors.New("changefreq must be one of: always, hourly, daily, weekly, monthly, yearly, never")
	ErrInvalidPrefix       = errors.New("site.dynamic.prefix must start and end with '/'")
	ErrMissingSource       = errors.New("source.path is required")
	ErrInvalidExtractor    = errors.New("source.extractor must be one of: auto, pattern, syntax, records")
	ErrMissingIDField      = errors.New("source.id_field is required")
	ErrMissingOutputPath   = errors.New("output.path is required")
	ErrInvalidMaxAttempts  = errors.New("source.retry.max_attempts must be at least 1")
	ErrInvalidInitialDelay = errors.New("source.retry.initial_delay_ms must be non-negative")
	ErrInvalidBackoff      = errors.New("source.retry.backoff_multiplier must be >= 1.0")
	ErrInvalidTimeout      = errors.New("source.retry.timeout_sec must be at least 1")
	ErrInvalidDebounce     = errors.New("watch.debounce_ms must be non-negative")
	ErrInvalidLogLevel     = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrInvalidLogFormat    = errors.New("logging.format must be 'text' or 'json'")
)

// Extractor names.
const (
	ExtractorAuto    = "auto"
	ExtractorPattern = "pattern"
	ExtractorSyntax  = "syntax"
	ExtractorRecords = "records"
)

// Config represents the complete generator configuration.
type Config struct {
	Site    SiteConfig    `yaml:"site"`
	Source  SourceConfig  `yaml:"source"`
	Output  OutputConfig  `yaml:"output"`
	Watch   WatchConfig   `yaml:"watch"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
}

// SiteConfig describes the site the sitemap is generated for.
type SiteConfig struct {
	BaseURL string                   `yaml:"base_url" validate:"required,http_url"`
	Routes  []models.RouteDescriptor `yaml:"routes" validate:"dive"`
	Dynamic DynamicConfig            `yaml:"dynamic"`
}

// DynamicConfig controls entries generated from the content source.
type DynamicConfig struct {
	Prefix     string            `yaml:"prefix" validate:"required,startswith=/,endswith=/"`
	ChangeFreq models.ChangeFreq `yaml:"changefreq" validate:"required,changefreq"`
	Priority   models.Priority   `yaml:"priority" validate:"gte=0,lte=1"`
}

// SourceConfig describes where entity identifiers come from.
type SourceConfig struct {
	Path         string      `yaml:"path" validate:"required"`
	Extractor    string      `yaml:"extractor" validate:"oneof=auto pattern syntax records"`
	IDField      string      `yaml:"id_field" validate:"required"`
	BufferSizeKb int         `yaml:"buffer_size_kb"`
	Retry        RetryPolicy `yaml:"retry"`
}

// IsRemote returns true if the source is fetched over HTTP.
func (s *SourceConfig) IsRemote() bool {
	return strings.HasPrefix(s.Path, "http://") || strings.HasPrefix(s.Path, "https://")
}

// RetryPolicy defines retry behavior for remote sources.
type RetryPolicy struct {
	MaxAttempts       int     `yaml:"max_attempts"`
	InitialDelayMs    int     `yaml:"initial_delay_ms"`
	MaxDelayMs        int     `yaml:"max_delay_ms"`
	BackoffMultiplier float64 `yaml:"backoff_multiplier"`
	TimeoutSec        int     `yaml:"timeout_sec"`
}

// OutputConfig defines output behavior.
type OutputConfig struct {
	Path   string `yaml:"path" validate:"required"`
	Atomic bool   `yaml:"atomic"`
}

// WatchConfig defines the watch command behavior.
type WatchConfig struct {
	DebounceMs int `yaml:"debounce_ms"`
}

// MetricsConfig defines the optional Prometheus textfile export.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultRoutes is the static route table of the notes site.
func DefaultRoutes() []models.RouteDescriptor {
	return []models.RouteDescriptor{
		{Path: "/", Priority: 1.0, ChangeFreq: models.ChangeMonthly},
		{Path: "/notes", Priority: 0.9, ChangeFreq: models.ChangeWeekly},
		{Path: "/projects", Priority: 0.8, ChangeFreq: models.ChangeMonthly},
		{Path: "/blog", Priority: 0.8, ChangeFreq: models.ChangeWeekly},
		{Path: "/tutorials", Priority: 0.8, ChangeFreq: models.ChangeMonthly},
		{Path: "/github", Priority: 0.7, ChangeFreq: models.ChangeMonthly},
		{Path: "/contact", Priority: 0.6, ChangeFreq: models.ChangeYearly},
		{Path: "/login", Priority: 0.5, ChangeFreq: models.ChangeYearly},
		{Path: "/register", Priority: 0.5, ChangeFreq: models.ChangeYearly},
	}
}

// Default returns the compiled-in configuration.
func Default() *Config {
	return &Config{
		Site: SiteConfig{
			BaseURL: "https://coderafroj.vercel.app",
			Routes:  DefaultRoutes(),
			Dynamic: DynamicConfig{
				Prefix:     "/notes/",
				ChangeFreq: models.ChangeMonthly,
				Priority:   0.7,
			},
		},
		Source: SourceConfig{
			Path:         "src/data/computerNotes.js",
			Extractor:    ExtractorAuto,
			IDField:      "id",
			BufferSizeKb: 4096,
			Retry: RetryPolicy{
				MaxAttempts:       3,
				InitialDelayMs:    500,
				MaxDelayMs:        10000,
				BackoffMultiplier: 2.0,
				TimeoutSec:        30,
			},
		},
		Output: OutputConfig{
			Path:   "public/sitemap.xml",
			Atomic: true,
		},
		Watch: WatchConfig{
			DebounceMs: 300,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig loads configuration from a YAML file layered over the defaults.
func LoadConfig(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.Normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Encode writes the configuration as YAML.
func (c *Config) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return enc.Close()
}

// Environment variables recognized by ApplyEnv.
const (
	EnvBaseURL   = "SITEMAP_BASE_URL"
	EnvSource    = "SITEMAP_SOURCE"
	EnvOutput    = "SITEMAP_OUTPUT"
	EnvExtractor = "SITEMAP_EXTRACTOR"
	EnvLogLevel  = "SITEMAP_LOG_LEVEL"
)

// ApplyEnv overrides settings from the environment. lookup is usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvBaseURL); ok && v != "" {
		c.Site.BaseURL = v
	}

	if v, ok := lookup(EnvSource); ok && v != "" {
		c.Source.Path = v
	}

	if v, ok := lookup(EnvOutput); ok && v != "" {
		c.Output.Path = v
	}

	if v, ok := lookup(EnvExtractor); ok && v != "" {
		c.Source.Extractor = v
	}

	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Logging.Level = v
	}
}

// Normalize trims values that would otherwise produce malformed locations.
func (c *Config) Normalize() {
	c.Site.BaseURL = strings.TrimRight(strings.TrimSpace(c.Site.BaseURL), "/")
	c.Source.Extractor = strings.ToLower(strings.TrimSpace(c.Source.Extractor))
	c.Logging.Level = strings.ToLower(c.Logging.Level)
	c.Logging.Format = strings.ToLower(c.Logging.Format)
}

var structValidator = newStructValidator()

func newStructValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("changefreq", func(fl validator.FieldLevel) bool {
		return models.ChangeFreq(fl.Field().String()).Valid()
	})

	return v
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Site.BaseURL == "" {
		return ErrMissingBaseURL
	}

	if err := structValidator.Struct(c); err != nil {
		return mapValidationError(err)
	}

	// Struct tags cannot see duplicates or enum values of the route table.
	seen := make(map[string]bool, len(c.Site.Routes))

	for i, route := range c.Site.Routes {
		if !route.ChangeFreq.Valid() {
			return fmt.Errorf("%w: routes[%d] %q", ErrInvalidChangeFreq, i, route.ChangeFreq)
		}

		if seen[route.Path] {
			return fmt.Errorf("%w: %s", ErrDuplicateRoute, route.Path)
		}

		seen[route.Path] = true
	}

	if c.Source.IsRemote() {
		if c.Source.Retry.MaxAttempts < 1 {
			return ErrInvalidMaxAttempts
		}

		if c.Source.Retry.InitialDelayMs < 0 {
			return ErrInvalidInitialDelay
		}

		if c.Source.Retry.BackoffMultiplier < 1.0 {
			return ErrInvalidBackoff
		}

		if c.Source.Retry.TimeoutSec < 1 {
			return ErrInvalidTimeout
		}
	}

	if c.Watch.DebounceMs < 0 {
		return ErrInvalidDebounce
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return ErrInvalidLogFormat
	}

	return nil
}

// mapValidationError turns the first struct-tag failure into a package sentinel.
func mapValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}

	fe := verrs[0]
	where := strings.TrimPrefix(fe.Namespace(), "Config.")

	var sentinel error

	switch fe.Field() {
	case "BaseURL":
		sentinel = ErrInvalidBaseURL
	case "Path":
		switch {
		case strings.HasPrefix(where, "Site.Routes"):
			sentinel = ErrInvalidRoutePath
		case strings.HasPrefix(where, "Source"):
			sentinel = ErrMissingSource
		default:
			sentinel = ErrMissingOutputPath
		}
	case "Priority":
		sentinel = ErrInvalidPriority
	case "ChangeFreq":
		sentinel = ErrInvalidChangeFreq
	case "Prefix":
		sentinel = ErrInvalidPrefix
	case "Extractor":
		sentinel = ErrInvalidExtractor
	case "IDField":
		sentinel = ErrMissingIDField
	default:
		return fmt.Errorf("invalid %s: %w", where, err)
	}

	return fmt.Errorf("%w: %s (value %v)", sentinel, where, fe.Value())
}

// GetRetryDelay calculates exponential backoff delay for attempt number.
func (rp *RetryPolicy) GetRetryDelay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}

	delayMs := float64(rp.InitialDelayMs)
	for i := 1; i < attempt; i++ {
		delayMs *= rp.BackoffMultiplier
	}

	if int(delayMs) > rp.MaxDelayMs {
		delayMs = float64(rp.MaxDelayMs)
	}

	return time.Duration(int(delayMs)) * time.Millisecond
}

// GetTimeout returns the per-request timeout.
func (rp *RetryPolicy) GetTimeout() time.Duration {
	return time.Duration(rp.TimeoutSec) * time.Second
}

// Debounce returns the watch debounce interval.
func (w *WatchConfig) Debounce() time.Duration {
	return time.Duration(w.DebounceMs) * time.Millisecond
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{BaseURL: %s, Routes: %d, Source: %s, Output: %s}",
		c.Site.BaseURL,
		len(c.Site.Routes),
		c.Source.Path,
		c.Output.Path,
	)
}
