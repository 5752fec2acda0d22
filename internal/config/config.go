package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures the full configuration required to initialise the ingestion engine.
type Config struct {
	DB        SQLConfig       `yaml:"db"`
	Listing   ListingConfig   `yaml:"listing"`
	Fetch     FetchConfig     `yaml:"fetch"`
	Rendering RenderingConfig `yaml:"rendering"`
	Site      SiteConfig      `yaml:"site"`
	Worker    WorkerConfig    `yaml:"worker"`
	Summary   SummaryConfig   `yaml:"summary"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// SQLConfig describes the relational database connection used for persistence.
type SQLConfig struct {
	Driver          string   `yaml:"driver"`
	DSN             string   `yaml:"dsn"`
	MaxOpenConns    int      `yaml:"max_open_conns"`
	MaxIdleConns    int      `yaml:"max_idle_conns"`
	ConnMaxLifetime Duration `yaml:"conn_max_lifetime"`
	AutoMigrate     bool     `yaml:"auto_migrate"`
}

// ListingConfig identifies the publisher listing page a run starts from.
type ListingConfig struct {
	URL string `yaml:"url"`
	// MaxArticles caps how many discovered links one run processes; 0 means all.
	MaxArticles int `yaml:"max_articles"`
}

// FetchConfig controls HTTP fetching behaviour.
type FetchConfig struct {
	UserAgent      string            `yaml:"user_agent"`
	Headers        map[string]string `yaml:"headers"`
	RequestTimeout Duration          `yaml:"request_timeout"`
	MaxBodyBytes   int64             `yaml:"max_body_bytes"`
}

// RenderingConfig controls JavaScript rendering of fetched pages.
type RenderingConfig struct {
	Enabled            bool     `yaml:"enabled"`
	Timeout            Duration `yaml:"timeout"`
	WaitForSelector    string   `yaml:"wait_for_selector"`
	ConcurrentSessions int      `yaml:"concurrent_sessions"`
	DisableHeadless    bool     `yaml:"disable_headless"`
	CaptureDelay       Duration `yaml:"capture_delay"`
}

// SiteConfig declares the selector conventions of the target site's markup.
// Defaults match the Prothom Alo article layout.
type SiteConfig struct {
	TitleSelector     string `yaml:"title_selector"`
	BylineSelector    string `yaml:"byline_selector"`
	TimeSelector      string `yaml:"time_selector"`
	CategorySelector  string `yaml:"category_selector"`
	ParagraphSelector string `yaml:"paragraph_selector"`
	ImageSelector     string `yaml:"image_selector"`
}

// WorkerConfig sizes the per-link processing pool. Concurrency 1 keeps the
// sequential baseline behaviour; higher values are safe because entity
// resolution is an atomic upsert.
type WorkerConfig struct {
	Concurrency int `yaml:"concurrency"`
	QueueSize   int `yaml:"queue_size"`
}

// SummaryConfig enables deriving a lead summary from the article body.
type SummaryConfig struct {
	Enabled   bool `yaml:"enabled"`
	MaxLength int  `yaml:"max_length"`
}

// LoggingConfig selects log verbosity and format.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Structured bool   `yaml:"structured"`
}

// Default returns a Config populated with sensible defaults.
func Default() Config {
	return Config{
		DB: SQLConfig{
			Driver:      "postgres",
			AutoMigrate: true,
		},
		Fetch: FetchConfig{
			UserAgent:      "newsharvest-bot/1.0",
			Headers:        map[string]string{},
			RequestTimeout: DurationFrom(15 * time.Second),
			MaxBodyBytes:   6 * 1024 * 1024,
		},
		Rendering: RenderingConfig{
			Enabled:            true,
			Timeout:            DurationFrom(60 * time.Second),
			ConcurrentSessions: 1,
		},
		Site: SiteConfig{
			TitleSelector:     "h1",
			BylineSelector:    ".contributor-name",
			TimeSelector:      "time",
			CategorySelector:  ".print-entity-section-wrapper",
			ParagraphSelector: "p",
			ImageSelector:     "img",
		},
		Worker: WorkerConfig{
			Concurrency: 1,
			QueueSize:   64,
		},
		Summary: SummaryConfig{
			Enabled:   false,
			MaxLength: 320,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Structured: true,
		},
	}
}

// Load reads, merges, and validates configuration from a YAML file.
func Load(path string) (*Config, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer fh.Close()
	return LoadFromReader(fh)
}

// LoadFromReader decodes configuration from an arbitrary reader.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	if err := decodeYAML(r, &cfg); err != nil {
		return nil, err
	}
	cfg.normalise()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decodeYAML(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}

// Validate enforces required invariants for the ingestion configuration.
func (c Config) Validate() error {
	if c.Listing.URL == "" {
		return errors.New("listing.url must be set")
	}
	if c.Listing.MaxArticles < 0 {
		return fmt.Errorf("listing.max_articles must be >= 0 (got %d)", c.Listing.MaxArticles)
	}
	if c.DB.Driver == "" {
		return errors.New("db.driver must be set")
	}
	if c.Fetch.RequestTimeout.Duration <= 0 {
		return errors.New("fetch.request_timeout must be > 0")
	}
	if c.Fetch.MaxBodyBytes <= 0 {
		return fmt.Errorf("fetch.max_body_bytes must be > 0 (got %d)", c.Fetch.MaxBodyBytes)
	}
	if strings.TrimSpace(c.Fetch.UserAgent) == "" {
		return errors.New("fetch.user_agent must be set")
	}
	if c.Worker.Concurrency <= 0 {
		return fmt.Errorf("worker.concurrency must be > 0 (got %d)", c.Worker.Concurrency)
	}
	if c.Worker.QueueSize <= 0 {
		return fmt.Errorf("worker.queue_size must be > 0 (got %d)", c.Worker.QueueSize)
	}
	if c.Summary.Enabled && c.Summary.MaxLength <= 0 {
		return fmt.Errorf("summary.max_length must be > 0 when summaries are enabled (got %d)", c.Summary.MaxLength)
	}
	for name, sel := range map[string]string{
		"site.title_selector":     c.Site.TitleSelector,
		"site.byline_selector":    c.Site.BylineSelector,
		"site.time_selector":      c.Site.TimeSelector,
		"site.category_selector":  c.Site.CategorySelector,
		"site.paragraph_selector": c.Site.ParagraphSelector,
		"site.image_selector":     c.Site.ImageSelector,
	} {
		if strings.TrimSpace(sel) == "" {
			return fmt.Errorf("%s must be set", name)
		}
	}
	return nil
}

func (c *Config) normalise() {
	c.Listing.URL = strings.TrimSpace(c.Listing.URL)
	c.Fetch.UserAgent = strings.TrimSpace(c.Fetch.UserAgent)
	if c.Fetch.Headers == nil {
		c.Fetch.Headers = map[string]string{}
	}
	c.Site.TitleSelector = strings.TrimSpace(c.Site.TitleSelector)
	c.Site.BylineSelector = strings.TrimSpace(c.Site.BylineSelector)
	c.Site.TimeSelector = strings.TrimSpace(c.Site.TimeSelector)
	c.Site.CategorySelector = strings.TrimSpace(c.Site.CategorySelector)
	c.Site.ParagraphSelector = strings.TrimSpace(c.Site.ParagraphSelector)
	c.Site.ImageSelector = strings.TrimSpace(c.Site.ImageSelector)
}
