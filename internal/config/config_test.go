package config

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultSelectorsMatchSiteConvention(t *testing.T) {
	cfg := Default()
	if cfg.Site.TitleSelector != "h1" {
		t.Errorf("title selector: got %q", cfg.Site.TitleSelector)
	}
	if cfg.Site.BylineSelector != ".contributor-name" {
		t.Errorf("byline selector: got %q", cfg.Site.BylineSelector)
	}
	if cfg.Site.CategorySelector != ".print-entity-section-wrapper" {
		t.Errorf("category selector: got %q", cfg.Site.CategorySelector)
	}
	if cfg.Worker.Concurrency != 1 {
		t.Errorf("default concurrency must keep the sequential baseline, got %d", cfg.Worker.Concurrency)
	}
}

func TestLoadFromReaderMergesOverDefaults(t *testing.T) {
	yaml := `
listing:
  url: https://www.prothomalo.com/bangladesh/capital
db:
  dsn: postgres://localhost/news?sslmode=disable
fetch:
  request_timeout: 5s
`
	cfg, err := LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Listing.URL != "https://www.prothomalo.com/bangladesh/capital" {
		t.Errorf("listing url: got %q", cfg.Listing.URL)
	}
	if cfg.Fetch.RequestTimeout.Duration != 5*time.Second {
		t.Errorf("request timeout: got %v", cfg.Fetch.RequestTimeout.Duration)
	}
	// Untouched sections keep their defaults.
	if cfg.Site.TitleSelector != "h1" {
		t.Errorf("defaults lost on merge: %q", cfg.Site.TitleSelector)
	}
	if !cfg.DB.AutoMigrate {
		t.Error("db.auto_migrate default lost on merge")
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	yaml := `
listing:
  url: https://example.com
  frobnicate: true
`
	if _, err := LoadFromReader(strings.NewReader(yaml)); err == nil {
		t.Fatal("expected unknown-field error, got nil")
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		cfg := Default()
		cfg.Listing.URL = "https://example.com"
		return cfg
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing listing url", func(c *Config) { c.Listing.URL = "" }},
		{"negative max articles", func(c *Config) { c.Listing.MaxArticles = -1 }},
		{"missing driver", func(c *Config) { c.DB.Driver = "" }},
		{"zero timeout", func(c *Config) { c.Fetch.RequestTimeout = Duration{} }},
		{"blank user agent", func(c *Config) { c.Fetch.UserAgent = " " }},
		{"zero concurrency", func(c *Config) { c.Worker.Concurrency = 0 }},
		{"blank selector", func(c *Config) { c.Site.TitleSelector = "" }},
		{"summary without length", func(c *Config) { c.Summary.Enabled = true; c.Summary.MaxLength = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(&cfg)
			cfg.normalise()
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error, got nil")
			}
		})
	}

	cfg := base()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestDurationUnmarshalYAMLForms(t *testing.T) {
	yaml := `
listing:
  url: https://example.com
db:
  conn_max_lifetime: 90
rendering:
  timeout: 1m30s
`
	cfg, err := LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DB.ConnMaxLifetime.Duration != 90*time.Second {
		t.Errorf("numeric seconds: got %v", cfg.DB.ConnMaxLifetime.Duration)
	}
	if cfg.Rendering.Timeout.Duration != 90*time.Second {
		t.Errorf("string duration: got %v", cfg.Rendering.Timeout.Duration)
	}
}
