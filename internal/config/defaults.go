package config

import (
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/campus/internal/search"
)

// Listing page sizes.
const (
	DefaultPageSize   = 10
	ResourcesPageSize = 12
	TagsPageSize      = 50
	SourcesPageSize   = 10
	DefaultDebounce   = 300 * time.Millisecond
	DefaultListenAddr = "127.0.0.1:4000"
)

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills every unset field.
func ApplyDefaults(cfg *Config) {
	if cfg.Version == "" {
		cfg.Version = CurrentVersion
	}
	if cfg.Content.Root == "" {
		cfg.Content.Root = "."
	}

	if cfg.Site.Locale == "" {
		cfg.Site.Locale = "en"
	}
	if cfg.Site.PageSizes.Default <= 0 {
		cfg.Site.PageSizes.Default = DefaultPageSize
	}
	if cfg.Site.PageSizes.Resources <= 0 {
		cfg.Site.PageSizes.Resources = ResourcesPageSize
	}
	if cfg.Site.PageSizes.Tags <= 0 {
		cfg.Site.PageSizes.Tags = TagsPageSize
	}
	if cfg.Site.PageSizes.Sources <= 0 {
		cfg.Site.PageSizes.Sources = SourcesPageSize
	}

	if cfg.Markdown.HighlightStyle == "" {
		cfg.Markdown.HighlightStyle = "github"
	}

	if cfg.Build.Output == "" {
		cfg.Build.Output = "public"
	}
	if cfg.Build.Concurrency <= 0 {
		cfg.Build.Concurrency = 8
	}

	if cfg.Search.Backend == "" {
		cfg.Search.Backend = search.BackendNone
	}
	if cfg.Search.Backend == search.BackendBleve && cfg.Search.BlevePath == "" {
		cfg.Search.BlevePath = filepath.Join(".campus", "search.bleve")
	}
	if cfg.Search.Backend == search.BackendNATS && cfg.Search.Bucket == "" {
		cfg.Search.Bucket = search.DefaultBucket
	}

	if cfg.Preview.Listen == "" {
		cfg.Preview.Listen = DefaultListenAddr
	}
	if cfg.Preview.Debounce <= 0 {
		cfg.Preview.Debounce = DefaultDebounce
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}
