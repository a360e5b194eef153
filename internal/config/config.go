package config

import (
	"time"

	"golang.org/x/text/language"

	"git.home.luguber.info/inful/campus/internal/content"
	"git.home.luguber.info/inful/campus/internal/markdown"
	"git.home.luguber.info/inful/campus/internal/search"
	"git.home.luguber.info/inful/campus/internal/store"
)

// CurrentVersion is the configuration format version written by Init.
const CurrentVersion = "1"

// DefaultPath is the configuration file used when none is given.
const DefaultPath = "campus.yaml"

// Config is the campus configuration.
type Config struct {
	Version  string         `yaml:"version"`
	Content  ContentConfig  `yaml:"content"`
	Site     SiteConfig     `yaml:"site"`
	Markdown MarkdownConfig `yaml:"markdown"`
	Build    BuildConfig    `yaml:"build"`
	Search   SearchConfig   `yaml:"search"`
	Preview  PreviewConfig  `yaml:"preview"`
	History  HistoryConfig  `yaml:"history"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ContentConfig locates the content store.
type ContentConfig struct {
	Root string `yaml:"root"`
	// Folders overrides the folder of individual kinds, keyed by kind name.
	Folders map[string]FolderConfig `yaml:"folders,omitempty"`
}

// FolderConfig is one content folder, relative to the content root.
type FolderConfig struct {
	Dir string `yaml:"dir"`
	Ext string `yaml:"ext,omitempty"`
}

// SiteConfig controls listings and generated URLs.
type SiteConfig struct {
	BaseURL   string    `yaml:"base_url"`
	Locale    string    `yaml:"locale"`
	PageSizes PageSizes `yaml:"page_sizes"`
}

// PageSizes holds the page size of each listing family.
type PageSizes struct {
	Default   int `yaml:"default"`
	Resources int `yaml:"resources"`
	Tags      int `yaml:"tags"`
	Sources   int `yaml:"sources"`
}

// MarkdownConfig tunes the compiler.
type MarkdownConfig struct {
	HighlightStyle string `yaml:"highlight_style"`
	LineNumbers    bool   `yaml:"line_numbers"`
	HeadingLinks   *bool  `yaml:"heading_links,omitempty"`
}

// BuildConfig controls `campus build`.
type BuildConfig struct {
	Output        string `yaml:"output"`
	Concurrency   int    `yaml:"concurrency"`
	GitTimestamps bool   `yaml:"git_timestamps"`
	Clean         bool   `yaml:"clean"`
}

// SearchConfig selects the search backend.
type SearchConfig struct {
	Backend   string `yaml:"backend"`
	BlevePath string `yaml:"bleve_path,omitempty"`
	NATSURL   string `yaml:"nats_url,omitempty"`
	Bucket    string `yaml:"bucket,omitempty"`
	// IndexOnBuild uploads records at the end of every build.
	IndexOnBuild bool `yaml:"index_on_build"`
	// Reindex is the period of the re-index job while previewing. Zero
	// disables it.
	Reindex time.Duration `yaml:"reindex,omitempty"`
}

// PreviewConfig configures the preview server.
type PreviewConfig struct {
	Listen   string        `yaml:"listen"`
	Debounce time.Duration `yaml:"debounce"`
	Watch    bool          `yaml:"watch"`
}

// HistoryConfig locates the build history database. An empty path
// disables history.
type HistoryConfig struct {
	Path string `yaml:"path,omitempty"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// LocaleTag returns the configured locale. Validation guarantees it parses.
func (c *Config) LocaleTag() language.Tag {
	tag, err := language.Parse(c.Site.Locale)
	if err != nil {
		return language.English
	}
	return tag
}

// ContentFolders returns the folder of every stored kind.
func (c *Config) ContentFolders() map[content.Kind]store.Folder {
	folders := content.DefaultFolders()
	for name, f := range c.Content.Folders {
		kind := content.Kind(name)
		def, ok := folders[kind]
		if !ok {
			continue
		}
		if f.Dir != "" {
			def.Dir = f.Dir
		}
		if f.Ext != "" {
			def.Ext = f.Ext
		}
		folders[kind] = def
	}
	return folders
}

// MarkdownOptions returns the compiler options.
func (c *Config) MarkdownOptions() markdown.Options {
	opts := markdown.DefaultOptions()
	if c.Markdown.HighlightStyle != "" {
		opts.HighlightStyle = c.Markdown.HighlightStyle
	}
	opts.LineNumbers = c.Markdown.LineNumbers
	if c.Markdown.HeadingLinks != nil {
		opts.HeadingLinks = *c.Markdown.HeadingLinks
	}
	opts.SiteHost = siteHost(c.Site.BaseURL)
	return opts
}

// SearchOptions returns the search backend options.
func (c *Config) SearchOptions() search.Options {
	return search.Options{
		Backend:   c.Search.Backend,
		BlevePath: c.Search.BlevePath,
		NATSURL:   c.Search.NATSURL,
		Bucket:    c.Search.Bucket,
	}
}
