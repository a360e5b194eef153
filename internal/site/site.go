// Package site turns resolved content into the pages of the campus web
// site: it enumerates every route and assembles the data each page is
// rendered from.
package site

import (
	"context"
	"path/filepath"
	"time"

	"golang.org/x/text/language"

	"git.home.luguber.info/inful/campus/internal/content"
	"git.home.luguber.info/inful/campus/internal/metrics"
)

// PageSizes holds the page size of each listing family.
type PageSizes struct {
	// Default applies to author, tag and curricula listings.
	Default int
	// Resources applies to the resource and source listings.
	Resources int
	Tags      int
	Sources   int
}

// DefaultPageSizes are the sizes the site ships with.
func DefaultPageSizes() PageSizes {
	return PageSizes{Default: 10, Resources: 12, Tags: 50, Sources: 10}
}

// Options configures a Site.
type Options struct {
	Locale    language.Tag
	PageSizes PageSizes
	// ContentRoot is the directory the resolver reads from. It locates
	// source files for last-updated lookups.
	ContentRoot string
}

// Timestamps reports when a source file last changed. A nil result means
// unknown.
type Timestamps interface {
	LastUpdatedOrNil(ctx context.Context, path string) *time.Time
}

// Site assembles page data from a resolver.
type Site struct {
	resolver   *content.Resolver
	opts       Options
	timestamps Timestamps
	recorder   metrics.Recorder
}

// Option configures optional Site collaborators.
type Option func(*Site)

// WithTimestamps enables last-updated dates on detail pages.
func WithTimestamps(t Timestamps) Option {
	return func(s *Site) { s.timestamps = t }
}

func WithRecorder(r metrics.Recorder) Option {
	return func(s *Site) { s.recorder = metrics.OrNoop(r) }
}

// New creates a Site. Zero page sizes fall back to DefaultPageSizes.
func New(resolver *content.Resolver, opts Options, options ...Option) *Site {
	def := DefaultPageSizes()
	if opts.PageSizes.Default <= 0 {
		opts.PageSizes.Default = def.Default
	}
	if opts.PageSizes.Resources <= 0 {
		opts.PageSizes.Resources = def.Resources
	}
	if opts.PageSizes.Tags <= 0 {
		opts.PageSizes.Tags = def.Tags
	}
	if opts.PageSizes.Sources <= 0 {
		opts.PageSizes.Sources = def.Sources
	}
	if opts.Locale == language.Und {
		opts.Locale = language.English
	}
	s := &Site{resolver: resolver, opts: opts, recorder: metrics.NoopRecorder{}}
	for _, o := range options {
		o(s)
	}
	return s
}

func (s *Site) Resolver() *content.Resolver { return s.resolver }

func (s *Site) PageSizes() PageSizes { return s.opts.PageSizes }

// lastUpdated looks up the source file of kind/id. It never fails.
func (s *Site) lastUpdated(ctx context.Context, kind content.Kind, id string) *time.Time {
	if s.timestamps == nil {
		return nil
	}
	schema := s.resolver.Schema(kind)
	if schema == nil {
		return nil
	}
	return s.timestamps.LastUpdatedOrNil(ctx, filepath.Join(s.opts.ContentRoot, schema.Folder.FilePath(id)))
}
