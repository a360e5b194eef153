package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"git.home.luguber.info/inful/campus/internal/config"
	"git.home.luguber.info/inful/campus/internal/content"
	"git.home.luguber.info/inful/campus/internal/eventstore"
	ferrors "git.home.luguber.info/inful/campus/internal/foundation/errors"
	"git.home.luguber.info/inful/campus/internal/git"
	"git.home.luguber.info/inful/campus/internal/logfields"
	"git.home.luguber.info/inful/campus/internal/markdown"
	"git.home.luguber.info/inful/campus/internal/metrics"
	"git.home.luguber.info/inful/campus/internal/site"
	"git.home.luguber.info/inful/campus/internal/store"
)

// app holds the components shared by the commands.
type app struct {
	cfg      *config.Config
	reader   store.Reader
	schemas  content.Schemas
	compiler *markdown.Compiler
	resolver *content.Resolver
	site     *site.Site
	recorder metrics.Recorder
	prom     *metrics.PrometheusRecorder
	git      *git.History
	history  *eventstore.SQLiteStore
}

// openApp wires configuration, content store, resolver and site. The
// build history is opened only when withHistory is set and a path is
// configured.
func openApp(cfg *config.Config, withHistory bool) (*app, error) {
	a := &app{
		cfg:      cfg,
		reader:   store.NewFSReader(cfg.Content.Root),
		schemas:  content.DefaultSchemas(cfg.ContentFolders()),
		compiler: markdown.New(cfg.MarkdownOptions()),
		recorder: metrics.NoopRecorder{},
	}
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		a.prom = metrics.NewPrometheusRecorder(reg)
		a.recorder = a.prom
	}

	resolver, err := a.newResolver(a.reader)
	if err != nil {
		return nil, err
	}
	a.resolver = resolver

	if cfg.Build.GitTimestamps {
		h, err := git.Open(cfg.Content.Root)
		if err != nil {
			slog.Warn("Git timestamps disabled", logfields.Path(cfg.Content.Root), logfields.Error(err))
		} else {
			a.git = h
		}
	}
	a.site = a.newSite(resolver)

	if withHistory && cfg.History.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.History.Path), 0o750); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "create history directory").
				WithContext("path", cfg.History.Path).Build()
		}
		st, err := eventstore.NewSQLiteStore(cfg.History.Path)
		if err != nil {
			return nil, err
		}
		a.history = st
	}
	return a, nil
}

func (a *app) newResolver(reader store.Reader) (*content.Resolver, error) {
	return content.NewResolver(reader, a.schemas, a.compiler,
		content.WithRecorder(a.recorder),
		content.WithConcurrency(a.cfg.Build.Concurrency))
}

func (a *app) newSite(resolver *content.Resolver) *site.Site {
	opts := []site.Option{site.WithRecorder(a.recorder)}
	if a.git != nil {
		opts = append(opts, site.WithTimestamps(a.git))
	}
	sizes := a.cfg.Site.PageSizes
	return site.New(resolver, site.Options{
		Locale: a.cfg.LocaleTag(),
		PageSizes: site.PageSizes{
			Default:   sizes.Default,
			Resources: sizes.Resources,
			Tags:      sizes.Tags,
			Sources:   sizes.Sources,
		},
		ContentRoot: a.cfg.Content.Root,
	}, opts...)
}

// historyStore returns the build history, or nil when none is configured.
// It avoids handing out a typed nil interface.
func (a *app) historyStore() eventstore.Store {
	if a.history == nil {
		return nil
	}
	return a.history
}

// commit returns the HEAD of the content repository, if it is one.
func (a *app) commit() string {
	h := a.git
	if h == nil {
		var err error
		if h, err = git.Open(a.cfg.Content.Root); err != nil {
			return ""
		}
	}
	head, err := h.Head()
	if err != nil {
		return ""
	}
	return head
}

func (a *app) Close() {
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			slog.Warn("Closing build history failed", logfields.Error(err))
		}
	}
}

// contentDirs returns the absolute folder of every stored kind, for
// watching.
func (a *app) contentDirs() []string {
	fs, ok := a.reader.(*store.FSReader)
	if !ok {
		return nil
	}
	seen := map[string]bool{}
	var dirs []string
	for _, kind := range content.Kinds {
		s := a.schemas[kind]
		if s == nil || s.Folder.Dir == "" {
			continue
		}
		dir := fs.Abs(s.Folder.Dir)
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
