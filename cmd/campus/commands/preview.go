package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/campus/internal/api"
	"git.home.luguber.info/inful/campus/internal/logfields"
	"git.home.luguber.info/inful/campus/internal/preview"
	"git.home.luguber.info/inful/campus/internal/search"
	"git.home.luguber.info/inful/campus/internal/store"
)

// PreviewCmd implements the 'preview' command.
type PreviewCmd struct {
	Listen  string `short:"l" help:"Listen address (overrides preview.listen)"`
	NoWatch bool   `name:"no-watch" help:"Do not watch the content folders"`
}

func (p *PreviewCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(g)
	if err != nil {
		return err
	}
	a, err := openApp(cfg, true)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signalContext()
	defer cancel()

	overlay := store.NewOverlay(a.reader)
	drafts, err := a.newResolver(overlay)
	if err != nil {
		return err
	}
	previews := preview.NewManager(overlay, drafts,
		preview.WithDebounce(cfg.Preview.Debounce),
		preview.WithRecorder(a.recorder))
	defer previews.Close()

	opts := []api.Option{api.WithSite(a.newSite(drafts))}
	if h := a.historyStore(); h != nil {
		opts = append(opts, api.WithHistory(h))
	}
	if a.prom != nil {
		opts = append(opts, api.WithMetricsHandler(a.prom.Handler()))
	}

	up, err := search.Open(ctx, cfg.SearchOptions())
	if err != nil {
		slog.Warn("Search backend unavailable", logfields.Backend(cfg.Search.Backend), logfields.Error(err))
	} else if up != nil {
		defer func() { _ = up.Close() }()
		if idx, ok := up.(*search.BleveIndex); ok {
			opts = append(opts, api.WithSearch(idx))
		}
	}

	if up != nil && cfg.Search.Reindex > 0 {
		sched, err := preview.NewScheduler()
		if err != nil {
			return err
		}
		reindex := func(ctx context.Context) {
			// committed content only; drafts never reach the index
			records, err := search.BuildRecords(ctx, a.resolver, false)
			if err != nil {
				slog.Warn("Re-index skipped", logfields.Error(err))
				return
			}
			search.Publish(ctx, up, records, a.recorder)
		}
		if err := sched.Every(ctx, "search-reindex", cfg.Search.Reindex, reindex); err != nil {
			return err
		}
		sched.Start()
		defer func() { _ = sched.Stop() }()
	}

	if cfg.Preview.Watch && !p.NoWatch {
		go func() {
			err := preview.Watch(ctx, a.contentDirs(), cfg.Preview.Debounce, func() {
				n := previews.Invalidate()
				slog.Info("Content changed; previews invalidated", logfields.Count(n))
			})
			if err != nil {
				slog.Warn("File watcher stopped", logfields.Error(err))
			}
		}()
	}

	addr := cfg.Preview.Listen
	if p.Listen != "" {
		addr = p.Listen
	}
	srv := api.NewServer(addr, previews, opts...)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()
	slog.Info("Preview server listening", slog.String("addr", addr))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down preview server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		slog.Warn("Preview server shutdown error", logfields.Error(err))
	}
	return nil
}
