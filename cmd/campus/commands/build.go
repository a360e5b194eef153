package commands

import (
	"fmt"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/campus/internal/build"
	"git.home.luguber.info/inful/campus/internal/logfields"
	"git.home.luguber.info/inful/campus/internal/search"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output  string `short:"o" help:"Output directory (overrides build.output)"`
	BaseURL string `name:"base-url" help:"Base URL of sitemap locations (overrides site.base_url)"`
	Clean   bool   `help:"Remove the output directory first"`
	Index   bool   `help:"Upload search records after the build"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
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

	req := build.BuildRequest{
		OutputDir:   cfg.Build.Output,
		BaseURL:     cfg.Site.BaseURL,
		Clean:       cfg.Build.Clean || b.Clean,
		Concurrency: cfg.Build.Concurrency,
		Index:       b.Index || cfg.Search.IndexOnBuild,
		ContentRoot: cfg.Content.Root,
		Commit:      a.commit(),
	}
	if b.Output != "" {
		req.OutputDir = b.Output
	}
	if b.BaseURL != "" {
		req.BaseURL = b.BaseURL
	}

	svc := build.NewBuildService(a.site).
		WithRecorder(a.recorder).
		WithHistory(a.historyStore())
	if req.Index {
		up, err := search.Open(ctx, cfg.SearchOptions())
		if err != nil {
			// indexing is best effort; the build goes on without it
			slog.Warn("Search backend unavailable", logfields.Backend(cfg.Search.Backend), logfields.Error(err))
		} else if up != nil {
			defer func() { _ = up.Close() }()
			svc = svc.WithUploader(up)
		}
	}

	result, err := svc.Run(ctx, req)
	if err != nil {
		return err
	}
	fmt.Printf("Build %s: %d pages written to %s in %s", result.BuildID, result.Routes, result.OutputPath, result.Duration.Round(time.Millisecond))
	if result.BrokenLinks > 0 {
		fmt.Printf(" (%d broken links)", result.BrokenLinks)
	}
	fmt.Println()
	return nil
}
