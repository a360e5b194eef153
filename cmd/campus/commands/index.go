package commands

import (
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/campus/internal/logfields"
	"git.home.luguber.info/inful/campus/internal/search"
)

// IndexCmd implements the 'index' command. Upload failures are reported
// as warnings and never fail the command.
type IndexCmd struct {
	Backend string `help:"Search backend (none, bleve, nats); overrides search.backend"`
	Full    bool   `help:"Include the plain text of compiled bodies"`
	Query   string `short:"q" help:"Query the bleve index after uploading"`
}

func (i *IndexCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(g)
	if err != nil {
		return err
	}
	if i.Backend != "" {
		cfg.Search.Backend = i.Backend
	}
	a, err := openApp(cfg, false)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signalContext()
	defer cancel()

	records, err := search.BuildRecords(ctx, a.resolver, i.Full)
	if err != nil {
		return err
	}

	up, err := search.Open(ctx, cfg.SearchOptions())
	if err != nil {
		slog.Warn("Search backend unavailable", logfields.Backend(cfg.Search.Backend), logfields.Error(err))
		return nil
	}
	if up == nil {
		fmt.Printf("%d records built; no search backend configured\n", len(records))
		return nil
	}
	defer func() { _ = up.Close() }()

	if search.Publish(ctx, up, records, a.recorder) {
		fmt.Printf("%d records uploaded to %s\n", len(records), up.Name())
	}

	if idx, ok := up.(*search.BleveIndex); ok && i.Query != "" {
		hits, err := idx.Search(i.Query, 10)
		if err != nil {
			return err
		}
		for _, h := range hits {
			fmt.Printf("%.3f\t%s\t%s\n", h.Score, h.ID, h.Title)
		}
	}
	return nil
}
