package commands

import (
	"fmt"
)

// RoutesCmd implements the 'routes' command.
type RoutesCmd struct{}

func (r *RoutesCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(g)
	if err != nil {
		return err
	}
	a, err := openApp(cfg, false)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signalContext()
	defer cancel()

	snap, err := a.site.Load(ctx)
	if err != nil {
		return err
	}
	for _, route := range a.site.Routes(snap) {
		fmt.Println(route.Path())
	}
	return nil
}
