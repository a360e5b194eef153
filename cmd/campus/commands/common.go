package commands

import (
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/campus/internal/config"
)

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"campus.yaml" env:"CAMPUS_CONFIG"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" help:"Write page data and sitemap for every route"`
	Routes  RoutesCmd  `cmd:"" help:"Print every route that would be generated"`
	Index   IndexCmd   `cmd:"" help:"Upload search records for all posts"`
	Preview PreviewCmd `cmd:"" help:"Serve the CMS preview API"`
	History HistoryCmd `cmd:"" help:"List recorded builds"`
	Init    InitCmd    `cmd:"" help:"Write an example configuration file"`
}

// AfterApply runs after flag parsing; setup logging once. The
// configuration file may refine it later, see setupLogging.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply(g *Global) error {
	g.Logger = setupLogging(c.Verbose, "", "")
	return nil
}

// setupLogging installs the default logger. The level is taken from -v,
// then CAMPUS_LOG_LEVEL, then level; the format from CAMPUS_LOG_FORMAT,
// then format.
func setupLogging(verbose bool, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(verbose, level)}
	if env := os.Getenv("CAMPUS_LOG_FORMAT"); env != "" {
		format = env
	}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func parseLogLevel(verbose bool, fallback string) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	raw := os.Getenv("CAMPUS_LOG_LEVEL")
	if raw == "" {
		raw = fallback
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// loadConfig loads the configuration and applies its logging section. The
// default path may be absent.
func (c *CLI) loadConfig(g *Global) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(c.Config, c.Config != config.DefaultPath)
	if err != nil {
		return nil, err
	}
	g.Logger = setupLogging(c.Verbose, cfg.Logging.Level, cfg.Logging.Format)
	return cfg, nil
}
