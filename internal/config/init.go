package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/campus/internal/foundation/errors"
	"git.home.luguber.info/inful/campus/internal/search"
)

// Example returns the configuration written by Init.
func Example() *Config {
	cfg := &Config{
		Version: CurrentVersion,
		Content: ContentConfig{Root: "."},
		Site: SiteConfig{
			BaseURL:   "https://campus.example.org",
			Locale:    "en",
			PageSizes: PageSizes{
				Default:   DefaultPageSize,
				Resources: ResourcesPageSize,
				Tags:      TagsPageSize,
				Sources:   SourcesPageSize,
			},
		},
		Markdown: MarkdownConfig{HighlightStyle: "github"},
		Build:    BuildConfig{Output: "public", Concurrency: 8, GitTimestamps: true, Clean: true},
		Search: SearchConfig{
			Backend:   search.BackendBleve,
			BlevePath: ".campus/search.bleve",
			Reindex:   15 * time.Minute,
		},
		Preview: PreviewConfig{Listen: DefaultListenAddr, Debounce: DefaultDebounce, Watch: true},
		History: HistoryConfig{Path: ".campus/history.db"},
		Metrics: MetricsConfig{Enabled: true},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
	return cfg
}

// Init writes the example configuration to path. An existing file is
// only replaced when force is set.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return ferrors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("path", path).Build()
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "stat configuration file").
			WithContext("path", path).Build()
	}

	data, err := yaml.Marshal(Example())
	if err != nil {
		return ferrors.InternalError("marshal example configuration").WithCause(err).Build()
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "write configuration file").
			WithContext("path", path).Build()
	}
	return nil
}
