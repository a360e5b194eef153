package config

import (
	"errors"
	"net/url"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/campus/internal/content"
	ferrors "git.home.luguber.info/inful/campus/internal/foundation/errors"
	"git.home.luguber.info/inful/campus/internal/search"
)

// Validate checks a defaulted configuration. Every failing field is
// reported in the error context under "fields".
func Validate(cfg *Config) error {
	errs := validation.Errors{
		"version": validation.Validate(cfg.Version, validation.Required, validation.In(CurrentVersion)),
		"content": validation.ValidateStruct(&cfg.Content,
			validation.Field(&cfg.Content.Root, validation.Required),
			validation.Field(&cfg.Content.Folders, validation.By(knownKinds)),
		),
		"site": validation.ValidateStruct(&cfg.Site,
			validation.Field(&cfg.Site.BaseURL, is.URL),
			validation.Field(&cfg.Site.Locale, validation.Required, validation.By(isLocale)),
		),
		"build": validation.ValidateStruct(&cfg.Build,
			validation.Field(&cfg.Build.Output, validation.Required),
			validation.Field(&cfg.Build.Concurrency, validation.Min(1)),
		),
		"search": validation.ValidateStruct(&cfg.Search,
			validation.Field(&cfg.Search.Backend,
				validation.In(search.BackendNone, search.BackendBleve, search.BackendNATS)),
			validation.Field(&cfg.Search.BlevePath,
				validation.When(cfg.Search.Backend == search.BackendBleve, validation.Required)),
			validation.Field(&cfg.Search.NATSURL,
				validation.When(cfg.Search.Backend == search.BackendNATS, validation.Required, validation.By(isNATSURL))),
			validation.Field(&cfg.Search.Reindex, validation.Min(0)),
		),
		"preview": validation.ValidateStruct(&cfg.Preview,
			validation.Field(&cfg.Preview.Listen, validation.Required),
		),
		"logging": validation.ValidateStruct(&cfg.Logging,
			validation.Field(&cfg.Logging.Level, validation.In("debug", "info", "warn", "error")),
			validation.Field(&cfg.Logging.Format, validation.In("text", "json")),
		),
	}.Filter()
	if errs == nil {
		return nil
	}

	var fields []string
	var verrs validation.Errors
	if errors.As(errs, &verrs) {
		for section, err := range verrs {
			var inner validation.Errors
			if errors.As(err, &inner) {
				for field := range inner {
					fields = append(fields, section+"."+field)
				}
				continue
			}
			fields = append(fields, section)
		}
	}
	sort.Strings(fields)
	return ferrors.ConfigError("invalid configuration").
		WithCause(errs).
		WithContext("fields", fields).
		Build()
}

func isLocale(value any) error {
	s, _ := value.(string)
	if _, err := language.Parse(s); err != nil {
		return errors.New("must be a BCP 47 language tag")
	}
	return nil
}

var natsSchemes = map[string]bool{"nats": true, "tls": true, "ws": true, "wss": true}

// isNATSURL accepts a comma separated server list as nats.Connect does.
func isNATSURL(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	for _, part := range strings.Split(s, ",") {
		u, err := url.Parse(strings.TrimSpace(part))
		if err != nil || u.Host == "" || !natsSchemes[u.Scheme] {
			return errors.New("must be a nats://, tls://, ws:// or wss:// server URL")
		}
	}
	return nil
}

func knownKinds(value any) error {
	folders, _ := value.(map[string]FolderConfig)
	defaults := content.DefaultFolders()
	for name := range folders {
		if _, ok := defaults[content.Kind(name)]; !ok {
			return errors.New("unknown content kind " + name)
		}
	}
	return nil
}

func siteHost(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}
	return u.Host
}
