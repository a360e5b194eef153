package site

import (
	"encoding/xml"
	"io"
	"net/url"
	"strings"

	ferrors "git.home.luguber.info/inful/campus/internal/foundation/errors"
)

type urlset struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc string `xml:"loc"`
}

// WriteSitemap writes a sitemaps.org document listing every route under
// baseURL. Without a base URL the locations are root-relative paths.
func WriteSitemap(w io.Writer, baseURL string, routes []Route) error {
	base := strings.TrimSuffix(baseURL, "/")
	if base != "" {
		if _, err := url.Parse(base); err != nil {
			return ferrors.ConfigError("invalid base URL").WithCause(err).WithContext("base_url", baseURL).Build()
		}
	}
	set := urlset{Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9", URLs: make([]sitemapURL, len(routes))}
	for i, r := range routes {
		set.URLs[i] = sitemapURL{Loc: base + r.Path()}
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "write sitemap").Build()
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "write sitemap").Build()
	}
	return enc.Close()
}
