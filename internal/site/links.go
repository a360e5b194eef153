package site

import (
	"net/url"
	"strings"

	"git.home.luguber.info/inful/campus/internal/content"
	"git.home.luguber.info/inful/campus/internal/markdown"
)

// BrokenLink is an internal link to a detail page that is not generated.
type BrokenLink struct {
	Destination string
	Route       Route
}

// BrokenLinks returns the internal links of doc that point at a resource,
// curriculum or docs page missing from snap. Links to other pages are not
// checked.
func BrokenLinks(snap *Snapshot, doc *markdown.Document) []BrokenLink {
	if doc == nil {
		return nil
	}
	var broken []BrokenLink
	for _, l := range doc.Links {
		if l.Kind != markdown.LinkInternal {
			continue
		}
		u, err := url.Parse(l.Destination)
		if err != nil || !strings.HasPrefix(u.Path, "/") {
			continue
		}
		r, err := ParseRoute(u.Path)
		if err != nil || snap.exists(r) {
			continue
		}
		broken = append(broken, BrokenLink{Destination: l.Destination, Route: r})
	}
	return broken
}

func (s *Snapshot) exists(r Route) bool {
	switch r.Kind {
	case RouteResource:
		return s.Lookup(content.KindPost, r.ID) != nil || s.Lookup(content.KindEvent, r.ID) != nil
	case RouteCurriculum:
		return s.Lookup(content.KindCollection, r.ID) != nil
	case RouteDocs:
		return s.Lookup(content.KindDoc, r.ID) != nil
	}
	return true
}
