package site

import (
	"strconv"
	"strings"

	ferrors "git.home.luguber.info/inful/campus/internal/foundation/errors"
	"git.home.luguber.info/inful/campus/internal/listing"
)

// RouteKind names a page template.
type RouteKind string

const (
	RouteResource   RouteKind = "resource"
	RouteResources  RouteKind = "resources"
	RouteTag        RouteKind = "tag"
	RouteTags       RouteKind = "tags"
	RouteSource     RouteKind = "source"
	RouteSources    RouteKind = "sources"
	RouteAuthor     RouteKind = "author"
	RouteCurriculum RouteKind = "curriculum"
	RouteCurricula  RouteKind = "curricula"
	RouteDocs       RouteKind = "docs"
)

// routeShape records which parameters each kind takes.
var routeShape = map[RouteKind]struct{ id, page bool }{
	RouteResource:   {id: true},
	RouteResources:  {page: true},
	RouteTag:        {id: true, page: true},
	RouteTags:       {page: true},
	RouteSource:     {id: true, page: true},
	RouteSources:    {page: true},
	RouteAuthor:     {id: true, page: true},
	RouteCurriculum: {id: true},
	RouteCurricula:  {page: true},
	RouteDocs:       {id: true},
}

// Route is one generated page.
type Route struct {
	Kind RouteKind
	ID   string
	Page int
}

// Path renders the route as a URL path, e.g. /tag/alpha/2.
func (r Route) Path() string {
	shape := routeShape[r.Kind]
	var b strings.Builder
	b.WriteString("/")
	b.WriteString(string(r.Kind))
	if shape.id {
		b.WriteString("/")
		b.WriteString(r.ID)
	}
	if shape.page {
		b.WriteString("/")
		b.WriteString(strconv.Itoa(r.Page))
	}
	return b.String()
}

func (r Route) String() string { return r.Path() }

// ParseRoute parses a URL path produced by Route.Path. A listing path
// without a page number means page 1.
func ParseRoute(path string) (Route, error) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	invalid := func() (Route, error) {
		return Route{}, ferrors.ValidationError("not a site route").WithContext("path", path).Build()
	}
	r := Route{Kind: RouteKind(parts[0])}
	shape, ok := routeShape[r.Kind]
	if !ok {
		return invalid()
	}
	rest := parts[1:]
	if shape.id {
		if len(rest) == 0 || rest[0] == "" {
			return invalid()
		}
		r.ID, rest = rest[0], rest[1:]
	}
	if shape.page {
		r.Page = 1
		if len(rest) > 0 {
			n, err := strconv.Atoi(rest[0])
			if err != nil || n < 1 {
				return invalid()
			}
			r.Page, rest = n, rest[1:]
		}
	}
	if len(rest) > 0 {
		return invalid()
	}
	return r, nil
}

// Routes enumerates every page of the site in a stable order. Listing
// routes cover exactly the page range of their listing; the per-entity
// listings (tag, source, author) are only generated for entities that
// have at least one post.
func (s *Site) Routes(snap *Snapshot) []Route {
	sizes := s.opts.PageSizes
	var routes []Route

	for _, e := range snap.Resources {
		routes = append(routes, Route{Kind: RouteResource, ID: e.ID})
	}
	routes = appendPages(routes, RouteResources, "", len(snap.Resources), sizes.Resources)

	for _, t := range snap.Tags {
		if n := len(snap.PostsByTag(t.ID)); n > 0 {
			routes = appendPages(routes, RouteTag, t.ID, n, sizes.Default)
		}
	}
	routes = appendPages(routes, RouteTags, "", len(snap.TagCounts()), sizes.Tags)

	for _, c := range snap.Categories {
		if n := len(snap.PostsByCategory(c.ID)); n > 0 {
			routes = appendPages(routes, RouteSource, c.ID, n, sizes.Resources)
		}
	}
	routes = appendPages(routes, RouteSources, "", len(snap.CategoryCounts()), sizes.Sources)

	for _, p := range snap.People {
		if n := len(snap.PostsByAuthor(p.ID)); n > 0 {
			routes = appendPages(routes, RouteAuthor, p.ID, n, sizes.Default)
		}
	}

	for _, c := range snap.Collections {
		routes = append(routes, Route{Kind: RouteCurriculum, ID: c.ID})
	}
	routes = appendPages(routes, RouteCurricula, "", len(snap.Collections), sizes.Default)

	for _, d := range snap.Docs {
		routes = append(routes, Route{Kind: RouteDocs, ID: d.ID})
	}
	return routes
}

func appendPages(routes []Route, kind RouteKind, id string, total, size int) []Route {
	for _, n := range listing.PageRange(total, size) {
		routes = append(routes, Route{Kind: kind, ID: id, Page: n})
	}
	return routes
}

// pageSize returns the listing size used by kind.
func (s *Site) pageSize(kind RouteKind) int {
	switch kind {
	case RouteResources, RouteSource:
		return s.opts.PageSizes.Resources
	case RouteTags:
		return s.opts.PageSizes.Tags
	case RouteSources:
		return s.opts.PageSizes.Sources
	default:
		return s.opts.PageSizes.Default
	}
}
