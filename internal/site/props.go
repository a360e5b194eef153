package site

import (
	"context"
	"time"

	"git.home.luguber.info/inful/campus/internal/content"
	ferrors "git.home.luguber.info/inful/campus/internal/foundation/errors"
	"git.home.luguber.info/inful/campus/internal/listing"
)

// ResourceProps is the data of a post or event page.
type ResourceProps struct {
	Kind          content.Kind    `json:"kind"`
	Resource      *content.Entity `json:"resource"`
	LastUpdatedAt *time.Time      `json:"lastUpdatedAt"`
}

// ResourcesProps is one page of all posts and events, with the most used
// tags alongside.
type ResourcesProps struct {
	Resources listing.Page[*content.Entity] `json:"resources"`
	Tags      []listing.Counted             `json:"tags"`
}

// TaxonomyProps is one page of the posts of a tag, category or author.
// Tag pages also list every event carrying the tag.
type TaxonomyProps struct {
	Kind   content.Kind                  `json:"kind"`
	Entity *content.Entity               `json:"entity"`
	Posts  listing.Page[*content.Entity] `json:"posts"`
	Events []content.Event               `json:"events,omitempty"`
}

// CountsProps is one page of tags or categories with their post counts.
type CountsProps struct {
	Kind  content.Kind                  `json:"kind"`
	Items listing.Page[listing.Counted] `json:"items"`
}

// CollectionProps is the data of a curriculum page.
type CollectionProps struct {
	Collection    *content.Entity `json:"collection"`
	LastUpdatedAt *time.Time      `json:"lastUpdatedAt"`
}

// CollectionsProps is one page of curricula.
type CollectionsProps struct {
	Collections listing.Page[content.Collection] `json:"collections"`
}

// DocsProps is a documentation page with the navigation of all pages.
type DocsProps struct {
	Docs          *content.Entity `json:"docs"`
	Nav           []content.Doc   `json:"nav"`
	LastUpdatedAt *time.Time      `json:"lastUpdatedAt"`
}

// Props assembles the data of one route. Detail pages resolve their
// entity in full; listings page through snap. A page number outside the
// listing's page range is a not found error.
func (s *Site) Props(ctx context.Context, snap *Snapshot, r Route) (any, error) {
	switch r.Kind {
	case RouteResource:
		e, err := s.resolver.ResolveResource(ctx, r.ID, content.ModeFull)
		if err != nil {
			return nil, err
		}
		return ResourceProps{Kind: e.Kind, Resource: e, LastUpdatedAt: s.lastUpdated(ctx, e.Kind, e.ID)}, nil

	case RouteResources:
		page, err := pageOf(snap.Resources, s.pageSize(r.Kind), r)
		if err != nil {
			return nil, err
		}
		return ResourcesProps{Resources: page, Tags: snap.PopularTags(s.opts.PageSizes.Tags)}, nil

	case RouteTag:
		return s.taxonomy(snap, r, content.KindTag, snap.PostsByTag)
	case RouteSource:
		return s.taxonomy(snap, r, content.KindCategory, snap.PostsByCategory)
	case RouteAuthor:
		return s.taxonomy(snap, r, content.KindPerson, snap.PostsByAuthor)

	case RouteTags:
		page, err := pageOf(snap.TagCounts(), s.pageSize(r.Kind), r)
		if err != nil {
			return nil, err
		}
		return CountsProps{Kind: content.KindTag, Items: page}, nil
	case RouteSources:
		page, err := pageOf(snap.CategoryCounts(), s.pageSize(r.Kind), r)
		if err != nil {
			return nil, err
		}
		return CountsProps{Kind: content.KindCategory, Items: page}, nil

	case RouteCurriculum:
		e, err := s.resolver.Resolve(ctx, content.KindCollection, r.ID)
		if err != nil {
			return nil, err
		}
		return CollectionProps{Collection: e, LastUpdatedAt: s.lastUpdated(ctx, e.Kind, e.ID)}, nil
	case RouteCurricula:
		page, err := pageOf(snap.Collections, s.pageSize(r.Kind), r)
		if err != nil {
			return nil, err
		}
		items, err := decodeAll[content.Collection](page.Items)
		if err != nil {
			return nil, err
		}
		return CollectionsProps{Collections: listing.Page[content.Collection]{
			Items: items,
			Page:  page.Page,
			Pages: page.Pages,
		}}, nil

	case RouteDocs:
		e, err := s.resolver.Resolve(ctx, content.KindDoc, r.ID)
		if err != nil {
			return nil, err
		}
		nav, err := decodeAll[content.Doc](snap.Docs)
		if err != nil {
			return nil, err
		}
		return DocsProps{Docs: e, Nav: nav, LastUpdatedAt: s.lastUpdated(ctx, e.Kind, e.ID)}, nil
	}
	return nil, ferrors.ValidationError("unknown route kind").WithContext("route", r.Path()).Build()
}

func (s *Site) taxonomy(snap *Snapshot, r Route, kind content.Kind, posts func(string) []*content.Entity) (any, error) {
	e := snap.Lookup(kind, r.ID)
	if e == nil {
		return nil, ferrors.NotFoundError("no such "+string(kind)).
			WithContext("route", r.Path()).
			WithContext("id", r.ID).
			Build()
	}
	page, err := pageOf(posts(r.ID), s.pageSize(r.Kind), r)
	if err != nil {
		return nil, err
	}
	props := TaxonomyProps{Kind: kind, Entity: e, Posts: page}
	if kind == content.KindTag {
		if props.Events, err = decodeAll[content.Event](snap.EventsByTag(r.ID)); err != nil {
			return nil, err
		}
	}
	return props, nil
}

func decodeAll[T any](entities []*content.Entity) ([]T, error) {
	out := make([]T, len(entities))
	for i, e := range entities {
		v, err := content.Decode[T](e)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func pageOf[T any](items []T, size int, r Route) (listing.Page[T], error) {
	if r.Page < 1 || r.Page > listing.PageCount(len(items), size) {
		return listing.Page[T]{}, ferrors.NotFoundError("page out of range").
			WithContext("route", r.Path()).
			WithContext("page", r.Page).
			Build()
	}
	return listing.PageOf(items, size, r.Page), nil
}
