package site

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/campus/internal/content"
	ferrors "git.home.luguber.info/inful/campus/internal/foundation/errors"
	"git.home.luguber.info/inful/campus/internal/listing"
)

// Snapshot holds sorted previews of every listed kind and the inverted
// indexes the listing pages count and filter with. It is built once per
// build; page assembly only reads it.
type Snapshot struct {
	People      []*content.Entity
	Tags        []*content.Entity
	Categories  []*content.Entity
	Posts       []*content.Entity
	Events      []*content.Entity
	Collections []*content.Entity
	Docs        []*content.Entity
	// Resources are posts and events merged, most recent first.
	Resources []*content.Entity

	posts  *listing.Index
	events *listing.Index
	byID   map[content.Kind]map[string]*content.Entity
}

var snapshotKinds = []content.Kind{
	content.KindPerson, content.KindTag, content.KindCategory,
	content.KindPost, content.KindEvent, content.KindCollection, content.KindDoc,
}

// Load resolves previews of every kind concurrently. The first failure
// aborts the whole load.
func (s *Site) Load(ctx context.Context) (*Snapshot, error) {
	start := time.Now()
	var (
		mu    sync.Mutex
		lists = make(map[content.Kind][]*content.Entity, len(snapshotKinds))
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, kind := range snapshotKinds {
		g.Go(func() error {
			entities, err := s.resolver.All(gctx, kind, content.ModePreview)
			if err != nil {
				return err
			}
			mu.Lock()
			lists[kind] = entities
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := checkResourceIDs(lists[content.KindPost], lists[content.KindEvent]); err != nil {
		return nil, err
	}
	snap := newSnapshot(lists, s.opts.Locale)
	s.recorder.ObserveStage("load", time.Since(start))
	return snap, nil
}

// checkResourceIDs rejects a post and an event sharing an id, since both
// would be served at /resource/{id}.
func checkResourceIDs(posts, events []*content.Entity) error {
	seen := make(map[string]bool, len(posts))
	for _, p := range posts {
		seen[p.ID] = true
	}
	for _, e := range events {
		if seen[e.ID] {
			return ferrors.ContentError("post and event share an id").
				WithContext("id", e.ID).
				WithContext("route", Route{Kind: RouteResource, ID: e.ID}.Path()).
				Build()
		}
	}
	return nil
}

func newSnapshot(lists map[content.Kind][]*content.Entity, locale language.Tag) *Snapshot {
	snap := &Snapshot{
		People:      lists[content.KindPerson],
		Tags:        lists[content.KindTag],
		Categories:  lists[content.KindCategory],
		Posts:       lists[content.KindPost],
		Events:      lists[content.KindEvent],
		Collections: lists[content.KindCollection],
		Docs:        lists[content.KindDoc],
		byID:        make(map[content.Kind]map[string]*content.Entity, len(lists)),
	}
	listing.SortByName(snap.People, locale)
	listing.SortByName(snap.Tags, locale)
	listing.SortByName(snap.Categories, locale)
	listing.SortByDate(snap.Posts)
	listing.SortByDate(snap.Events)
	listing.SortByDate(snap.Collections)
	listing.SortByOrder(snap.Docs)

	snap.Resources = slices.Concat(snap.Posts, snap.Events)
	listing.SortByDate(snap.Resources)

	snap.posts = listing.BuildIndex(snap.Posts, "tags", "categories", "authors")
	snap.events = listing.BuildIndex(snap.Events, "tags")

	for kind, entities := range lists {
		m := make(map[string]*content.Entity, len(entities))
		for _, e := range entities {
			m[e.ID] = e
		}
		snap.byID[kind] = m
	}
	return snap
}

// Lookup returns the preview of kind/id, or nil.
func (s *Snapshot) Lookup(kind content.Kind, id string) *content.Entity {
	return s.byID[kind][id]
}

// PostsByTag returns the posts tagged id, most recent first.
func (s *Snapshot) PostsByTag(id string) []*content.Entity {
	return s.posts.Select("tags", id, s.Posts)
}

// PostsByCategory returns the posts in category id, most recent first.
func (s *Snapshot) PostsByCategory(id string) []*content.Entity {
	return s.posts.Select("categories", id, s.Posts)
}

// PostsByAuthor returns the posts authored by person id, most recent first.
func (s *Snapshot) PostsByAuthor(id string) []*content.Entity {
	return s.posts.Select("authors", id, s.Posts)
}

// EventsByTag returns the events tagged id, most recent first.
func (s *Snapshot) EventsByTag(id string) []*content.Entity {
	return s.events.Select("tags", id, s.Events)
}

// TagCounts returns the tags used by at least one post with their post
// count, in name order.
func (s *Snapshot) TagCounts() []listing.Counted {
	return listing.WithCounts(s.posts, "tags", s.Tags)
}

// CategoryCounts returns the categories used by at least one post with
// their post count, in name order.
func (s *Snapshot) CategoryCounts() []listing.Counted {
	return listing.WithCounts(s.posts, "categories", s.Categories)
}

// PopularTags counts posts and events per tag and returns the limit most
// used tags, highest count first. Equal counts keep name order.
func (s *Snapshot) PopularTags(limit int) []listing.Counted {
	out := make([]listing.Counted, 0, len(s.Tags))
	for _, t := range s.Tags {
		if n := s.posts.Count("tags", t.ID) + s.events.Count("tags", t.ID); n > 0 {
			out = append(out, listing.Counted{Entity: t, Count: n})
		}
	}
	slices.SortStableFunc(out, func(a, b listing.Counted) int {
		return cmp.Compare(b.Count, a.Count)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
