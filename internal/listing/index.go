package listing

import (
	"encoding/json"
	"maps"
	"slices"

	"git.home.luguber.info/inful/campus/internal/content"
)

// Index maps taxonomy identifiers to the content that references them.
// It is built once from resolved previews, so counting is a lookup rather
// than a scan of every entity per taxonomy.
type Index struct {
	// field -> taxonomy id -> content ids in input order
	refs map[string]map[string][]string
}

// BuildIndex indexes the RefList fields of entities. Entities should be
// passed in listing order; Select keeps that order.
func BuildIndex(entities []*content.Entity, fields ...string) *Index {
	ix := &Index{refs: make(map[string]map[string][]string, len(fields))}
	for _, f := range fields {
		ix.refs[f] = make(map[string][]string)
	}
	for _, e := range entities {
		for _, f := range fields {
			seen := make(map[string]bool)
			for _, taxID := range e.RefIDs(f) {
				if seen[taxID] {
					continue
				}
				seen[taxID] = true
				ix.refs[f][taxID] = append(ix.refs[f][taxID], indexKey(e))
			}
		}
	}
	return ix
}

func indexKey(e *content.Entity) string {
	return string(e.Kind) + "/" + e.ID
}

// Count returns how many entities reference taxID through field.
func (ix *Index) Count(field, taxID string) int {
	return len(ix.refs[field][taxID])
}

// Keys returns the taxonomy ids that have at least one reference.
func (ix *Index) Keys(field string) []string {
	return slices.Sorted(maps.Keys(ix.refs[field]))
}

// Select returns the entities that reference taxID through field, in the
// order of entities.
func (ix *Index) Select(field, taxID string, entities []*content.Entity) []*content.Entity {
	want := make(map[string]bool, ix.Count(field, taxID))
	for _, key := range ix.refs[field][taxID] {
		want[key] = true
	}
	out := make([]*content.Entity, 0, len(want))
	for _, e := range entities {
		if want[indexKey(e)] {
			out = append(out, e)
		}
	}
	return out
}

// Counted is a taxonomy entity with the number of entities referencing it.
type Counted struct {
	Entity *content.Entity
	Count  int
}

// MarshalJSON renders the entity preview with an added "count" member.
func (c Counted) MarshalJSON() ([]byte, error) {
	m := c.Entity.Metadata()
	m["count"] = c.Count
	return json.Marshal(m)
}

// WithCounts pairs each taxonomy with its reference count and drops those
// nobody references. The order of taxonomies is kept, so sort first and
// paginate the result.
func WithCounts(ix *Index, field string, taxonomies []*content.Entity) []Counted {
	out := make([]Counted, 0, len(taxonomies))
	for _, t := range taxonomies {
		if n := ix.Count(field, t.ID); n > 0 {
			out = append(out, Counted{Entity: t, Count: n})
		}
	}
	return out
}

