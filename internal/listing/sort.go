package listing

import (
	"cmp"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/campus/internal/content"
)

// SortByDate orders entities most recent first. Equal dates fall back to
// ascending identifier so the order is total and stable across builds.
func SortByDate(entities []*content.Entity) {
	slices.SortStableFunc(entities, func(a, b *content.Entity) int {
		if c := b.Date().Compare(a.Date()); c != 0 {
			return c
		}
		if c := strings.Compare(b.String("date"), a.String("date")); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

// SortByName orders entities by display name using the collation rules of
// locale. Ties fall back to the identifier.
func SortByName(entities []*content.Entity, locale language.Tag) {
	// Collators are not safe for concurrent use; make one per call.
	col := collate.New(locale, collate.IgnoreCase)
	var buf collate.Buffer
	keys := make(map[*content.Entity][]byte, len(entities))
	for _, e := range entities {
		keys[e] = slices.Clone(col.KeyFromString(&buf, e.DisplayName()))
		buf.Reset()
	}
	slices.SortStableFunc(entities, func(a, b *content.Entity) int {
		if c := slices.Compare(keys[a], keys[b]); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

// SortByOrder orders documentation pages by their order field. Pages
// without one go last, by title.
func SortByOrder(entities []*content.Entity) {
	slices.SortStableFunc(entities, func(a, b *content.Entity) int {
		ao, aok := a.Int("order")
		bo, bok := b.Int("order")
		switch {
		case aok && !bok:
			return -1
		case !aok && bok:
			return 1
		case aok && bok && ao != bo:
			return cmp.Compare(ao, bo)
		}
		if c := strings.Compare(a.DisplayName(), b.DisplayName()); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

// CompareNames compares two names under locale collation.
func CompareNames(locale language.Tag, a, b string) int {
	return collate.New(locale, collate.IgnoreCase).CompareString(a, b)
}
