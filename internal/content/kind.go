package content

import (
	"slices"

	ferrors "git.home.luguber.info/inful/campus/internal/foundation/errors"
)

// Kind names an entity kind.
type Kind string

const (
	KindPerson      Kind = "person"
	KindTag         Kind = "tag"
	KindCategory    Kind = "category"
	KindContentType Kind = "contenttype"
	KindPost        Kind = "post"
	KindEvent       Kind = "event"
	KindCollection  Kind = "collection"
	KindDoc         Kind = "doc"
)

// Kinds lists every kind in dependency order: a kind only references kinds
// listed before it.
var Kinds = []Kind{KindPerson, KindTag, KindCategory, KindContentType, KindPost, KindEvent, KindCollection, KindDoc}

// ParseKind validates s as a kind name.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !slices.Contains(Kinds, k) {
		return "", ferrors.ValidationError("unknown entity kind").WithContext("kind", s).Build()
	}
	return k, nil
}

// Mode selects how much of an entity is produced.
type Mode int

const (
	// ModeFull compiles the body and attaches the table of contents.
	ModeFull Mode = iota
	// ModePreview produces hydrated metadata only. Related entities are
	// always resolved in this mode.
	ModePreview
)

func (m Mode) String() string {
	if m == ModePreview {
		return "preview"
	}
	return "full"
}
