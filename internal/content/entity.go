package content

import (
	"encoding/json"
	"maps"
	"strings"
	"time"

	"git.home.luguber.info/inful/campus/internal/markdown"
)

// Entity is a hydrated content record.
//
// Fields holds the front matter after resolution: declared references are
// replaced by *Entity values (RefList becomes []*Entity), Markdown fields by
// *markdown.Document and Records by []map[string]any. Everything else is
// copied from the file.
type Entity struct {
	Kind   Kind
	ID     string
	Fields map[string]any
	// Body is nil for previews and for kinds without a body.
	Body *markdown.Document
	// Fingerprint identifies the raw file content.
	Fingerprint string
}

// IsPreview reports whether the compiled body is absent.
func (e *Entity) IsPreview() bool { return e.Body == nil }

// String returns a scalar field as a string.
func (e *Entity) String(name string) string {
	s, _ := e.Fields[name].(string)
	return s
}

// Int returns an integer field and whether it was present.
func (e *Entity) Int(name string) (int, bool) {
	switch v := e.Fields[name].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

// Date parses the date field. The zero time is returned when it is absent
// or malformed.
func (e *Entity) Date() time.Time {
	t, _ := ParseDate(e.String("date"))
	return t
}

// Refs returns the entities of a RefList field.
func (e *Entity) Refs(name string) []*Entity {
	refs, _ := e.Fields[name].([]*Entity)
	return refs
}

// Ref returns the entity of a Ref field.
func (e *Entity) Ref(name string) *Entity {
	ref, _ := e.Fields[name].(*Entity)
	return ref
}

// RefIDs returns the identifiers of a RefList field, in order.
func (e *Entity) RefIDs(name string) []string {
	refs := e.Refs(name)
	ids := make([]string, len(refs))
	for i, r := range refs {
		ids[i] = r.ID
	}
	return ids
}

// Markdown returns a compiled Markdown field, or nil.
func (e *Entity) Markdown(name string) *markdown.Document {
	doc, _ := e.Fields[name].(*markdown.Document)
	return doc
}

// Records returns a Records field.
func (e *Entity) Records(name string) []map[string]any {
	recs, _ := e.Fields[name].([]map[string]any)
	return recs
}

// DisplayName is the label listings sort and display by.
func (e *Entity) DisplayName() string {
	switch e.Kind {
	case KindPerson:
		return FullName(e.String("firstName"), e.String("lastName"))
	case KindTag, KindCategory, KindContentType:
		return e.String("name")
	default:
		return e.String("title")
	}
}

// FullName joins the non-empty name parts with a space.
func FullName(parts ...string) string {
	nonEmpty := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, " ")
}

// Metadata returns the fields with the identifier added, as rendered for
// list views.
func (e *Entity) Metadata() map[string]any {
	out := make(map[string]any, len(e.Fields)+1)
	maps.Copy(out, e.Fields)
	out["id"] = e.ID
	return out
}

type entityData struct {
	Metadata map[string]any      `json:"metadata"`
	Toc      []markdown.TocEntry `json:"toc"`
}

type fullEntity struct {
	ID   string     `json:"id"`
	Data entityData `json:"data"`
	Code string     `json:"code"`
}

// MarshalJSON renders previews flat ({"id", ...fields}) and full entities
// as {"id", "data": {"metadata", "toc"}, "code"}.
func (e *Entity) MarshalJSON() ([]byte, error) {
	if e.Body == nil {
		return json.Marshal(e.Metadata())
	}
	return json.Marshal(fullEntity{
		ID:   e.ID,
		Data: entityData{Metadata: e.Fields, Toc: e.Body.Toc},
		Code: e.Body.HTML,
	})
}

// PreviewOf returns e without its compiled body.
func PreviewOf(e *Entity) *Entity {
	if e == nil || e.Body == nil {
		return e
	}
	cp := *e
	cp.Body = nil
	return &cp
}
