package content

import (
	"fmt"
	"slices"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	ferrors "git.home.luguber.info/inful/campus/internal/foundation/errors"
	"git.home.luguber.info/inful/campus/internal/store"
)

// FieldType says how a front matter field is resolved.
type FieldType int

const (
	// Scalar values are copied as they are. Undeclared keys are scalars.
	Scalar FieldType = iota
	// RefList is a list of identifiers of Target, replaced by the
	// resolved entities in the same order. Absent means empty.
	RefList
	// Ref is a single identifier of Target.
	Ref
	// Markdown is a text block compiled like a body.
	Markdown
	// Records is a list of nested maps resolved with Fields.
	Records
)

func (t FieldType) String() string {
	switch t {
	case RefList:
		return "ref-list"
	case Ref:
		return "ref"
	case Markdown:
		return "markdown"
	case Records:
		return "records"
	default:
		return "scalar"
	}
}

// Field declares one non-trivial front matter field.
type Field struct {
	Name   string
	Type   FieldType
	Target Kind
	// Required fields must be present. An absent optional Markdown field
	// resolves to null.
	Required bool
	// Fields describes the members of each record when Type is Records.
	Fields []Field
}

// Schema declares how one kind is stored and resolved.
type Schema struct {
	Kind   Kind
	Folder store.Folder
	// MetadataOnly files are plain YAML documents without a body.
	MetadataOnly bool
	// CompileBody compiles the Markdown body in ModeFull.
	CompileBody bool
	Fields      []Field
	// Rules validate the raw front matter before resolution.
	Rules []*validation.KeyRules
	// Builtin entities are not read from disk. The content type enumeration
	// is the only builtin kind.
	Builtin map[string]map[string]any
}

// Schemas indexes schemas by kind.
type Schemas map[Kind]*Schema

// DefaultFolders is the on-disk layout of the site repository.
func DefaultFolders() map[Kind]store.Folder {
	return map[Kind]store.Folder{
		KindPerson:     {Dir: "content/people", Ext: "yml"},
		KindTag:        {Dir: "content/tags", Ext: "yml"},
		KindCategory:   {Dir: "content/categories", Ext: "yml"},
		KindPost:       {Dir: "content/resources", Ext: "mdx"},
		KindEvent:      {Dir: "content/events", Ext: "mdx"},
		KindCollection: {Dir: "content/curricula", Ext: "mdx"},
		KindDoc:        {Dir: "documentation", Ext: "mdx"},
	}
}

// DefaultSchemas returns the schema table for the given folders. Kinds
// missing from folders use DefaultFolders.
func DefaultSchemas(folders map[Kind]store.Folder) Schemas {
	defaults := DefaultFolders()
	folder := func(k Kind) store.Folder {
		if f, ok := folders[k]; ok && f.Dir != "" {
			if f.Ext == "" {
				f.Ext = defaults[k].Ext
			}
			return f
		}
		return defaults[k]
	}

	people := func(name string) Field { return Field{Name: name, Type: RefList, Target: KindPerson} }
	taxonomies := []Field{
		{Name: "tags", Type: RefList, Target: KindTag},
		{Name: "categories", Type: RefList, Target: KindCategory},
		{Name: "type", Type: Ref, Target: KindContentType, Required: true},
	}

	return Schemas{
		KindPerson: {
			Kind: KindPerson, Folder: folder(KindPerson), MetadataOnly: true,
			Rules: []*validation.KeyRules{
				validation.Key("lastName", validation.Required),
				validation.Key("email", validation.By(isString)).Optional(),
			},
		},
		KindTag: {
			Kind: KindTag, Folder: folder(KindTag), MetadataOnly: true,
			Rules: []*validation.KeyRules{validation.Key("name", validation.Required)},
		},
		KindCategory: {
			Kind: KindCategory, Folder: folder(KindCategory), MetadataOnly: true,
			Rules: []*validation.KeyRules{validation.Key("name", validation.Required)},
		},
		KindContentType: {
			Kind: KindContentType, MetadataOnly: true, Builtin: contentTypeBuiltins(),
		},
		KindPost: {
			Kind: KindPost, Folder: folder(KindPost), CompileBody: true,
			Fields: append([]Field{people("authors"), people("contributors"), people("editors")}, taxonomies...),
			Rules: []*validation.KeyRules{
				validation.Key("title", validation.Required),
				validation.Key("date", validation.Required, validation.By(isDate)),
				validation.Key("type", validation.Required, validation.By(isContentType)),
				validation.Key("lang", validation.In("en", "de")).Optional(),
				validation.Key("licence", validation.In("ccby-4.0")).Optional(),
				validation.Key("version", validation.By(isString)).Optional(),
			},
		},
		KindEvent: {
			Kind: KindEvent, Folder: folder(KindEvent), CompileBody: true,
			Fields: append([]Field{
				people("authors"),
				{Name: "about", Type: Markdown, Required: true},
				{Name: "prep", Type: Markdown},
				{Name: "sessions", Type: Records, Fields: []Field{
					{Name: "speakers", Type: RefList, Target: KindPerson},
					{Name: "body", Type: Markdown},
				}},
			}, taxonomies...),
			Rules: []*validation.KeyRules{
				validation.Key("title", validation.Required),
				validation.Key("date", validation.Required, validation.By(isDate)),
				validation.Key("about", validation.Required),
				validation.Key("type", validation.Required, validation.By(isContentType)),
			},
		},
		KindCollection: {
			Kind: KindCollection, Folder: folder(KindCollection), CompileBody: true,
			Fields: []Field{{Name: "resources", Type: RefList, Target: KindPost}},
			Rules: []*validation.KeyRules{
				validation.Key("title", validation.Required),
				validation.Key("date", validation.Required, validation.By(isDate)),
			},
		},
		KindDoc: {
			Kind: KindDoc, Folder: folder(KindDoc), CompileBody: true,
			Rules: []*validation.KeyRules{
				validation.Key("title", validation.Required),
				validation.Key("order", validation.By(isInteger)).Optional(),
			},
		},
	}
}

// Check verifies that every reference targets a known kind and that the
// kind graph has no cycles, so resolution always terminates.
func (s Schemas) Check() error {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[Kind]int, len(s))

	var visit func(k Kind, path []Kind) error
	visit = func(k Kind, path []Kind) error {
		switch state[k] {
		case visiting:
			return ferrors.ConfigError("schema references form a cycle").
				WithContext("path", fmt.Sprint(append(path, k))).
				Build()
		case done:
			return nil
		}
		state[k] = visiting
		for _, target := range s[k].targets() {
			if _, ok := s[target]; !ok {
				return ferrors.ConfigError("schema references an unknown kind").
					WithContext("kind", string(k)).
					WithContext("target", string(target)).
					Build()
			}
			if err := visit(target, append(path, k)); err != nil {
				return err
			}
		}
		state[k] = done
		return nil
	}

	kinds := make([]Kind, 0, len(s))
	for k := range s {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	for _, k := range kinds {
		if err := visit(k, nil); err != nil {
			return err
		}
	}
	return nil
}

func (s *Schema) targets() []Kind {
	var out []Kind
	var walk func(fields []Field)
	walk = func(fields []Field) {
		for _, f := range fields {
			switch f.Type {
			case Ref, RefList:
				out = append(out, f.Target)
			case Records:
				walk(f.Fields)
			}
		}
	}
	walk(s.Fields)
	return out
}
