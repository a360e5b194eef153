package content

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	ferrors "git.home.luguber.info/inful/campus/internal/foundation/errors"
	"git.home.luguber.info/inful/campus/internal/frontmatter"
	"git.home.luguber.info/inful/campus/internal/logfields"
	"git.home.luguber.info/inful/campus/internal/markdown"
	"git.home.luguber.info/inful/campus/internal/metrics"
	"git.home.luguber.info/inful/campus/internal/store"
)

const msgEntityNotFound = "entity not found"

// Resolver turns stored files into hydrated entities. It holds no cache:
// every call reads the folder again, so results always reflect the files.
type Resolver struct {
	reader      store.Reader
	schemas     Schemas
	compiler    *markdown.Compiler
	recorder    metrics.Recorder
	concurrency int
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(res *Resolver) { res.recorder = metrics.OrNoop(r) }
}

// WithConcurrency bounds the number of entities All resolves at once.
func WithConcurrency(n int) Option {
	return func(res *Resolver) {
		if n > 0 {
			res.concurrency = n
		}
	}
}

// NewResolver validates the schema table and returns a resolver.
func NewResolver(reader store.Reader, schemas Schemas, compiler *markdown.Compiler, opts ...Option) (*Resolver, error) {
	if err := schemas.Check(); err != nil {
		return nil, err
	}
	if compiler == nil {
		compiler = markdown.New(markdown.DefaultOptions())
	}
	r := &Resolver{
		reader:      reader,
		schemas:     schemas,
		compiler:    compiler,
		recorder:    metrics.NoopRecorder{},
		concurrency: 8,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Schema returns the schema of kind, or nil.
func (r *Resolver) Schema(kind Kind) *Schema { return r.schemas[kind] }

// Reader returns the underlying store reader.
func (r *Resolver) Reader() store.Reader { return r.reader }

// IDs lists the identifiers of kind in the order the store returns them.
func (r *Resolver) IDs(ctx context.Context, kind Kind) ([]string, error) {
	s, err := r.schema(kind)
	if err != nil {
		return nil, err
	}
	if s.Builtin != nil {
		if kind == KindContentType {
			return ContentTypeIDs(), nil
		}
		return slices.Sorted(maps.Keys(s.Builtin)), nil
	}
	return r.reader.IDs(ctx, s.Folder)
}

// Resolve returns the fully hydrated entity with its compiled body.
func (r *Resolver) Resolve(ctx context.Context, kind Kind, id string) (*Entity, error) {
	return r.resolve(ctx, kind, id, ModeFull)
}

// Preview returns hydrated metadata without compiling the body.
func (r *Resolver) Preview(ctx context.Context, kind Kind, id string) (*Entity, error) {
	return r.resolve(ctx, kind, id, ModePreview)
}

// Get resolves id in the given mode.
func (r *Resolver) Get(ctx context.Context, kind Kind, id string, mode Mode) (*Entity, error) {
	return r.resolve(ctx, kind, id, mode)
}

// All resolves every entity of kind concurrently. One failure fails the
// whole batch. Results follow the order of IDs.
func (r *Resolver) All(ctx context.Context, kind Kind, mode Mode) ([]*Entity, error) {
	ids, err := r.IDs(ctx, kind)
	if err != nil {
		return nil, err
	}
	out := make([]*Entity, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			e, err := r.resolve(gctx, kind, id, mode)
			if err != nil {
				return err
			}
			out[i] = e
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Resolver) schema(kind Kind) (*Schema, error) {
	s, ok := r.schemas[kind]
	if !ok {
		return nil, ferrors.ValidationError("unknown entity kind").WithContext("kind", string(kind)).Build()
	}
	return s, nil
}

func (r *Resolver) resolve(ctx context.Context, kind Kind, id string, mode Mode) (_ *Entity, err error) {
	start := time.Now()
	defer func() { r.recorder.ObserveResolve(string(kind), time.Since(start), err == nil) }()

	s, err := r.schema(kind)
	if err != nil {
		return nil, err
	}
	if s.Builtin != nil {
		return r.builtin(s, id)
	}

	raw, err := r.reader.Read(ctx, s.Folder, id)
	if err != nil {
		if ferrors.IsNotFound(err) {
			return nil, ferrors.NotFoundError(msgEntityNotFound).
				WithCause(err).
				WithContext("kind", string(kind)).
				WithContext("id", id).
				Build()
		}
		return nil, err
	}

	doc, err := frontmatter.Parse(raw, s.MetadataOnly)
	if err != nil {
		return nil, ferrors.ContentError("front matter not parseable").
			WithCause(err).
			WithContext("kind", string(kind)).
			WithContext("id", id).
			Build()
	}
	if err := s.validate(id, doc.Meta); err != nil {
		return nil, err
	}

	fp, err := Fingerprint(doc.Meta, doc.Body)
	if err != nil {
		return nil, ferrors.InternalError("fingerprint failed").WithCause(err).Build()
	}

	fields, err := r.resolveFields(ctx, s.Fields, doc.Meta, ref{kind: kind, id: id})
	if err != nil {
		return nil, err
	}

	e := &Entity{Kind: kind, ID: id, Fields: fields, Fingerprint: fp}
	if mode == ModeFull && s.CompileBody {
		body, err := r.compiler.Compile(doc.Body)
		if err != nil {
			return nil, annotate(err, kind, id, "body")
		}
		e.Body = body
	}
	slog.Debug("Resolved entity", logfields.Kind(string(kind)), logfields.ID(id), slog.String("mode", mode.String()))
	return e, nil
}

func (r *Resolver) builtin(s *Schema, id string) (*Entity, error) {
	id = NormalizeContentType(id)
	fields, ok := s.Builtin[id]
	if !ok {
		return nil, ferrors.NotFoundError(msgEntityNotFound).
			WithContext("kind", string(s.Kind)).
			WithContext("id", id).
			Build()
	}
	return &Entity{Kind: s.Kind, ID: id, Fields: maps.Clone(fields)}, nil
}

// ref names the entity whose fields are being resolved, for error context.
type ref struct {
	kind Kind
	id   string
}

func (r *Resolver) resolveFields(ctx context.Context, decl []Field, meta map[string]any, owner ref) (map[string]any, error) {
	out := make(map[string]any, len(meta)+len(decl))
	for k, v := range meta {
		out[k] = normalizeScalar(v)
	}

	for _, f := range decl {
		value, present := meta[f.Name]
		if value == nil {
			present = false
		}
		if !present && f.Required {
			return nil, ferrors.ContentError("required field missing").
				WithContext("kind", string(owner.kind)).
				WithContext("id", owner.id).
				WithContext("field", f.Name).
				Build()
		}

		switch f.Type {
		case Scalar:
			continue
		case RefList:
			ids, err := stringList(value)
			if err != nil {
				return nil, fieldError(err, owner, f.Name)
			}
			refs, err := r.resolveRefs(ctx, f, ids, owner)
			if err != nil {
				return nil, err
			}
			out[f.Name] = refs
		case Ref:
			if !present {
				delete(out, f.Name)
				continue
			}
			id, ok := value.(string)
			if !ok {
				return nil, fieldError(fmt.Errorf("expected an identifier, got %T", value), owner, f.Name)
			}
			e, err := r.resolve(ctx, f.Target, id, ModePreview)
			if err != nil {
				return nil, unresolved(err, owner, f.Name, id)
			}
			out[f.Name] = e
		case Markdown:
			if !present {
				out[f.Name] = (*markdown.Document)(nil)
				continue
			}
			src, ok := value.(string)
			if !ok {
				return nil, fieldError(fmt.Errorf("expected text, got %T", value), owner, f.Name)
			}
			doc, err := r.compiler.CompileString(src)
			if err != nil {
				return nil, annotate(err, owner.kind, owner.id, f.Name)
			}
			out[f.Name] = doc
		case Records:
			recs, err := r.resolveRecords(ctx, f, value, owner)
			if err != nil {
				return nil, err
			}
			out[f.Name] = recs
		}
	}
	return out, nil
}

// resolveRefs resolves ids concurrently and keeps their order.
func (r *Resolver) resolveRefs(ctx context.Context, f Field, ids []string, owner ref) ([]*Entity, error) {
	refs := make([]*Entity, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		g.Go(func() error {
			e, err := r.resolve(gctx, f.Target, id, ModePreview)
			if err != nil {
				return unresolved(err, owner, f.Name, id)
			}
			refs[i] = e
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return refs, nil
}

func (r *Resolver) resolveRecords(ctx context.Context, f Field, value any, owner ref) ([]map[string]any, error) {
	if value == nil {
		return []map[string]any{}, nil
	}
	items, ok := value.([]any)
	if !ok {
		return nil, fieldError(fmt.Errorf("expected a list of records, got %T", value), owner, f.Name)
	}
	out := make([]map[string]any, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fieldError(fmt.Errorf("record %d is %T, not a map", i, item), owner, f.Name)
		}
		rec, err := r.resolveFields(ctx, f.Fields, m, owner)
		if err != nil {
			return nil, err
		}
		out[i] = rec
	}
	return out, nil
}

// normalizeScalar renders YAML timestamps as strings, including those
// nested in maps and lists.
func normalizeScalar(v any) any {
	switch val := v.(type) {
	case time.Time:
		if val.Hour() == 0 && val.Minute() == 0 && val.Second() == 0 && val.Nanosecond() == 0 {
			return val.Format("2006-01-02")
		}
		return val.Format(time.RFC3339)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalizeScalar(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeScalar(item)
		}
		return out
	}
	return v
}

func stringList(v any) ([]string, error) {
	switch list := v.(type) {
	case nil:
		return []string{}, nil
	case []string:
		return list, nil
	case []any:
		out := make([]string, len(list))
		for i, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("item %d is %T, not an identifier", i, item)
			}
			out[i] = s
		}
		return out, nil
	}
	return nil, fmt.Errorf("expected a list of identifiers, got %T", v)
}

func fieldError(err error, owner ref, field string) error {
	return ferrors.ContentError("malformed front matter field").
		WithCause(err).
		WithContext("kind", string(owner.kind)).
		WithContext("id", owner.id).
		WithContext("field", field).
		Build()
}

// unresolved wraps a failed reference lookup. Missing targets stay in the
// not_found category with the referencing field in context.
func unresolved(err error, owner ref, field, target string) error {
	b := ferrors.WrapError(err, ferrors.GetCategory(err), "unresolved reference").
		Fatal().
		WithContext("kind", string(owner.kind)).
		WithContext("id", owner.id).
		WithContext("field", field).
		WithContext("ref", target)
	return b.Build()
}

func annotate(err error, kind Kind, id, field string) error {
	if c, ok := ferrors.AsClassified(err); ok {
		return c.WithContext("kind", string(kind)).WithContext("id", id).WithContext("field", field)
	}
	return err
}
