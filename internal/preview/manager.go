package preview

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/campus/internal/content"
	ferrors "git.home.luguber.info/inful/campus/internal/foundation/errors"
	"git.home.luguber.info/inful/campus/internal/frontmatter"
	"git.home.luguber.info/inful/campus/internal/logfields"
	"git.home.luguber.info/inful/campus/internal/metrics"
	"git.home.luguber.info/inful/campus/internal/observability"
	"git.home.luguber.info/inful/campus/internal/store"
)

// DefaultDebounce is the quiet period before a draft is compiled.
const DefaultDebounce = 300 * time.Millisecond

// State is the display state of a preview.
type State string

const (
	StatePending State = "pending"
	StateReady   State = "ready"
	StateFailed  State = "failed"
)

// Draft is the form state submitted by the CMS.
type Draft struct {
	Metadata map[string]any `json:"metadata"`
	Body     string         `json:"body"`
}

// Result is the latest committed outcome of a session.
type Result struct {
	Session    string          `json:"session"`
	Kind       content.Kind    `json:"kind"`
	ID         string          `json:"id"`
	Generation uint64          `json:"generation"`
	State      State           `json:"state"`
	Entity     *content.Entity `json:"entity,omitempty"`
	Error      string          `json:"error,omitempty"`
	Details    map[string]any  `json:"details,omitempty"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

type key struct {
	kind content.Kind
	id   string
}

type session struct {
	id          string
	generation  uint64
	fingerprint string
	timer       *time.Timer
	result      Result
}

// Manager tracks one session per entity being edited.
type Manager struct {
	overlay  *store.Overlay
	resolver *content.Resolver
	debounce time.Duration
	recorder metrics.Recorder
	timeout  time.Duration

	mu       sync.Mutex
	sessions map[key]*session
	closed   bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithDebounce sets the quiet period. Values <= 0 keep the default.
func WithDebounce(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.debounce = d
		}
	}
}

func WithRecorder(r metrics.Recorder) Option {
	return func(m *Manager) { m.recorder = metrics.OrNoop(r) }
}

// NewManager creates a manager. resolver must read through overlay so that
// drafts are visible to resolution.
func NewManager(overlay *store.Overlay, resolver *content.Resolver, opts ...Option) *Manager {
	m := &Manager{
		overlay:  overlay,
		resolver: resolver,
		debounce: DefaultDebounce,
		recorder: metrics.NoopRecorder{},
		timeout:  30 * time.Second,
		sessions: make(map[key]*session),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Resolver returns the draft-aware resolver.
func (m *Manager) Resolver() *content.Resolver { return m.resolver }

// Submit stores draft as the current form state of kind/id and schedules
// a compile. The draft is always stored; a ready session whose content
// fingerprint is unchanged is not recompiled.
func (m *Manager) Submit(kind content.Kind, id string, draft Draft) (Result, error) {
	schema := m.resolver.Schema(kind)
	if schema == nil || schema.Folder.Dir == "" {
		return Result{}, ferrors.ValidationError("kind cannot be previewed").WithContext("kind", string(kind)).Build()
	}
	if draft.Metadata == nil {
		draft.Metadata = map[string]any{}
	}
	fp, err := content.Fingerprint(draft.Metadata, []byte(draft.Body))
	if err != nil {
		return Result{}, ferrors.ValidationError("draft metadata cannot be serialized").WithCause(err).Build()
	}
	raw, err := frontmatter.Compose(draft.Metadata, []byte(draft.Body), schema.MetadataOnly)
	if err != nil {
		return Result{}, ferrors.ValidationError("draft metadata cannot be serialized").WithCause(err).Build()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return Result{}, ferrors.RuntimeError("preview manager closed").Build()
	}
	if err := m.overlay.Put(schema.Folder, id, raw); err != nil {
		return Result{}, err
	}
	k := key{kind: kind, id: id}
	s := m.sessions[k]
	if s != nil && s.fingerprint == fp && s.result.State == StateReady {
		return s.result, nil
	}
	if s == nil {
		s = &session{id: uuid.NewString()}
		m.sessions[k] = s
		slog.Debug("Preview session opened", logfields.Session(s.id), logfields.Kind(string(kind)), logfields.ID(id))
	}
	s.fingerprint = fp
	m.scheduleLocked(k, s)
	return s.result, nil
}

// scheduleLocked bumps the generation, marks the session pending and
// restarts its debounce timer. m.mu must be held.
func (m *Manager) scheduleLocked(k key, s *session) {
	s.generation++
	gen := s.generation
	s.result = Result{
		Session:    s.id,
		Kind:       k.kind,
		ID:         k.id,
		Generation: gen,
		State:      StatePending,
		Entity:     s.result.Entity,
		UpdatedAt:  time.Now(),
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(m.debounce, func() { m.compile(k, gen) })
}

// compile resolves k and commits the outcome if gen is still current.
func (m *Manager) compile(k key, gen uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	m.mu.Lock()
	s, ok := m.sessions[k]
	if !ok || s.generation != gen {
		m.mu.Unlock()
		return
	}
	ctx = observability.WithSession(ctx, s.id)
	m.mu.Unlock()

	entity, err := m.resolver.Get(ctx, k.kind, k.id, content.ModeFull)

	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok = m.sessions[k]
	if !ok || s.generation != gen {
		m.recorder.IncPreview(metrics.OutcomeStale)
		observability.DebugContext(ctx, "Discarding stale preview", logfields.Generation(gen))
		return
	}

	s.result.UpdatedAt = time.Now()
	if err != nil {
		s.result.State = StateFailed
		s.result.Error = err.Error()
		if c, ok := ferrors.AsClassified(err); ok {
			s.result.Details = map[string]any(c.Context())
		}
		m.recorder.IncPreview(metrics.OutcomeFailed)
		observability.InfoContext(ctx, "Preview failed",
			logfields.Kind(string(k.kind)),
			logfields.ID(k.id),
			logfields.Error(err))
		return
	}
	s.result.State = StateReady
	s.result.Entity = entity
	s.result.Error = ""
	s.result.Details = nil
	m.recorder.IncPreview(metrics.OutcomeSuccess)
}

// Get returns the current result for kind/id.
func (m *Manager) Get(kind content.Kind, id string) (Result, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[key{kind: kind, id: id}]
	if !ok {
		return Result{}, false
	}
	return s.result, true
}

// Discard ends the session for kind/id and drops its draft.
func (m *Manager) Discard(kind content.Kind, id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key{kind: kind, id: id}
	s, ok := m.sessions[k]
	if !ok {
		return false
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	delete(m.sessions, k)
	if schema := m.resolver.Schema(kind); schema != nil {
		m.overlay.Drop(schema.Folder, id)
	}
	return true
}

// Invalidate marks every session stale and recompiles it. It is called
// when files under the content root change, since any draft may reference
// the changed entities.
func (m *Manager) Invalidate() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0
	}
	for k, s := range m.sessions {
		m.scheduleLocked(k, s)
	}
	return len(m.sessions)
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Close stops all pending compiles.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	for _, s := range m.sessions {
		if s.timer != nil {
			s.timer.Stop()
		}
	}
}
