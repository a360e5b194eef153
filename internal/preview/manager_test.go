package preview

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/campus/internal/content"
	"git.home.luguber.info/inful/campus/internal/markdown"
	"git.home.luguber.info/inful/campus/internal/metrics"
	"git.home.luguber.info/inful/campus/internal/store"
)

var tree = map[string]string{
	"content/people/jane-doe.yml": "firstName: Jane\nlastName: Doe\n",
	"content/tags/a.yml":          "name: Alpha\n",
	"content/resources/intro.mdx": "---\ntitle: Introduction\ndate: 2021-01-25\ntype: video\n---\nCommitted.\n",
}

type countingRecorder struct {
	metrics.NoopRecorder
	mu       sync.Mutex
	outcomes map[metrics.Outcome]int
}

func (c *countingRecorder) IncPreview(o metrics.Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.outcomes == nil {
		c.outcomes = map[metrics.Outcome]int{}
	}
	c.outcomes[o]++
}

func (c *countingRecorder) count(o metrics.Outcome) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outcomes[o]
}

func newManager(t *testing.T, opts ...Option) (*Manager, *store.Overlay, string) {
	t.Helper()
	root := t.TempDir()
	for rel, body := range tree {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	}
	overlay := store.NewOverlay(store.NewFSReader(root))
	r, err := content.NewResolver(overlay,
		content.DefaultSchemas(content.DefaultFolders()),
		markdown.New(markdown.DefaultOptions()))
	require.NoError(t, err)
	m := NewManager(overlay, r, opts...)
	t.Cleanup(m.Close)
	return m, overlay, root
}

func postDraft(title string, authors ...string) Draft {
	meta := map[string]any{"title": title, "date": "2021-02-01", "type": "video"}
	if len(authors) > 0 {
		list := make([]any, len(authors))
		for i, a := range authors {
			list[i] = a
		}
		meta["authors"] = list
	}
	return Draft{Metadata: meta, Body: "# " + title + "\n\nDraft body.\n"}
}

func waitForState(t *testing.T, m *Manager, kind content.Kind, id string, want State) Result {
	t.Helper()
	var res Result
	require.Eventually(t, func() bool {
		var ok bool
		res, ok = m.Get(kind, id)
		return ok && res.State == want
	}, 2*time.Second, 5*time.Millisecond)
	return res
}

func TestSubmitCompilesDraft(t *testing.T) {
	rec := &countingRecorder{}
	m, _, _ := newManager(t, WithDebounce(5*time.Millisecond), WithRecorder(rec))

	res, err := m.Submit(content.KindPost, "intro", postDraft("Draft title", "jane-doe"))
	require.NoError(t, err)
	assert.Equal(t, StatePending, res.State)
	assert.Equal(t, uint64(1), res.Generation)
	assert.NotEmpty(t, res.Session)

	res = waitForState(t, m, content.KindPost, "intro", StateReady)
	require.NotNil(t, res.Entity)
	assert.Equal(t, "Draft title", res.Entity.String("title"))
	assert.Contains(t, res.Entity.Body.HTML, "Draft body.")
	require.Len(t, res.Entity.Refs("authors"), 1)
	assert.Equal(t, "Jane Doe", res.Entity.Refs("authors")[0].DisplayName())
	assert.Equal(t, 1, rec.count(metrics.OutcomeSuccess))
}

func TestSubmitNewEntity(t *testing.T) {
	m, _, _ := newManager(t, WithDebounce(5*time.Millisecond))

	_, err := m.Submit(content.KindTag, "fresh", Draft{Metadata: map[string]any{"name": "Fresh"}})
	require.NoError(t, err)
	res := waitForState(t, m, content.KindTag, "fresh", StateReady)
	assert.Equal(t, "Fresh", res.Entity.DisplayName())
}

func TestSubmitFailureIsAState(t *testing.T) {
	rec := &countingRecorder{}
	m, _, _ := newManager(t, WithDebounce(5*time.Millisecond), WithRecorder(rec))

	_, err := m.Submit(content.KindPost, "intro", postDraft("Broken", "ghost"))
	require.NoError(t, err)
	res := waitForState(t, m, content.KindPost, "intro", StateFailed)
	assert.Contains(t, res.Error, "unresolved reference")
	assert.Equal(t, "ghost", res.Details["ref"])
	assert.Equal(t, "authors", res.Details["field"])
	assert.Equal(t, 1, rec.count(metrics.OutcomeFailed))

	// a fixed draft recovers the session
	_, err = m.Submit(content.KindPost, "intro", postDraft("Fixed", "jane-doe"))
	require.NoError(t, err)
	res = waitForState(t, m, content.KindPost, "intro", StateReady)
	assert.Empty(t, res.Error)
	assert.Equal(t, uint64(2), res.Generation)
}

func TestStaleCompileIsDiscarded(t *testing.T) {
	rec := &countingRecorder{}
	m, _, _ := newManager(t, WithDebounce(time.Hour), WithRecorder(rec))

	_, err := m.Submit(content.KindPost, "intro", postDraft("First"))
	require.NoError(t, err)
	_, err = m.Submit(content.KindPost, "intro", postDraft("Second"))
	require.NoError(t, err)

	k := key{kind: content.KindPost, id: "intro"}
	m.compile(k, 1)
	res, ok := m.Get(content.KindPost, "intro")
	require.True(t, ok)
	assert.Equal(t, StatePending, res.State)
	assert.Equal(t, uint64(2), res.Generation)

	m.compile(k, 2)
	res, _ = m.Get(content.KindPost, "intro")
	assert.Equal(t, StateReady, res.State)
	assert.Equal(t, "Second", res.Entity.String("title"))
}

func TestIdenticalResubmitIsNoop(t *testing.T) {
	m, _, _ := newManager(t, WithDebounce(5*time.Millisecond))

	_, err := m.Submit(content.KindPost, "intro", postDraft("Same"))
	require.NoError(t, err)
	waitForState(t, m, content.KindPost, "intro", StateReady)

	res, err := m.Submit(content.KindPost, "intro", postDraft("Same"))
	require.NoError(t, err)
	assert.Equal(t, StateReady, res.State)
	assert.Equal(t, uint64(1), res.Generation)
}

func TestResubmitWithIgnoredFieldsStoresDraft(t *testing.T) {
	m, overlay, _ := newManager(t, WithDebounce(5*time.Millisecond))
	folder := content.DefaultFolders()[content.KindPost]

	_, err := m.Submit(content.KindPost, "intro", postDraft("Same"))
	require.NoError(t, err)
	waitForState(t, m, content.KindPost, "intro", StateReady)

	draft := postDraft("Same")
	draft.Metadata["uuid"] = "0b5c7a52-0a56-4b59-9d4e-3f0e2b1c9a11"
	res, err := m.Submit(content.KindPost, "intro", draft)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), res.Generation)

	raw, err := overlay.Read(context.Background(), folder, "intro")
	require.NoError(t, err)
	assert.Contains(t, string(raw), "0b5c7a52-0a56-4b59-9d4e-3f0e2b1c9a11")
}

func TestInvalidateRecompilesSessions(t *testing.T) {
	m, _, root := newManager(t, WithDebounce(5*time.Millisecond))

	_, err := m.Submit(content.KindPost, "intro", postDraft("Draft", "jane-doe"))
	require.NoError(t, err)
	waitForState(t, m, content.KindPost, "intro", StateReady)

	person := filepath.Join(root, "content", "people", "jane-doe.yml")
	require.NoError(t, os.WriteFile(person, []byte("firstName: Janet\nlastName: Doe\n"), 0o600))

	assert.Equal(t, 1, m.Invalidate())
	res, _ := m.Get(content.KindPost, "intro")
	assert.Equal(t, uint64(2), res.Generation)

	res = waitForState(t, m, content.KindPost, "intro", StateReady)
	assert.Equal(t, "Janet Doe", res.Entity.Refs("authors")[0].DisplayName())
}

func TestDiscardDropsDraft(t *testing.T) {
	m, overlay, _ := newManager(t, WithDebounce(time.Hour))

	_, err := m.Submit(content.KindPost, "intro", postDraft("Draft"))
	require.NoError(t, err)
	assert.Equal(t, 1, overlay.Len())
	assert.Equal(t, 1, m.Len())

	assert.True(t, m.Discard(content.KindPost, "intro"))
	assert.False(t, m.Discard(content.KindPost, "intro"))
	assert.Equal(t, 0, overlay.Len())
	_, ok := m.Get(content.KindPost, "intro")
	assert.False(t, ok)
}

func TestSubmitRejectsBuiltinKinds(t *testing.T) {
	m, _, _ := newManager(t)
	_, err := m.Submit(content.KindContentType, "video", Draft{})
	require.Error(t, err)
	_, err = m.Submit(content.KindPost, "../escape", postDraft("x"))
	require.Error(t, err)
}
