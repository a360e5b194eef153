package search

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/campus/internal/content"
	"git.home.luguber.info/inful/campus/internal/markdown"
	"git.home.luguber.info/inful/campus/internal/metrics"
	"git.home.luguber.info/inful/campus/internal/store"
)

func newResolver(t *testing.T, files map[string]string) *content.Resolver {
	t.Helper()
	root := t.TempDir()
	for rel, body := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	}
	r, err := content.NewResolver(store.NewFSReader(root),
		content.DefaultSchemas(content.DefaultFolders()),
		markdown.New(markdown.DefaultOptions()))
	require.NoError(t, err)
	return r
}

var posts = map[string]string{
	"content/people/ada.yml": "firstName: Ada\nlastName: Lovelace\n",
	"content/tags/xml.yml":   "name: XML\n",
	"content/resources/old.mdx": "---\ntitle: Old\ndate: 2020-01-01\ntype: video\nlang: de\n" +
		"authors:\n  - ada\nremote:\n  publisher: Example Press\n  date: 2019-06-01\n---\nOld body.\n",
	"content/resources/new.mdx": "---\ntitle: New Editions\ndate: 2022-05-01\ntype: audio\n" +
		"abstract: Fresh.\ntags:\n  - xml\n---\n# Heading\n\nNew <em>body</em> text.\n",
}

func TestBuildRecords(t *testing.T) {
	r := newResolver(t, posts)

	records, err := BuildRecords(context.Background(), r, false)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "new", records[0].ID)
	assert.Equal(t, "new", records[0].ObjectID)
	assert.Equal(t, "Fresh.", records[0].Abstract)
	assert.Equal(t, []Named{{ID: "xml", Name: "XML"}}, records[0].Tags)
	assert.Equal(t, "Audio", records[0].Type)
	assert.Empty(t, records[0].Authors)
	assert.Empty(t, records[0].Content)

	assert.Equal(t, []Named{{ID: "ada", Name: "Ada Lovelace"}}, records[1].Authors)
	assert.Equal(t, "de", records[1].Lang)
	assert.Empty(t, records[1].Tags)
}

func TestBuildRecordsFull(t *testing.T) {
	r := newResolver(t, posts)

	records, err := BuildRecords(context.Background(), r, true)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Contains(t, records[0].Content, "New body text.")
}

func TestPlainText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"paragraphs", "<p>one</p><p>two</p>", "one two"},
		{"inline", "<p>a <strong>bold</strong> move</p>", "a bold move"},
		{"script dropped", "<p>x</p><script>alert(1)</script><p>y</p>", "x y"},
		{"entities", "<p>fish &amp; chips</p>", "fish & chips"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PlainText(tt.in))
		})
	}
}

func TestBleveIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "search.bleve")
	idx, err := OpenBleve(path)
	require.NoError(t, err)

	records := []Record{
		{ObjectID: "a", ID: "a", Title: "Digital Editions", Date: "2021-01-01"},
		{ObjectID: "b", ID: "b", Title: "Linked Data", Date: "2022-01-01", Abstract: "Graphs and triples."},
	}
	require.NoError(t, idx.Upload(context.Background(), records))

	n, err := idx.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)

	hits, err := idx.Search("triples", 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "b", hits[0].ID)
	assert.Equal(t, "Linked Data", hits[0].Title)

	// re-uploading replaces documents by object id
	require.NoError(t, idx.Upload(context.Background(), records[:1]))
	n, err = idx.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)

	require.NoError(t, idx.Close())

	reopened, err := OpenBleve(path)
	require.NoError(t, err)
	defer reopened.Close()
	n, err = reopened.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)
}

func TestOpenBleveRequiresPath(t *testing.T) {
	_, err := OpenBleve("")
	require.Error(t, err)
}

type fakeKV struct {
	mu   sync.Mutex
	puts map[string][]byte
	err  error
}

func (f *fakeKV) Put(_ context.Context, key string, value []byte) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	if f.puts == nil {
		f.puts = map[string][]byte{}
	}
	f.puts[key] = value
	return uint64(len(f.puts)), nil
}

func TestNATSUploaderPutsOneKeyPerRecord(t *testing.T) {
	kv := &fakeKV{}
	up := &NATSUploader{kv: kv}

	err := up.Upload(context.Background(), []Record{{ObjectID: "a", Title: "A"}, {ObjectID: "b", Title: "B"}})
	require.NoError(t, err)
	require.Len(t, kv.puts, 2)
	assert.Contains(t, string(kv.puts["post.a"]), `"objectID":"a"`)
	require.NoError(t, up.Close())
}

type countingRecorder struct {
	metrics.NoopRecorder
	mu       sync.Mutex
	outcomes []metrics.Outcome
}

func (c *countingRecorder) IncSearchUpload(_ string, o metrics.Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcomes = append(c.outcomes, o)
}

func TestPublishSwallowsUploadErrors(t *testing.T) {
	rec := &countingRecorder{}
	up := &NATSUploader{kv: &fakeKV{err: errors.New("service unavailable")}}

	ok := Publish(context.Background(), up, []Record{{ObjectID: "a"}}, rec)
	assert.False(t, ok)
	assert.Equal(t, []metrics.Outcome{metrics.OutcomeWarning}, rec.outcomes)
}

func TestPublishSuccess(t *testing.T) {
	rec := &countingRecorder{}
	up := &NATSUploader{kv: &fakeKV{}}

	assert.True(t, Publish(context.Background(), up, []Record{{ObjectID: "a"}}, rec))
	assert.Equal(t, []metrics.Outcome{metrics.OutcomeSuccess}, rec.outcomes)
}

func TestPublishNilUploader(t *testing.T) {
	assert.False(t, Publish(context.Background(), nil, nil, nil))
}

func TestOpenBackends(t *testing.T) {
	up, err := Open(context.Background(), Options{Backend: BackendNone})
	require.NoError(t, err)
	assert.Nil(t, up)

	_, err = Open(context.Background(), Options{Backend: "algolia"})
	require.Error(t, err)

	up, err = Open(context.Background(), Options{Backend: BackendBleve, BlevePath: filepath.Join(t.TempDir(), "i")})
	require.NoError(t, err)
	assert.Equal(t, BackendBleve, up.Name())
	require.NoError(t, up.Close())
}
