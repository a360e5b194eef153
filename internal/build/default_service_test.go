package build

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/campus/internal/content"
	"git.home.luguber.info/inful/campus/internal/eventstore"
	ferrors "git.home.luguber.info/inful/campus/internal/foundation/errors"
	"git.home.luguber.info/inful/campus/internal/markdown"
	"git.home.luguber.info/inful/campus/internal/search"
	"git.home.luguber.info/inful/campus/internal/site"
	"git.home.luguber.info/inful/campus/internal/store"
)

var contentTree = map[string]string{
	"content/people/jane-doe.yml":   "firstName: Jane\nlastName: Doe\n",
	"content/tags/a.yml":            "name: Alpha\n",
	"content/categories/dariah.yml": "name: DARIAH\n",
	"content/resources/intro.mdx": "---\ntitle: Introduction\ndate: 2021-01-25\ntype: video\n" +
		"authors:\n  - jane-doe\ntags:\n  - a\ncategories:\n  - dariah\nabstract: Start here.\n---\n" +
		"# Overview\n\nSee [the missing page](/resource/nope).\n",
	"content/events/summit.mdx": "---\ntitle: Summit\ndate: 2021-03-01\ntype: event\nabout: About.\n---\nEvent.\n",
	"content/curricula/basics.mdx": "---\ntitle: Basics\ndate: 2021-02-01\nresources:\n  - intro\n---\nPath.\n",
	"documentation/writing.mdx":    "---\ntitle: Writing\norder: 1\n---\nHow to write.\n",
}

func newService(t *testing.T, files map[string]string) *DefaultBuildService {
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
	return NewBuildService(site.New(r, site.Options{Locale: language.English, ContentRoot: root}))
}

func newHistory(t *testing.T) *eventstore.SQLiteStore {
	t.Helper()
	st, err := eventstore.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

type fakeUploader struct {
	err     error
	records []search.Record
}

func (f *fakeUploader) Name() string { return "fake" }

func (f *fakeUploader) Upload(_ context.Context, records []search.Record) error {
	f.records = records
	return f.err
}

func (f *fakeUploader) Close() error { return nil }

func TestRunWritesPages(t *testing.T) {
	history := newHistory(t)
	svc := newService(t, contentTree).WithHistory(history)
	out := filepath.Join(t.TempDir(), "public")

	result, err := svc.Run(context.Background(), BuildRequest{
		OutputDir: out,
		BaseURL:   "https://campus.example.org",
		Commit:    "abc123",
	})
	require.NoError(t, err)
	assert.Equal(t, BuildStatusSuccess, result.Status)
	assert.True(t, result.Status.IsSuccess())
	assert.NotEmpty(t, result.BuildID)
	assert.Equal(t, 1, result.BrokenLinks)
	assert.False(t, result.Indexed)

	// 2 resources, /resources, /tag/a, /tags, /source/dariah, /sources,
	// /author/jane-doe, /curriculum/basics, /curricula, /docs/writing
	assert.Equal(t, 11, result.Routes)

	data, err := os.ReadFile(PagePath(out, site.Route{Kind: site.RouteResource, ID: "intro"}))
	require.NoError(t, err)
	var page struct {
		Kind     string `json:"kind"`
		Resource struct {
			ID   string `json:"id"`
			Code string `json:"code"`
			Data struct {
				Metadata map[string]any `json:"metadata"`
			} `json:"data"`
		} `json:"resource"`
	}
	require.NoError(t, json.Unmarshal(data, &page))
	assert.Equal(t, "post", page.Kind)
	assert.Equal(t, "intro", page.Resource.ID)
	assert.Contains(t, page.Resource.Code, "Overview")
	assert.Equal(t, "Introduction", page.Resource.Data.Metadata["title"])

	data, err = os.ReadFile(PagePath(out, site.Route{Kind: site.RouteResources, Page: 1}))
	require.NoError(t, err)
	var listing struct {
		Resources struct {
			Items []struct {
				ID string `json:"id"`
			} `json:"items"`
			Page  int `json:"page"`
			Pages int `json:"pages"`
		} `json:"resources"`
	}
	require.NoError(t, json.Unmarshal(data, &listing))
	require.Len(t, listing.Resources.Items, 2)
	assert.Equal(t, "summit", listing.Resources.Items[0].ID)
	assert.Equal(t, 1, listing.Resources.Pages)

	sitemap, err := os.ReadFile(filepath.Join(out, "sitemap.xml"))
	require.NoError(t, err)
	assert.Contains(t, string(sitemap), "<loc>https://campus.example.org/docs/writing</loc>")

	builds, err := eventstore.History(context.Background(), history, 0)
	require.NoError(t, err)
	require.Len(t, builds, 1)
	assert.Equal(t, result.BuildID, builds[0].BuildID)
	assert.Equal(t, eventstore.StatusCompleted, builds[0].Status)
	assert.Equal(t, "abc123", builds[0].Commit)
	assert.Equal(t, 11, builds[0].Routes)
	assert.Equal(t, 11, builds[0].Stages[stageRender])
}

func TestRunCleansOutput(t *testing.T) {
	svc := newService(t, contentTree)
	out := filepath.Join(t.TempDir(), "public")
	stale := filepath.Join(out, "stale", "index.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(stale), 0o750))
	require.NoError(t, os.WriteFile(stale, []byte("{}"), 0o600))

	_, err := svc.Run(context.Background(), BuildRequest{OutputDir: out, Clean: true})
	require.NoError(t, err)
	assert.NoFileExists(t, stale)
	assert.FileExists(t, filepath.Join(out, "sitemap.xml"))
}

func TestRunFailsOnUnresolvedReference(t *testing.T) {
	files := map[string]string{}
	for k, v := range contentTree {
		files[k] = v
	}
	files["content/resources/bad.mdx"] = "---\ntitle: Bad\ndate: 2021-05-01\ntype: video\nauthors:\n  - ghost\n---\n"
	history := newHistory(t)
	svc := newService(t, files).WithHistory(history)

	result, err := svc.Run(context.Background(), BuildRequest{OutputDir: filepath.Join(t.TempDir(), "public")})
	require.Error(t, err)
	assert.True(t, ferrors.IsNotFound(err))
	assert.Equal(t, BuildStatusFailed, result.Status)

	builds, err := eventstore.History(context.Background(), history, 0)
	require.NoError(t, err)
	require.Len(t, builds, 1)
	assert.Equal(t, eventstore.StatusFailed, builds[0].Status)
	assert.Equal(t, stageLoad, builds[0].ErrorStage)
}

func TestRunCancelled(t *testing.T) {
	svc := newService(t, contentTree)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := svc.Run(ctx, BuildRequest{OutputDir: filepath.Join(t.TempDir(), "public")})
	require.Error(t, err)
	assert.Equal(t, BuildStatusCancelled, result.Status)
}

func TestRunIndexesPosts(t *testing.T) {
	up := &fakeUploader{}
	history := newHistory(t)
	svc := newService(t, contentTree).WithUploader(up).WithHistory(history)

	result, err := svc.Run(context.Background(), BuildRequest{
		OutputDir: filepath.Join(t.TempDir(), "public"),
		Index:     true,
	})
	require.NoError(t, err)
	assert.True(t, result.Indexed)
	require.Len(t, up.records, 1)
	assert.Equal(t, "intro", up.records[0].ObjectID)
	assert.Equal(t, "Start here.", up.records[0].Abstract)

	builds, err := eventstore.History(context.Background(), history, 0)
	require.NoError(t, err)
	require.NotNil(t, builds[0].Search)
	assert.Equal(t, "fake", builds[0].Search.Backend)
	assert.True(t, builds[0].Search.OK)
}

func TestRunSurvivesUploadFailure(t *testing.T) {
	up := &fakeUploader{err: errors.New("connection refused")}
	svc := newService(t, contentTree).WithUploader(up)

	result, err := svc.Run(context.Background(), BuildRequest{
		OutputDir: filepath.Join(t.TempDir(), "public"),
		Index:     true,
	})
	require.NoError(t, err)
	assert.Equal(t, BuildStatusSuccess, result.Status)
	assert.False(t, result.Indexed)
}

func TestPrepareOutputRefusesWorkingDirectory(t *testing.T) {
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.Error(t, prepareOutput(cwd, true))
	require.Error(t, prepareOutput("", false))
}

func TestPagePath(t *testing.T) {
	got := PagePath("out", site.Route{Kind: site.RouteTag, ID: "a", Page: 2})
	assert.Equal(t, filepath.Join("out", "tag", "a", "2", "index.json"), got)
}
