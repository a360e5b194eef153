package site

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/campus/internal/content"
	"git.home.luguber.info/inful/campus/internal/markdown"
	"git.home.luguber.info/inful/campus/internal/store"
)

// siteFixture returns a content tree with n posts dated 2021-01-01
// onwards, all by jane-doe in category dariah and tag a; even posts are
// also tagged b. One event, one curriculum and two docs pages complete it.
func siteFixture(n int) map[string]string {
	files := map[string]string{
		"content/people/jane-doe.yml":   "firstName: Jane\nlastName: Doe\n",
		"content/people/john-roe.yml":   "firstName: John\nlastName: Roe\n",
		"content/people/acme.yml":       "lastName: ACME\n",
		"content/tags/a.yml":            "name: Alpha\n",
		"content/tags/b.yml":            "name: Beta\n",
		"content/tags/c.yml":            "name: Gamma\n",
		"content/categories/dariah.yml": "name: DARIAH\n",
		"content/categories/clarin.yml": "name: CLARIN\n",
		"content/events/summit.mdx": "---\ntitle: Summit\ndate: 2021-03-01\ntype: event\n" +
			"authors:\n  - acme\ntags:\n  - b\nabout: About the summit.\n---\nEvent body.\n",
		"content/curricula/basics.mdx": "---\ntitle: Basics\ndate: 2021-02-01\nresources:\n  - p01\n---\nCurriculum.\n",
		"documentation/writing.mdx": "---\ntitle: Writing\norder: 2\n---\n" +
			"See [a missing page](/resource/nope) and [the first post](/resource/p01).\n",
		"documentation/reviewing.mdx": "---\ntitle: Reviewing\norder: 1\n---\nHow to review.\n",
	}
	for i := 1; i <= n; i++ {
		tags := "  - a\n"
		if i%2 == 0 {
			tags += "  - b\n"
		}
		files[fmt.Sprintf("content/resources/p%02d.mdx", i)] = fmt.Sprintf(
			"---\ntitle: Post %d\ndate: 2021-01-%02d\ntype: video\nauthors:\n  - jane-doe\n"+
				"categories:\n  - dariah\ntags:\n%s---\n# Post %d\n\nBody.\n", i, i, tags, i)
	}
	return files
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, body := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	}
	return root
}

func newTestSite(t *testing.T, files map[string]string, options ...Option) *Site {
	t.Helper()
	root := writeTree(t, files)
	r, err := content.NewResolver(store.NewFSReader(root),
		content.DefaultSchemas(content.DefaultFolders()),
		markdown.New(markdown.DefaultOptions()))
	require.NoError(t, err)
	return New(r, Options{Locale: language.English, ContentRoot: root}, options...)
}
