package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/campus/internal/foundation/errors"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestFolderFilePath(t *testing.T) {
	require.Equal(t, filepath.Join("content", "tags", "go.yml"), Folder{Dir: "content/tags", Ext: "yml"}.FilePath("go"))
	require.Equal(t, filepath.Join("docs", "intro.mdx"), Folder{Dir: "docs", Ext: ".mdx"}.FilePath("intro"))
}

func TestFSReaderIDsFiltersByExtension(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "content", "tags", "go.yml"), "name: Go\n")
	writeFile(t, filepath.Join(root, "content", "tags", "rust.yml"), "name: Rust\n")
	writeFile(t, filepath.Join(root, "content", "tags", "notes.md"), "x")
	writeFile(t, filepath.Join(root, "content", "tags", ".hidden.yml"), "x")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "content", "tags", "sub.yml"), 0o750))

	r := NewFSReader(root)
	ids, err := r.IDs(context.Background(), Folder{Dir: "content/tags", Ext: "yml"})
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"go", "rust"}, ids)
}

func TestFSReaderRead(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "people", "jane-doe.yml"), "firstName: Jane\n")
	r := NewFSReader(root)
	f := Folder{Dir: "people", Ext: "yml"}

	raw, err := r.Read(context.Background(), f, "jane-doe")
	require.NoError(t, err)
	require.Equal(t, "firstName: Jane\n", string(raw))

	_, err = r.Read(context.Background(), f, "john-roe")
	require.Error(t, err)
	require.True(t, ferrors.IsNotFound(err))
	c, ok := ferrors.AsClassified(err)
	require.True(t, ok)
	require.True(t, c.IsFatal())
	id, _ := c.Context().GetString("id")
	require.Equal(t, "john-roe", id)
}

func TestFSReaderMissingFolder(t *testing.T) {
	r := NewFSReader(t.TempDir())
	_, err := r.IDs(context.Background(), Folder{Dir: "nope", Ext: "md"})
	require.True(t, ferrors.IsNotFound(err))
}

func TestFSReaderRejectsTraversal(t *testing.T) {
	r := NewFSReader(t.TempDir())
	_, err := r.Read(context.Background(), Folder{Dir: "people", Ext: "yml"}, "../secret")
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
}

func TestOverlay(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "posts", "a.md"), "---\ntitle: A\n---\n")
	f := Folder{Dir: "posts", Ext: "md"}
	o := NewOverlay(NewFSReader(root))
	ctx := context.Background()

	require.NoError(t, o.Put(f, "a", []byte("draft a")))
	require.NoError(t, o.Put(f, "b", []byte("draft b")))
	require.Equal(t, 2, o.Len())

	ids, err := o.IDs(ctx, f)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"a", "b"}, ids)

	raw, err := o.Read(ctx, f, "a")
	require.NoError(t, err)
	require.Equal(t, "draft a", string(raw))

	require.True(t, o.Drop(f, "a"))
	require.False(t, o.Drop(f, "a"))
	raw, err = o.Read(ctx, f, "a")
	require.NoError(t, err)
	require.Equal(t, "---\ntitle: A\n---\n", string(raw))
}

func TestOverlayWithoutBase(t *testing.T) {
	o := NewOverlay(nil)
	f := Folder{Dir: "people", Ext: "yml"}
	_, err := o.Read(context.Background(), f, "x")
	require.True(t, ferrors.IsNotFound(err))

	require.NoError(t, o.Put(f, "x", []byte("firstName: X\n")))
	ids, err := o.IDs(context.Background(), f)
	require.NoError(t, err)
	require.Equal(t, []string{"x"}, ids)
}
