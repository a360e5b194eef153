package frontmatter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSerializeYAMLSortsKeys(t *testing.T) {
	out, err := SerializeYAML(map[string]any{
		"title":   "A",
		"authors": []any{"b", "a"},
		"remote":  map[string]any{"url": "https://example.org", "publisher": "X"},
	}, Style{})
	require.NoError(t, err)

	text := string(out)
	require.Less(t, strings.Index(text, "authors:"), strings.Index(text, "remote:"))
	require.Less(t, strings.Index(text, "remote:"), strings.Index(text, "title:"))
	require.Less(t, strings.Index(text, "publisher:"), strings.Index(text, "url:"))

	back, err := ParseYAML(out)
	require.NoError(t, err)
	require.Equal(t, []any{"b", "a"}, back["authors"])
}

func TestSerializeYAMLEmpty(t *testing.T) {
	out, err := SerializeYAML(nil, Style{})
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestComposeParsesBack(t *testing.T) {
	meta := map[string]any{"title": "Draft", "tags": []string{"a", "b"}, "order": 3}
	raw, err := Compose(meta, []byte("# Body\n"), false)
	require.NoError(t, err)

	doc, err := Parse(raw, false)
	require.NoError(t, err)
	require.Equal(t, "Draft", doc.Meta["title"])
	require.Equal(t, []any{"a", "b"}, doc.Meta["tags"])
	require.Equal(t, 3, doc.Meta["order"])
	require.Equal(t, "# Body\n", string(doc.Body))

	raw, err = Compose(map[string]any{"name": "Tag"}, []byte("ignored"), true)
	require.NoError(t, err)
	require.Equal(t, "name: Tag\n", string(raw))
}
