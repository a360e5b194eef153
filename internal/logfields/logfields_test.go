package logfields

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHelperKeys(t *testing.T) {
	cases := []struct {
		attr slog.Attr
		key  string
		val  string
	}{
		{Kind("post"), KeyKind, "post"},
		{ID("intro"), KeyID, "intro"},
		{Route("/resources/1"), KeyRoute, "/resources/1"},
		{Page(2), KeyPage, "2"},
		{BuildID("b1"), KeyBuildID, "b1"},
		{Folder("content/tags"), KeyFolder, "content/tags"},
		{Backend("bleve"), KeyBackend, "bleve"},
		{Generation(7), KeyGeneration, "7"},
		{Error(errors.New("boom")), KeyError, "boom"},
		{Error(nil), KeyError, ""},
	}
	for _, tc := range cases {
		require.Equal(t, tc.key, tc.attr.Key)
		require.Equal(t, tc.val, tc.attr.Value.String())
	}
}
