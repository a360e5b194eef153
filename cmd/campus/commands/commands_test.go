package commands

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var contentTree = map[string]string{
	"content/people/jane-doe.yml":   "firstName: Jane\nlastName: Doe\n",
	"content/tags/a.yml":            "name: Alpha\n",
	"content/categories/dariah.yml": "name: DARIAH\n",
	"content/resources/intro.mdx": "---\ntitle: Introduction\ndate: 2021-01-25\ntype: video\n" +
		"authors:\n  - jane-doe\ntags:\n  - a\ncategories:\n  - dariah\n---\nBody.\n",
	"content/events/.keep":    "",
	"content/curricula/.keep": "",
	"documentation/.keep":     "",
}

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, body := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	}
}

func run(t *testing.T, args ...string) error {
	t.Helper()
	cli := &CLI{}
	global := &Global{Logger: slog.Default()}
	parser, err := kong.New(cli, kong.Bind(global), kong.Vars{"version": "test"}, kong.Exit(func(int) {}))
	require.NoError(t, err)
	ctx, err := parser.Parse(args)
	require.NoError(t, err)
	return ctx.Run(cli)
}

func TestParseLogLevel(t *testing.T) {
	t.Setenv("CAMPUS_LOG_LEVEL", "")
	assert.Equal(t, slog.LevelDebug, parseLogLevel(true, "error"))
	assert.Equal(t, slog.LevelError, parseLogLevel(false, "error"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel(false, "bogus"))

	t.Setenv("CAMPUS_LOG_LEVEL", "warn")
	assert.Equal(t, slog.LevelWarn, parseLogLevel(false, "error"))
}

func TestInitRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "campus.yaml")
	require.NoError(t, run(t, "-c", path, "init"))
	require.FileExists(t, path)
	require.Error(t, run(t, "-c", path, "init"))
	require.NoError(t, run(t, "-c", path, "init", "--force"))
}

func TestBuildAndHistory(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "site")
	writeFiles(t, root, contentTree)

	cfgPath := filepath.Join(dir, "campus.yaml")
	out := filepath.Join(dir, "public")
	cfg := "content:\n  root: " + root + "\n" +
		"site:\n  base_url: https://campus.example.org\n" +
		"build:\n  output: " + out + "\n" +
		"history:\n  path: " + filepath.Join(dir, "state", "history.db") + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o600))

	require.NoError(t, run(t, "-c", cfgPath, "build"))
	assert.FileExists(t, filepath.Join(out, "resource", "intro", "index.json"))
	assert.FileExists(t, filepath.Join(out, "sitemap.xml"))

	require.NoError(t, run(t, "-c", cfgPath, "routes"))
	require.NoError(t, run(t, "-c", cfgPath, "history", "--json"))
	require.NoError(t, run(t, "-c", cfgPath, "index"))
}

func TestBuildFailsOnMissingReference(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{}
	for k, v := range contentTree {
		files[k] = v
	}
	files["content/resources/bad.mdx"] = "---\ntitle: Bad\ndate: 2021-05-01\ntype: video\nauthors:\n  - ghost\n---\n"
	writeFiles(t, dir, files)

	cfgPath := filepath.Join(dir, "campus.yaml")
	cfg := "content:\n  root: " + dir + "\nbuild:\n  output: " + filepath.Join(dir, "public") + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o600))

	require.Error(t, run(t, "-c", cfgPath, "build"))
}

func TestHistoryRequiresPath(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "campus.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("content:\n  root: .\n"), 0o600))
	require.Error(t, run(t, "-c", cfgPath, "history"))
}
