package logfields

import "log/slog"

// Canonical log field names shared by every package.
const (
	KeyKind       = "kind"
	KeyID         = "id"
	KeyRoute      = "route"
	KeyPage       = "page"
	KeyPages      = "pages"
	KeyCount      = "count"
	KeyBuildID    = "build_id"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyFolder     = "folder"
	KeyPath       = "path"
	KeyBackend    = "backend"
	KeySession    = "session"
	KeyGeneration = "generation"
	KeyError      = "error"
)

func Kind(k string) slog.Attr         { return slog.String(KeyKind, k) }
func ID(id string) slog.Attr          { return slog.String(KeyID, id) }
func Route(r string) slog.Attr        { return slog.String(KeyRoute, r) }
func Page(n int) slog.Attr            { return slog.Int(KeyPage, n) }
func Pages(n int) slog.Attr           { return slog.Int(KeyPages, n) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Folder(f string) slog.Attr       { return slog.String(KeyFolder, f) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Backend(b string) slog.Attr      { return slog.String(KeyBackend, b) }
func Session(id string) slog.Attr     { return slog.String(KeySession, id) }
func Generation(g uint64) slog.Attr   { return slog.Uint64(KeyGeneration, g) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
