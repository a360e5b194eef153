// Package store reads content entities from their on-disk folders.
//
// Each entity kind lives in its own folder with one file per entity named
// <id>.<ext>. The folder listing is the set of valid identifiers for the kind.
package store

import (
	"context"
	"path/filepath"
	"strings"
)

// Folder locates one entity kind.
type Folder struct {
	// Dir is relative to the reader root unless absolute.
	Dir string
	// Ext is the file extension without the leading dot, e.g. "md" or "yml".
	Ext string
}

// FilePath returns the deterministic path of id inside the folder.
func (f Folder) FilePath(id string) string {
	return filepath.Join(f.Dir, id+"."+strings.TrimPrefix(f.Ext, "."))
}

func (f Folder) suffix() string {
	return "." + strings.TrimPrefix(f.Ext, ".")
}

func (f Folder) String() string {
	return filepath.Join(f.Dir, "*"+f.suffix())
}

// Reader lists and reads entity files.
//
// Implementations return a not_found ClassifiedError when the folder or the
// file does not exist. There is no partial-failure tolerance: callers
// propagate the error and abort.
type Reader interface {
	// IDs lists every file with the folder's extension, extension stripped.
	// The order is unspecified.
	IDs(ctx context.Context, f Folder) ([]string, error)

	// Read returns the raw content of the entity file.
	Read(ctx context.Context, f Folder, id string) ([]byte, error)
}
