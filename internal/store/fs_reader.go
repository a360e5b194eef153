package store

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	ferrors "git.home.luguber.info/inful/campus/internal/foundation/errors"
)

// FSReader reads folders below a root directory.
type FSReader struct {
	root string
}

// NewFSReader creates a reader rooted at root. Relative folder paths are
// resolved against it.
func NewFSReader(root string) *FSReader {
	return &FSReader{root: root}
}

// Root returns the directory folders are resolved against.
func (r *FSReader) Root() string { return r.root }

// Abs returns the absolute location of a folder-relative path.
func (r *FSReader) Abs(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(r.root, rel)
}

func (r *FSReader) IDs(ctx context.Context, f Folder) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dir := r.Abs(f.Dir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, classifyIOError(err, "content folder not readable").
			WithContext("folder", dir).
			Build()
	}

	suffix := f.suffix()
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, suffix) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, suffix))
	}
	return ids, nil
}

func (r *FSReader) Read(ctx context.Context, f Folder, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateID(id); err != nil {
		return nil, err
	}
	path := r.Abs(f.FilePath(id))
	data, err := os.ReadFile(path) // #nosec G304 -- path is folder + validated id
	if err != nil {
		return nil, classifyIOError(err, "entity file not readable").
			WithContext("id", id).
			WithContext("path", path).
			Build()
	}
	return data, nil
}

func classifyIOError(err error, msg string) *ferrors.ErrorBuilder {
	if errors.Is(err, fs.ErrNotExist) {
		return ferrors.NotFoundError(msg).WithCause(err)
	}
	return ferrors.FileSystemError(msg).WithCause(err)
}

// validateID rejects identifiers that would escape the folder.
func validateID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return ferrors.ValidationError("invalid entity identifier").
			WithContext("id", id).
			Build()
	}
	return nil
}
