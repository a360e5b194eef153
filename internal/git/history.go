package git

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-git/go-git/v5"

	ferrors "git.home.luguber.info/inful/campus/internal/foundation/errors"
	"git.home.luguber.info/inful/campus/internal/logfields"
)

// History answers last-updated queries against the repository containing
// a content root. Results are cached per path for the life of the value.
type History struct {
	// repoMu serializes repository access; a Repository is not safe for
	// concurrent log walks.
	repoMu sync.Mutex
	repo   *git.Repository
	root   string

	mu    sync.Mutex
	cache map[string]time.Time
}

// Open finds the repository enclosing dir.
func Open(dir string) (*History, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "open git repository").
			WithContext("path", dir).Build()
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "git worktree").
			WithContext("path", dir).Build()
	}
	return &History{repo: repo, root: wt.Filesystem.Root(), cache: map[string]time.Time{}}, nil
}

// Head returns the hash of the commit HEAD points at.
func (h *History) Head() (string, error) {
	h.repoMu.Lock()
	defer h.repoMu.Unlock()
	ref, err := h.repo.Head()
	if err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryFileSystem, "resolve HEAD").Build()
	}
	return ref.Hash().String(), nil
}

// LastUpdated returns the committer time of the newest commit touching
// path. ok is false when the file has never been committed.
func (h *History) LastUpdated(ctx context.Context, path string) (t time.Time, ok bool, err error) {
	rel, err := h.relative(path)
	if err != nil {
		return time.Time{}, false, err
	}

	h.mu.Lock()
	cached, hit := h.cache[rel]
	h.mu.Unlock()
	if hit {
		return cached, !cached.IsZero(), nil
	}

	if err := ctx.Err(); err != nil {
		return time.Time{}, false, err
	}
	t, err = h.lastCommit(rel)
	if err != nil {
		return time.Time{}, false, err
	}

	h.mu.Lock()
	h.cache[rel] = t
	h.mu.Unlock()
	return t, !t.IsZero(), nil
}

// lastCommit walks the log for rel under repoMu. A zero time means no
// commit touches rel.
func (h *History) lastCommit(rel string) (time.Time, error) {
	h.repoMu.Lock()
	defer h.repoMu.Unlock()

	head, err := h.repo.Head()
	if err != nil {
		return time.Time{}, ferrors.WrapError(err, ferrors.CategoryFileSystem, "resolve HEAD").Build()
	}
	iter, err := h.repo.Log(&git.LogOptions{
		From:     head.Hash(),
		Order:    git.LogOrderCommitterTime,
		FileName: &rel,
	})
	if err != nil {
		return time.Time{}, ferrors.WrapError(err, ferrors.CategoryFileSystem, "git log").
			WithContext("path", rel).Build()
	}
	defer iter.Close()

	c, err := iter.Next()
	switch {
	case err == nil:
		return c.Committer.When, nil
	case errors.Is(err, io.EOF):
		return time.Time{}, nil
	default:
		return time.Time{}, ferrors.WrapError(err, ferrors.CategoryFileSystem, "git log").
			WithContext("path", rel).Build()
	}
}

// LastUpdatedOrNil is the best-effort form used while assembling pages: a
// failure is logged as a warning and yields nil.
func (h *History) LastUpdatedOrNil(ctx context.Context, path string) *time.Time {
	if h == nil {
		return nil
	}
	t, ok, err := h.LastUpdated(ctx, path)
	if err != nil {
		slog.Warn("Could not read last updated timestamp", logfields.Path(path), logfields.Error(err))
		return nil
	}
	if !ok {
		return nil
	}
	return &t
}

// relative converts path to a slash-separated path inside the worktree.
func (h *History) relative(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	root, err := filepath.Abs(h.root)
	if err != nil {
		return "", err
	}
	// symlinked temp dirs make the two spellings differ
	if r, err := filepath.EvalSymlinks(root); err == nil {
		root = r
	}
	if dir, err := filepath.EvalSymlinks(filepath.Dir(abs)); err == nil {
		abs = filepath.Join(dir, filepath.Base(abs))
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ferrors.ValidationError("path is outside the repository").
			WithContext("path", path).Build()
	}
	return filepath.ToSlash(rel), nil
}
