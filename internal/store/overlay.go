package store

import (
	"context"
	"fmt"
	"io/fs"
	"maps"
	"path/filepath"
	"slices"
	"sync"

	ferrors "git.home.luguber.info/inful/campus/internal/foundation/errors"
)

var errNoBase = fmt.Errorf("no base content tree: %w", fs.ErrNotExist)

// Overlay layers in-memory drafts over a base Reader. The preview server
// stores submitted form state here so that resolution sees unsaved edits
// exactly as if they had been committed to the folder.
type Overlay struct {
	base Reader

	mu     sync.RWMutex
	drafts map[string]map[string][]byte // folder dir -> id -> raw content
}

// NewOverlay wraps base. A nil base behaves like an empty content tree.
func NewOverlay(base Reader) *Overlay {
	return &Overlay{base: base, drafts: make(map[string]map[string][]byte)}
}

// Put stores raw content for id, replacing any previous draft.
func (o *Overlay) Put(f Folder, id string, raw []byte) error {
	if err := validateID(id); err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	key := folderKey(f)
	if o.drafts[key] == nil {
		o.drafts[key] = make(map[string][]byte)
	}
	o.drafts[key][id] = slices.Clone(raw)
	return nil
}

// Drop discards the draft for id. It reports whether a draft existed.
func (o *Overlay) Drop(f Folder, id string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	key := folderKey(f)
	if _, ok := o.drafts[key][id]; !ok {
		return false
	}
	delete(o.drafts[key], id)
	return true
}

// Len returns the number of drafts held.
func (o *Overlay) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	n := 0
	for _, m := range o.drafts {
		n += len(m)
	}
	return n
}

func (o *Overlay) IDs(ctx context.Context, f Folder) ([]string, error) {
	o.mu.RLock()
	draftIDs := slices.Collect(maps.Keys(o.drafts[folderKey(f)]))
	o.mu.RUnlock()

	var ids []string
	if o.base != nil {
		baseIDs, err := o.base.IDs(ctx, f)
		if err != nil && (len(draftIDs) == 0 || !ferrors.IsNotFound(err)) {
			return nil, err
		}
		ids = baseIDs
	}
	for _, id := range draftIDs {
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (o *Overlay) Read(ctx context.Context, f Folder, id string) ([]byte, error) {
	o.mu.RLock()
	raw, ok := o.drafts[folderKey(f)][id]
	o.mu.RUnlock()
	if ok {
		return slices.Clone(raw), nil
	}
	if o.base == nil {
		return nil, classifyIOError(errNoBase, "entity file not readable").
			WithContext("id", id).
			WithContext("path", f.FilePath(id)).
			Build()
	}
	return o.base.Read(ctx, f, id)
}

func folderKey(f Folder) string {
	return filepath.Clean(f.Dir) + "|" + f.suffix()
}
