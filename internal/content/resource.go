package content

import (
	"context"

	ferrors "git.home.luguber.info/inful/campus/internal/foundation/errors"
)

// IsEntityNotFound reports whether err says the requested entity itself
// does not exist. A missing reference inside an existing entity does not
// count: that is a broken entity, not an absent one.
func IsEntityNotFound(err error) bool {
	c, ok := ferrors.AsClassified(err)
	return ok && c.Category() == ferrors.CategoryNotFound && c.Message() == msgEntityNotFound
}

// ResolveResource resolves a /resource/:id page, which may be a post or an
// event. The event lookup runs only when no post with that id exists; any
// other post failure is returned as is.
func (r *Resolver) ResolveResource(ctx context.Context, id string, mode Mode) (*Entity, error) {
	post, err := r.resolve(ctx, KindPost, id, mode)
	if err == nil {
		return post, nil
	}
	if !IsEntityNotFound(err) {
		return nil, err
	}
	return r.resolve(ctx, KindEvent, id, mode)
}
