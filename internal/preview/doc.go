// Package preview recompiles unsaved CMS form state.
//
// Every submission for an entity bumps that entity's generation and
// (re)starts a debounce timer. When the timer fires the entity is resolved
// against an overlay holding the drafts, and the result is committed only
// if no newer submission arrived in the meantime. Compilation failures are
// kept as a failed state instead of being returned to the caller.
package preview
