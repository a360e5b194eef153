// Package eventstore records build history as an append-only log of events
// in SQLite and folds it into per-build summaries.
package eventstore

import (
	"context"
	"time"
)

// Store persists and retrieves events.
type Store interface {
	// Append adds an event. The store assigns the id.
	Append(ctx context.Context, e Event) error

	// GetByBuildID returns the events of one build in append order.
	GetByBuildID(ctx context.Context, buildID string) ([]Event, error)

	// GetRange returns the events recorded in [start, end] in append order.
	GetRange(ctx context.Context, start, end time.Time) ([]Event, error)

	Close() error
}
