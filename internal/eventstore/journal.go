package eventstore

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/campus/internal/logfields"
)

// Journal appends the events of one build. A Journal without a store
// discards everything, and append failures are logged rather than
// returned: history must never fail a build.
type Journal struct {
	store   Store
	buildID string
	started time.Time
}

// NewJournal starts a journal for buildID. store may be nil.
func NewJournal(store Store, buildID string) *Journal {
	return &Journal{store: store, buildID: buildID, started: time.Now()}
}

func (j *Journal) BuildID() string { return j.buildID }

func (j *Journal) Started(ctx context.Context, p BuildStartedPayload) {
	j.append(ctx, TypeBuildStarted, p)
}

func (j *Journal) Stage(ctx context.Context, stage string, count int, d time.Duration) {
	j.append(ctx, TypeStageCompleted, StageCompletedPayload{Stage: stage, Count: count, DurationMS: d.Milliseconds()})
}

func (j *Journal) SearchUploaded(ctx context.Context, p SearchUploadedPayload) {
	j.append(ctx, TypeSearchUploaded, p)
}

func (j *Journal) Completed(ctx context.Context, routes int) {
	j.append(ctx, TypeBuildCompleted, BuildCompletedPayload{Routes: routes, DurationMS: time.Since(j.started).Milliseconds()})
}

func (j *Journal) Failed(ctx context.Context, stage string, err error) {
	j.append(ctx, TypeBuildFailed, BuildFailedPayload{Stage: stage, Error: err.Error()})
}

func (j *Journal) append(ctx context.Context, eventType string, payload any) {
	if j == nil || j.store == nil {
		return
	}
	e, err := NewEvent(j.buildID, eventType, payload)
	if err == nil {
		// the build context may already be cancelled when recording a failure
		err = j.store.Append(context.WithoutCancel(ctx), e)
	}
	if err != nil {
		slog.Warn("Failed to record build event",
			logfields.BuildID(j.buildID),
			slog.String("type", eventType),
			logfields.Error(err))
	}
}
