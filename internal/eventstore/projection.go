package eventstore

import (
	"context"
	"slices"
	"strings"
	"time"
)

const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// BuildSummary is the read model of one build.
type BuildSummary struct {
	BuildID      string                 `json:"build_id"`
	Status       string                 `json:"status"`
	StartedAt    time.Time              `json:"started_at"`
	CompletedAt  *time.Time             `json:"completed_at,omitempty"`
	Duration     time.Duration          `json:"duration,omitempty"`
	Commit       string                 `json:"commit,omitempty"`
	Output       string                 `json:"output,omitempty"`
	Routes       int                    `json:"routes"`
	Stages       map[string]int         `json:"stages,omitempty"`
	Search       *SearchUploadedPayload `json:"search,omitempty"`
	ErrorStage   string                 `json:"error_stage,omitempty"`
	ErrorMessage string                 `json:"error_message,omitempty"`
}

// Summarize folds events into one summary per build, newest first, keeping
// at most limit entries (all when limit <= 0).
func Summarize(events []Event, limit int) []*BuildSummary {
	builds := map[string]*BuildSummary{}
	for _, e := range events {
		if e.BuildID == "" {
			continue
		}
		s, ok := builds[e.BuildID]
		if !ok {
			s = &BuildSummary{BuildID: e.BuildID, Status: StatusRunning, StartedAt: e.Timestamp}
			builds[e.BuildID] = s
		}
		apply(s, e)
	}

	out := make([]*BuildSummary, 0, len(builds))
	for _, s := range builds {
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b *BuildSummary) int {
		if c := b.StartedAt.Compare(a.StartedAt); c != 0 {
			return c
		}
		return strings.Compare(a.BuildID, b.BuildID)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func apply(s *BuildSummary, e Event) {
	switch e.Type {
	case TypeBuildStarted:
		var p BuildStartedPayload
		if e.Decode(&p) == nil {
			s.StartedAt = e.Timestamp
			s.Commit = p.Commit
			s.Output = p.Output
		}
	case TypeStageCompleted:
		var p StageCompletedPayload
		if e.Decode(&p) == nil {
			if s.Stages == nil {
				s.Stages = map[string]int{}
			}
			s.Stages[p.Stage] = p.Count
		}
	case TypeSearchUploaded:
		var p SearchUploadedPayload
		if e.Decode(&p) == nil {
			s.Search = &p
		}
	case TypeBuildCompleted:
		var p BuildCompletedPayload
		if e.Decode(&p) == nil {
			s.Routes = p.Routes
		}
		finish(s, e.Timestamp, StatusCompleted)
	case TypeBuildFailed:
		var p BuildFailedPayload
		if e.Decode(&p) == nil {
			s.ErrorStage = p.Stage
			s.ErrorMessage = p.Error
		}
		finish(s, e.Timestamp, StatusFailed)
	}
}

func finish(s *BuildSummary, at time.Time, status string) {
	s.CompletedAt = &at
	s.Duration = at.Sub(s.StartedAt)
	s.Status = status
}

// History loads every event from store and summarizes it.
func History(ctx context.Context, store Store, limit int) ([]*BuildSummary, error) {
	events, err := store.GetRange(ctx, time.Time{}, time.Now().Add(time.Hour))
	if err != nil {
		return nil, err
	}
	return Summarize(events, limit), nil
}
