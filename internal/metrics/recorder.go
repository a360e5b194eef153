package metrics

import "time"

// Outcome labels a finished operation.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeWarning Outcome = "warning"
	OutcomeFailed  Outcome = "failed"
	// OutcomeStale marks a preview result discarded because a newer
	// generation had already been submitted.
	OutcomeStale Outcome = "stale"
)

// Recorder receives observations from resolution, builds, search uploads and
// the preview server. Implementations must be safe for concurrent use.
type Recorder interface {
	ObserveResolve(kind string, d time.Duration, ok bool)
	ObserveStage(stage string, d time.Duration)
	ObserveBuild(d time.Duration, outcome Outcome)
	AddRoutes(n int)
	IncSearchUpload(backend string, outcome Outcome)
	IncPreview(outcome Outcome)
}

// NoopRecorder discards everything. It is the default everywhere.
type NoopRecorder struct{}

func (NoopRecorder) ObserveResolve(string, time.Duration, bool) {}
func (NoopRecorder) ObserveStage(string, time.Duration)         {}
func (NoopRecorder) ObserveBuild(time.Duration, Outcome)        {}
func (NoopRecorder) AddRoutes(int)                              {}
func (NoopRecorder) IncSearchUpload(string, Outcome)            {}
func (NoopRecorder) IncPreview(Outcome)                         {}

// OrNoop returns r, or a NoopRecorder when r is nil.
func OrNoop(r Recorder) Recorder {
	if r == nil {
		return NoopRecorder{}
	}
	return r
}
