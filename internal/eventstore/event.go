package eventstore

import (
	"encoding/json"
	"time"

	"git.home.luguber.info/inful/campus/internal/foundation/errors"
)

// Event types.
const (
	TypeBuildStarted   = "BuildStarted"
	TypeStageCompleted = "StageCompleted"
	TypeSearchUploaded = "SearchUploaded"
	TypeBuildCompleted = "BuildCompleted"
	TypeBuildFailed    = "BuildFailed"
)

// Event is one entry of the build log.
type Event struct {
	ID        int64
	BuildID   string
	Type      string
	Timestamp time.Time
	Payload   json.RawMessage
	Metadata  map[string]string
}

// BuildStartedPayload describes the inputs of a build.
type BuildStartedPayload struct {
	ContentRoot string `json:"content_root"`
	Output      string `json:"output"`
	Commit      string `json:"commit,omitempty"`
}

// StageCompletedPayload reports one finished build stage.
type StageCompletedPayload struct {
	Stage      string `json:"stage"`
	Count      int    `json:"count"`
	DurationMS int64  `json:"duration_ms"`
}

// SearchUploadedPayload reports the outcome of the best-effort search upload.
type SearchUploadedPayload struct {
	Backend string `json:"backend"`
	Records int    `json:"records"`
	OK      bool   `json:"ok"`
}

// BuildCompletedPayload closes a successful build.
type BuildCompletedPayload struct {
	Routes     int   `json:"routes"`
	DurationMS int64 `json:"duration_ms"`
}

// BuildFailedPayload closes a failed build.
type BuildFailedPayload struct {
	Stage string `json:"stage"`
	Error string `json:"error"`
}

// NewEvent encodes payload into an event stamped with the current time.
func NewEvent(buildID, eventType string, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, errors.InternalError("marshal event payload").
			WithCause(err).
			WithContext("build_id", buildID).
			WithContext("type", eventType).
			Build()
	}
	return Event{BuildID: buildID, Type: eventType, Timestamp: time.Now(), Payload: raw}, nil
}

// Decode unmarshals the payload into v.
func (e Event) Decode(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return errors.InternalError("unmarshal event payload").
			WithCause(err).
			WithContext("build_id", e.BuildID).
			WithContext("type", e.Type).
			Build()
	}
	return nil
}
