package build

import (
	"context"
	"time"
)

// BuildService executes site builds.
type BuildService interface {
	Run(ctx context.Context, req BuildRequest) (*BuildResult, error)
}

// BuildRequest holds the inputs of one build.
type BuildRequest struct {
	// OutputDir receives the page data and the sitemap.
	OutputDir string

	// BaseURL prefixes sitemap locations.
	BaseURL string

	// Clean removes OutputDir before writing.
	Clean bool

	// Concurrency bounds the pages assembled at once. Zero means 8.
	Concurrency int

	// Index uploads search records after the pages are written.
	Index bool

	// ContentRoot and Commit are recorded in the build history.
	ContentRoot string
	Commit      string
}

// BuildResult is the outcome of a build.
type BuildResult struct {
	BuildID string
	Status  BuildStatus

	OutputPath string

	// Routes is the number of pages written.
	Routes int

	// BrokenLinks counts internal links to pages that were not generated.
	// They are reported as warnings.
	BrokenLinks int

	// Indexed is set when search records were uploaded successfully.
	Indexed bool

	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

// BuildStatus represents the outcome of a build execution.
type BuildStatus string

const (
	BuildStatusSuccess   BuildStatus = "success"
	BuildStatusFailed    BuildStatus = "failed"
	BuildStatusCancelled BuildStatus = "cancelled"
)

// IsSuccess returns true if the build completed successfully.
func (s BuildStatus) IsSuccess() bool {
	return s == BuildStatusSuccess
}
