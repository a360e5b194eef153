package preview

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	ferrors "git.home.luguber.info/inful/campus/internal/foundation/errors"
)

// Scheduler runs periodic background tasks of the preview server, such as
// rebuilding the search index.
type Scheduler struct {
	scheduler gocron.Scheduler
}

// NewScheduler creates a stopped scheduler.
func NewScheduler() (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryRuntime, "create scheduler").Build()
	}
	return &Scheduler{scheduler: s}, nil
}

// Every schedules task to run each interval. Runs never overlap.
func (s *Scheduler) Every(ctx context.Context, name string, interval time.Duration, task func(context.Context)) error {
	if interval <= 0 {
		return ferrors.ValidationError("schedule interval must be > 0").WithContext("job", name).Build()
	}
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() { task(ctx) }),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryRuntime, "schedule job").WithContext("job", name).Build()
	}
	slog.Info("Scheduled job", slog.String("job", name), slog.Duration("interval", interval))
	return nil
}

func (s *Scheduler) Start() { s.scheduler.Start() }

// Stop waits for running jobs and shuts the scheduler down.
func (s *Scheduler) Stop() error {
	return s.scheduler.Shutdown()
}
