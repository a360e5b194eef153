package preview

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSchedulerRunsJobs(t *testing.T) {
	s, err := NewScheduler()
	require.NoError(t, err)

	var runs atomic.Int32
	require.NoError(t, s.Every(context.Background(), "reindex", 10*time.Millisecond, func(context.Context) {
		runs.Add(1)
	}))
	s.Start()
	require.Eventually(t, func() bool { return runs.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, s.Stop())
}

func TestSchedulerRejectsZeroInterval(t *testing.T) {
	s, err := NewScheduler()
	require.NoError(t, err)
	defer func() { _ = s.Stop() }()
	require.Error(t, s.Every(context.Background(), "never", 0, func(context.Context) {}))
}
