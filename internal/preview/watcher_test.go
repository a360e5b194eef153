package preview

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShouldIgnoreEvent(t *testing.T) {
	require.True(t, shouldIgnoreEvent("/tmp/.hidden.mdx"))
	require.True(t, shouldIgnoreEvent("/tmp/#foo#"))
	require.True(t, shouldIgnoreEvent("/tmp/foo.swp"))
	require.True(t, shouldIgnoreEvent("/tmp/foo.mdx~"))
	require.True(t, shouldIgnoreEvent("/tmp/.DS_Store"))
	require.False(t, shouldIgnoreEvent("/tmp/visible.mdx"))
}

func TestDebouncedCoalescesBursts(t *testing.T) {
	var calls atomic.Int32
	trigger, stop := debounced(20*time.Millisecond, func() { calls.Add(1) })
	defer stop()

	for range 5 {
		trigger()
	}
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestWatchReportsChanges(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "people")
	require.NoError(t, os.MkdirAll(sub, 0o750))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, []string{dir}, 10*time.Millisecond, func() { calls.Add(1) }) }()

	// the watcher registers asynchronously; keep writing until it notices
	require.Eventually(t, func() bool {
		_ = os.WriteFile(filepath.Join(sub, "jane-doe.yml"), []byte("lastName: Doe\n"), 0o600)
		return calls.Load() > 0
	}, 2*time.Second, 25*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestWatchRequiresDirectory(t *testing.T) {
	err := Watch(context.Background(), []string{filepath.Join(t.TempDir(), "missing")}, time.Millisecond, func() {})
	require.Error(t, err)
}
