package eventstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBuildID = "build-123"

func newStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestAppendAndRetrieve(t *testing.T) {
	store := newStore(t)
	ctx := t.Context()

	e, err := NewEvent(testBuildID, TypeBuildStarted, BuildStartedPayload{Output: "out"})
	require.NoError(t, err)
	e.Metadata = map[string]string{"host": "ci"}
	require.NoError(t, store.Append(ctx, e))

	events, err := store.GetByBuildID(ctx, testBuildID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, TypeBuildStarted, events[0].Type)
	assert.Equal(t, "ci", events[0].Metadata["host"])
	assert.NotZero(t, events[0].ID)

	var p BuildStartedPayload
	require.NoError(t, events[0].Decode(&p))
	assert.Equal(t, "out", p.Output)

	none, err := store.GetByBuildID(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGetRange(t *testing.T) {
	store := newStore(t)
	ctx := t.Context()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := range 3 {
		e, err := NewEvent(testBuildID, TypeStageCompleted, StageCompletedPayload{Stage: "s", Count: i})
		require.NoError(t, err)
		e.Timestamp = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, store.Append(ctx, e))
	}

	events, err := store.GetRange(ctx, base.Add(30*time.Minute), base.Add(3*time.Hour))
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.True(t, events[0].Timestamp.Equal(base.Add(time.Hour)))
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	NewJournal(store, testBuildID).Completed(context.Background(), 4)
	require.NoError(t, store.Close())

	store, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer store.Close()
	events, err := store.GetByBuildID(context.Background(), testBuildID)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestJournalAndHistory(t *testing.T) {
	store := newStore(t)
	ctx := t.Context()

	ok := NewJournal(store, "b1")
	ok.Started(ctx, BuildStartedPayload{ContentRoot: "site", Output: "public", Commit: "abc"})
	ok.Stage(ctx, "resolve", 12, 40*time.Millisecond)
	ok.SearchUploaded(ctx, SearchUploadedPayload{Backend: "bleve", Records: 3, OK: true})
	ok.Completed(ctx, 20)

	time.Sleep(5 * time.Millisecond)
	bad := NewJournal(store, "b2")
	bad.Started(ctx, BuildStartedPayload{Output: "public"})
	bad.Failed(ctx, "resolve", errors.New("entity not found"))

	history, err := History(ctx, store, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)

	assert.Equal(t, "b2", history[0].BuildID)
	assert.Equal(t, StatusFailed, history[0].Status)
	assert.Equal(t, "resolve", history[0].ErrorStage)
	assert.Equal(t, "entity not found", history[0].ErrorMessage)
	require.NotNil(t, history[0].CompletedAt)

	first := history[1]
	assert.Equal(t, StatusCompleted, first.Status)
	assert.Equal(t, "abc", first.Commit)
	assert.Equal(t, 20, first.Routes)
	assert.Equal(t, 12, first.Stages["resolve"])
	require.NotNil(t, first.Search)
	assert.True(t, first.Search.OK)

	limited, err := History(ctx, store, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSummarizeRunningBuild(t *testing.T) {
	e, err := NewEvent("b", TypeBuildStarted, BuildStartedPayload{})
	require.NoError(t, err)
	got := Summarize([]Event{e, {Type: TypeBuildStarted}}, 0)
	require.Len(t, got, 1)
	assert.Equal(t, StatusRunning, got[0].Status)
	assert.Nil(t, got[0].CompletedAt)
}

func TestJournalWithoutStore(t *testing.T) {
	j := NewJournal(nil, "x")
	assert.NotPanics(t, func() {
		j.Started(context.Background(), BuildStartedPayload{})
		j.Failed(context.Background(), "s", errors.New("boom"))
	})
}
