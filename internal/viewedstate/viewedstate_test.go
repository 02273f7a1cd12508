package viewedstate_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/princekumarofficial/stories-viewer/internal/viewedstate"
)

// fakeSyncer sequences RecordView outcomes through a channel so tests can
// control completion order, and serves a configurable confirmed set.
type fakeSyncer struct {
	mu        sync.Mutex
	confirmed []string
	results   chan error
	calls     []string
}

func newFakeSyncer() *fakeSyncer {
	return &fakeSyncer{results: make(chan error, 16)}
}

func (f *fakeSyncer) FetchViewedIDs(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.confirmed...), nil
}

func (f *fakeSyncer) RecordView(ctx context.Context, storyID string) error {
	f.mu.Lock()
	f.calls = append(f.calls, storyID)
	f.mu.Unlock()
	return <-f.results
}

func (f *fakeSyncer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeSyncer) setConfirmed(ids ...string) {
	f.mu.Lock()
	f.confirmed = ids
	f.mu.Unlock()
}

func TestLoad(t *testing.T) {
	syncer := newFakeSyncer()
	syncer.setConfirmed("s1", "s2")

	store := viewedstate.New("me", syncer)
	require.NoError(t, store.Load(context.Background()))

	assert.True(t, store.Contains("s1"))
	assert.True(t, store.Contains("s2"))
	assert.False(t, store.Contains("s3"))
	assert.Equal(t, 2, store.Len())
}

func TestMarkViewedIsOptimistic(t *testing.T) {
	syncer := newFakeSyncer()
	store := viewedstate.New("me", syncer)

	// No result queued yet: the server call is still in flight, but the
	// local set must already reflect the view.
	store.MarkViewed(context.Background(), "s1")
	assert.True(t, store.Contains("s1"))

	syncer.results <- nil
	store.Flush()
	assert.True(t, store.Contains("s1"))
}

func TestMarkViewedIdempotent(t *testing.T) {
	syncer := newFakeSyncer()
	store := viewedstate.New("me", syncer)

	syncer.results <- nil
	store.MarkViewed(context.Background(), "s1")
	store.Flush()

	store.MarkViewed(context.Background(), "s1")
	store.MarkViewed(context.Background(), "s1")
	store.Flush()

	assert.Equal(t, 1, store.Len())
	assert.Equal(t, 1, syncer.callCount(), "repeat marks must not re-record")
}

func TestMarkViewedSkipsOwnStories(t *testing.T) {
	syncer := newFakeSyncer()
	store := viewedstate.New("me", syncer)
	store.SetOwnStories([]string{"mine1"})

	store.MarkViewed(context.Background(), "mine1")
	store.Flush()

	assert.False(t, store.Contains("mine1"))
	assert.Equal(t, 0, syncer.callCount())
}

func TestRollbackRestoresFullSnapshot(t *testing.T) {
	syncer := newFakeSyncer()
	store := viewedstate.New("me", syncer)

	// x1 and x2 record successfully.
	syncer.results <- nil
	syncer.results <- nil
	store.MarkViewed(context.Background(), "x1")
	store.MarkViewed(context.Background(), "x2")
	store.Flush()
	syncer.setConfirmed("x1", "x2")

	// x3 goes in flight and then fails. The rollback restores the snapshot
	// taken before x3's optimistic add, so x1 and x2 survive, and the
	// follow-up refresh resyncs with the server's confirmed set.
	store.MarkViewed(context.Background(), "x3")
	assert.True(t, store.Contains("x3"), "optimistic add visible before outcome")

	syncer.results <- assert.AnError
	store.Flush()

	assert.True(t, store.Contains("x1"))
	assert.True(t, store.Contains("x2"))
	assert.False(t, store.Contains("x3"))
}

func TestRefreshReplacesSet(t *testing.T) {
	syncer := newFakeSyncer()
	syncer.setConfirmed("old")

	store := viewedstate.New("me", syncer)
	require.NoError(t, store.Load(context.Background()))
	require.True(t, store.Contains("old"))

	syncer.setConfirmed("new")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, store.Refresh(ctx))

	assert.False(t, store.Contains("old"))
	assert.True(t, store.Contains("new"))
}
