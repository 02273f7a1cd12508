package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/princekumarofficial/stories-viewer/internal/config"
	"github.com/princekumarofficial/stories-viewer/internal/types"
	"github.com/princekumarofficial/stories-viewer/internal/viewedstate"
)

type okSyncer struct{}

func (okSyncer) FetchViewedIDs(ctx context.Context) ([]string, error) { return nil, nil }
func (okSyncer) RecordView(ctx context.Context, storyID string) error { return nil }

func testViewerConfig() config.Viewer {
	return config.Viewer{
		DefaultStoryDuration: 5 * time.Second,
		HoldDelay:            150 * time.Millisecond,
		DragDismissThreshold: 120,
		MoveTolerance:        10,
	}
}

// testSession builds a session over the shared test feed with a fake clock;
// tests drive apply directly instead of running the event loop.
func testSession(t *testing.T) (*Session, *viewedstate.Store, *time.Time, *[]State) {
	t.Helper()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	states := &[]State{}

	store := viewedstate.New("me", okSyncer{})
	require.NoError(t, store.Load(context.Background()))

	sess := New("me", testFeed(), store, testViewerConfig(), func(ev *types.Event) {
		if state, ok := ev.Data.(State); ok {
			*states = append(*states, state)
		}
	})
	sess.now = func() time.Time { return now }

	return sess, store, &now, states
}

func lastState(t *testing.T, states *[]State) State {
	t.Helper()
	require.NotEmpty(t, *states)
	return (*states)[len(*states)-1]
}

func TestSessionOpenMarksFirstStoryViewed(t *testing.T) {
	sess, store, _, states := testSession(t)

	sess.apply(cmdOpen{authorID: "alice"})
	store.Flush()

	state := lastState(t, states)
	assert.True(t, state.Open)
	require.NotNil(t, state.Story)
	assert.Equal(t, "a1", state.Story.ID)
	assert.True(t, store.Contains("a1"), "entering an unviewed story marks it")
}

func TestSessionOpenOwnEmptyRedirectsToCreation(t *testing.T) {
	sess, _, _, states := testSession(t)

	sess.apply(cmdOpen{authorID: "me"})

	state := lastState(t, states)
	assert.False(t, state.Open)
	assert.True(t, state.RedirectCreate)
}

func TestSessionAutoAdvanceFiresOnce(t *testing.T) {
	sess, _, now, states := testSession(t)

	sess.apply(cmdOpen{authorID: "alice"})

	// The default duration elapses: one tick advances exactly one story.
	*now = now.Add(5 * time.Second)
	sess.apply(cmdTick{now: *now})
	state := lastState(t, states)
	require.NotNil(t, state.Story)
	assert.Equal(t, "a2", state.Story.ID)

	// An immediate re-evaluation must not fire again: the timer restarted
	// when the position changed.
	sess.apply(cmdTick{now: *now})
	state = lastState(t, states)
	assert.Equal(t, "a2", state.Story.ID)
}

func TestSessionHoldSuspendsAutoAdvance(t *testing.T) {
	sess, _, now, states := testSession(t)

	sess.apply(cmdOpen{authorID: "alice"})
	sess.apply(cmdPointer{kind: "down", p: Pointer{ID: 1, X: 200, Y: 300}})

	state := lastState(t, states)
	assert.True(t, state.Paused)

	// Held well past the story duration: no advance while paused.
	*now = now.Add(time.Minute)
	sess.apply(cmdTick{now: *now})
	state = lastState(t, states)
	require.NotNil(t, state.Story)
	assert.Equal(t, "a1", state.Story.ID)

	// Release resumes from the frozen progress, not from a minute of
	// wall-clock catch-up.
	sess.apply(cmdPointer{kind: "up", p: Pointer{ID: 1, X: 200, Y: 300}})
	state = lastState(t, states)
	assert.False(t, state.Paused)
	assert.Less(t, state.Progress, 0.1)
}

func TestSessionTapZones(t *testing.T) {
	sess, _, now, states := testSession(t)

	sess.apply(cmdOpen{authorID: "alice", viewport: 300})

	// Tap on the right two-thirds advances.
	sess.apply(cmdPointer{kind: "down", p: Pointer{ID: 1, X: 250, Y: 300}})
	*now = now.Add(50 * time.Millisecond)
	sess.apply(cmdPointer{kind: "up", p: Pointer{ID: 1, X: 250, Y: 300}})
	state := lastState(t, states)
	require.NotNil(t, state.Story)
	assert.Equal(t, "a2", state.Story.ID)

	// Tap on the left third steps back.
	sess.apply(cmdPointer{kind: "down", p: Pointer{ID: 1, X: 40, Y: 300}})
	*now = now.Add(50 * time.Millisecond)
	sess.apply(cmdPointer{kind: "up", p: Pointer{ID: 1, X: 40, Y: 300}})
	state = lastState(t, states)
	require.NotNil(t, state.Story)
	assert.Equal(t, "a1", state.Story.ID)
}

func TestSessionQuickPinchDoesNotNavigate(t *testing.T) {
	sess, _, now, states := testSession(t)

	sess.apply(cmdOpen{authorID: "alice"})

	// A fast two-finger pinch released within the hold delay. The releases
	// land in tap territory time-wise, but tap zones are disabled for
	// anything that was part of a pinch.
	sess.apply(cmdPointer{kind: "down", p: Pointer{ID: 1, X: 100, Y: 200}})
	sess.apply(cmdPointer{kind: "down", p: Pointer{ID: 2, X: 250, Y: 200}})
	*now = now.Add(50 * time.Millisecond)
	sess.apply(cmdPointer{kind: "up", p: Pointer{ID: 2, X: 250, Y: 200}})
	sess.apply(cmdPointer{kind: "up", p: Pointer{ID: 1, X: 100, Y: 200}})

	state := lastState(t, states)
	assert.True(t, state.Open)
	require.NotNil(t, state.Story)
	assert.Equal(t, "a1", state.Story.ID)
}

func TestSessionDragDismissCloses(t *testing.T) {
	sess, _, _, states := testSession(t)

	sess.apply(cmdOpen{authorID: "alice"})
	sess.apply(cmdPointer{kind: "down", p: Pointer{ID: 1, X: 200, Y: 100}})
	sess.apply(cmdPointer{kind: "move", p: Pointer{ID: 1, X: 200, Y: 300}})
	sess.apply(cmdPointer{kind: "up", p: Pointer{ID: 1, X: 200, Y: 300}})

	state := lastState(t, states)
	assert.False(t, state.Open)
	assert.Equal(t, 1.0, state.Scale, "transform is neutral after close")
}

func TestSessionComposePausesPlayback(t *testing.T) {
	sess, _, now, states := testSession(t)

	sess.apply(cmdOpen{authorID: "alice"})
	sess.apply(cmdCompose{active: true, draft: "nice one"})

	state := lastState(t, states)
	assert.True(t, state.Paused)

	*now = now.Add(time.Minute)
	sess.apply(cmdTick{now: *now})
	state = lastState(t, states)
	require.NotNil(t, state.Story)
	assert.Equal(t, "a1", state.Story.ID, "no auto-advance while composing")

	sess.apply(cmdCompose{active: false})
	state = lastState(t, states)
	assert.False(t, state.Paused)
}

func TestSessionAdvancePastEndCloses(t *testing.T) {
	sess, _, _, states := testSession(t)

	sess.apply(cmdOpen{authorID: "bob"})
	sess.apply(cmdAdvance{delta: 1}) // b1 -> b2
	sess.apply(cmdAdvance{delta: 1}) // past the end

	state := lastState(t, states)
	assert.False(t, state.Open)
	assert.Nil(t, state.Story)
}

func TestSessionPositionChangeResetsGesture(t *testing.T) {
	sess, _, _, states := testSession(t)

	sess.apply(cmdOpen{authorID: "alice"})

	// Pinch in progress, then an explicit advance: the new story starts
	// with a neutral transform and unpaused playback.
	sess.apply(cmdPointer{kind: "down", p: Pointer{ID: 1, X: 100, Y: 200}})
	sess.apply(cmdPointer{kind: "down", p: Pointer{ID: 2, X: 200, Y: 200}})
	sess.apply(cmdPointer{kind: "move", p: Pointer{ID: 2, X: 400, Y: 200}})

	state := lastState(t, states)
	assert.True(t, state.ChromeHidden)
	assert.Greater(t, state.Scale, 1.0)

	sess.apply(cmdAdvance{delta: 1})
	state = lastState(t, states)
	require.NotNil(t, state.Story)
	assert.Equal(t, "a2", state.Story.ID)
	assert.Equal(t, 1.0, state.Scale)
	assert.False(t, state.Paused)
	assert.False(t, state.ChromeHidden)
}
