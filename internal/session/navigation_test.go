package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/princekumarofficial/stories-viewer/internal/types"
)

var navBase = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func navStory(id, authorID string, minutesAgo int) types.Story {
	return types.Story{
		ID:        id,
		AuthorID:  authorID,
		CreatedAt: navBase.Add(-time.Duration(minutesAgo) * time.Minute),
	}
}

// testFeed builds: own (possibly empty), alice [a1,a2,a3], bob [b1,b2].
// Collection story order is storage order, newest-first.
func testFeed(ownStories ...types.Story) []types.AuthorCollection {
	return []types.AuthorCollection{
		{AuthorID: "me", Stories: ownStories},
		{AuthorID: "alice", Stories: []types.Story{
			navStory("a3", "alice", 1),
			navStory("a2", "alice", 2),
			navStory("a1", "alice", 3),
		}},
		{AuthorID: "bob", Stories: []types.Story{
			navStory("b2", "bob", 4),
			navStory("b1", "bob", 5),
		}},
	}
}

// trackingNav wires the navigator to an in-memory viewed set the way the
// session wires it to the viewed store.
func trackingNav(cols []types.AuthorCollection, viewed map[string]bool) (*Navigator, *[]string) {
	marked := &[]string{}
	nav := NewNavigator(cols, "me",
		func(id string) bool { return viewed[id] },
		func(id string) {
			*marked = append(*marked, id)
			viewed[id] = true
		},
	)
	return nav, marked
}

func TestOpenLandsOnFirstUnviewed(t *testing.T) {
	tests := []struct {
		name      string
		viewed    map[string]bool
		wantStory string
	}{
		{"nothing viewed opens oldest", map[string]bool{}, "a1"},
		{"partially viewed skips to first unviewed", map[string]bool{"a1": true}, "a2"},
		{"gap lands on lowest unviewed index", map[string]bool{"a1": true, "a3": true}, "a2"},
		{"all viewed restarts at oldest", map[string]bool{"a1": true, "a2": true, "a3": true}, "a1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nav, _ := trackingNav(testFeed(), tt.viewed)
			require.NoError(t, nav.Open("alice"))

			story, ok := nav.Current()
			require.True(t, ok)
			assert.Equal(t, tt.wantStory, story.ID)
		})
	}
}

func TestOpenOwnEmptySignalsCreationRedirect(t *testing.T) {
	nav, _ := trackingNav(testFeed(), map[string]bool{})

	err := nav.Open("me")
	assert.ErrorIs(t, err, ErrNoOwnStories)
	assert.False(t, nav.IsOpen())
}

func TestOpenOwnWithStoriesStartsAtOldest(t *testing.T) {
	cols := testFeed(navStory("m2", "me", 1), navStory("m1", "me", 2))
	nav, marked := trackingNav(cols, map[string]bool{})

	require.NoError(t, nav.Open("me"))

	story, ok := nav.Current()
	require.True(t, ok)
	assert.Equal(t, "m1", story.ID)
	assert.Empty(t, *marked, "own stories never get marked viewed")
}

func TestAdvanceForwardCrossesAuthors(t *testing.T) {
	nav, _ := trackingNav(testFeed(), map[string]bool{})
	require.NoError(t, nav.Open("alice"))

	seen := []string{}
	for nav.IsOpen() {
		story, _ := nav.Current()
		seen = append(seen, story.ID)
		nav.Advance(1)
	}

	// Playback order within each author, authors in feed order, then Closed.
	assert.Equal(t, []string{"a1", "a2", "a3", "b1", "b2"}, seen)
	assert.False(t, nav.IsOpen())
}

func TestAdvancePastLastClosesOnce(t *testing.T) {
	nav, _ := trackingNav(testFeed(), map[string]bool{
		"b1": true, "b2": true,
	})
	require.NoError(t, nav.Open("bob"))
	nav.Advance(1) // b1 -> b2
	nav.Advance(1) // past the end: Closed

	assert.False(t, nav.IsOpen())

	// Further advances on a closed machine are no-ops, not re-closes.
	nav.Advance(1)
	assert.False(t, nav.IsOpen())
}

func TestAdvanceBackward(t *testing.T) {
	cols := testFeed(navStory("m1", "me", 10))
	nav, _ := trackingNav(cols, map[string]bool{})
	require.NoError(t, nav.Open("bob"))

	// Back from bob's first story lands on alice's last playback index.
	nav.Advance(-1)
	story, _ := nav.Current()
	assert.Equal(t, "a3", story.ID)

	nav.Advance(-1) // a3 -> a2
	nav.Advance(-1) // a2 -> a1
	nav.Advance(-1) // a1 -> own m1
	story, _ = nav.Current()
	assert.Equal(t, "m1", story.ID)

	// First story of the first collection: back is a no-op.
	nav.Advance(-1)
	story, _ = nav.Current()
	assert.Equal(t, "m1", story.ID)
	assert.True(t, nav.IsOpen())
}

func TestAdvanceBackwardSkipsEmptyOwnCollection(t *testing.T) {
	nav, _ := trackingNav(testFeed(), map[string]bool{})
	require.NoError(t, nav.Open("alice"))

	// Own collection is empty; backing past alice's first story is a no-op
	// rather than a landing on a story that does not exist.
	nav.Advance(-1)
	story, _ := nav.Current()
	assert.Equal(t, "a1", story.ID)
	assert.True(t, nav.IsOpen())
}

func TestEnterMarksUnviewedExactlyOnce(t *testing.T) {
	nav, marked := trackingNav(testFeed(), map[string]bool{"a1": true})

	require.NoError(t, nav.Open("alice")) // lands on a2, marks it
	nav.Advance(1)                        // a3
	nav.Advance(1)                        // b1
	nav.Advance(-1)                       // back to a3: already viewed now

	assert.Equal(t, []string{"a2", "a3", "b1"}, *marked)
}
