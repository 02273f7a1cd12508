package session

import (
	"errors"

	"github.com/princekumarofficial/stories-viewer/internal/types"
)

// ErrNoOwnStories is returned by Open when the viewer opens their own empty
// collection: the caller redirects to the creation flow instead of entering
// the viewer.
var ErrNoOwnStories = errors.New("viewer has no active stories")

var errUnknownAuthor = errors.New("author not in feed")

// Position addresses one story inside the aggregated feed: the collection
// index and the story's playback index (oldest-first) within it.
type Position struct {
	Author int `json:"author"`
	Story  int `json:"story"`
}

// Navigator is the viewer's navigation state machine. It is either Closed or
// Open at a Position; transitions walk stories in playback order and cross
// author boundaries per the aggregator's collection ordering.
//
// Navigator is not safe for concurrent use; the session event loop
// serializes all calls.
type Navigator struct {
	cols     []types.AuthorCollection
	playback [][]types.Story // per collection, oldest-first
	viewerID string

	viewed  func(storyID string) bool
	onEnter func(storyID string) // fired on entering an unviewed non-own story

	open bool
	pos  Position
}

func NewNavigator(cols []types.AuthorCollection, viewerID string, viewed func(string) bool, onEnter func(string)) *Navigator {
	playback := make([][]types.Story, len(cols))
	for i, c := range cols {
		playback[i] = c.PlaybackOrder()
	}
	return &Navigator{
		cols:     cols,
		playback: playback,
		viewerID: viewerID,
		viewed:   viewed,
		onEnter:  onEnter,
	}
}

// IsOpen reports whether the machine is in the Open state.
func (n *Navigator) IsOpen() bool { return n.open }

// Pos returns the current position; only meaningful while open.
func (n *Navigator) Pos() Position { return n.pos }

// Current returns the story at the current position in playback order.
func (n *Navigator) Current() (types.Story, bool) {
	if !n.open {
		return types.Story{}, false
	}
	return n.playback[n.pos.Author][n.pos.Story], true
}

// Open enters the viewer on the given author's collection.
//
// For the viewer's own collection an empty collection is ErrNoOwnStories
// (creation-flow redirect) and a non-empty one opens at playback index 0.
// For any other author it opens at the lowest unviewed playback index, or
// restarts at 0 when every story has been viewed.
func (n *Navigator) Open(authorID string) error {
	idx := -1
	for i, c := range n.cols {
		if c.AuthorID == authorID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return errUnknownAuthor
	}

	stories := n.playback[idx]
	if authorID == n.viewerID {
		if len(stories) == 0 {
			return ErrNoOwnStories
		}
		n.enter(Position{Author: idx, Story: 0})
		return nil
	}

	start := 0
	for i, s := range stories {
		if !n.viewed(s.ID) {
			start = i
			break
		}
	}
	n.enter(Position{Author: idx, Story: start})
	return nil
}

// Advance moves one story forward (+1) or back (-1).
//
// Forward past the last story of an author opens the next author at playback
// index 0; past the last author it closes the viewer. Backward past the
// first story opens the previous author at their last playback index; at the
// very first story of the first author it is a no-op.
func (n *Navigator) Advance(delta int) {
	if !n.open {
		return
	}

	switch {
	case delta > 0:
		if n.pos.Story+1 < len(n.playback[n.pos.Author]) {
			n.enter(Position{Author: n.pos.Author, Story: n.pos.Story + 1})
			return
		}
		// Only the viewer's own collection can be empty; skip it rather
		// than landing on a story that does not exist.
		next := n.pos.Author + 1
		for next < len(n.cols) && len(n.playback[next]) == 0 {
			next++
		}
		if next >= len(n.cols) {
			n.Close()
			return
		}
		n.enter(Position{Author: next, Story: 0})

	case delta < 0:
		if n.pos.Story > 0 {
			n.enter(Position{Author: n.pos.Author, Story: n.pos.Story - 1})
			return
		}
		prev := n.pos.Author - 1
		for prev >= 0 && len(n.playback[prev]) == 0 {
			prev--
		}
		if prev < 0 {
			return
		}
		n.enter(Position{Author: prev, Story: len(n.playback[prev]) - 1})
	}
}

// Close transitions to the Closed state.
func (n *Navigator) Close() {
	n.open = false
	n.pos = Position{}
}

func (n *Navigator) enter(pos Position) {
	n.open = true
	n.pos = pos

	story := n.playback[pos.Author][pos.Story]
	if n.cols[pos.Author].AuthorID == n.viewerID {
		return
	}
	if n.viewed(story.ID) {
		return
	}
	if n.onEnter != nil {
		n.onEnter(story.ID)
	}
}
