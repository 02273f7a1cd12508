// Package session hosts the story viewer engine: the navigation state
// machine, the playback timer, the gesture recognizer and the event loop
// that serializes every mutation. Commands, pointer frames, timer ticks and
// network completions are all dispatched on one goroutine, so the engine
// state needs no locking; only the viewed-id store is shared wider.
package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/princekumarofficial/stories-viewer/internal/config"
	"github.com/princekumarofficial/stories-viewer/internal/types"
	"github.com/princekumarofficial/stories-viewer/internal/viewedstate"
)

const tickInterval = 100 * time.Millisecond

// defaultViewportWidth is assumed until the client reports its own.
const defaultViewportWidth = 360.0

// State is the snapshot pushed to the client after every mutation.
type State struct {
	Open           bool         `json:"open"`
	Position       Position     `json:"position"`
	Story          *types.Story `json:"story,omitempty"`
	Progress       float64      `json:"progress"`
	Paused         bool         `json:"paused"`
	Gesture        string       `json:"gesture"`
	Scale          float64      `json:"scale"`
	TranslateX     float64      `json:"translate_x"`
	TranslateY     float64      `json:"translate_y"`
	ChromeHidden   bool         `json:"chrome_hidden"`
	RedirectCreate bool         `json:"redirect_create,omitempty"`
}

type cmdOpen struct {
	authorID string
	viewport float64
}
type cmdAdvance struct{ delta int }
type cmdClose struct{}
type cmdCompose struct {
	active bool
	draft  string
}
type cmdPointer struct {
	kind string // "down" | "move" | "up"
	p    Pointer
}
type cmdTick struct{ now time.Time }

// Session is one viewer's live engine instance.
type Session struct {
	ID       string
	viewerID string

	cols     []types.AuthorCollection
	nav      *Navigator
	timer    Timer
	gestures *Recognizer
	viewed   *viewedstate.Store

	defaultDuration time.Duration
	viewportWidth   float64

	composing  bool
	replyDraft string

	publish func(*types.Event)
	events  chan interface{}
	now     func() time.Time
}

// New builds a session over an aggregated feed. The first collection is
// always the viewer's own; its story ids are registered with the viewed
// store so own content never generates view records.
func New(viewerID string, cols []types.AuthorCollection, store *viewedstate.Store, cfg config.Viewer, publish func(*types.Event)) *Session {
	s := &Session{
		ID:              uuid.NewString(),
		viewerID:        viewerID,
		cols:            cols,
		viewed:          store,
		defaultDuration: cfg.DefaultStoryDuration,
		viewportWidth:   defaultViewportWidth,
		publish:         publish,
		events:          make(chan interface{}, 64),
		now:             time.Now,
	}
	s.gestures = NewRecognizer(GestureConfig{
		HoldDelay:            cfg.HoldDelay,
		DragDismissThreshold: cfg.DragDismissThreshold,
		MoveTolerance:        cfg.MoveTolerance,
	})

	if len(cols) > 0 && cols[0].AuthorID == viewerID {
		store.SetOwnStories(cols[0].StoryIDs())
	}

	s.nav = NewNavigator(cols, viewerID,
		store.Contains,
		func(storyID string) {
			store.MarkViewed(context.Background(), storyID)
		},
	)
	return s
}

// Run drives the event loop until the context ends. All engine mutation
// happens here.
func (s *Session) Run(ctx context.Context) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-s.events:
			s.apply(ev)
		case t := <-ticker.C:
			s.apply(cmdTick{now: t})
		}
	}
}

// OpenAuthor asks the engine to open an author's collection. A zero
// viewport keeps the previous (or default) width.
func (s *Session) OpenAuthor(authorID string, viewportWidth float64) {
	s.send(cmdOpen{authorID: authorID, viewport: viewportWidth})
}

// Advance moves one story forward (+1) or back (-1).
func (s *Session) Advance(delta int) { s.send(cmdAdvance{delta: delta}) }

// Close dismisses the viewer.
func (s *Session) Close() { s.send(cmdClose{}) }

// ComposeReply marks reply composition active or inactive; playback stays
// paused while composing.
func (s *Session) ComposeReply(active bool, draft string) {
	s.send(cmdCompose{active: active, draft: draft})
}

// PointerEvent feeds one raw pointer frame into the gesture recognizer.
func (s *Session) PointerEvent(kind string, p Pointer) {
	s.send(cmdPointer{kind: kind, p: p})
}

func (s *Session) send(ev interface{}) {
	select {
	case s.events <- ev:
	default:
		slog.Warn("session event queue full, dropping event",
			slog.String("session_id", s.ID))
	}
}

func (s *Session) apply(ev interface{}) {
	switch e := ev.(type) {
	case cmdOpen:
		if e.viewport > 0 {
			s.viewportWidth = e.viewport
		}
		err := s.nav.Open(e.authorID)
		if err == ErrNoOwnStories {
			s.publishState(true)
			return
		}
		if err != nil {
			slog.Warn("open failed",
				slog.String("author_id", e.authorID),
				slog.String("error", err.Error()))
			return
		}
		s.onPositionChanged()
		s.publishState(false)

	case cmdAdvance:
		s.advance(e.delta)

	case cmdClose:
		s.nav.Close()
		s.onClosed()
		s.publishState(false)

	case cmdCompose:
		s.composing = e.active
		s.replyDraft = e.draft
		if !e.active {
			s.replyDraft = ""
		}
		s.syncPause()
		s.publishState(false)

	case cmdPointer:
		s.applyPointer(e)

	case cmdTick:
		if !s.nav.IsOpen() {
			return
		}
		if s.timer.Done(e.now) {
			s.advance(1)
			return
		}
		s.publishState(false)
	}
}

func (s *Session) applyPointer(e cmdPointer) {
	if !s.nav.IsOpen() {
		return
	}
	now := s.now()

	switch e.kind {
	case "down":
		s.gestures.PointerDown(e.p, now)
	case "move":
		s.gestures.PointerMove(e.p, now)
	case "up":
		release := s.gestures.PointerUp(e.p, now)
		s.syncPause()
		switch release.Kind {
		case ReleaseTap:
			// Left third steps back, the rest advances.
			if release.X < s.viewportWidth/3 {
				s.advance(-1)
			} else {
				s.advance(1)
			}
			return
		case ReleaseDismiss:
			s.nav.Close()
			s.onClosed()
		}
	}

	s.syncPause()
	s.publishState(false)
}

func (s *Session) advance(delta int) {
	before := s.nav.Pos()
	s.nav.Advance(delta)

	if !s.nav.IsOpen() {
		s.onClosed()
		s.publishState(false)
		return
	}
	if s.nav.Pos() != before {
		s.onPositionChanged()
	}
	s.publishState(false)
}

// onPositionChanged restarts the timer for the story now on screen and
// drops all gesture state; a pause held by an ongoing gesture does not
// survive a story change.
func (s *Session) onPositionChanged() {
	story, ok := s.nav.Current()
	if !ok {
		return
	}
	duration := story.Duration()
	if duration <= 0 {
		duration = s.defaultDuration
	}
	s.timer.Start(duration, s.now())
	s.gestures.Reset()
	s.syncPause()
}

func (s *Session) onClosed() {
	s.timer.Stop()
	s.gestures.Reset()
	s.composing = false
	s.replyDraft = ""
}

// syncPause reconciles the timer with the two pause sources: an active
// gesture and reply composition.
func (s *Session) syncPause() {
	now := s.now()
	if s.gestures.Paused() || s.composing {
		s.timer.Pause(now)
	} else {
		s.timer.Resume(now)
	}
}

func (s *Session) publishState(redirectCreate bool) {
	if s.publish == nil {
		return
	}

	state := State{
		Open:           s.nav.IsOpen(),
		RedirectCreate: redirectCreate,
	}
	if state.Open {
		now := s.now()
		story, _ := s.nav.Current()
		scale, tx, ty := s.gestures.Transform()

		state.Position = s.nav.Pos()
		state.Story = &story
		state.Progress = s.timer.Progress(now)
		state.Paused = s.timer.Paused()
		state.Gesture = s.gestures.Phase().String()
		state.Scale = scale
		state.TranslateX = tx
		state.TranslateY = ty
		state.ChromeHidden = s.gestures.ChromeHidden()
	} else {
		state.Scale = 1
		state.Gesture = GestureIdle.String()
	}

	s.publish(types.NewEvent(types.EventSessionState, state))
}
