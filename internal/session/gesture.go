package session

import (
	"math"
	"time"
)

// GesturePhase is the recognizer's state. Phases are mutually exclusive:
// entering Zooming cancels an in-progress drag and vice versa.
type GesturePhase int

const (
	GestureIdle GesturePhase = iota
	GestureHolding
	GestureZooming
	GestureDragging
)

func (p GesturePhase) String() string {
	switch p {
	case GestureHolding:
		return "holding"
	case GestureZooming:
		return "zooming"
	case GestureDragging:
		return "dragging"
	default:
		return "idle"
	}
}

// Pointer is one raw pointer sample from the client.
type Pointer struct {
	ID int     `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// ReleaseKind classifies what a pointer release amounted to.
type ReleaseKind int

const (
	// ReleaseNone: release with no navigation consequence.
	ReleaseNone ReleaseKind = iota
	// ReleaseTap: quick press without movement; the session maps it onto a
	// tap zone for prev/next navigation.
	ReleaseTap
	// ReleaseDismiss: vertical drag released past the dismiss threshold.
	ReleaseDismiss
	// ReleaseSnapBack: vertical drag released under the threshold; the
	// transform has snapped back to neutral.
	ReleaseSnapBack
)

// Release is the outcome of a PointerUp.
type Release struct {
	Kind ReleaseKind
	X    float64
}

// GestureConfig carries the recognizer thresholds.
type GestureConfig struct {
	HoldDelay            time.Duration
	DragDismissThreshold float64
	MoveTolerance        float64
}

type pointerTrack struct {
	startX, startY float64
	x, y           float64
	downAt         time.Time
	moved          bool
	pinched        bool // took part in a pinch; never tap-eligible
}

// Recognizer interprets raw pointer events into hold-to-pause, pinch-zoom
// and drag-to-dismiss. It walks Idle -> Holding -> {Zooming | Dragging} ->
// Idle; any non-idle phase holds playback paused until the gesture ends.
//
// Not safe for concurrent use; the session event loop serializes all calls.
type Recognizer struct {
	cfg GestureConfig

	phase    GesturePhase
	pointers map[int]*pointerTrack
	order    []int // pointer ids in down order

	pinchBase    float64
	pinchCenterX float64
	pinchCenterY float64
	scale        float64
	translateX   float64
	translateY   float64
}

func NewRecognizer(cfg GestureConfig) *Recognizer {
	r := &Recognizer{cfg: cfg}
	r.Reset()
	return r
}

// Phase returns the current gesture phase.
func (r *Recognizer) Phase() GesturePhase { return r.phase }

// Paused reports whether an active gesture is holding playback paused.
func (r *Recognizer) Paused() bool { return r.phase != GestureIdle }

// ChromeHidden reports whether the header/footer chrome should be hidden.
func (r *Recognizer) ChromeHidden() bool {
	return r.phase == GestureZooming || r.phase == GestureDragging
}

// Transform returns the scale and translation applied to the story content.
func (r *Recognizer) Transform() (scale, tx, ty float64) {
	return r.scale, r.translateX, r.translateY
}

// Reset returns the recognizer to neutral: Idle, scale 1, no translation.
// Called on viewer close and on every story or author change.
func (r *Recognizer) Reset() {
	r.phase = GestureIdle
	r.pointers = make(map[int]*pointerTrack)
	r.order = nil
	r.pinchBase = 0
	r.scale = 1
	r.translateX = 0
	r.translateY = 0
}

// PointerDown registers a pointer press.
func (r *Recognizer) PointerDown(p Pointer, now time.Time) {
	if _, ok := r.pointers[p.ID]; ok {
		return
	}
	r.pointers[p.ID] = &pointerTrack{
		startX: p.X, startY: p.Y,
		x: p.X, y: p.Y,
		downAt: now,
	}
	r.order = append(r.order, p.ID)

	switch len(r.pointers) {
	case 1:
		r.phase = GestureHolding
	case 2:
		// Second finger down: pinch takes over, cancelling any drag.
		r.translateX = 0
		r.translateY = 0
		r.scale = 1
		r.pinchBase = r.activeDistance()
		r.pinchCenterX, r.pinchCenterY = r.activeCentroid()
		r.phase = GestureZooming
	}
}

// PointerMove updates a pointer position and may promote a hold into a drag.
func (r *Recognizer) PointerMove(p Pointer, now time.Time) {
	track, ok := r.pointers[p.ID]
	if !ok {
		return
	}
	track.x = p.X
	track.y = p.Y

	dx := track.x - track.startX
	dy := track.y - track.startY
	if math.Hypot(dx, dy) > r.cfg.MoveTolerance {
		track.moved = true
	}

	switch r.phase {
	case GestureHolding:
		if track.moved && math.Abs(dy) >= math.Abs(dx) {
			r.phase = GestureDragging
			r.applyDrag(dy)
		}
	case GestureDragging:
		r.applyDrag(dy)
	case GestureZooming:
		if len(r.pointers) < 2 || r.pinchBase == 0 {
			return
		}
		r.scale = clamp(r.activeDistance()/r.pinchBase, 1, 4)
		cx, cy := r.activeCentroid()
		r.translateX = cx - r.pinchCenterX
		r.translateY = cy - r.pinchCenterY
	}
}

// PointerUp removes a pointer and reports what the release amounted to.
func (r *Recognizer) PointerUp(p Pointer, now time.Time) Release {
	track, ok := r.pointers[p.ID]
	if !ok {
		return Release{Kind: ReleaseNone}
	}
	delete(r.pointers, p.ID)
	for i, id := range r.order {
		if id == p.ID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	switch r.phase {
	case GestureZooming:
		// Pinch ends as soon as fewer than two fingers remain; the content
		// snaps back to neutral.
		if len(r.pointers) < 2 {
			r.scale = 1
			r.translateX = 0
			r.translateY = 0
			if len(r.pointers) == 1 {
				// The surviving finger was part of the pinch: its eventual
				// release must not count as a tap.
				r.pointers[r.order[0]].pinched = true
				r.phase = GestureHolding
			} else {
				r.phase = GestureIdle
			}
		}
		return Release{Kind: ReleaseNone}

	case GestureDragging:
		dy := track.y - track.startY
		r.scale = 1
		r.translateX = 0
		r.translateY = 0
		r.phase = GestureIdle
		if math.Abs(dy) >= r.cfg.DragDismissThreshold {
			return Release{Kind: ReleaseDismiss}
		}
		return Release{Kind: ReleaseSnapBack}

	case GestureHolding:
		r.phase = GestureIdle
		if !track.moved && !track.pinched && now.Sub(track.downAt) < r.cfg.HoldDelay {
			return Release{Kind: ReleaseTap, X: track.x}
		}
		return Release{Kind: ReleaseNone}
	}

	return Release{Kind: ReleaseNone}
}

// applyDrag pans the content with the finger and shrinks it as the drag
// approaches the dismiss threshold.
func (r *Recognizer) applyDrag(dy float64) {
	r.translateY = dy
	frac := math.Min(1, math.Abs(dy)/r.cfg.DragDismissThreshold)
	r.scale = 1 - 0.25*frac
}

func (r *Recognizer) activeDistance() float64 {
	if len(r.order) < 2 {
		return 0
	}
	a := r.pointers[r.order[0]]
	b := r.pointers[r.order[1]]
	return math.Hypot(a.x-b.x, a.y-b.y)
}

func (r *Recognizer) activeCentroid() (float64, float64) {
	if len(r.order) < 2 {
		return 0, 0
	}
	a := r.pointers[r.order[0]]
	b := r.pointers[r.order[1]]
	return (a.x + b.x) / 2, (a.y + b.y) / 2
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
