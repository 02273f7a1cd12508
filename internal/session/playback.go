package session

import "time"

// Timer drives automatic story advance. Progress is a pure function of
// accumulated active time: pausing freezes the accumulator and resuming
// continues from the frozen value, never from zero and never by catching up
// to wall-clock time spent paused. The session restarts the timer whenever
// the position changes.
type Timer struct {
	duration    time.Duration
	accumulated time.Duration
	resumedAt   time.Time
	paused      bool
	running     bool
}

// Start resets the timer for a new story with the given display duration.
func (t *Timer) Start(duration time.Duration, now time.Time) {
	t.duration = duration
	t.accumulated = 0
	t.resumedAt = now
	t.paused = false
	t.running = true
}

// Stop halts the timer entirely; Elapsed and Done report zero/false until
// the next Start.
func (t *Timer) Stop() {
	t.running = false
	t.accumulated = 0
	t.paused = false
}

// Pause freezes progress accumulation at its current value.
func (t *Timer) Pause(now time.Time) {
	if !t.running || t.paused {
		return
	}
	t.accumulated += now.Sub(t.resumedAt)
	t.paused = true
}

// Resume continues accumulation from the frozen value.
func (t *Timer) Resume(now time.Time) {
	if !t.running || !t.paused {
		return
	}
	t.resumedAt = now
	t.paused = false
}

// Paused reports whether accumulation is currently frozen.
func (t *Timer) Paused() bool { return t.paused }

// Elapsed returns the active (unpaused) time accrued for the current story.
func (t *Timer) Elapsed(now time.Time) time.Duration {
	if !t.running {
		return 0
	}
	if t.paused {
		return t.accumulated
	}
	return t.accumulated + now.Sub(t.resumedAt)
}

// Progress returns playback completion in [0, 1].
func (t *Timer) Progress(now time.Time) float64 {
	if !t.running || t.duration <= 0 {
		return 0
	}
	p := float64(t.Elapsed(now)) / float64(t.duration)
	if p > 1 {
		p = 1
	}
	return p
}

// Done reports whether the story's duration has fully elapsed while
// unpaused. The session restarts or stops the timer immediately after
// acting on a completion, so the advance fires exactly once.
func (t *Timer) Done(now time.Time) bool {
	if !t.running || t.paused {
		return false
	}
	return t.Elapsed(now) >= t.duration
}
