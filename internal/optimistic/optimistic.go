package optimistic

import "sync"

// Update is one optimistic mutation awaiting its server outcome. It captures
// a snapshot of the prior state before the mutation is applied, so a failed
// server call can restore everything the mutation touched, not just the one
// field that failed.
type Update[S any] struct {
	mu      sync.Mutex
	snap    S
	restore func(S)
	settled bool
}

// Apply takes a snapshot, applies the mutation immediately, and returns a
// handle to settle once the server responds.
func Apply[S any](snapshot func() S, mutate func(), restore func(S)) *Update[S] {
	u := &Update[S]{
		snap:    snapshot(),
		restore: restore,
	}
	mutate()
	return u
}

// Confirm settles the update; the applied state is already correct.
func (u *Update[S]) Confirm() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.settled = true
}

// Rollback restores the full pre-mutation snapshot. Settling is one-shot:
// a second Confirm or Rollback is a no-op.
func (u *Update[S]) Rollback() {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.settled {
		return
	}
	u.restore(u.snap)
	u.settled = true
}
