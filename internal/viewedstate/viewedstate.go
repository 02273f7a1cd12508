// Package viewedstate owns the session-wide set of story ids the current
// viewer has seen. Views are applied optimistically: the local set changes
// before the server confirms, and a failed confirmation rolls the whole set
// back to its pre-mutation snapshot and schedules a full re-fetch.
package viewedstate

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/princekumarofficial/stories-viewer/internal/optimistic"
)

// Syncer is the server side of the viewed set: the confirmed-id fetch and
// the per-story view record call. Calls may complete in any order; the
// store never assumes completion order matches invocation order.
type Syncer interface {
	FetchViewedIDs(ctx context.Context) ([]string, error)
	RecordView(ctx context.Context, storyID string) error
}

type set = map[string]struct{}

// Store is the authoritative viewed-id state for one viewer session. There
// is exactly one Store per session; display surfaces read through it rather
// than keeping copies.
type Store struct {
	viewerID string
	syncer   Syncer

	mu  sync.RWMutex
	ids set
	own set // the viewer's own story ids, never tracked as views

	inflight   sync.WaitGroup
	refreshing sync.Mutex // single-flight guard for Refresh
}

func New(viewerID string, syncer Syncer) *Store {
	return &Store{
		viewerID: viewerID,
		syncer:   syncer,
		ids:      make(set),
		own:      make(set),
	}
}

// Load replaces the set with the server's confirmed viewed ids. Called once
// per session and again after a rollback-triggered refresh.
func (s *Store) Load(ctx context.Context) error {
	ids, err := s.syncer.FetchViewedIDs(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = make(set, len(ids))
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	return nil
}

// SetOwnStories tells the store which story ids belong to the viewer.
// MarkViewed is a no-op for these: own content is always rendered as fully
// viewed and never generates a view record.
func (s *Store) SetOwnStories(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.own = make(set, len(ids))
	for _, id := range ids {
		s.own[id] = struct{}{}
	}
}

// Contains reports whether the story has been viewed, confirmed or
// optimistically.
func (s *Store) Contains(storyID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[storyID]
	return ok
}

// Len returns the current size of the viewed set.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

// MarkViewed optimistically adds the story to the viewed set and records the
// view with the server in the background. Idempotent: an already-present id
// changes nothing and generates no server call. Own stories are ignored.
//
// On server failure the entire pre-mutation snapshot is restored rather than
// just the failed id removed, since other optimistic adds may have landed in
// the interim; a full refresh is then scheduled to resync with the server.
func (s *Store) MarkViewed(ctx context.Context, storyID string) {
	s.mu.Lock()
	if _, ok := s.own[storyID]; ok {
		s.mu.Unlock()
		return
	}
	if _, ok := s.ids[storyID]; ok {
		s.mu.Unlock()
		return
	}

	update := optimistic.Apply(
		func() set { return cloneSet(s.ids) },
		func() { s.ids[storyID] = struct{}{} },
		func(snap set) {
			s.mu.Lock()
			s.ids = snap
			s.mu.Unlock()
		},
	)
	s.mu.Unlock()

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		// The record call outlives the viewer UI: closing the viewer must
		// not cancel it, so it runs on its own context.
		recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()

		if err := s.syncer.RecordView(recordCtx, storyID); err != nil {
			slog.Warn("view record failed, rolling back viewed set",
				slog.String("story_id", storyID),
				slog.String("error", err.Error()))
			update.Rollback()
			s.refreshAfterRollback()
			return
		}
		update.Confirm()
	}()
}

// Refresh re-fetches the confirmed viewed set, retrying with exponential
// backoff. Concurrent callers coalesce into one refresh.
func (s *Store) Refresh(ctx context.Context) error {
	s.refreshing.Lock()
	defer s.refreshing.Unlock()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 5 * time.Second

	return backoff.Retry(func() error {
		return s.Load(ctx)
	}, backoff.WithContext(backoff.WithMaxRetries(bo, 3), ctx))
}

func (s *Store) refreshAfterRollback() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.Refresh(ctx); err != nil {
		// Silent to the user; the next session load resyncs.
		slog.Warn("viewed set refresh failed", slog.String("error", err.Error()))
	}
}

// Flush blocks until all in-flight view records have settled. Used on
// shutdown so dismissing the viewer never loses a pending record.
func (s *Store) Flush() {
	s.inflight.Wait()
}

func cloneSet(m set) set {
	out := make(set, len(m))
	for k := range m {
		out[k] = struct{}{}
	}
	return out
}
