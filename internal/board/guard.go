// Package board implements the shared leaderboard for derby races.
// This file implements the mutual-exclusion guard serializing leaderboard writes.
package board

import (
	"context"
	"errors"
)

// ErrGuardUnheld is returned by Release when the guard is not currently held.
// Releasing an unheld guard indicates a caller bug (an unpaired Release).
var ErrGuardUnheld = errors.New("guard is not held")

// Guard is a binary mutual-exclusion lock serializing all writes to the
// leaderboard. Only one holder exists system-wide at any time.
//
// Unlike a bare sync.Mutex, Acquire is context-aware: a caller blocked on a
// contended guard can be cancelled instead of waiting forever. This matters
// for the coordinator, whose event loop must be able to abandon a commit when
// the race is being torn down.
//
// Crash safety: the guard itself cannot observe a dead holder, so all
// leaderboard mutation goes through Leaderboard commit operations, which
// release via defer and recover a panicking mutator. A holder that "dies"
// mid-critical-section therefore never leaves the guard held.
//
// Thread Safety:
// All methods are safe for concurrent use.
type Guard struct {
	slot chan struct{} // Capacity 1; holding the token means holding the guard
}

// NewGuard creates an unlocked guard.
//
// Returns:
//   - *Guard: Guard in the released state, ready for Acquire
//
// Example:
//
//	g := NewGuard()
//	if err := g.Acquire(ctx); err == nil {
//	    defer g.Release()
//	    // critical section
//	}
func NewGuard() *Guard {
	return &Guard{slot: make(chan struct{}, 1)}
}

// Acquire blocks the caller until exclusive access is granted or the context
// is cancelled.
//
// Parameters:
//   - ctx: Context bounding how long the caller is willing to wait
//
// Returns:
//   - nil once the guard is held by the caller
//   - ctx.Err() if the context is cancelled while waiting
func (g *Guard) Acquire(ctx context.Context) error {
	select {
	case g.slot <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryAcquire attempts to take the guard without blocking.
//
// Returns:
//   - true if the guard was acquired
//   - false if it is currently held by someone else
func (g *Guard) TryAcquire() bool {
	select {
	case g.slot <- struct{}{}:
		return true
	default:
		return false
	}
}

// Release relinquishes the guard, waking one blocked Acquire if any.
//
// Returns:
//   - nil on success
//   - ErrGuardUnheld if the guard was not held
func (g *Guard) Release() error {
	select {
	case <-g.slot:
		return nil
	default:
		return ErrGuardUnheld
	}
}

// Held reports whether the guard is currently held.
// Intended for assertions and tests; the answer can be stale by the time the
// caller acts on it.
func (g *Guard) Held() bool {
	return len(g.slot) == 1
}
