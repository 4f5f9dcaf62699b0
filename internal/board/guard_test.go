// Package board implements the shared leaderboard for derby races.
// This file contains tests for the mutual-exclusion guard.
package board

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestGuardAcquireRelease verifies the basic acquire/release cycle.
func TestGuardAcquireRelease(t *testing.T) {
	g := NewGuard()

	// A fresh guard is unlocked
	assert.False(t, g.Held())

	// Acquire succeeds immediately on an unlocked guard
	require.NoError(t, g.Acquire(context.Background()))
	assert.True(t, g.Held())

	// Release returns the guard to the unlocked state
	require.NoError(t, g.Release())
	assert.False(t, g.Held())
}

// TestGuardMutualExclusion verifies that only one holder exists at a time:
// a second Acquire blocks until the first holder releases.
func TestGuardMutualExclusion(t *testing.T) {
	g := NewGuard()
	require.NoError(t, g.Acquire(context.Background()))

	acquired := make(chan struct{})
	go func() {
		if err := g.Acquire(context.Background()); err == nil {
			close(acquired)
		}
	}()

	// The contender must still be blocked while we hold the guard
	select {
	case <-acquired:
		t.Fatal("second Acquire succeeded while guard was held")
	case <-time.After(50 * time.Millisecond):
	}

	// Releasing hands the guard to the contender
	require.NoError(t, g.Release())
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("contender never acquired the released guard")
	}
}

// TestGuardAcquireContextCancel verifies that a blocked Acquire honors
// context cancellation instead of waiting forever on a contended guard.
func TestGuardAcquireContextCancel(t *testing.T) {
	g := NewGuard()
	require.NoError(t, g.Acquire(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- g.Acquire(ctx)
	}()

	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Acquire did not return after context cancellation")
	}

	// The original holder is unaffected
	assert.True(t, g.Held())
}

// TestGuardTryAcquire verifies the non-blocking acquisition path.
func TestGuardTryAcquire(t *testing.T) {
	g := NewGuard()

	// First try wins, second loses without blocking
	assert.True(t, g.TryAcquire())
	assert.False(t, g.TryAcquire())

	require.NoError(t, g.Release())
	assert.True(t, g.TryAcquire())
}

// TestGuardReleaseUnheld verifies that releasing an unheld guard is reported
// as a caller bug rather than silently corrupting the guard state.
func TestGuardReleaseUnheld(t *testing.T) {
	g := NewGuard()
	assert.ErrorIs(t, g.Release(), ErrGuardUnheld)
}
