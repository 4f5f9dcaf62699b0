// Package board implements the shared leaderboard for derby races.
// See doc.go for complete package documentation.
package board

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/exp/slices"
)

// ParticipantID identifies a participant in the race.
// IDs are small non-negative integers assigned by the orchestrator; the ID
// doubles as the participant's slot index on the leaderboard.
type ParticipantID int

// NoLeader is the leader value before the coordinator has processed any
// event, and the value of unfilled participant slots before registration.
const NoLeader ParticipantID = -1

// State is an immutable snapshot of the leaderboard.
//
// Readers never see a live reference to shared state: Snapshot returns a
// copy, making the relaxed-consistency contract explicit. A reader may
// observe any previously committed state, including one older than the
// latest commit.
type State struct {
	// Leader is the participant with the highest score as last computed
	// by the coordinator. NoLeader before the first processed event.
	Leader ParticipantID

	// EventsProcessed counts events consumed by the coordinator so far.
	// Monotonically non-decreasing across the race.
	EventsProcessed int

	// Participants holds the registered participant IDs, one fixed slot
	// per participant. Unregistered slots hold NoLeader.
	Participants []ParticipantID
}

// Registered reports whether id occupies one of the participant slots.
func (s State) Registered(id ParticipantID) bool {
	return slices.Contains(s.Participants, id)
}

// clone returns a deep copy of the state so mutations never leak between
// committed versions or out to snapshot holders.
func (s State) clone() State {
	return State{
		Leader:          s.Leader,
		EventsProcessed: s.EventsProcessed,
		Participants:    slices.Clone(s.Participants),
	}
}

// Leaderboard is the single mutable resource shared by every process in the
// race. All mutation is funneled through guarded commit operations; reads go
// through Snapshot and deliberately do not take the Guard.
//
// Write path:
//
//	Register / CommitProgress
//	        │
//	        ▼
//	  Guard.Acquire ─► mutate copy ─► validate ─► publish ─► Guard.Release
//
// Read path:
//
//	Snapshot ─► atomic load of last published copy (no Guard)
//
// The total order of mutations is established solely by Guard acquisition
// order. Published states are immutable, so the unguarded read path is safe;
// it is merely allowed to lag behind the newest commit.
//
// Thread Safety:
// All methods are safe for concurrent use.
type Leaderboard struct {
	guard *Guard               // Serializes all mutation
	cur   atomic.Pointer[State] // Last committed state, read without the Guard
}

// NewLeaderboard creates a leaderboard with capacity for the given number of
// participants. All slots start unregistered and the leader starts as
// NoLeader.
//
// Parameters:
//   - participants: Fixed participant count P (must be > 0)
//
// Returns:
//   - Initialized leaderboard, or an error for a non-positive capacity
func NewLeaderboard(participants int) (*Leaderboard, error) {
	if participants <= 0 {
		return nil, fmt.Errorf("leaderboard capacity must be positive, got %d", participants)
	}

	ids := make([]ParticipantID, participants)
	for i := range ids {
		ids[i] = NoLeader
	}

	b := &Leaderboard{guard: NewGuard()}
	initial := State{Leader: NoLeader, Participants: ids}
	b.cur.Store(&initial)
	return b, nil
}

// Guard exposes the leaderboard's mutual-exclusion guard.
// Core code never needs it directly (commits acquire it internally); it is
// exported so callers and tests can observe or contend for it.
func (b *Leaderboard) Guard() *Guard {
	return b.guard
}

// Snapshot returns the most recently committed state.
//
// The read is unguarded on purpose: participants use snapshots only for
// informational display, never for correctness decisions, so observing a
// stale state is acceptable.
//
// Returns:
//   - Deep copy of a committed State; safe to retain and modify
func (b *Leaderboard) Snapshot() State {
	return b.cur.Load().clone()
}

// Register fills the participant's slot with its own identity. Called exactly
// once per participant, before it sends any event.
//
// Parameters:
//   - ctx: Bounds the wait for the Guard
//   - id: The registering participant's identity; its slot index is int(id)
//
// Returns:
//   - nil on success
//   - ctx error if the Guard could not be acquired
//   - Validation error for an out-of-range id or an already-filled slot
func (b *Leaderboard) Register(ctx context.Context, id ParticipantID) error {
	return b.commit(ctx, func(st *State) error {
		slot := int(id)
		if slot < 0 || slot >= len(st.Participants) {
			return fmt.Errorf("participant id %d outside slot range [0, %d)", id, len(st.Participants))
		}
		if st.Participants[slot] != NoLeader {
			return fmt.Errorf("slot %d already registered as %d", slot, st.Participants[slot])
		}
		st.Participants[slot] = id
		return nil
	})
}

// CommitProgress records the outcome of one processed event: the (possibly
// unchanged) leader, and EventsProcessed incremented by exactly one. Only the
// coordinator calls this, once per successfully attributed event.
//
// Parameters:
//   - ctx: Bounds the wait for the Guard
//   - leader: Current leader as computed by the coordinator
//
// Returns:
//   - nil on success
//   - ctx error if the Guard could not be acquired
//   - Validation error if leader is not a registered participant
func (b *Leaderboard) CommitProgress(ctx context.Context, leader ParticipantID) error {
	return b.commit(ctx, func(st *State) error {
		if !st.Registered(leader) {
			return fmt.Errorf("leader %d is not a registered participant", leader)
		}
		st.Leader = leader
		st.EventsProcessed++
		return nil
	})
}

// commit is the single write path: acquire the Guard, mutate a private copy,
// validate, publish, release. The release runs via defer and the mutator is
// run under recover, so a panicking mutator cannot leave the Guard held.
// This is the in-process analog of a lock whose holder dies mid-critical-section.
func (b *Leaderboard) commit(ctx context.Context, mutate func(*State) error) (err error) {
	if err := b.guard.Acquire(ctx); err != nil {
		return fmt.Errorf("acquire guard: %w", err)
	}
	defer b.guard.Release()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("commit abandoned: mutator panicked: %v", r)
		}
	}()

	next := b.cur.Load().clone()
	if err := mutate(&next); err != nil {
		return err
	}

	// EventsProcessed is monotonically non-decreasing across the race.
	if next.EventsProcessed < b.cur.Load().EventsProcessed {
		return fmt.Errorf("commit would regress events processed from %d to %d",
			b.cur.Load().EventsProcessed, next.EventsProcessed)
	}

	b.cur.Store(&next)
	return nil
}
