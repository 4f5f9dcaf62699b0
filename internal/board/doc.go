// Package board implements the shared leaderboard at the center of a derby
// race: a fixed-capacity record holding the current leader, the number of
// events processed so far, and the registered participant identities.
//
// # Overview
//
// The leaderboard is the only mutable state shared between the coordinator
// and the participants. It is deliberately asymmetric:
//
//   - Writes are serialized by a binary Guard and funneled through typed
//     commit operations (Register, CommitProgress).
//   - Reads take no lock at all. Snapshot returns an immutable copy of the
//     last committed state; readers must tolerate staleness.
//
// # Architecture
//
//	            writers (guarded)              readers (unguarded)
//	┌──────────────────┐                 ┌──────────────────────┐
//	│ Coordinator      │   commit        │ Participants         │
//	│  CommitProgress ─┼────────┐        │  Snapshot ◄──────────┼──┐
//	│ Participants     │        ▼        └──────────────────────┘  │
//	│  Register ───────┼──► ┌───────────────┐   atomic publish     │
//	└──────────────────┘    │  Leaderboard  │ ─────────────────────┘
//	                        │  Guard + cur  │
//	                        └───────────────┘
//
// # Consistency Model
//
// The total order of leaderboard mutations is exactly Guard acquisition
// order. Each commit publishes a fresh immutable State; a reader may observe
// any previously published State, including one older than the newest. This
// eventual-consistency contract is acceptable because participants use the
// leaderboard only for informational display, never for control flow.
//
// # Crash Safety
//
// The commit path releases the Guard via defer and recovers a panicking
// mutator, converting it into an error and an abandoned (not half-applied)
// commit. No failure mode of a committer leaves the Guard permanently held,
// mirroring the auto-release semantics the race requires of its lock.
//
// # Invariants
//
//   - EventsProcessed is monotonically non-decreasing; the commit path
//     rejects any mutation that would lower it.
//   - Leader is NoLeader before the first processed event and one of the
//     registered participant IDs afterwards; CommitProgress rejects an
//     unregistered leader.
//   - Participant slots are filled exactly once, before any event traffic.
//
// # Usage Example
//
//	lb, err := board.NewLeaderboard(3)
//	if err != nil {
//	    log.Fatalf("leaderboard: %v", err)
//	}
//
//	// A participant registers itself.
//	if err := lb.Register(ctx, 0); err != nil {
//	    log.Printf("register: %v", err)
//	}
//
//	// The coordinator records one processed event.
//	if err := lb.CommitProgress(ctx, 0); err != nil {
//	    log.Printf("commit: %v", err)
//	}
//
//	// Anyone may peek, without the Guard.
//	snap := lb.Snapshot()
//	fmt.Printf("leader=%d processed=%d\n", snap.Leader, snap.EventsProcessed)
//
// # See Also
//
// Related packages:
//   - internal/channel: event delivery from participants to the coordinator
//   - internal/race: the participant and coordinator logic built on top
package board
