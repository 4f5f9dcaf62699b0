// Package race implements the derby coordination protocol: a fixed
// population of concurrent participants and one coordinator racing to
// accumulate a target number of acknowledged events.
//
// # Overview
//
// Participants repeatedly emit progress events to the coordinator through
// the event channel. The coordinator tallies events per participant in a
// private score table, exposes the current leader through the shared
// leaderboard, and declares the winner: the first participant whose tally
// reaches the target count while simultaneously holding the lead. On
// conclusion the coordinator broadcasts cancellation and every participant
// terminates.
//
// # Architecture
//
//	              ┌──────────────────┐
//	              │   Orchestrator   │  owns leaderboard, channel, hub
//	              └────────┬─────────┘
//	        spawns         │
//	   ┌───────────────────┼──────────────────────┐
//	   ▼                   ▼                      ▼
//	┌──────────────┐  ┌──────────────┐   ┌───────────────┐
//	│ Participant 0│  │ Participant N│   │  Coordinator  │
//	│ register     │  │ register     │   │ receive/score │
//	│ send events ─┼──┼─ send events ┼──►│ commit board  │
//	│ poll board   │  │ poll board   │   │ pick winner   │
//	└──────▲───────┘  └──────▲───────┘   └───────┬───────┘
//	       └─────────────────┴───── cancel ◄─────┘
//
// # Winner Rule
//
// The leader changes only on a strictly greater score, so the first
// participant to reach any given score keeps priority over later ties. The
// winner is recorded the moment the event that brought the leader to the
// target score is attributed; once recorded it is never overwritten, and
// the whole decision is single-writer (only the coordinator computes it).
//
// # Liveness
//
// Two mechanisms bound the race even when sends are dropped:
//
//   - The coordinator stops once attributed events reach target × P, the
//     theoretical maximum across all participants.
//   - The orchestrator closes the event channel after the last participant
//     exits, so a coordinator short of both winner and bound drains the
//     backlog and stops listening instead of blocking forever.
//
// # Cancellation
//
// A single asynchronous, idempotent broadcast: the coordinator signals every
// identity registered on the leaderboard at broadcast time via the signal
// hub. Participants honor the signal between send iterations; a participant
// that already exited, or never registered, is unaffected. Both normal
// completion and signalled termination are success.
//
// # Failure Handling
//
// Transient failures (a saturated channel, a malformed payload) cost one
// event: the sender logs and skips, the coordinator logs and discards. Only
// the loss of the Guard is fatal, and only for the coordinator, whose event
// loop cannot publish progress without it.
//
// # See Also
//
// Related packages:
//   - internal/board: the shared, guard-protected leaderboard
//   - internal/channel: event delivery and wire format
package race
