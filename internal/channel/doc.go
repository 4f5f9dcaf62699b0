// Package channel implements the multiplexed event-delivery path between
// derby participants and the coordinator: a bounded, tag-filtered queue with
// non-blocking sends and a blocking, arrival-ordered receive side.
//
// # Overview
//
// Participants race by emitting progress events; the coordinator consumes
// them one at a time. The channel is the sole owner of an event between send
// and receive, and hands ownership to the coordinator on receipt.
//
//	┌──────────────┐  Send (non-blocking)   ┌─────────────┐
//	│ Participant 0│ ──────────────┐        │             │
//	├──────────────┤               ▼        │             │
//	│ Participant 1│ ──────►  ┌─────────┐   │ Coordinator │
//	├──────────────┤          │ Channel │──►│  Receive    │
//	│ Participant 2│ ──────►  │ (FIFO)  │   │  (blocking) │
//	└──────────────┘          └─────────┘   └─────────────┘
//
// # Delivery Contract
//
//   - Send enqueues without blocking the sender beyond the enqueue itself.
//     A saturated or closed channel is reported as an error and the event is
//     dropped, never retried.
//   - Receive blocks the (single) coordinator until an event with the
//     requested tag is available, then returns exactly one event, dequeued
//     in arrival order relative to other events with the same tag.
//   - Concurrent sends may interleave in any order consistent with their
//     wall-clock arrival; no cross-participant ordering is promised.
//
// # Wire Format
//
// An event carries a routing tag (TagCoordinator for all coordinator-bound
// traffic) and a fixed 100-byte payload holding the sending participant's id
// in decimal ASCII, left-justified and NUL-terminated. Decoding is a single
// explicit step (Event.Sender) with a typed failure, ErrMalformedPayload.
//
// # Shutdown
//
// Close is idempotent and wakes every blocked receiver. Events queued before
// the close are still drained; only an empty (per tag) closed channel yields
// ErrClosed from Receive. Senders fail fast with ErrClosed after the close.
//
// # See Also
//
// Related packages:
//   - internal/board: the shared leaderboard updated per received event
//   - internal/race: the senders and the single receiver
package channel
