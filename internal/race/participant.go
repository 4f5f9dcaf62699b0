// Package race implements the participants, coordinator, and orchestration of a derby race.
// This file implements the participant state machine.
package race

import (
	"context"
	"log"
	"math/rand/v2"
	"time"

	"github.com/dreamware/derby/internal/board"
	"github.com/dreamware/derby/internal/channel"
)

// EventSender is the send side of the event channel as seen by a participant.
// *channel.Channel satisfies it; tests substitute failing implementations.
type EventSender interface {
	Send(channel.Event) error
}

// Participant is one concurrent racer. It registers its identity on the
// leaderboard, then emits a bounded number of progress events, polling the
// leaderboard after each send purely for observability.
//
// State machine:
//
//	Registering ──► Sending ──► Terminated
//	                   │
//	                   └── cancellation signal ──► Terminated
//
// Termination is success in both cases: a participant that exhausts its
// budget and one that is cancelled mid-loop both exit cleanly. Cancellation
// is honored between iterations (cooperative token), never mid-send.
//
// Thread Safety:
// A Participant is driven by a single goroutine via Run; the accessors are
// safe to call only after Run returns.
type Participant struct {
	id     board.ParticipantID
	target int           // Events to send before finishing on its own
	jitter time.Duration // Upper bound for the per-send randomized delay; 0 disables
	lb     *board.Leaderboard
	sender EventSender

	eventsSent int                 // Successful sends
	seenLeader board.ParticipantID // Last leader observed in snapshots, telemetry only
}

// NewParticipant creates a participant ready to run.
//
// Parameters:
//   - id: Identity and leaderboard slot of this participant
//   - target: Number of events to emit (the race's target count M)
//   - jitter: Upper bound for the randomized pre-send delay; 0 disables
//   - lb: The shared leaderboard
//   - sender: Send side of the event channel
func NewParticipant(id board.ParticipantID, target int, jitter time.Duration, lb *board.Leaderboard, sender EventSender) *Participant {
	return &Participant{
		id:         id,
		target:     target,
		jitter:     jitter,
		lb:         lb,
		sender:     sender,
		seenLeader: board.NoLeader,
	}
}

// Run executes the participant state machine until the send budget is
// exhausted or ctx is cancelled. Both exits are success; Run returns an
// error only when registration fails outright.
//
// Parameters:
//   - ctx: Cancellation token; cancelled by the coordinator's broadcast or
//     by the orchestrator's own shutdown
//
// Returns:
//   - nil on normal completion or cancellation
//   - Registration error if the participant could not take its slot
func (p *Participant) Run(ctx context.Context) error {
	log.Printf("[participant %d] starting", p.id)

	// Registering: exactly once, before any event is sent.
	if err := p.lb.Register(ctx, p.id); err != nil {
		if ctx.Err() != nil {
			// Cancelled before the race began; nothing to clean up.
			return nil
		}
		log.Printf("[participant %d] register: %v", p.id, err)
		return err
	}

	// Sending: a bounded loop, cancellation checked between iterations.
	for i := 0; i < p.target; i++ {
		select {
		case <-ctx.Done():
			log.Printf("[participant %d] cancelled after %d events", p.id, p.eventsSent)
			return nil
		default:
		}

		p.sleepJitter(ctx)

		if err := p.sender.Send(channel.NewProgressEvent(p.id)); err != nil {
			// Dropped, not retried; the race carries on without this event.
			log.Printf("[participant %d] send %d/%d dropped: %v", p.id, i+1, p.target, err)
			continue
		}
		p.eventsSent++

		// Unguarded read, informational only. The snapshot may be stale;
		// nothing here feeds back into control flow.
		if snap := p.lb.Snapshot(); snap.Leader != p.seenLeader {
			p.seenLeader = snap.Leader
		}
	}

	log.Printf("[participant %d] finished", p.id)
	return nil
}

// sleepJitter delays the sender by a small random amount to diversify
// scheduling. Returns early if ctx is cancelled; the cancellation itself is
// handled at the top of the send loop.
func (p *Participant) sleepJitter(ctx context.Context) {
	if p.jitter <= 0 {
		return
	}
	t := time.NewTimer(rand.N(p.jitter))
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// EventsSent returns the number of successfully sent events.
// Valid once Run has returned.
func (p *Participant) EventsSent() int {
	return p.eventsSent
}

// LastSeenLeader returns the most recent leader this participant observed in
// its unguarded leaderboard reads. Valid once Run has returned.
func (p *Participant) LastSeenLeader() board.ParticipantID {
	return p.seenLeader
}
