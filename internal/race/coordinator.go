// Package race implements the participants, coordinator, and orchestration of a derby race.
// This file implements the coordinator state machine.
package race

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/dreamware/derby/internal/board"
	"github.com/dreamware/derby/internal/channel"
)

// DefaultMilestone is the score unit at which the coordinator emits a
// milestone note for the leading participant.
const DefaultMilestone = 5

// EventReceiver is the receive side of the event channel as seen by the
// coordinator. *channel.Channel satisfies it; tests substitute scripted
// implementations.
type EventReceiver interface {
	Receive(ctx context.Context, tag channel.Tag) (channel.Event, error)
}

// Coordinator drains the event channel, maintains the authoritative
// per-participant score table, publishes leader/progress updates to the
// leaderboard, detects the winner, and broadcasts cancellation.
//
// State machine:
//
//	Listening ──► Deciding ──► Listening   (per event)
//	    │
//	    └── winner recorded, safety bound reached,
//	        or channel closed
//	              │
//	              ▼
//	        Broadcasting ──► Done
//
// Winner determination is single-writer: only the coordinator computes and
// records it, so no race exists on the decision itself. Only the visibility
// of leader/progress to outside readers is relaxed.
//
// The score table is private to the coordinator and dies with it; it is
// never shared.
//
// Thread Safety:
// A Coordinator is driven by a single goroutine via Run; the accessors are
// safe to call only after Run returns.
type Coordinator struct {
	lb       *board.Leaderboard
	receiver EventReceiver
	hub      *SignalHub

	target    int // Score a leading participant must reach to win
	milestone int // Milestone unit for observability notes
	maxRuns   int // Safety bound: target × participant count

	scores    map[board.ParticipantID]int
	leader    board.ParticipantID
	winner    board.ParticipantID
	processed int
}

// NewCoordinator creates a coordinator for a race of the given shape.
//
// Parameters:
//   - lb: The shared leaderboard
//   - receiver: Receive side of the event channel
//   - hub: Signal hub used to broadcast cancellation
//   - participants: Fixed participant count P
//   - target: Target score M a leading participant must reach to win
//   - milestone: Milestone unit for observability notes; <= 0 selects
//     DefaultMilestone
func NewCoordinator(lb *board.Leaderboard, receiver EventReceiver, hub *SignalHub, participants, target, milestone int) *Coordinator {
	if milestone <= 0 {
		milestone = DefaultMilestone
	}
	return &Coordinator{
		lb:        lb,
		receiver:  receiver,
		hub:       hub,
		target:    target,
		milestone: milestone,
		maxRuns:   target * participants,
		scores:    make(map[board.ParticipantID]int),
		leader:    board.NoLeader,
		winner:    board.NoLeader,
	}
}

// Run executes the coordinator until a winner is recorded, the safety bound
// is reached, or the event channel closes; it then broadcasts cancellation
// to every registered participant and returns.
//
// Parameters:
//   - ctx: Bounds the whole run; cancellation ends the loop cleanly
//
// Returns:
//   - nil on any clean conclusion (winner, safety bound, closed channel,
//     cancelled context)
//   - Error only when a leaderboard commit fails for a reason other than
//     cancellation; the coordinator cannot proceed without the Guard
func (c *Coordinator) Run(ctx context.Context) error {
	log.Printf("[coordinator] starting: target=%d milestone=%d max runs=%d", c.target, c.milestone, c.maxRuns)

	for c.winner == board.NoLeader && c.processed < c.maxRuns {
		// Listening: block until the next coordinator-bound event.
		ev, err := c.receiver.Receive(ctx, channel.TagCoordinator)
		if err != nil {
			if errors.Is(err, channel.ErrClosed) {
				log.Printf("[coordinator] event channel closed after %d events", c.processed)
			} else if ctx.Err() != nil {
				log.Printf("[coordinator] cancelled after %d events", c.processed)
			} else {
				log.Printf("[coordinator] receive: %v", err)
			}
			break
		}

		sender, err := ev.Sender()
		if err != nil {
			// Malformed payload: log, discard, keep listening.
			log.Printf("[coordinator] discarding event %s: %v", ev.ID, err)
			continue
		}

		// Deciding: attribute the event and publish the outcome.
		if err := c.decide(ctx, sender); err != nil {
			if ctx.Err() != nil {
				log.Printf("[coordinator] cancelled mid-commit after %d events", c.processed)
				break
			}
			// The event loop cannot proceed without the Guard.
			log.Printf("[coordinator] fatal: %v", err)
			c.broadcast()
			return err
		}
	}

	if c.winner != board.NoLeader {
		log.Printf("[coordinator] finished, winner: participant %d", c.winner)
	} else {
		log.Printf("[coordinator] finished without a winner after %d events", c.processed)
	}

	// Broadcasting: cancel every participant registered at this moment,
	// whether or not it has already exited.
	c.broadcast()
	return nil
}

// decide attributes one event to its sender, recomputes the leader, commits
// leader and progress to the leaderboard under the Guard, and checks the
// milestone and winner conditions.
//
// The leader changes only on a strictly greater score: the first participant
// to reach a given score keeps priority over later participants that tie it.
func (c *Coordinator) decide(ctx context.Context, sender board.ParticipantID) error {
	c.scores[sender]++
	score := c.scores[sender]

	if score > c.scores[c.leader] {
		c.leader = sender
	}

	// One commit per successfully attributed event, leader changed or not.
	if err := c.lb.CommitProgress(ctx, c.leader); err != nil {
		return fmt.Errorf("commit progress: %w", err)
	}
	c.processed++

	// Milestone note: the event's sender is the current leader and just
	// reached a multiple of the milestone unit. Observability only.
	if sender == c.leader && score%c.milestone == 0 {
		log.Printf("[coordinator] participant %d first to reach %d points", sender, score)
	}

	if sender == c.leader && score >= c.target && c.winner == board.NoLeader {
		c.winner = sender
	}
	return nil
}

// broadcast delivers the cancellation signal to every participant identity
// recorded in the leaderboard. Best-effort and idempotent: unregistered
// slots are skipped, already-exited participants are unaffected.
func (c *Coordinator) broadcast() {
	snap := c.lb.Snapshot()
	for _, id := range snap.Participants {
		if id == board.NoLeader {
			continue
		}
		c.hub.Cancel(id)
	}
}

// Winner returns the recorded winner and whether one exists.
// Valid once Run has returned. A recorded winner is never overwritten.
func (c *Coordinator) Winner() (board.ParticipantID, bool) {
	return c.winner, c.winner != board.NoLeader
}

// Processed returns the number of events the coordinator attributed.
// Valid once Run has returned.
func (c *Coordinator) Processed() int {
	return c.processed
}

// Score returns the private score recorded for a participant.
// Valid once Run has returned.
func (c *Coordinator) Score(id board.ParticipantID) int {
	return c.scores[id]
}
