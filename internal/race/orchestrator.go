// Package race implements the participants, coordinator, and orchestration of a derby race.
// This file implements the process orchestrator that owns the shared primitives.
package race

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/dreamware/derby/internal/board"
	"github.com/dreamware/derby/internal/channel"
)

// Config describes the shape of one race.
type Config struct {
	// Participants is the fixed participant count P.
	Participants int

	// Target is the number of events M each participant emits, and the
	// score a leading participant must reach to win.
	Target int

	// Milestone is the score unit for observability notes.
	// <= 0 selects DefaultMilestone.
	Milestone int

	// Jitter bounds the randomized pre-send delay per participant.
	// 0 disables jitter (useful in tests).
	Jitter time.Duration

	// ChannelCapacity bounds the number of pending events.
	// <= 0 selects channel.DefaultCapacity.
	ChannelCapacity int
}

// DefaultConfig mirrors the classic race shape: twelve participants racing
// to one hundred acknowledged events each, milestone notes every five
// points, and sub-millisecond scheduling jitter.
func DefaultConfig() Config {
	return Config{
		Participants: 12,
		Target:       100,
		Milestone:    DefaultMilestone,
		Jitter:       400 * time.Microsecond,
	}
}

// Validate reports the first problem with the configuration, if any.
func (c Config) Validate() error {
	if c.Participants < 1 {
		return fmt.Errorf("participants must be >= 1, got %d", c.Participants)
	}
	if c.Target < 1 {
		return fmt.Errorf("target must be >= 1, got %d", c.Target)
	}
	return nil
}

// Result summarizes a finished race.
type Result struct {
	// Winner is the recorded winner; valid only when Won is true.
	Winner board.ParticipantID

	// Won reports whether any participant won. A race can conclude without
	// a winner when enough sends were dropped.
	Won bool

	// EventsProcessed is the coordinator's final attributed-event count.
	EventsProcessed int

	// FinalLeader is the leaderboard's leader after the race.
	FinalLeader board.ParticipantID
}

// Orchestrator owns the lifecycle of the shared primitives and runs one race
// to completion: it creates the leaderboard, guard, channel, and signal hub
// before any worker starts, spawns the coordinator and P participants, waits
// for all of them to terminate, and only then releases the primitives.
//
// Control flow:
//
//	New ─► primitives ready
//	Run ─► spawn coordinator ─► spawn participants
//	       participants register + send ─► coordinator consumes + commits
//	       coordinator detects winner ─► broadcasts cancellation
//	       participants exit ─► channel closed ─► coordinator exits
//	       Result
//
// The channel is closed once every sender has exited. That keeps the
// coordinator live even when dropped sends leave the safety bound out of
// reach: with no senders left, the closed channel ends the listening loop.
type Orchestrator struct {
	cfg Config

	lb   *board.Leaderboard
	ch   *channel.Channel
	hub  *SignalHub
	coor *Coordinator

	// senderFor yields the event sender for one participant.
	// Overridable for fault injection in tests.
	senderFor func(board.ParticipantID) EventSender
}

// NewOrchestrator creates an orchestrator with all shared primitives
// initialized, satisfying the bootstrap contract: a zeroed leaderboard with
// unfilled slots, an unlocked guard, and an open event channel.
//
// Parameters:
//   - cfg: Race shape; see Config
//
// Returns:
//   - Orchestrator ready to Run, or a configuration error
func NewOrchestrator(cfg Config) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid race config: %w", err)
	}

	lb, err := board.NewLeaderboard(cfg.Participants)
	if err != nil {
		return nil, fmt.Errorf("create leaderboard: %w", err)
	}

	ch := channel.New(cfg.ChannelCapacity)
	hub := NewSignalHub()

	o := &Orchestrator{
		cfg:  cfg,
		lb:   lb,
		ch:   ch,
		hub:  hub,
		coor: NewCoordinator(lb, ch, hub, cfg.Participants, cfg.Target, cfg.Milestone),
	}
	o.senderFor = func(board.ParticipantID) EventSender { return ch }
	return o, nil
}

// SetSenderFactory overrides how each participant obtains its event sender.
// Intended for tests that force sends to fail for selected participants.
// Must be called before Run.
func (o *Orchestrator) SetSenderFactory(f func(board.ParticipantID) EventSender) {
	o.senderFor = f
}

// Leaderboard exposes the shared leaderboard, primarily for inspection in
// tests and for the final summary.
func (o *Orchestrator) Leaderboard() *board.Leaderboard {
	return o.lb
}

// Channel exposes the shared event channel so a sender factory can route
// selected participants back to the real channel.
func (o *Orchestrator) Channel() *channel.Channel {
	return o.ch
}

// Run executes one full race and blocks until every spawned worker has
// terminated and the shared primitives are released.
//
// Parameters:
//   - ctx: Cancels the whole race (for example on SIGINT); participants and
//     coordinator all exit cleanly on cancellation
//
// Returns:
//   - Result summarizing the race
//   - Error only if the coordinator failed fatally (Guard unavailable)
func (o *Orchestrator) Run(ctx context.Context) (Result, error) {
	var coordErr error
	var coordWG sync.WaitGroup
	coordWG.Add(1)
	go func() {
		defer coordWG.Done()
		coordErr = o.coor.Run(ctx)
	}()

	var partWG sync.WaitGroup
	for i := 0; i < o.cfg.Participants; i++ {
		id := board.ParticipantID(i)
		p := NewParticipant(id, o.cfg.Target, o.cfg.Jitter, o.lb, o.senderFor(id))

		pctx, cancel := context.WithCancel(ctx)
		o.hub.Register(id, cancel)

		partWG.Add(1)
		go func() {
			defer partWG.Done()
			defer cancel()
			defer o.hub.Deregister(id)
			if err := p.Run(pctx); err != nil {
				log.Printf("[orchestrator] participant %d: %v", id, err)
			}
		}()
	}

	// Participants are the only senders: once they are all done, close the
	// channel so the coordinator drains the backlog and stops listening.
	partWG.Wait()
	o.ch.Close()
	coordWG.Wait()

	snap := o.lb.Snapshot()
	winner, won := o.coor.Winner()
	res := Result{
		Winner:          winner,
		Won:             won,
		EventsProcessed: snap.EventsProcessed,
		FinalLeader:     snap.Leader,
	}

	if coordErr != nil && ctx.Err() == nil {
		return res, fmt.Errorf("coordinator: %w", coordErr)
	}
	return res, nil
}
