package integration

import (
	"context"
	"testing"
	"time"

	"github.com/dreamware/derby/internal/board"
	"github.com/dreamware/derby/internal/channel"
	"github.com/dreamware/derby/internal/race"
)

// failingSender always reports a full channel, simulating a participant whose
// events never reach the coordinator.
type failingSender struct{}

func (failingSender) Send(channel.Event) error { return channel.ErrFull }

// runRace executes one race to completion with a watchdog so a liveness bug
// fails the test instead of hanging the suite.
func runRace(t *testing.T, orch *race.Orchestrator) race.Result {
	t.Helper()

	done := make(chan struct{})
	var res race.Result
	var err error
	go func() {
		defer close(done)
		res, err = orch.Run(context.Background())
	}()

	select {
	case <-done:
	case <-time.After(30 * time.Second):
		t.Fatal("Race did not conclude within 30s")
	}
	if err != nil {
		t.Fatalf("Race failed: %v", err)
	}
	return res
}

// TestEventRace runs end-to-end races through the real orchestrator,
// coordinator, participants, and shared primitives.
func TestEventRace(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	t.Run("LosslessRace", func(t *testing.T) {
		testLosslessRace(t)
	})

	t.Run("ClassicRaceShape", func(t *testing.T) {
		testClassicRaceShape(t)
	})

	t.Run("FaultySender", func(t *testing.T) {
		testFaultySender(t)
	})

	t.Run("AllSendersFail", func(t *testing.T) {
		testAllSendersFail(t)
	})

	t.Run("SingleParticipantLiveness", func(t *testing.T) {
		testSingleParticipantLiveness(t)
	})

	t.Run("ExternalInterrupt", func(t *testing.T) {
		testExternalInterrupt(t)
	})

	t.Run("ConcurrentReaders", func(t *testing.T) {
		testConcurrentReaders(t)
	})

	t.Run("RepeatedRaces", func(t *testing.T) {
		testRepeatedRaces(t)
	})
}

// testLosslessRace verifies that a race whose channel can hold every possible
// event always produces a winner who is also the final leader.
func testLosslessRace(t *testing.T) {
	orch, err := race.NewOrchestrator(race.Config{
		Participants:    3,
		Target:          5,
		ChannelCapacity: 15,
	})
	if err != nil {
		t.Fatalf("Failed to create orchestrator: %v", err)
	}

	res := runRace(t, orch)

	if !res.Won {
		t.Fatal("Expected a winner in a lossless race")
	}
	if res.Winner != res.FinalLeader {
		t.Errorf("Expected winner %d to be the final leader, got leader %d",
			res.Winner, res.FinalLeader)
	}
	if res.EventsProcessed < 5 || res.EventsProcessed > 15 {
		t.Errorf("Expected 5..15 events processed, got %d", res.EventsProcessed)
	}
}

// testClassicRaceShape runs the full default configuration: twelve
// participants racing to one hundred events each.
func testClassicRaceShape(t *testing.T) {
	cfg := race.DefaultConfig()
	cfg.Jitter = 50 * time.Microsecond // Keep the suite fast

	orch, err := race.NewOrchestrator(cfg)
	if err != nil {
		t.Fatalf("Failed to create orchestrator: %v", err)
	}

	res := runRace(t, orch)

	// The bounded channel may drop events under load, so a winner is not
	// guaranteed. The safety bound is.
	if res.EventsProcessed > cfg.Target*cfg.Participants {
		t.Errorf("Processed %d events, exceeding safety bound %d",
			res.EventsProcessed, cfg.Target*cfg.Participants)
	}
	if res.Won && res.Winner != res.FinalLeader {
		t.Errorf("Expected winner %d to be the final leader, got leader %d",
			res.Winner, res.FinalLeader)
	}
}

// testFaultySender verifies that a participant whose sends all fail cannot
// win and does not wedge the race.
func testFaultySender(t *testing.T) {
	orch, err := race.NewOrchestrator(race.Config{
		Participants:    3,
		Target:          5,
		ChannelCapacity: 15,
	})
	if err != nil {
		t.Fatalf("Failed to create orchestrator: %v", err)
	}

	ch := orch.Channel()
	orch.SetSenderFactory(func(id board.ParticipantID) race.EventSender {
		if id == 1 {
			return failingSender{}
		}
		return ch
	})

	res := runRace(t, orch)

	if !res.Won {
		t.Fatal("Expected a winner among the healthy participants")
	}
	if res.Winner == 1 {
		t.Error("Participant with zero delivered events must not win")
	}
	// Two healthy participants emit at most 10 events
	if res.EventsProcessed > 10 {
		t.Errorf("Expected at most 10 events processed, got %d", res.EventsProcessed)
	}
}

// testAllSendersFail verifies the degenerate race: no event is ever
// delivered, no winner is declared, and every worker still terminates.
func testAllSendersFail(t *testing.T) {
	orch, err := race.NewOrchestrator(race.Config{
		Participants: 4,
		Target:       3,
	})
	if err != nil {
		t.Fatalf("Failed to create orchestrator: %v", err)
	}

	orch.SetSenderFactory(func(board.ParticipantID) race.EventSender {
		return failingSender{}
	})

	res := runRace(t, orch)

	if res.Won {
		t.Errorf("Expected no winner, got participant %d", res.Winner)
	}
	if res.EventsProcessed != 0 {
		t.Errorf("Expected 0 events processed, got %d", res.EventsProcessed)
	}
	if res.FinalLeader != board.NoLeader {
		t.Errorf("Expected no leader, got participant %d", res.FinalLeader)
	}
}

// testSingleParticipantLiveness verifies the smallest race shape terminates.
func testSingleParticipantLiveness(t *testing.T) {
	orch, err := race.NewOrchestrator(race.Config{
		Participants: 1,
		Target:       1,
	})
	if err != nil {
		t.Fatalf("Failed to create orchestrator: %v", err)
	}

	res := runRace(t, orch)

	if !res.Won || res.Winner != 0 {
		t.Errorf("Expected participant 0 to win, got won=%v winner=%d", res.Won, res.Winner)
	}
	if res.EventsProcessed != 1 {
		t.Errorf("Expected exactly 1 event processed, got %d", res.EventsProcessed)
	}
}

// testExternalInterrupt verifies that cancelling the race context mid-run
// terminates every worker cleanly, as the signal handler does on SIGINT.
func testExternalInterrupt(t *testing.T) {
	orch, err := race.NewOrchestrator(race.Config{
		Participants: 4,
		Target:       100000,
		Jitter:       time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Failed to create orchestrator: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	var res race.Result
	go func() {
		defer close(done)
		res, err = orch.Run(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("Race did not stop after context cancellation")
	}
	if err != nil {
		t.Fatalf("Expected clean shutdown, got error: %v", err)
	}
	if res.Won {
		t.Errorf("Expected no winner after early interrupt, got participant %d", res.Winner)
	}
}

// testConcurrentReaders verifies that leaderboard snapshots taken while the
// race is running are always internally consistent.
func testConcurrentReaders(t *testing.T) {
	orch, err := race.NewOrchestrator(race.Config{
		Participants:    4,
		Target:          50,
		ChannelCapacity: 200,
	})
	if err != nil {
		t.Fatalf("Failed to create orchestrator: %v", err)
	}

	lb := orch.Leaderboard()
	stop := make(chan struct{})
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		last := 0
		for {
			select {
			case <-stop:
				return
			default:
			}
			snap := lb.Snapshot()
			if snap.EventsProcessed < last {
				t.Errorf("Events processed regressed from %d to %d", last, snap.EventsProcessed)
				return
			}
			last = snap.EventsProcessed
			if snap.EventsProcessed > 0 && snap.Leader == board.NoLeader {
				t.Error("Observed progress with no leader")
				return
			}
		}
	}()

	res := runRace(t, orch)
	close(stop)
	<-readerDone

	if !res.Won {
		t.Fatal("Expected a winner in a lossless race")
	}
}

// testRepeatedRaces runs several small races back to back to shake out
// cross-run state leaks and flaky termination.
func testRepeatedRaces(t *testing.T) {
	for i := 0; i < 10; i++ {
		orch, err := race.NewOrchestrator(race.Config{
			Participants:    3,
			Target:          4,
			ChannelCapacity: 12,
		})
		if err != nil {
			t.Fatalf("Run %d: failed to create orchestrator: %v", i, err)
		}

		res := runRace(t, orch)
		if !res.Won {
			t.Fatalf("Run %d: expected a winner", i)
		}
		if res.Winner != res.FinalLeader {
			t.Fatalf("Run %d: winner %d is not the final leader %d", i, res.Winner, res.FinalLeader)
		}
	}
}
