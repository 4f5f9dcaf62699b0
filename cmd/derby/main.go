// Package main implements the derby binary, which orchestrates one full
// event race: it creates the shared primitives, spawns the coordinator and
// participants, waits for every worker to terminate, and prints the outcome.
//
// Configuration (flags, overridable via DERBY_* environment variables):
//   - --participants / DERBY_PARTICIPANTS: participant count (default: 12)
//   - --target / DERBY_TARGET: events per participant (default: 100)
//   - --milestone / DERBY_MILESTONE: milestone unit (default: 5)
//   - --jitter / DERBY_JITTER: max randomized pre-send delay (default: 400µs)
//   - --channel-capacity / DERBY_CHANNEL_CAPACITY: pending-event bound (default: 100)
//
// Example usage:
//
//	# Default race: 12 participants to 100 events each
//	./derby
//
//	# A quick race
//	./derby --participants 3 --target 5
//
//	# Environment override
//	DERBY_PARTICIPANTS=4 ./derby
//
// Exit status is zero for a completed race (with or without a winner, and
// including interruption by SIGINT/SIGTERM) and non-zero only when the race
// could not be set up or the coordinator failed fatally.
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dreamware/derby/internal/race"
)

// logFatal is a variable to allow mocking log.Fatal in tests.
// This indirection enables test code to intercept fatal errors
// without actually terminating the test process.
var logFatal = log.Fatalf

var rootCmd = &cobra.Command{
	Use:   "derby",
	Short: "Race concurrent participants to a target number of acknowledged events",
	Long: `derby runs a coordination race: a fixed population of concurrent
participants emits progress events to a single coordinator, which tallies
them, tracks the leader on a shared leaderboard, and declares the first
participant to reach the target count while holding the lead the winner.`,
	RunE: runRace,
}

func init() {
	flags := rootCmd.Flags()
	flags.IntP("participants", "p", 12, "number of racing participants")
	flags.IntP("target", "t", 100, "events each participant sends; the winning score")
	flags.Int("milestone", race.DefaultMilestone, "score unit for milestone notes")
	flags.Duration("jitter", 400*time.Microsecond, "max randomized delay before each send (0 disables)")
	flags.Int("channel-capacity", 100, "max pending events in the channel")

	for _, name := range []string{"participants", "target", "milestone", "jitter", "channel-capacity"} {
		if err := viper.BindPFlag(name, flags.Lookup(name)); err != nil {
			logFatal("bind flag %s: %v", name, err)
		}
	}
	viper.SetEnvPrefix("DERBY")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func runRace(cmd *cobra.Command, args []string) error {
	cfg := configFromViper()

	orch, err := race.NewOrchestrator(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("[orchestrator] race starting: %d participants, target %d", cfg.Participants, cfg.Target)
	result, err := orch.Run(ctx)
	if err != nil {
		return err
	}

	printSummary(cmd.OutOrStdout(), result)
	return nil
}

// configFromViper assembles the race configuration from bound flags and
// DERBY_* environment overrides.
func configFromViper() race.Config {
	return race.Config{
		Participants:    viper.GetInt("participants"),
		Target:          viper.GetInt("target"),
		Milestone:       viper.GetInt("milestone"),
		Jitter:          viper.GetDuration("jitter"),
		ChannelCapacity: viper.GetInt("channel-capacity"),
	}
}

// printSummary writes the human-readable race outcome. These lines are for
// operators; nothing machine-parses them.
func printSummary(w io.Writer, res race.Result) {
	fmt.Fprintln(w, "----race-finished----")
	if res.Won {
		fmt.Fprintf(w, "winner: participant %d\n", res.Winner)
	} else {
		fmt.Fprintln(w, "no winner: too many dropped events")
	}
	fmt.Fprintf(w, "events processed: %d\n", res.EventsProcessed)
	fmt.Fprintf(w, "final leader: participant %d\n", res.FinalLeader)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logFatal("derby: %v", err)
	}
}
