// Package race implements the participants, coordinator, and orchestration of a derby race.
// This file implements the cancellation signal hub.
package race

import (
	"context"
	"sync"

	"github.com/dreamware/derby/internal/board"
)

// SignalHub delivers asynchronous, fire-and-forget cancellation signals to
// participants by identity. It is the in-process analog of signalling a
// process id: the sender does not learn whether anyone was listening.
//
// Cancellation is idempotent: cancelling an id twice, or cancelling an id
// that never registered or has already terminated, has no observable effect.
//
// Thread Safety:
// All methods are safe for concurrent use.
type SignalHub struct {
	mu      sync.Mutex
	cancels map[board.ParticipantID]context.CancelFunc
}

// NewSignalHub creates an empty hub.
func NewSignalHub() *SignalHub {
	return &SignalHub{cancels: make(map[board.ParticipantID]context.CancelFunc)}
}

// Register associates a cancel function with a participant identity.
// A later Cancel for the same id invokes it.
//
// Parameters:
//   - id: The participant's identity
//   - cancel: Function that terminates the participant's run
func (h *SignalHub) Register(id board.ParticipantID, cancel context.CancelFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cancels[id] = cancel
}

// Deregister removes a participant's cancel function, typically once the
// participant has terminated on its own. Unknown ids are ignored.
func (h *SignalHub) Deregister(id board.ParticipantID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.cancels, id)
}

// Cancel signals one participant to terminate. Delivery is best-effort: an
// unknown id is a no-op, and a participant that already exited simply never
// observes the signal.
//
// Parameters:
//   - id: The participant to signal
func (h *SignalHub) Cancel(id board.ParticipantID) {
	h.mu.Lock()
	cancel, ok := h.cancels[id]
	delete(h.cancels, id)
	h.mu.Unlock()

	if ok {
		cancel()
	}
}

// Registered returns the number of participants currently holding a
// registered cancel function.
func (h *SignalHub) Registered() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.cancels)
}
