// Package channel implements event delivery from participants to the coordinator.
// This file defines the event record and its fixed-layout wire format.
package channel

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/dreamware/derby/internal/board"
)

// PayloadSize is the fixed capacity of an event payload in bytes.
const PayloadSize = 100

// Tag routes events within the channel. All coordinator-bound traffic shares
// TagCoordinator; the receive side filters on it.
type Tag int

// TagCoordinator marks an event as bound for the coordinator.
const TagCoordinator Tag = 1

// ErrMalformedPayload is returned when an event payload does not decode to a
// participant identity.
var ErrMalformedPayload = errors.New("malformed event payload")

// Event is one progress message from a participant to the coordinator.
// Events are immutable once sent: the channel owns the event between send and
// receive, and ownership transfers to the coordinator on receipt.
//
// The payload is a fixed-capacity buffer carrying the sending participant's
// id in decimal ASCII, left-justified and NUL-terminated. Everything the
// coordinator needs is recovered by Sender; the ID field exists purely for
// log correlation.
type Event struct {
	// ID uniquely identifies this event for logging and debugging.
	ID string

	// Tag is the routing tag; coordinator-bound events carry TagCoordinator.
	Tag Tag

	// Payload encodes the sender id. See NewProgressEvent and Sender.
	Payload [PayloadSize]byte
}

// NewProgressEvent builds a coordinator-bound progress event for the given
// sender.
//
// Parameters:
//   - sender: Identity of the emitting participant
//
// Returns:
//   - Event with a fresh ID and the sender encoded into the payload
//
// Example:
//
//	ev := channel.NewProgressEvent(3)
//	err := ch.Send(ev)
func NewProgressEvent(sender board.ParticipantID) Event {
	ev := Event{
		ID:  uuid.NewString(),
		Tag: TagCoordinator,
	}
	copy(ev.Payload[:], strconv.Itoa(int(sender)))
	return ev
}

// Sender decodes the participant identity from the event payload.
//
// The payload must contain a non-negative decimal integer in ASCII, starting
// at byte zero and terminated by a NUL (or by the end of the buffer). Any
// other content is a malformed payload: the event should be logged and
// discarded, never retried.
//
// Returns:
//   - Decoded participant identity on success
//   - ErrMalformedPayload (wrapped) if the payload does not parse
func (e Event) Sender() (board.ParticipantID, error) {
	raw := e.Payload[:]
	if i := bytes.IndexByte(raw, 0); i >= 0 {
		raw = raw[:i]
	}
	if len(raw) == 0 {
		return board.NoLeader, fmt.Errorf("%w: empty payload", ErrMalformedPayload)
	}

	n, err := strconv.Atoi(string(raw))
	if err != nil {
		return board.NoLeader, fmt.Errorf("%w: %q", ErrMalformedPayload, string(raw))
	}
	if n < 0 {
		return board.NoLeader, fmt.Errorf("%w: negative sender %d", ErrMalformedPayload, n)
	}
	return board.ParticipantID(n), nil
}
