// Package channel implements event delivery from participants to the coordinator.
// See doc.go for complete package documentation.
package channel

import (
	"context"
	"errors"
	"sync"
)

// DefaultCapacity is the default maximum number of queued events.
const DefaultCapacity = 100

// ErrFull is returned by Send when the channel is saturated.
// The event is dropped; callers log and move on, they do not retry.
var ErrFull = errors.New("event channel is full")

// ErrClosed is returned by Send after Close, and by Receive once the channel
// is closed and drained of matching events.
var ErrClosed = errors.New("event channel is closed")

// Channel is an unordered multiplexed delivery mechanism: any participant may
// enqueue an event tagged with its identity, and the single coordinator
// dequeues events strictly in arrival order within a tag.
//
// Concurrency Model:
//   - Send never blocks beyond the enqueue itself; saturation is an error,
//     not back-pressure.
//   - Receive blocks until a matching event arrives, the channel is closed
//     and drained, or the caller's context is cancelled.
//   - The channel provides its own internal atomicity (mutex + condition
//     variable); no external lock is required or expected.
//
// No ordering is promised between sends from different participants beyond
// the order in which the channel observed them.
//
// Thread Safety:
// All methods are safe for concurrent use.
type Channel struct {
	mu       sync.Mutex
	cond     *sync.Cond // Signalled on enqueue and close
	queue    []Event    // Pending events in arrival order
	capacity int
	closed   bool
}

// New creates a channel holding at most capacity pending events.
// A non-positive capacity selects DefaultCapacity.
//
// Example:
//
//	ch := channel.New(0) // DefaultCapacity
//	err := ch.Send(channel.NewProgressEvent(2))
func New(capacity int) *Channel {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c := &Channel{capacity: capacity}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Send enqueues one event.
//
// Parameters:
//   - ev: The event to deliver; ownership passes to the channel
//
// Returns:
//   - nil on success
//   - ErrFull if the channel is saturated (the event is dropped)
//   - ErrClosed if the channel has been closed
func (c *Channel) Send(ev Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if len(c.queue) >= c.capacity {
		return ErrFull
	}

	c.queue = append(c.queue, ev)
	c.cond.Signal()
	return nil
}

// Receive blocks until an event carrying the given tag is available, then
// removes and returns the earliest-arrived such event.
//
// Events already queued when the channel closes are still delivered; only
// after the queue holds no matching event does a closed channel yield
// ErrClosed.
//
// Parameters:
//   - ctx: Cancels the wait
//   - tag: Routing tag to filter on
//
// Returns:
//   - The earliest matching event on success
//   - ErrClosed once the channel is closed and drained
//   - ctx.Err() if the context is cancelled while waiting
func (c *Channel) Receive(ctx context.Context, tag Tag) (Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Wake blocked waiters when the context is cancelled so they can
	// observe the cancellation and return.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			c.mu.Lock()
			c.cond.Broadcast()
			c.mu.Unlock()
		case <-done:
		}
	}()

	for {
		if ev, ok := c.takeLocked(tag); ok {
			return ev, nil
		}
		if c.closed {
			return Event{}, ErrClosed
		}
		if err := ctx.Err(); err != nil {
			return Event{}, err
		}
		c.cond.Wait()
	}
}

// takeLocked removes and returns the first queued event matching tag.
// Caller must hold c.mu.
func (c *Channel) takeLocked(tag Tag) (Event, bool) {
	for i, ev := range c.queue {
		if ev.Tag == tag {
			c.queue = append(c.queue[:i], c.queue[i+1:]...)
			return ev, true
		}
	}
	return Event{}, false
}

// Close marks the channel closed and wakes all blocked receivers.
// Subsequent sends fail with ErrClosed; pending events remain receivable.
// Close is idempotent.
func (c *Channel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.cond.Broadcast()
}

// Len returns the number of pending events across all tags.
func (c *Channel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}
