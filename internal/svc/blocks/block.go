// If you are AI: This file defines the Block interface shared by sources, scalers and sinks.
// Blocks own their ports and run until their context is cancelled.

package blocks

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"dataflow/internal/core/flow"
)

// Port names used by every block.
const (
	InPort  = "in"
	OutPort = "out"
)

// idleWait is how long a consumer sleeps while its input is unlinked.
const idleWait = 50 * time.Millisecond

// Block is a processing node with named ports.
type Block interface {
	// ID returns the block id, the first half of every port id it owns.
	ID() string

	// Kind returns "source", "scale" or "sink".
	Kind() string

	// Senders returns the producer ports of the block.
	Senders() []*flow.Sender

	// Receivers returns the consumer ports of the block.
	Receivers() []*flow.Receiver

	// Run processes frames until ctx is cancelled.
	// Returns nil on cancellation.
	Run(ctx context.Context) error

	// Info returns a snapshot of the block state.
	Info() Info
}

// Info describes a block for the API.
type Info struct {
	ID      string `json:"id"`
	Kind    string `json:"kind"`
	Running bool   `json:"running"`
	Frames  uint64 `json:"frames"`  // Frames produced or consumed
	Dropped uint64 `json:"dropped"` // Frames no receiver accepted
}

// counters are the lifetime counters shared by all block kinds.
type counters struct {
	running atomic.Bool
	frames  atomic.Uint64
	dropped atomic.Uint64
}

// info builds an Info from the counters.
func (c *counters) info(id, kind string) Info {
	return Info{
		ID:      id,
		Kind:    kind,
		Running: c.running.Load(),
		Frames:  c.frames.Load(),
		Dropped: c.dropped.Load(),
	}
}

// unlinked reports whether a receive error means the input has no source
// right now and the block should wait for a new link.
func unlinked(err error) bool {
	return errors.Is(err, flow.ErrNotConnected) || errors.Is(err, flow.ErrDisconnected)
}

// sleepCtx waits for d or until ctx is done. Returns false if ctx ended.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// senderOptions maps a block backoff setting to sender options.
func senderOptions(backoffMS int) []flow.Option {
	if backoffMS <= 0 {
		return nil
	}
	return []flow.Option{flow.WithBackoff(time.Duration(backoffMS) * time.Millisecond)}
}
