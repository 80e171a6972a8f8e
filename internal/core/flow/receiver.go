// If you are AI: This file implements Receiver, the consumer port that dequeues frames from its single source.
// Received views must be handed back with ReleaseView so the sender can free the buffer.

package flow

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Receiver is a consumer port with at most one linked sender.
// Lock expectations: mu guards the queue and source pointers only; Receive
// waits on the queue without holding it.
type Receiver struct {
	Port

	mu     sync.Mutex
	queue  *Queue
	source *Sender

	logger zerolog.Logger
}

// NewReceiver creates a receiver port for the given block.
func NewReceiver(block, name string, dataType DataType, opts ...Option) *Receiver {
	id := NewPortID(block, name)
	o := applyOptions("flow.receiver", id, opts)
	r := &Receiver{
		Port:   Port{id: id, dataType: dataType},
		logger: *o.logger,
	}
	r.logger.Info().Str("data_type", string(dataType)).Msg("receiver created")
	return r
}

// IsConnected returns true if the receiver has a source.
func (r *Receiver) IsConnected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.queue != nil
}

// Source returns the linked sender, or nil.
func (r *Receiver) Source() *Sender {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.source
}

// Len returns the number of frames waiting, 0 when unlinked.
func (r *Receiver) Len() int {
	q := r.currentQueue()
	if q == nil {
		return 0
	}
	return q.Len()
}

// IsFull returns true if the linked queue has no room. An unlinked receiver
// is never full.
func (r *Receiver) IsFull() bool {
	q := r.currentQueue()
	return q != nil && q.IsFull()
}

// IsEmpty returns true if no frames are waiting.
func (r *Receiver) IsEmpty() bool {
	return r.Len() == 0
}

// Receive blocks until a frame is available and returns its timestamp,
// format and a typed view over the shared buffer.
// Returns ErrNotConnected when unlinked, ErrDisconnected when the link is
// torn down while waiting.
func (r *Receiver) Receive() (int64, Format, View, error) {
	return r.ReceiveContext(context.Background())
}

// ReceiveContext is Receive with cancellation.
func (r *Receiver) ReceiveContext(ctx context.Context) (int64, Format, View, error) {
	r.mu.Lock()
	q, src := r.queue, r.source
	r.mu.Unlock()

	if q == nil {
		return 0, Format{}, View{}, ErrNotConnected
	}

	f, err := q.PopContext(ctx)
	if err != nil {
		if errors.Is(err, ErrQueueClosed) {
			return 0, Format{}, View{}, ErrDisconnected
		}
		return 0, Format{}, View{}, err
	}

	view, err := NewView(f.Buffer, f.Format, src)
	if err != nil {
		// Hand the reference back so a malformed frame cannot pin the buffer
		if src != nil {
			src.Release(f.Buffer)
		}
		return 0, Format{}, View{}, fmt.Errorf("frame from %s: %w", f.Source(), err)
	}
	return f.Timestamp, f.Format, view, nil
}

// ReleaseView returns the view's buffer reference to the sender that delivered it.
func (r *Receiver) ReleaseView(v View) {
	if v.origin == nil || v.buf == nil {
		return
	}
	v.origin.Release(v.buf)
}

// attach links q from src. Fails if the receiver already has a source.
func (r *Receiver) attach(q *Queue, src *Sender) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.queue != nil {
		return ErrReceiverLinked
	}
	r.queue = q
	r.source = src
	r.logger.Info().Str("sender", src.ID().String()).Msg("link")
	return nil
}

// detach clears the link if it is from src and returns the removed queue.
func (r *Receiver) detach(src *Sender) *Queue {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.queue == nil || r.source != src {
		return nil
	}
	q := r.queue
	r.queue = nil
	r.source = nil
	r.logger.Info().Str("sender", src.ID().String()).Msg("unlink")
	return q
}

// currentQueue returns the linked queue, or nil.
func (r *Receiver) currentQueue() *Queue {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.queue
}
