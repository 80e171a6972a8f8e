// If you are AI: This file implements Queue, the bounded FIFO of frames behind one link.
// Producer access is serialized by the sender lock; one receiver consumes.
// NOTE: writePos and readPos are free-running; only the modulo is used when
// indexing slots, occupancy is always writePos-readPos.

package flow

import (
	"context"
	"sync"
)

// Queue is a bounded FIFO of frames with a fixed capacity.
// Lock expectations: Internal mutex guards positions and slots. Pop waits on
// a condition variable instead of polling.
// Allocation: Slots pre-allocated at construction, no per-frame allocations.
type Queue struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	slots    []Frame
	writePos uint64
	readPos  uint64
	closed   bool
	onRoom   func() // Invoked after every successful pop, outside the lock
}

// NewQueue creates a queue holding at most capacity frames.
// Capacity below 1 is raised to 1.
func NewQueue(capacity int) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	q := &Queue{
		slots: make([]Frame, capacity),
	}
	q.notEmpty = sync.NewCond(&q.mu)
	return q
}

// Cap returns the fixed capacity.
func (q *Queue) Cap() int {
	return len(q.slots)
}

// Len returns the number of queued frames.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int(q.writePos - q.readPos)
}

// IsFull returns true if no more frames can be pushed.
func (q *Queue) IsFull() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.writePos-q.readPos >= uint64(len(q.slots))
}

// IsEmpty returns true if no frames are queued.
func (q *Queue) IsEmpty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.writePos == q.readPos
}

// TryPush appends f if there is room.
// Returns false without blocking if the queue is full or closed.
func (q *Queue) TryPush(f Frame) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed || q.writePos-q.readPos >= uint64(len(q.slots)) {
		return false
	}
	q.slots[q.writePos%uint64(len(q.slots))] = f
	q.writePos++
	q.notEmpty.Signal()
	return true
}

// Pop removes the oldest frame, blocking while the queue is empty.
// Returns ErrQueueClosed once the queue is closed and empty.
func (q *Queue) Pop() (Frame, error) {
	return q.PopContext(context.Background())
}

// PopContext is Pop with cancellation.
// Returns ctx.Err() if the context ends before a frame is available.
func (q *Queue) PopContext(ctx context.Context) (Frame, error) {
	if ctx.Done() != nil {
		stop := context.AfterFunc(ctx, func() {
			q.mu.Lock()
			q.notEmpty.Broadcast()
			q.mu.Unlock()
		})
		defer stop()
	}

	q.mu.Lock()
	for q.writePos == q.readPos && !q.closed && ctx.Err() == nil {
		q.notEmpty.Wait()
	}
	if q.writePos == q.readPos {
		q.mu.Unlock()
		if err := ctx.Err(); err != nil {
			return Frame{}, err
		}
		return Frame{}, ErrQueueClosed
	}
	f := q.take()
	onRoom := q.onRoom
	q.mu.Unlock()

	if onRoom != nil {
		onRoom()
	}
	return f, nil
}

// TryPop removes the oldest frame without blocking.
// Returns false if the queue is empty.
func (q *Queue) TryPop() (Frame, bool) {
	q.mu.Lock()
	if q.writePos == q.readPos {
		q.mu.Unlock()
		return Frame{}, false
	}
	f := q.take()
	onRoom := q.onRoom
	q.mu.Unlock()

	if onRoom != nil {
		onRoom()
	}
	return f, true
}

// take removes the head frame. Caller holds q.mu and checked non-empty.
func (q *Queue) take() Frame {
	idx := q.readPos % uint64(len(q.slots))
	f := q.slots[idx]
	q.slots[idx] = Frame{} // Drop buffer reference held by the slot
	q.readPos++
	return f
}

// Close marks the queue closed and wakes every blocked Pop.
// Frames still queued remain poppable.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.notEmpty.Broadcast()
	q.mu.Unlock()
}

// setRoomHook installs the callback run after each pop.
func (q *Queue) setRoomHook(fn func()) {
	q.mu.Lock()
	q.onRoom = fn
	q.mu.Unlock()
}
