// If you are AI: This file implements Sender, the producer port that multicasts frames to linked receivers.
// A sender owns the link table and the ownership ledger of every buffer it handed out.

package flow

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Sender is a producer port. It may be linked to any number of receivers.
// Lock expectations: mu guards links and owned. It is never held while
// sleeping or waiting for queue room.
// Allocation: Frames are values written into pre-allocated queue slots; the
// ledger allocates once per distinct buffer.
type Sender struct {
	Port

	mu    sync.Mutex
	links map[PortID]*Queue
	owned ledger

	roomMu sync.Mutex
	roomCh chan struct{} // Closed on the next pop or unlink; nil when nobody waits

	backoff time.Duration
	logger  zerolog.Logger
	stats   senderCounters
}

// senderCounters are lifetime counters read by Stats.
type senderCounters struct {
	delivered atomic.Uint64
	skipped   atomic.Uint64
	released  atomic.Uint64
	freed     atomic.Uint64
}

// SenderStats is a point-in-time snapshot of a sender.
type SenderStats struct {
	Links     int    // Linked receivers
	Tracked   int    // Buffers with outstanding references
	Delivered uint64 // Frames pushed to receiver queues
	Skipped   uint64 // Deliveries skipped because a queue was full
	Released  uint64 // Release calls that matched a tracked buffer
	Freed     uint64 // Buffers whose count reached zero
}

// NewSender creates a sender port for the given block.
func NewSender(block, name string, dataType DataType, opts ...Option) *Sender {
	id := NewPortID(block, name)
	o := applyOptions("flow.sender", id, opts)
	s := &Sender{
		Port:    Port{id: id, dataType: dataType},
		links:   make(map[PortID]*Queue),
		owned:   make(ledger),
		backoff: o.backoff,
		logger:  *o.logger,
	}
	s.logger.Info().Str("data_type", string(dataType)).Msg("sender created")
	return s
}

// IsConnected returns true if at least one receiver is linked.
func (s *Sender) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.links) > 0
}

// Link adds q as the queue for receiver.
// Returns ErrReceiverLinked if receiver already has a link from this sender;
// the existing link is kept.
func (s *Sender) Link(receiver PortID, q *Queue) error {
	s.mu.Lock()
	if _, exists := s.links[receiver]; exists {
		s.mu.Unlock()
		return fmt.Errorf("%s already linked to %s: %w", receiver, s.id, ErrReceiverLinked)
	}
	q.setRoomHook(s.notifyRoom)
	s.links[receiver] = q
	s.mu.Unlock()

	s.logger.Info().Str("receiver", receiver.String()).Int("capacity", q.Cap()).Msg("link")
	return nil
}

// Unlink removes the link to receiver. Unknown receivers are ignored.
// Blocked SendBlocking calls are woken so they stop waiting on it.
func (s *Sender) Unlink(receiver PortID) {
	s.mu.Lock()
	_, ok := s.links[receiver]
	delete(s.links, receiver)
	s.mu.Unlock()

	if !ok {
		s.logger.Debug().Str("receiver", receiver.String()).Msg("unlink of unknown receiver ignored")
		return
	}
	s.notifyRoom()
	s.logger.Info().Str("receiver", receiver.String()).Msg("unlink")
}

// Receivers returns the ids of all linked receivers.
func (s *Sender) Receivers() []PortID {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]PortID, 0, len(s.links))
	for id := range s.links {
		ids = append(ids, id)
	}
	return ids
}

// Send multicasts buf to every linked receiver whose queue has room.
// Full queues are skipped for this call and never retried. If no receiver
// accepted the frame, Send sleeps for the configured backoff before
// returning. Returns the number of receivers served; when it is zero the
// caller still owns buf.
func (s *Sender) Send(ts int64, format Format, buf *Buffer) int {
	s.mu.Lock()
	served := 0
	for id, q := range s.links {
		if s.push(id, q, ts, format, buf) {
			served++
		}
	}
	s.mu.Unlock()

	if served == 0 && s.backoff > 0 {
		time.Sleep(s.backoff)
	}
	return served
}

// SendBlocking delivers buf to every receiver linked at call time, waiting
// for queue room as needed. Receivers unlinked while waiting are dropped.
// NOTE: There is no timeout. A receiver that never drains stalls the caller
// indefinitely; use SendBlockingContext to bound the wait.
func (s *Sender) SendBlocking(ts int64, format Format, buf *Buffer) int {
	served, _ := s.SendBlockingContext(context.Background(), ts, format, buf)
	return served
}

// SendBlockingContext is SendBlocking with cancellation.
// Returns the number of receivers served and ctx.Err() if cancelled before
// every target was served.
func (s *Sender) SendBlockingContext(ctx context.Context, ts int64, format Format, buf *Buffer) (int, error) {
	var pending map[PortID]struct{}
	served := 0

	for {
		room := s.roomSignal()

		s.mu.Lock()
		if pending == nil {
			pending = make(map[PortID]struct{}, len(s.links))
			for id := range s.links {
				pending[id] = struct{}{}
			}
		}
		for id := range pending {
			q, ok := s.links[id]
			if !ok {
				delete(pending, id)
				continue
			}
			if s.push(id, q, ts, format, buf) {
				delete(pending, id)
				served++
			}
		}
		remaining := len(pending)
		s.mu.Unlock()

		if remaining == 0 {
			return served, nil
		}
		select {
		case <-room:
		case <-ctx.Done():
			return served, ctx.Err()
		}
	}
}

// push enqueues one frame for receiver id and retains buf on success.
// Caller holds s.mu.
func (s *Sender) push(id PortID, q *Queue, ts int64, format Format, buf *Buffer) bool {
	f := Frame{
		SenderBlock:   s.id.Block,
		SenderPort:    s.id.Port,
		ReceiverBlock: id.Block,
		ReceiverPort:  id.Port,
		Format:        format,
		Timestamp:     ts,
		Buffer:        buf,
	}
	if !q.TryPush(f) {
		s.stats.skipped.Add(1)
		s.logger.Trace().Str("receiver", id.String()).Int64("ts", ts).Msg("queue full, frame skipped")
		return false
	}
	s.owned.retain(buf)
	s.stats.delivered.Add(1)
	return true
}

// Release drops one reference to buf. When the last reference is released
// the buffer leaves the ledger and its free hook runs.
// Releasing an untracked buffer is a no-op.
func (s *Sender) Release(buf *Buffer) {
	if buf == nil {
		return
	}
	s.mu.Lock()
	_, tracked := s.owned[buf.id]
	freed := s.owned.release(buf)
	s.mu.Unlock()

	if !tracked {
		s.logger.Trace().Str("buffer", buf.id.String()).Msg("release of untracked buffer ignored")
		return
	}
	s.stats.released.Add(1)
	if freed != nil {
		s.stats.freed.Add(1)
		freed.free()
	}
}

// Outstanding returns the reference count of buf and whether it is tracked.
func (s *Sender) Outstanding(buf *Buffer) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.owned.count(buf)
}

// Stats returns a snapshot of link and ledger counters.
func (s *Sender) Stats() SenderStats {
	s.mu.Lock()
	links, tracked := len(s.links), len(s.owned)
	s.mu.Unlock()

	return SenderStats{
		Links:     links,
		Tracked:   tracked,
		Delivered: s.stats.delivered.Load(),
		Skipped:   s.stats.skipped.Load(),
		Released:  s.stats.released.Load(),
		Freed:     s.stats.freed.Load(),
	}
}

// roomSignal returns a channel closed on the next pop from any linked queue
// or on the next unlink.
func (s *Sender) roomSignal() <-chan struct{} {
	s.roomMu.Lock()
	defer s.roomMu.Unlock()
	if s.roomCh == nil {
		s.roomCh = make(chan struct{})
	}
	return s.roomCh
}

// notifyRoom wakes every SendBlocking waiter. No-op when nobody waits.
func (s *Sender) notifyRoom() {
	s.roomMu.Lock()
	if s.roomCh != nil {
		close(s.roomCh)
		s.roomCh = nil
	}
	s.roomMu.Unlock()
}
