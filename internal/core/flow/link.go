// If you are AI: This file implements the Connect/Disconnect protocol that wires senders to receivers.
// Link lifecycle: Unlinked -> Linked (Connect) -> Draining (Disconnect) -> Unlinked.

package flow

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

// Connect links src to dst through a new queue of the given capacity.
// Returns ErrTypeMismatch if the data types differ, ErrInvalidCapacity for
// capacity below 1 and ErrReceiverLinked if dst already has a source. On
// error no state is created.
func Connect(src *Sender, dst *Receiver, capacity int) error {
	logger := log.With().Str("component", "flow.link").Logger()

	if src.DataType() != dst.DataType() {
		logger.Error().
			Str("src", src.ID().String()).Str("src_type", string(src.DataType())).
			Str("dst", dst.ID().String()).Str("dst_type", string(dst.DataType())).
			Msg("connect rejected: data type mismatch")
		return fmt.Errorf("connect %s -> %s: %q != %q: %w", src.ID(), dst.ID(), src.DataType(), dst.DataType(), ErrTypeMismatch)
	}
	if capacity < 1 {
		return fmt.Errorf("connect %s -> %s: capacity %d: %w", src.ID(), dst.ID(), capacity, ErrInvalidCapacity)
	}

	q := NewQueue(capacity)

	// Receiver first: it is the side that can refuse.
	if err := dst.attach(q, src); err != nil {
		logger.Warn().Str("src", src.ID().String()).Str("dst", dst.ID().String()).Msg("connect rejected: receiver already linked")
		return fmt.Errorf("connect %s -> %s: %w", src.ID(), dst.ID(), err)
	}
	if err := src.Link(dst.ID(), q); err != nil {
		dst.detach(src)
		logger.Warn().Str("src", src.ID().String()).Str("dst", dst.ID().String()).Msg("connect rejected: receiver id already linked to sender")
		return fmt.Errorf("connect %s -> %s: %w", src.ID(), dst.ID(), err)
	}
	return nil
}

// Disconnect tears down the link from src to dst.
// The sender stops pushing first, then every pending frame is dequeued and
// released, then the queue is closed (waking a blocked Receive) and the
// receiver is cleared. Returns the number of drained frames. Ports that are
// not linked to each other are left untouched.
func Disconnect(src *Sender, dst *Receiver) int {
	logger := log.With().Str("component", "flow.link").
		Str("src", src.ID().String()).Str("dst", dst.ID().String()).Logger()

	if dst.Source() != src {
		logger.Debug().Msg("disconnect ignored: ports not linked")
		return 0
	}
	q := dst.currentQueue()

	src.Unlink(dst.ID())

	drained := 0
	if q != nil {
		for {
			f, ok := q.TryPop()
			if !ok {
				break
			}
			src.Release(f.Buffer)
			drained++
		}
		q.Close()
	}

	dst.detach(src)
	logger.Info().Int("drained", drained).Msg("disconnect")
	return drained
}
