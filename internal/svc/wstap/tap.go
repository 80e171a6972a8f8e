// If you are AI: This file implements Tap, which relays frames from an ephemeral receiver to a WebSocket.
// Each frame becomes one binary message holding a msgpack descriptor with the payload inline.

package wstap

import (
	"context"
	"errors"
	"fmt"

	"dataflow/internal/core/flow"
	"dataflow/internal/core/wire"

	"github.com/gorilla/websocket"
)

// Conn defines the WebSocket operations a tap needs.
// This allows for easier testing and abstraction.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Tap relays frames received on rc to conn.
// Allocation: one descriptor encoding per frame; the shared buffer is
// released as soon as its bytes are encoded.
type Tap struct {
	conn Conn
	rc   *flow.Receiver
	src  flow.PortID
}

// NewTap creates a tap for a receiver that is already linked.
func NewTap(conn Conn, rc *flow.Receiver) *Tap {
	t := &Tap{conn: conn, rc: rc}
	if s := rc.Source(); s != nil {
		t.src = s.ID()
	}
	return t
}

// Run relays frames until the client goes away, ctx is cancelled or the
// link is torn down. Returns the number of frames written. A client close
// or cancellation is not an error.
func (t *Tap) Run(ctx context.Context) (uint64, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Client messages are ignored; a read error means the client is gone
	go func() {
		for {
			if _, _, err := t.conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	var sent uint64
	for {
		ts, format, view, err := t.rc.ReceiveContext(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return sent, nil
			}
			if errors.Is(err, flow.ErrDisconnected) || errors.Is(err, flow.ErrNotConnected) {
				msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "sender disconnected")
				if werr := t.conn.WriteMessage(websocket.CloseMessage, msg); werr != nil {
					return sent, fmt.Errorf("write close frame: %v: %w", werr, err)
				}
				return sent, err
			}
			// Malformed frame, already released by the receiver
			continue
		}

		data, err := t.encode(ts, format, view)
		t.rc.ReleaseView(view)
		if err != nil {
			return sent, err
		}
		if err := t.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
			return sent, err
		}
		sent++
	}
}

// encode builds the wire form of a received frame, copying its payload.
func (t *Tap) encode(ts int64, format flow.Format, view flow.View) ([]byte, error) {
	dst := t.rc.ID()
	frame := flow.Frame{
		SenderBlock:   t.src.Block,
		SenderPort:    t.src.Port,
		ReceiverBlock: dst.Block,
		ReceiverPort:  dst.Port,
		Format:        format,
		Timestamp:     ts,
		Buffer:        view.Buffer(),
	}
	return wire.Marshal(wire.FromFrame(frame, true))
}
