// If you are AI: This file implements the msgpack relay encoding of frame descriptors.
// Relays preserve the descriptor shape and may carry the buffer bytes inline.

package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"dataflow/internal/core/flow"

	"github.com/vmihailenco/msgpack/v5"
)

// MaxMessageSize bounds a single length-prefixed message.
const MaxMessageSize = 64 << 20

// ErrMessageTooLarge is returned when a length prefix exceeds MaxMessageSize.
var ErrMessageTooLarge = errors.New("wire: message too large")

// Descriptor is the relay form of a frame.
// BufferID identifies the shared buffer; Payload is set only when the relay
// ships the bytes to a peer outside the process.
type Descriptor struct {
	SenderBlock   string      `msgpack:"sender_block"`
	SenderPort    string      `msgpack:"sender_port"`
	ReceiverBlock string      `msgpack:"receiver_block"`
	ReceiverPort  string      `msgpack:"receiver_port"`
	Format        flow.Format `msgpack:"format"`
	Timestamp     int64       `msgpack:"timestamp"`
	BufferID      string      `msgpack:"buffer_id"`
	Payload       []byte      `msgpack:"payload,omitempty"`
}

// FromFrame builds a descriptor from a frame.
// With withPayload the descriptor references the buffer bytes covered by the
// frame format; they are copied only when the descriptor is encoded.
func FromFrame(f flow.Frame, withPayload bool) Descriptor {
	d := Descriptor{
		SenderBlock:   f.SenderBlock,
		SenderPort:    f.SenderPort,
		ReceiverBlock: f.ReceiverBlock,
		ReceiverPort:  f.ReceiverPort,
		Format:        f.Format,
		Timestamp:     f.Timestamp,
	}
	if f.Buffer == nil {
		return d
	}
	d.BufferID = f.Buffer.ID().String()
	if withPayload {
		n := f.Format.ByteLen()
		if n > f.Buffer.Len() {
			n = f.Buffer.Len()
		}
		d.Payload = f.Buffer.Bytes()[:n]
	}
	return d
}

// Marshal encodes d with msgpack.
func Marshal(d Descriptor) ([]byte, error) {
	data, err := msgpack.Marshal(&d)
	if err != nil {
		return nil, fmt.Errorf("marshal descriptor: %w", err)
	}
	return data, nil
}

// Unmarshal decodes a msgpack descriptor.
func Unmarshal(data []byte) (Descriptor, error) {
	var d Descriptor
	if err := msgpack.Unmarshal(data, &d); err != nil {
		return Descriptor{}, fmt.Errorf("unmarshal descriptor: %w", err)
	}
	return d, nil
}

// WriteMessage writes d with a 4-byte big-endian length prefix.
func WriteMessage(w io.Writer, d Descriptor) error {
	data, err := Marshal(d)
	if err != nil {
		return err
	}
	if len(data) > MaxMessageSize {
		return ErrMessageTooLarge
	}

	var prefix [4]byte
	binary.BigEndian.PutUint32(prefix[:], uint32(len(data)))
	if _, err := w.Write(prefix[:]); err != nil {
		return fmt.Errorf("write length prefix: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write descriptor: %w", err)
	}
	return nil
}

// ReadMessage reads one length-prefixed descriptor.
// Returns io.EOF when the stream ends cleanly before a prefix.
func ReadMessage(r io.Reader) (Descriptor, error) {
	var prefix [4]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return Descriptor{}, err
	}
	size := binary.BigEndian.Uint32(prefix[:])
	if size > MaxMessageSize {
		return Descriptor{}, fmt.Errorf("length %d: %w", size, ErrMessageTooLarge)
	}

	data := make([]byte, size)
	if _, err := io.ReadFull(r, data); err != nil {
		return Descriptor{}, fmt.Errorf("read descriptor: %w", err)
	}
	return Unmarshal(data)
}

// Buffer copies the inline payload into a new buffer, for peers that
// received the descriptor outside the process. Returns nil without payload.
func (d Descriptor) Buffer() *flow.Buffer {
	if len(d.Payload) == 0 {
		return nil
	}
	buf := flow.NewBuffer(len(d.Payload), nil)
	copy(buf.Bytes(), d.Payload)
	return buf
}
