// If you are AI: This file defines Frame, the descriptor enqueued on a link for each send.
// A frame references a shared buffer; it never carries a copy of the bytes.

package flow

// Frame describes one buffer delivery from a sender port to a receiver port.
// Frames are small values; the buffer they reference is shared by every
// receiver served by the same send.
type Frame struct {
	SenderBlock   string  // Sending block id
	SenderPort    string  // Sending port name
	ReceiverBlock string  // Receiving block id
	ReceiverPort  string  // Receiving port name
	Format        Format  // Element type and dims of the buffer contents
	Timestamp     int64   // Producer timestamp, monotonic or wall-clock
	Buffer        *Buffer // Shared buffer handle
}

// Source returns the sending port id.
func (f Frame) Source() PortID {
	return NewPortID(f.SenderBlock, f.SenderPort)
}

// Destination returns the receiving port id.
func (f Frame) Destination() PortID {
	return NewPortID(f.ReceiverBlock, f.ReceiverPort)
}
