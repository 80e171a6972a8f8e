// If you are AI: This file declares the sentinel errors returned by the flow package.

package flow

import "errors"

var (
	// ErrTypeMismatch is returned by Connect when port data types differ.
	ErrTypeMismatch = errors.New("flow: data type mismatch")
	// ErrInvalidCapacity is returned by Connect for a queue capacity below 1.
	ErrInvalidCapacity = errors.New("flow: queue capacity must be at least 1")
	// ErrReceiverLinked is returned by Connect when the receiver already has a source.
	ErrReceiverLinked = errors.New("flow: receiver already linked")
	// ErrNotConnected is returned by Receive on an unlinked receiver.
	ErrNotConnected = errors.New("flow: receiver not connected")
	// ErrDisconnected is returned by Receive when the link is torn down while waiting.
	ErrDisconnected = errors.New("flow: link disconnected")
	// ErrQueueClosed is returned by queue operations after Close.
	ErrQueueClosed = errors.New("flow: queue closed")
	// ErrViewBounds is returned when a format does not fit in its buffer.
	ErrViewBounds = errors.New("flow: view exceeds buffer bounds")
	// ErrElementType is returned when a typed accessor does not match the view's element type.
	ErrElementType = errors.New("flow: element type mismatch")
	// ErrUnknownPort is returned by registry lookups of unregistered ports.
	ErrUnknownPort = errors.New("flow: unknown port")
	// ErrPortExists is returned when registering a port id twice.
	ErrPortExists = errors.New("flow: port already registered")
)
