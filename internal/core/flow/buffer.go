// If you are AI: This file implements Buffer, the shared memory handle multicast by senders.
// A buffer is owned by its pool; senders only track outstanding references to it.

package flow

import (
	"unsafe"

	"github.com/google/uuid"
)

// BufferID is the stable identity of a memory region.
// A pooled buffer keeps its id across reuse cycles.
type BufferID = uuid.UUID

// Buffer is a contiguous, 8-byte aligned memory region shared by reference.
// Ownership: The pool that allocated the buffer owns it. Once sent, consumers
// must treat the bytes as read-only. The sender that multicast it calls the
// free hook exactly once, when the last receiver releases it.
type Buffer struct {
	id     BufferID
	data   []byte
	onFree func(*Buffer)
}

// NewBuffer allocates an aligned buffer of size bytes.
// onFree may be nil; when set it is invoked when the buffer's last reference is released.
func NewBuffer(size int, onFree func(*Buffer)) *Buffer {
	return &Buffer{
		id:     uuid.New(),
		data:   alignedBytes(size),
		onFree: onFree,
	}
}

// alignedBytes returns a byte slice backed by uint64 words so that any
// supported element type can be projected over it.
func alignedBytes(size int) []byte {
	if size <= 0 {
		return nil
	}
	words := make([]uint64, (size+7)/8)
	return unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), size)
}

// ID returns the buffer identity.
func (b *Buffer) ID() BufferID {
	return b.id
}

// Bytes returns the underlying memory.
// Producers write through it before sending; consumers must not modify it.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Len returns the buffer length in bytes.
func (b *Buffer) Len() int {
	return len(b.data)
}

// free runs the free hook. Called by the owning sender on zero references.
func (b *Buffer) free() {
	if b.onFree != nil {
		b.onFree(b)
	}
}
