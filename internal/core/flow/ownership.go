// If you are AI: This file implements the sender-side ownership ledger for multicast buffers.
// Each entry counts receivers that were handed a buffer and have not released it yet.

package flow

import (
	"sync/atomic"
)

// ownership tracks outstanding references to one buffer.
// The count starts at zero and is raised once per successful delivery.
type ownership struct {
	buf  *Buffer
	refs atomic.Int32
}

// retain increments the reference count.
func (o *ownership) retain() {
	o.refs.Add(1)
}

// release decrements the reference count and reports whether it reached zero.
// The count is never taken below zero.
func (o *ownership) release() bool {
	for {
		n := o.refs.Load()
		if n <= 0 {
			return false
		}
		if o.refs.CompareAndSwap(n, n-1) {
			return n == 1
		}
	}
}

// ledger maps buffer ids to their ownership entries.
// Lock expectations: Guarded by the owning sender's mutex.
type ledger map[BufferID]*ownership

// retain registers buf on first use and increments its count.
func (l ledger) retain(buf *Buffer) {
	o, ok := l[buf.id]
	if !ok {
		o = &ownership{buf: buf}
		l[buf.id] = o
	}
	o.retain()
}

// release decrements the count for buf.
// Returns the tracked buffer when its count reached zero and the entry was
// removed, nil otherwise. Untracked buffers are ignored.
func (l ledger) release(buf *Buffer) *Buffer {
	o, ok := l[buf.id]
	if !ok {
		return nil
	}
	if !o.release() {
		return nil
	}
	delete(l, buf.id)
	return o.buf
}

// count returns the outstanding count for buf and whether it is tracked.
func (l ledger) count(buf *Buffer) (int, bool) {
	o, ok := l[buf.id]
	if !ok {
		return 0, false
	}
	return int(o.refs.Load()), true
}
