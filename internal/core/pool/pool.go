// If you are AI: This file implements the buffer pool that backs producer blocks.
// Buffers return to the pool through their free hook once every receiver released them.

package pool

import (
	"sync"
	"sync/atomic"

	"dataflow/internal/core/flow"
)

// DefaultMaxIdle bounds the number of idle buffers kept per size class.
const DefaultMaxIdle = 16

// Pool hands out aligned buffers by format and takes them back when they are freed.
// Buffers keep their identity across reuse, so the same memory region is
// always tracked under the same BufferID.
// Lock expectations: mu guards the idle lists; counters are atomic.
type Pool struct {
	mu      sync.Mutex
	idle    map[int][]*flow.Buffer // Keyed by byte length
	maxIdle int

	allocated atomic.Uint64
	reused    atomic.Uint64
	returned  atomic.Uint64
	inUse     atomic.Int64
}

// Stats is a snapshot of pool counters.
type Stats struct {
	Allocated uint64 `json:"allocated"` // Buffers created
	Reused    uint64 `json:"reused"`    // Acquires served from the idle list
	Returned  uint64 `json:"returned"`  // Buffers given back
	InUse     int64  `json:"in_use"`    // Buffers currently out of the pool
	Idle      int    `json:"idle"`      // Buffers waiting for reuse
}

// New creates a pool keeping at most maxIdle idle buffers per size.
// maxIdle below 1 selects DefaultMaxIdle.
func New(maxIdle int) *Pool {
	if maxIdle < 1 {
		maxIdle = DefaultMaxIdle
	}
	return &Pool{
		idle:    make(map[int][]*flow.Buffer),
		maxIdle: maxIdle,
	}
}

// Acquire returns a buffer large enough for format.
// The caller must either send it (the sender frees it back) or Put it.
func (p *Pool) Acquire(format flow.Format) *flow.Buffer {
	size := format.ByteLen()
	p.inUse.Add(1)

	p.mu.Lock()
	list := p.idle[size]
	if n := len(list); n > 0 {
		buf := list[n-1]
		list[n-1] = nil
		p.idle[size] = list[:n-1]
		p.mu.Unlock()
		p.reused.Add(1)
		return buf
	}
	p.mu.Unlock()

	p.allocated.Add(1)
	return flow.NewBuffer(size, p.Put)
}

// Put returns buf to the pool. It is the free hook of every pooled buffer
// and may also be called by a producer for a buffer nobody accepted.
// Buffers beyond the idle bound are dropped for the GC.
func (p *Pool) Put(buf *flow.Buffer) {
	if buf == nil {
		return
	}
	p.inUse.Add(-1)
	p.returned.Add(1)

	p.mu.Lock()
	defer p.mu.Unlock()
	size := buf.Len()
	if len(p.idle[size]) < p.maxIdle {
		p.idle[size] = append(p.idle[size], buf)
	}
}

// Stats returns a snapshot of pool counters.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	idle := 0
	for _, list := range p.idle {
		idle += len(list)
	}
	p.mu.Unlock()

	return Stats{
		Allocated: p.allocated.Load(),
		Reused:    p.reused.Load(),
		Returned:  p.returned.Load(),
		InUse:     p.inUse.Load(),
		Idle:      idle,
	}
}
