package alloc

import (
	"fmt"
	"io"
)

// Pool is a fixed-capacity bump allocator over a single byte region.
//
// Key characteristics:
//   - O(1) reservation: pure bump pointer, no free lists, no indexes
//   - Capacity is fixed at construction; the pool never grows
//   - Release follows stack discipline: only the region currently on top of
//     the pool can be given back, interior fragments are never reclaimed
//
// A Pool is not safe for concurrent use. Several trees may share one pool as
// long as a single goroutine drives them.
type Pool struct {
	used int
	data []byte

	// unmap releases a locked backing region, nil for heap-backed pools.
	unmap func() error
}

// NewPool creates a pool with a heap-backed region of capacity bytes.
func NewPool(capacity int) *Pool {
	if capacity < 0 {
		capacity = 0
	}
	return &Pool{data: make([]byte, capacity)}
}

// NewPoolFrom creates a pool over a caller-owned region. The pool takes
// exclusive use of data for its lifetime.
func NewPoolFrom(data []byte) *Pool {
	return &Pool{data: data[:len(data):len(data)]}
}

// Cap returns the fixed capacity in bytes.
func (p *Pool) Cap() int { return len(p.data) }

// Used returns the number of reserved bytes.
func (p *Pool) Used() int { return p.used }

// Remaining returns the free capacity in bytes.
func (p *Pool) Remaining() int64 {
	return int64(len(p.data)) - int64(p.used)
}

// Check returns the remaining capacity after hypothetically reserving n bytes.
// A negative result means the reservation would fail.
func (p *Pool) Check(n int) int64 {
	return int64(len(p.data)) - (int64(p.used) + int64(n))
}

// Reserve bumps the pool by n bytes and returns the remaining capacity and
// the region. The region has len == cap == n so appends can never spill into
// the next reservation.
//
// When n exceeds the free capacity nothing is mutated, the region is nil and
// the returned value is negative.
func (p *Pool) Reserve(n int) (int64, []byte) {
	if n < 0 {
		return -1, nil
	}
	rem := p.Check(n)
	if rem < 0 {
		return rem, nil
	}
	off := p.used
	p.used += n
	return rem, p.data[off:p.used:p.used]
}

// ReserveZeroed is Reserve with the region zero-filled. Released regions are
// already cleared, but a pool built over caller memory may not be.
func (p *Pool) ReserveZeroed(n int) (int64, []byte) {
	rem, region := p.Reserve(n)
	if rem >= 0 {
		clear(region)
	}
	return rem, region
}

// Release gives back the most recent reservation. The region must end exactly
// at the top of the pool; anything else returns ErrNotTop and mutates nothing.
// The released bytes are zero-filled.
func (p *Pool) Release(region []byte) error {
	n := len(region)
	if n == 0 {
		return nil
	}
	if n > p.used || &region[0] != &p.data[p.used-n] {
		return ErrNotTop
	}
	clear(region)
	p.used -= n
	return nil
}

// Reset discards every reservation and zero-fills the used bytes.
func (p *Pool) Reset() {
	clear(p.data[:p.used])
	p.used = 0
}

// Close releases a locked backing region. It is a no-op for heap-backed pools.
// The pool must not be used afterwards.
func (p *Pool) Close() error {
	if p.unmap == nil {
		return nil
	}
	err := p.unmap()
	p.unmap = nil
	p.data = nil
	p.used = 0
	return err
}

// Locked reports whether the backing region is pinned in physical memory.
func (p *Pool) Locked() bool { return p.unmap != nil }

// WriteStats prints used and remaining bytes to w.
func (p *Pool) WriteStats(w io.Writer) error {
	_, err := fmt.Fprintf(w, "pool used: %d bytes, remaining capacity: %d bytes\n", p.used, p.Remaining())
	return err
}
