package alloc

// Heap is an Allocator backed by the Go heap. It keeps the same signed
// remaining-capacity accounting as Pool so callers stay allocator-agnostic.
// A zero limit means unbounded.
type Heap struct {
	limit int64
	used  int64
}

// unboundedRemaining is reported by Remaining for heaps without a limit.
const unboundedRemaining = int64(1) << 62

// NewHeap creates a heap allocator. limit caps the total bytes outstanding;
// zero disables the cap.
func NewHeap(limit int) *Heap {
	if limit < 0 {
		limit = 0
	}
	return &Heap{limit: int64(limit)}
}

// Used returns the number of bytes currently accounted as reserved.
func (h *Heap) Used() int64 { return h.used }

// Remaining returns the free capacity in bytes.
func (h *Heap) Remaining() int64 {
	if h.limit == 0 {
		return unboundedRemaining
	}
	return h.limit - h.used
}

// Check returns the remaining capacity after hypothetically reserving n bytes.
func (h *Heap) Check(n int) int64 {
	if h.limit == 0 {
		return unboundedRemaining
	}
	return h.limit - (h.used + int64(n))
}

// Reserve allocates n bytes from the Go heap.
func (h *Heap) Reserve(n int) (int64, []byte) {
	if n < 0 {
		return -1, nil
	}
	rem := h.Check(n)
	if rem < 0 {
		return rem, nil
	}
	h.used += int64(n)
	return rem, make([]byte, n)
}

// ReserveZeroed is Reserve; heap memory is always zeroed.
func (h *Heap) ReserveZeroed(n int) (int64, []byte) {
	return h.Reserve(n)
}

// Release returns the region's size to the accounting. The memory itself is
// reclaimed by the garbage collector, so any region may be released.
func (h *Heap) Release(region []byte) error {
	n := int64(len(region))
	if n > h.used {
		n = h.used
	}
	clear(region)
	h.used -= n
	return nil
}
