package alloc

// Allocator is the only way the codec and registry obtain memory.
//
// Remaining-capacity values are signed: a negative result means the request
// could not be satisfied and nothing was mutated.
type Allocator interface {
	// Check returns the remaining capacity after hypothetically reserving n
	// bytes. It never mutates.
	Check(n int) int64

	// Reserve takes n bytes. On failure the region is nil and the returned
	// remaining capacity is negative.
	Reserve(n int) (int64, []byte)

	// ReserveZeroed is Reserve with the region zero-filled.
	ReserveZeroed(n int) (int64, []byte)

	// Release gives back a region obtained from this allocator.
	Release(region []byte) error

	// Remaining returns the free capacity in bytes.
	Remaining() int64
}

// Reserve is a convenience wrapper that turns a negative remaining capacity
// into ErrNoSpace.
func Reserve(a Allocator, n int) ([]byte, error) {
	if n < 0 {
		return nil, ErrNegativeSize
	}
	rem, region := a.ReserveZeroed(n)
	if rem < 0 {
		return nil, ErrNoSpace
	}
	return region, nil
}

// Compile-time interface checks
var (
	_ Allocator = (*Pool)(nil)
	_ Allocator = (*Heap)(nil)
)
