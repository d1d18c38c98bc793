//go:build !linux && !darwin && !freebsd

package alloc

// NewLockedPool falls back to a heap-backed pool on platforms without mlock.
// Locked reports false for the result.
func NewLockedPool(capacity int) (*Pool, error) {
	return NewPool(capacity), nil
}
