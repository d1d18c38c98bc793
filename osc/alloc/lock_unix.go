//go:build linux || darwin || freebsd

package alloc

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// NewLockedPool creates a pool whose backing region is an anonymous mapping
// pinned with mlock, so reservations never page-fault on a real-time path.
// The caller must Close the pool to unlock and unmap it.
func NewLockedPool(capacity int) (*Pool, error) {
	if capacity <= 0 {
		return NewPool(0), nil
	}

	data, err := unix.Mmap(-1, 0, capacity,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("%w: mmap %d bytes: %w", ErrLockFail, capacity, err)
	}

	if err := unix.Mlock(data); err != nil {
		_ = unix.Munmap(data)
		return nil, fmt.Errorf("%w: mlock %d bytes: %w", ErrLockFail, capacity, err)
	}

	p := NewPoolFrom(data)
	p.unmap = func() error {
		if err := unix.Munlock(data); err != nil {
			_ = unix.Munmap(data)
			return err
		}
		return unix.Munmap(data)
	}
	return p, nil
}
