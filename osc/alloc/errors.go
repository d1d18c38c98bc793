package alloc

import "errors"

var (
	// ErrNoSpace indicates a reservation would exceed the pool's capacity.
	ErrNoSpace = errors.New("alloc: capacity exceeded")

	// ErrNotTop indicates a release of a region that is not the most recent
	// reservation still on top of the pool.
	ErrNotTop = errors.New("alloc: region is not on top of the pool")

	// ErrNegativeSize indicates a negative byte count.
	ErrNegativeSize = errors.New("alloc: negative size")

	// ErrLockFail indicates the backing region could not be mapped or locked.
	ErrLockFail = errors.New("alloc: lock failed")
)
