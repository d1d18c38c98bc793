// Package alloc provides the bounded memory pools that back the osckit codec
// and registry.
//
// # Overview
//
// Real-time control code cannot afford unpredictable allocation. Every
// message buffer, node footprint and bounded string buffer is therefore
// obtained through the Allocator interface, whose primitives are:
//
//   - Check(n): remaining capacity after a hypothetical reservation
//   - Reserve(n) / ReserveZeroed(n): bump-allocate n bytes
//   - Release(region): give back a region
//   - Remaining(): free capacity
//
// Exhaustion is reported as a negative remaining capacity and never mutates
// the allocator. It is fatal for the owning subsystem (no more nodes or
// messages), never for the process.
//
// # Implementations
//
// Pool: fixed-capacity arena
//
//   - Bump pointer over one byte region, capacity fixed at construction
//   - Release is stack discipline only: the most recent region still on top
//     of the pool may be given back; anything else returns ErrNotTop
//   - NewLockedPool maps and mlocks the region (unix only)
//
// Heap: Go heap with optional byte limit
//
//   - Same accounting, any region may be released
//   - Useful for tests and hosts without hard memory bounds
//
// # Usage Example
//
//	pool := alloc.NewPool(4096)
//	rem, region := pool.Reserve(64)
//	if rem < 0 {
//	    return alloc.ErrNoSpace
//	}
//	// ... use region ...
//	_ = pool.Release(region) // only valid while region is on top
//
// # Thread Safety
//
// Neither implementation is safe for concurrent use. Trees and messages that
// share an allocator must be driven from one goroutine; the server package
// confines all allocation to its event loop.
package alloc
