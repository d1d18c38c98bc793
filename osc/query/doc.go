// Package query implements the OSCQuery-style parameter tree: a registry of
// typed values addressed by OSC paths.
//
// # Structure
//
// Nodes are stored in a table and link to each other by NodeID (parent,
// first child, next sibling). Intermediate path segments are not required
// to exist: "/foo/bar/int" may hang directly off the root. Lookups compare
// whole-segment runs past the offset already matched, so a node's structural
// parent is always its nearest existing ancestor. Adding "/foo" after
// "/foo/bar/int" re-links the latter under the new node.
//
//	t, _ := query.New(alloc.NewPool(4096))
//	t.AddInt("/foo/bar/int", 0)
//	t.AddFloat("/foo/bar/float", 0)
//	n, _ := t.Get("/foo/bar/int")
//	n.Parent() // root
//
// # Values
//
// A node's type is fixed when it is added. Set rejects other types with
// types.ErrTypeMismatch. String nodes own a bounded buffer reserved from the
// tree's allocator; longer strings fail with types.ErrStringBufferOverflow.
//
// # Callbacks
//
// A node callback runs after the value is committed, or before it with
// FlagCallbackBeforeSet, in which case it may clamp the value. String sets
// always call back after commit. FlagNoRepeat drops sets of an equal value
// entirely. A tree callback (WithCallback) observes every committed set.
//
// # Memory
//
// Every node charges a fixed footprint plus its address length to the
// allocator given to New. Exhaustion is reported as types.ErrNoSpace and
// leaves the tree unchanged.
//
// A Tree is not safe for concurrent use; the server package confines all
// access to one goroutine.
package query
