package query

import (
	"fmt"

	"github.com/joshuapare/osckit/internal/buf"
	"github.com/joshuapare/osckit/pkg/types"
)

// NodeID indexes a node in its tree's node table.
type NodeID int32

// NoNode marks an absent link.
const NoNode NodeID = -1

// RootID is the ID of the "/" node.
const RootID NodeID = 0

// Callback observes (and, with FlagCallbackBeforeSet, may rewrite) a value
// being set on n. Any user context is captured by the closure.
type Callback func(n *Node, v *types.Value)

// Node is one addressable typed value in a Tree. Its type is fixed at add
// time. Nodes are never removed.
type Node struct {
	tree *Tree
	id   NodeID
	addr string

	value types.Value
	str   []byte // bounded string storage, cap fixed at add time
	slen  int

	flags Flags
	cb    Callback

	parent NodeID
	child  NodeID
	next   NodeID

	listeners int
}

// ID returns the node's index in its tree.
func (n *Node) ID() NodeID { return n.id }

// Address returns the full address.
func (n *Node) Address() string { return n.addr }

// Type returns the node's fixed value type.
func (n *Node) Type() types.Type { return n.value.Type }

// Tree returns the owning tree.
func (n *Node) Tree() *Tree { return n.tree }

// Flags returns the node flags.
func (n *Node) Flags() Flags { return n.flags }

// SetFlags replaces the node flags after validating them.
func (n *Node) SetFlags(f Flags) error {
	if err := f.Validate(); err != nil {
		return fmt.Errorf("%s: %w", n.addr, err)
	}
	n.flags = f
	return nil
}

// SetCallback installs cb, replacing any previous callback. A nil cb removes it.
func (n *Node) SetCallback(cb Callback) { n.cb = cb }

// Access derives the OSCQuery access mode from the flags. Containers have no
// value and report AccessNone.
func (n *Node) Access() Access {
	switch {
	case n.IsContainer():
		return AccessNone
	case n.flags&FlagReadOnly != 0:
		return AccessRead
	case n.flags&FlagWriteOnly != 0:
		return AccessWrite
	default:
		return AccessReadWrite
	}
}

// IsContainer reports whether n only groups children.
func (n *Node) IsContainer() bool { return n.value.Type == types.TypeNil }

func (n *Node) Critical() bool  { return n.flags&FlagCritical != 0 }
func (n *Node) NoRepeat() bool  { return n.flags&FlagNoRepeat != 0 }
func (n *Node) ReadOnly() bool  { return n.flags&FlagReadOnly != 0 }
func (n *Node) WriteOnly() bool { return n.flags&FlagWriteOnly != 0 }

// Cap returns the string capacity of a string node, 0 otherwise.
func (n *Node) Cap() int { return cap(n.str) }

// Listen registers one more listener and returns the new count.
func (n *Node) Listen() int {
	n.listeners++
	return n.listeners
}

// Ignore drops one listener and returns the new count. It never goes below zero.
func (n *Node) Ignore() int {
	if n.listeners > 0 {
		n.listeners--
	}
	return n.listeners
}

// Listening reports whether any listener is registered.
func (n *Node) Listening() bool { return n.listeners > 0 }

// -----------------------------------------------------------------------------
// Structure
// -----------------------------------------------------------------------------

func (n *Node) link(id NodeID) *Node {
	if id == NoNode {
		return nil
	}
	return n.tree.nodes[id]
}

// Parent returns the structural parent, or nil for the root. The parent is the
// nearest existing ancestor, which may be several segments up.
func (n *Node) Parent() *Node { return n.link(n.parent) }

// FirstChild returns the head of the child chain, or nil.
func (n *Node) FirstChild() *Node { return n.link(n.child) }

// NextSibling returns the next node in the parent's child chain, or nil.
func (n *Node) NextSibling() *Node { return n.link(n.next) }

// Children returns the direct structural children in insertion order.
func (n *Node) Children() []*Node {
	var out []*Node
	for c := n.child; c != NoNode; c = n.tree.nodes[c].next {
		out = append(out, n.tree.nodes[c])
	}
	return out
}

// IsChildOf reports whether o is n's structural parent.
func (n *Node) IsChildOf(o *Node) bool {
	return o != nil && n.tree == o.tree && n.parent == o.id
}

// IsSiblingOf reports whether n and o are distinct nodes sharing a parent.
func (n *Node) IsSiblingOf(o *Node) bool {
	return o != nil && n != o && n.tree == o.tree && n.parent != NoNode && n.parent == o.parent
}

// -----------------------------------------------------------------------------
// Getters
// -----------------------------------------------------------------------------

func (n *Node) mismatch(want types.Type) error {
	return fmt.Errorf("%w: %s is %s, not %s", types.ErrTypeMismatch, n.addr, n.value.Type, want)
}

// Value returns a copy of the current value.
func (n *Node) Value() types.Value {
	if n.value.Type == types.TypeString {
		return types.String(string(n.str[:n.slen]))
	}
	return n.value
}

func (n *Node) Int() (int32, error) {
	if n.value.Type != types.TypeInt {
		return 0, n.mismatch(types.TypeInt)
	}
	return n.value.I, nil
}

func (n *Node) Float() (float32, error) {
	if n.value.Type != types.TypeFloat {
		return 0, n.mismatch(types.TypeFloat)
	}
	return n.value.F, nil
}

func (n *Node) Char() (byte, error) {
	if n.value.Type != types.TypeChar {
		return 0, n.mismatch(types.TypeChar)
	}
	return n.value.C, nil
}

func (n *Node) Bool() (bool, error) {
	if n.value.Type != types.TypeBool {
		return false, n.mismatch(types.TypeBool)
	}
	return n.value.B, nil
}

// Text returns the value of a string node.
func (n *Node) Text() (string, error) {
	if n.value.Type != types.TypeString {
		return "", n.mismatch(types.TypeString)
	}
	return string(n.str[:n.slen]), nil
}

// Vec returns the components of a vector node.
func (n *Node) Vec() ([]float32, error) {
	if n.value.Type.Arity() == 0 {
		return nil, n.mismatch(types.TypeVec2)
	}
	out := make([]float32, n.value.Type.Arity())
	copy(out, n.value.V[:])
	return out, nil
}

// -----------------------------------------------------------------------------
// Setters
// -----------------------------------------------------------------------------

func (n *Node) callback() Callback {
	if n.flags&FlagCallbackNone != 0 {
		return nil
	}
	return n.cb
}

// Set assigns v. The type must match the node's; otherwise ErrTypeMismatch is
// returned and nothing changes. NoRepeat nodes ignore an equal value without
// calling back. With FlagCallbackBeforeSet the callback sees v before commit
// and may rewrite it; otherwise the callback follows the commit. String values
// always call back after the commit. The tree callback follows every commit.
func (n *Node) Set(v types.Value) error {
	if v.Type != n.value.Type {
		return n.mismatch(v.Type)
	}
	if v.Type == types.TypeString {
		return n.setString(v.S)
	}
	for i := v.Type.Arity(); i < len(v.V); i++ {
		v.V[i] = 0
	}
	if n.NoRepeat() && n.value.Equal(v) {
		return nil
	}

	cb := n.callback()
	before := n.flags&FlagCallbackBeforeSet != 0
	if cb != nil && before {
		cb(n, &v)
		if v.Type != n.value.Type {
			return fmt.Errorf("%w: callback on %s changed the value to %s", types.ErrTypeMismatch, n.addr, v.Type)
		}
	}
	n.value = v
	if cb != nil && !before {
		cb(n, &v)
	}
	n.tree.notify(n)
	return nil
}

func (n *Node) setString(s string) error {
	if len(s) > cap(n.str) {
		return fmt.Errorf("%w: %s holds %d bytes, got %d", types.ErrStringBufferOverflow, n.addr, cap(n.str), len(s))
	}
	if n.NoRepeat() && string(n.str[:n.slen]) == s {
		return nil
	}
	copy(n.str[:len(s)], s)
	if n.slen > len(s) {
		buf.Zero(n.str[len(s):n.slen])
	}
	n.slen = len(s)

	if cb := n.callback(); cb != nil {
		v := types.String(s)
		cb(n, &v)
	}
	n.tree.notify(n)
	return nil
}

func (n *Node) SetInt(v int32) error     { return n.Set(types.Int(v)) }
func (n *Node) SetFloat(v float32) error { return n.Set(types.Float(v)) }
func (n *Node) SetChar(v byte) error     { return n.Set(types.Char(v)) }
func (n *Node) SetBool(v bool) error     { return n.Set(types.Bool(v)) }
func (n *Node) SetString(v string) error { return n.Set(types.String(v)) }

// SetVec assigns the components of a vector node. len(v) must equal the
// node's arity.
func (n *Node) SetVec(v ...float32) error {
	if n.value.Type.Arity() == 0 || len(v) != n.value.Type.Arity() {
		return fmt.Errorf("%w: %s is %s, got %d components", types.ErrTypeMismatch, n.addr, n.value.Type, len(v))
	}
	val := types.Zero(n.value.Type)
	copy(val.V[:], v)
	return n.Set(val)
}

// Pulse fires an impulse node. Pulses are never suppressed by NoRepeat.
func (n *Node) Pulse() error { return n.Set(types.Impulse()) }

// init stores the initial value without callbacks.
func (n *Node) init(v types.Value) error {
	if v.Type != n.value.Type {
		return n.mismatch(v.Type)
	}
	if v.Type == types.TypeString {
		if len(v.S) > cap(n.str) {
			return fmt.Errorf("%w: %s holds %d bytes, got %d", types.ErrStringBufferOverflow, n.addr, cap(n.str), len(v.S))
		}
		n.slen = copy(n.str[:len(v.S)], v.S)
		return nil
	}
	n.value = v
	return nil
}

func (n *Node) String() string {
	return fmt.Sprintf("%s (%s) = %s", n.addr, n.value.Type, n.Value())
}
