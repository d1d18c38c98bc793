package query

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/joshuapare/osckit/osc/alloc"
	"github.com/joshuapare/osckit/osc/uri"
	"github.com/joshuapare/osckit/pkg/types"
)

const (
	// nodeFootprint is the fixed arena charge per node, on top of its address
	// bytes. It approximates the node header so that arena sizing stays
	// meaningful when nodes themselves live on the Go heap.
	nodeFootprint = 64

	// DefaultStringCap is the capacity given to string nodes added through Add.
	DefaultStringCap = 64

	// initialTableCapacity pre-sizes the node table.
	initialTableCapacity = 32
)

// Option configures a Tree.
type Option func(*Tree)

// WithFlags sets tree-wide flags.
func WithFlags(f TreeFlags) Option {
	return func(t *Tree) { t.flags = f }
}

// WithCallback installs a callback fired after every committed set on any node.
func WithCallback(cb func(*Node)) Option {
	return func(t *Tree) { t.cb = cb }
}

// WithStringDecoder sets the function that turns inbound string payloads into
// node strings, e.g. to transcode a legacy charset. The default copies bytes
// unchanged.
func WithStringDecoder(dec func([]byte) (string, error)) Option {
	return func(t *Tree) { t.decode = dec }
}

// Tree is the address registry. Nodes live in a table and link to each other
// by NodeID. Every node and its address are charged to the tree's allocator.
//
// A Tree is not safe for concurrent use.
type Tree struct {
	nodes  []*Node
	alloc  alloc.Allocator
	flags  TreeFlags
	cb     func(*Node)
	decode func([]byte) (string, error)
}

// New creates a tree holding only the root "/" container.
func New(a alloc.Allocator, opts ...Option) (*Tree, error) {
	if a == nil {
		return nil, errors.New("query: nil allocator")
	}
	t := &Tree{
		nodes: make([]*Node, 0, initialTableCapacity),
		alloc: a,
	}
	for _, opt := range opts {
		opt(t)
	}
	if _, err := t.insert("/", types.TypeNil, 0, NoNode); err != nil {
		return nil, err
	}
	return t, nil
}

// Root returns the "/" node.
func (t *Tree) Root() *Node { return t.nodes[RootID] }

// Node returns the node with id, or nil.
func (t *Tree) Node(id NodeID) *Node {
	if id < 0 || int(id) >= len(t.nodes) {
		return nil
	}
	return t.nodes[id]
}

// Len returns the number of nodes, root included.
func (t *Tree) Len() int { return len(t.nodes) }

// Flags returns the tree flags.
func (t *Tree) Flags() TreeFlags { return t.flags }

// Allocator returns the allocator nodes are charged to.
func (t *Tree) Allocator() alloc.Allocator { return t.alloc }

// SetCallback replaces the tree-wide callback. Callers that want to keep an
// existing callback chain it through Callback.
func (t *Tree) SetCallback(cb func(*Node)) { t.cb = cb }

// Callback returns the tree-wide callback, or nil.
func (t *Tree) Callback() func(*Node) { return t.cb }

func (t *Tree) notify(n *Node) {
	if t.cb != nil {
		t.cb(n)
	}
}

// descend walks from the root towards addr. At each level it looks for a
// child whose address, past the offset already matched, is a whole-segment
// prefix of the rest of addr. It returns the deepest such node and whether
// its address equals addr.
func (t *Tree) descend(addr string) (NodeID, bool) {
	if addr == "/" {
		return RootID, true
	}
	cur, off := RootID, 0
	for {
		next := NoNode
		for c := t.nodes[cur].child; c != NoNode; c = t.nodes[c].next {
			ca := t.nodes[c].addr
			if len(ca) > len(addr) {
				continue
			}
			if uri.CommonRun(addr[off:], ca[off:]) == len(ca)-off {
				if len(ca) == len(addr) {
					return c, true
				}
				next = c
				break
			}
		}
		if next == NoNode {
			return cur, false
		}
		cur, off = next, len(t.nodes[next].addr)
	}
}

// Get returns the node at addr.
func (t *Tree) Get(addr string) (*Node, error) {
	if err := uri.Check(addr); err != nil {
		return nil, err
	}
	id, exact := t.descend(addr)
	if !exact {
		return nil, fmt.Errorf("%w: %s", types.ErrNotFound, addr)
	}
	return t.nodes[id], nil
}

// Add creates a node of type typ at addr. Intermediate segments that have no
// node are skipped unless the tree has CreateIntermediate. String nodes get
// DefaultStringCap bytes.
func (t *Tree) Add(addr string, typ types.Type) (*Node, error) {
	strCap := 0
	if typ == types.TypeString {
		strCap = DefaultStringCap
	}
	return t.add(addr, typ, strCap)
}

func (t *Tree) add(addr string, typ types.Type, strCap int) (*Node, error) {
	if err := uri.Check(addr); err != nil {
		return nil, err
	}
	if typ == types.TypeInvalid || typ > types.TypeVec4 {
		return nil, fmt.Errorf("%w: %s: cannot add node of type %s", types.ErrTypeMismatch, addr, typ)
	}

	parent, exact := t.descend(addr)
	if exact {
		return nil, fmt.Errorf("%w: %s", types.ErrNodeExists, addr)
	}
	if t.flags&CreateIntermediate != 0 {
		if p := uri.Parent(addr); p != t.nodes[parent].addr {
			pn, err := t.add(p, types.TypeNil, 0)
			if err != nil {
				return nil, err
			}
			parent = pn.id
		}
	}

	id, err := t.insert(addr, typ, strCap, parent)
	if err != nil {
		return nil, err
	}
	return t.nodes[id], nil
}

// insert charges the allocator, creates the node and links it under parent.
func (t *Tree) insert(addr string, typ types.Type, strCap int, parent NodeID) (NodeID, error) {
	region, err := alloc.Reserve(t.alloc, nodeFootprint+len(addr))
	if err != nil {
		return NoNode, fmt.Errorf("%w: node %s: %w", types.ErrNoSpace, addr, err)
	}
	var str []byte
	if strCap > 0 {
		str, err = alloc.Reserve(t.alloc, strCap)
		if err != nil {
			_ = t.alloc.Release(region)
			return NoNode, fmt.Errorf("%w: string buffer for %s: %w", types.ErrNoSpace, addr, err)
		}
	}

	// the address lives in the node's arena region and is never rewritten
	a := region[nodeFootprint:]
	copy(a, addr)

	n := &Node{
		tree:   t,
		id:     NodeID(len(t.nodes)),
		addr:   unsafe.String(&a[0], len(a)),
		value:  types.Zero(typ),
		str:    str,
		parent: parent,
		child:  NoNode,
		next:   NoNode,
	}
	t.nodes = append(t.nodes, n)
	if parent != NoNode {
		t.adopt(n, parent)
	}
	return n.id, nil
}

// adopt links n as the last child of parent. Existing children of parent
// that n is an ancestor of move under n, so every node's parent stays its
// nearest existing ancestor regardless of insertion order.
func (t *Tree) adopt(n *Node, parent NodeID) {
	p := t.nodes[parent]

	prev := NoNode
	for c := p.child; c != NoNode; {
		cn := t.nodes[c]
		next := cn.next
		if uri.IsAncestor(n.addr, cn.addr) {
			if prev == NoNode {
				p.child = next
			} else {
				t.nodes[prev].next = next
			}
			cn.next = NoNode
			cn.parent = n.id
			t.appendChild(n, c)
		} else {
			prev = c
		}
		c = next
	}
	t.appendChild(p, n.id)
}

func (t *Tree) appendChild(p *Node, id NodeID) {
	if p.child == NoNode {
		p.child = id
		return
	}
	c := p.child
	for t.nodes[c].next != NoNode {
		c = t.nodes[c].next
	}
	t.nodes[c].next = id
}

func (t *Tree) addWith(addr string, v types.Value) (*Node, error) {
	n, err := t.add(addr, v.Type, 0)
	if err != nil {
		return nil, err
	}
	n.value = v
	return n, nil
}

func (t *Tree) AddInt(addr string, v int32) (*Node, error)     { return t.addWith(addr, types.Int(v)) }
func (t *Tree) AddFloat(addr string, v float32) (*Node, error) { return t.addWith(addr, types.Float(v)) }
func (t *Tree) AddChar(addr string, v byte) (*Node, error)     { return t.addWith(addr, types.Char(v)) }
func (t *Tree) AddBool(addr string, v bool) (*Node, error)     { return t.addWith(addr, types.Bool(v)) }
func (t *Tree) AddImpulse(addr string) (*Node, error)          { return t.add(addr, types.TypeImpulse, 0) }

// AddContainer adds a valueless node that only groups children.
func (t *Tree) AddContainer(addr string) (*Node, error) { return t.add(addr, types.TypeNil, 0) }

func (t *Tree) AddVec2(addr string, x, y float32) (*Node, error) {
	return t.addWith(addr, types.Vec2(x, y))
}

func (t *Tree) AddVec3(addr string, x, y, z float32) (*Node, error) {
	return t.addWith(addr, types.Vec3(x, y, z))
}

func (t *Tree) AddVec4(addr string, x, y, z, w float32) (*Node, error) {
	return t.addWith(addr, types.Vec4(x, y, z, w))
}

// AddString adds a string node whose value can hold up to capacity bytes.
// The buffer is reserved from the tree's allocator.
func (t *Tree) AddString(addr string, capacity int) (*Node, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: %s: string capacity must be positive", types.ErrStringBufferOverflow, addr)
	}
	return t.add(addr, types.TypeString, capacity)
}

// AddValue adds a node typed after v and stores v as its initial value.
// strCap applies to string values; zero means DefaultStringCap (or the
// length of v, whichever is larger).
func (t *Tree) AddValue(addr string, v types.Value, strCap int) (*Node, error) {
	if v.Type == types.TypeString && strCap == 0 {
		strCap = max(DefaultStringCap, len(v.S))
	}
	if v.Type != types.TypeString {
		strCap = 0
	} else if len(v.S) > strCap {
		return nil, fmt.Errorf("%w: %s holds %d bytes, got %d", types.ErrStringBufferOverflow, addr, strCap, len(v.S))
	}
	n, err := t.add(addr, v.Type, strCap)
	if err != nil {
		return nil, err
	}
	if err := n.init(v); err != nil {
		return nil, err
	}
	return n, nil
}

// Walk visits every node depth-first in pre-order, root first. A non-nil
// error from fn stops the walk and is returned.
func (t *Tree) Walk(fn func(*Node) error) error {
	stack := make([]NodeID, 0, initialTableCapacity)
	stack = append(stack, RootID)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := t.nodes[id]
		if err := fn(n); err != nil {
			return err
		}
		// push children reversed so the first child is visited first
		mark := len(stack)
		for c := n.child; c != NoNode; c = t.nodes[c].next {
			stack = append(stack, c)
		}
		for i, j := mark, len(stack)-1; i < j; i, j = i+1, j-1 {
			stack[i], stack[j] = stack[j], stack[i]
		}
	}
	return nil
}
