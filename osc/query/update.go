package query

import (
	"fmt"

	"github.com/joshuapare/osckit/osc/message"
	"github.com/joshuapare/osckit/pkg/types"
)

// UpdateFromMessage reads the next value for the node at addr from m and
// sets it. It fails with ErrAddressInvalid when no node exists and with
// ErrAccessDenied for read-only nodes. Vector nodes consume one float per
// component. An impulse node also fires on a message with no arguments left.
func (t *Tree) UpdateFromMessage(addr string, m *message.Message) error {
	id, exact := t.descend(addr)
	if !exact {
		return fmt.Errorf("%w: no node at %s", types.ErrAddressInvalid, addr)
	}
	n := t.nodes[id]
	if n.ReadOnly() {
		return fmt.Errorf("%w: %s is read-only", types.ErrAccessDenied, addr)
	}
	v, err := t.readValue(n, m)
	if err != nil {
		return fmt.Errorf("update %s: %w", addr, err)
	}
	return n.Set(v)
}

// Dispatch routes m to the node named by its own address.
func (t *Tree) Dispatch(m *message.Message) error {
	return t.UpdateFromMessage(m.Address(), m)
}

func (t *Tree) readValue(n *Node, m *message.Message) (types.Value, error) {
	switch typ := n.Type(); typ {
	case types.TypeInt:
		v, err := m.ReadInt32()
		return types.Int(v), err
	case types.TypeFloat:
		v, err := m.ReadFloat32()
		return types.Float(v), err
	case types.TypeChar:
		v, err := m.ReadChar()
		return types.Char(v), err
	case types.TypeBool:
		v, err := m.ReadBool()
		return types.Bool(v), err
	case types.TypeString:
		b, err := m.ReadBytes()
		if err != nil {
			return types.Value{}, err
		}
		if t.decode == nil {
			return types.String(string(b)), nil
		}
		s, err := t.decode(b)
		if err != nil {
			return types.Value{}, fmt.Errorf("decode string: %w", err)
		}
		return types.String(s), nil
	case types.TypeImpulse:
		if m.Remaining() == 0 {
			return types.Impulse(), nil
		}
		return types.Impulse(), m.ReadImpulse()
	case types.TypeNil:
		return types.Nil(), m.ReadNil()
	case types.TypeVec2, types.TypeVec3, types.TypeVec4:
		return m.ReadVec(typ.Arity())
	default:
		return types.Value{}, fmt.Errorf("%w: node type %s", types.ErrTypeMismatch, typ)
	}
}
