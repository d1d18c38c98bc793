package message

import (
	"fmt"

	"github.com/joshuapare/osckit/internal/buf"
	"github.com/joshuapare/osckit/internal/format"
	"github.com/joshuapare/osckit/pkg/types"
)

// checkRead validates that the next argument has tag want (either boolean
// letter satisfies a boolean read) and that size payload bytes are present.
// It returns the actual tag letter.
func (m *Message) checkRead(want byte, size int) (byte, error) {
	if m.mode != ModeRead {
		return 0, types.ErrWriteOnly
	}
	if m.idx >= m.ntag {
		return 0, types.ErrTagEnd
	}
	next := m.nextTag()
	if next != want && !(isBoolTag(want) && isBoolTag(next)) {
		return 0, fmt.Errorf("%w: read %q, tag has %q at argument %d", types.ErrTagMismatch, want, next, m.idx)
	}
	if m.cur+size > m.used {
		return 0, fmt.Errorf("%w: argument %d truncated", types.ErrBufferOverflow, m.idx)
	}
	return next, nil
}

func (m *Message) skip(size int) {
	m.cur += size
	m.idx++
}

// ReadInt32 reads an 'i' argument.
func (m *Message) ReadInt32() (int32, error) {
	if _, err := m.checkRead(format.TagInt, format.NumericSize); err != nil {
		return 0, err
	}
	v := buf.I32BE(m.buf[m.cur:])
	m.skip(format.NumericSize)
	return v, nil
}

// ReadFloat32 reads an 'f' argument.
func (m *Message) ReadFloat32() (float32, error) {
	if _, err := m.checkRead(format.TagFloat, format.NumericSize); err != nil {
		return 0, err
	}
	v := buf.F32BE(m.buf[m.cur:])
	m.skip(format.NumericSize)
	return v, nil
}

// ReadChar reads a 'c' argument from its 4-byte slot.
func (m *Message) ReadChar() (byte, error) {
	if _, err := m.checkRead(format.TagChar, format.NumericSize); err != nil {
		return 0, err
	}
	v := byte(buf.U32BE(m.buf[m.cur:]))
	m.skip(format.NumericSize)
	return v, nil
}

// ReadBool reads a 'T' or 'F' argument.
func (m *Message) ReadBool() (bool, error) {
	tag, err := m.checkRead(format.TagTrue, 0)
	if err != nil {
		return false, err
	}
	m.skip(0)
	return tag == format.TagTrue, nil
}

// ReadNil consumes an 'N' argument.
func (m *Message) ReadNil() error {
	if _, err := m.checkRead(format.TagNil, 0); err != nil {
		return err
	}
	m.skip(0)
	return nil
}

// ReadImpulse consumes an 'I' argument.
func (m *Message) ReadImpulse() error {
	if _, err := m.checkRead(format.TagImpulse, 0); err != nil {
		return err
	}
	m.skip(0)
	return nil
}

// ReadBytes reads an 's' argument without copying. The slice aliases the
// message buffer and must not be retained past the buffer's lifetime.
func (m *Message) ReadBytes() ([]byte, error) {
	if _, err := m.checkRead(format.TagString, 0); err != nil {
		return nil, err
	}
	nul := buf.IndexNUL(m.buf[:m.used], m.cur)
	if nul < 0 {
		return nil, fmt.Errorf("%w: unterminated string argument %d", types.ErrBufferOverflow, m.idx)
	}
	n := nul - m.cur
	size := format.Padded(n)
	if m.cur+size > m.used {
		return nil, fmt.Errorf("%w: string argument %d padding truncated", types.ErrBufferOverflow, m.idx)
	}
	v := m.buf[m.cur:nul:nul]
	m.skip(size)
	return v, nil
}

// ReadString reads an 's' argument into a new string.
func (m *Message) ReadString() (string, error) {
	b, err := m.ReadBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReadValue reads the next argument, whatever its tag, as a types.Value.
func (m *Message) ReadValue() (types.Value, error) {
	if m.mode != ModeRead {
		return types.Value{}, types.ErrWriteOnly
	}
	if m.idx >= m.ntag {
		return types.Value{}, types.ErrTagEnd
	}
	switch m.nextTag() {
	case format.TagInt:
		v, err := m.ReadInt32()
		return types.Int(v), err
	case format.TagFloat:
		v, err := m.ReadFloat32()
		return types.Float(v), err
	case format.TagChar:
		v, err := m.ReadChar()
		return types.Char(v), err
	case format.TagTrue, format.TagFalse:
		v, err := m.ReadBool()
		return types.Bool(v), err
	case format.TagString:
		v, err := m.ReadString()
		return types.String(v), err
	case format.TagNil:
		return types.Nil(), m.ReadNil()
	case format.TagImpulse:
		return types.Impulse(), m.ReadImpulse()
	}
	return types.Value{}, fmt.Errorf("%w: unsupported type tag %q", types.ErrTagMismatch, m.nextTag())
}

// ReadVec reads n consecutive 'f' arguments as a vector value (n in 2..4).
// Nothing is consumed unless all n components are present.
func (m *Message) ReadVec(n int) (types.Value, error) {
	var t types.Type
	switch n {
	case 2:
		t = types.TypeVec2
	case 3:
		t = types.TypeVec3
	case 4:
		t = types.TypeVec4
	default:
		return types.Value{}, fmt.Errorf("%w: no %d-component vector type", types.ErrTypeMismatch, n)
	}
	if _, err := m.checkRead(format.TagFloat, n*format.NumericSize); err != nil {
		return types.Value{}, err
	}
	if m.idx+n > m.ntag {
		return types.Value{}, fmt.Errorf("%w: %d floats requested, %d arguments left", types.ErrTagEnd, n, m.ntag-m.idx)
	}
	for i := 1; i < n; i++ {
		if c := m.buf[m.tag+1+m.idx+i]; c != format.TagFloat {
			return types.Value{}, fmt.Errorf("%w: read 'f', tag has %q at argument %d", types.ErrTagMismatch, c, m.idx+i)
		}
	}
	v := types.Zero(t)
	for i := range n {
		v.V[i] = buf.F32BE(m.buf[m.cur:])
		m.skip(format.NumericSize)
	}
	return v, nil
}
