package message

import (
	"fmt"
	"strings"

	"github.com/joshuapare/osckit/internal/buf"
	"github.com/joshuapare/osckit/internal/format"
	"github.com/joshuapare/osckit/pkg/types"
)

// checkWrite validates that a payload of size bytes for tag can be written
// as the next argument. It never mutates.
func (m *Message) checkWrite(tag byte, size int) error {
	switch m.mode {
	case ModeRead:
		if m.written {
			return fmt.Errorf("%w: all %d arguments written", types.ErrTagEnd, m.ntag)
		}
		return types.ErrReadOnly
	case ModeInvalid, ModeWrite, ModeAddressSet:
		return fmt.Errorf("%w: tag not set", types.ErrTagEnd)
	}
	if m.idx >= m.ntag {
		return types.ErrTagEnd
	}
	next := m.nextTag()
	if next != tag && !(isBoolTag(tag) && isBoolTag(next)) {
		return fmt.Errorf("%w: wrote %q, tag expects %q at argument %d", types.ErrTagMismatch, tag, next, m.idx)
	}
	if !buf.Has(m.buf, m.cur, size) {
		return fmt.Errorf("%w: argument %d needs %d bytes at offset %d, buffer has %d",
			types.ErrBufferOverflow, m.idx, size, m.cur, len(m.buf))
	}
	return nil
}

// advance commits a written argument of size bytes.
func (m *Message) advance(size int) {
	m.cur += size
	m.used = m.cur
	m.idx++
	if m.idx == m.ntag {
		m.written = true
		m.finish()
	}
}

func isBoolTag(c byte) bool {
	return c == format.TagTrue || c == format.TagFalse
}

// WriteInt32 writes an 'i' argument.
func (m *Message) WriteInt32(v int32) error {
	if err := m.checkWrite(format.TagInt, format.NumericSize); err != nil {
		return err
	}
	buf.PutI32BE(m.buf[m.cur:], v)
	m.advance(format.NumericSize)
	return nil
}

// WriteFloat32 writes an 'f' argument.
func (m *Message) WriteFloat32(v float32) error {
	if err := m.checkWrite(format.TagFloat, format.NumericSize); err != nil {
		return err
	}
	buf.PutF32BE(m.buf[m.cur:], v)
	m.advance(format.NumericSize)
	return nil
}

// WriteChar writes a 'c' argument, promoted to a 4-byte slot.
func (m *Message) WriteChar(v byte) error {
	if err := m.checkWrite(format.TagChar, format.NumericSize); err != nil {
		return err
	}
	buf.PutU32BE(m.buf[m.cur:], uint32(v))
	m.advance(format.NumericSize)
	return nil
}

// WriteBool consumes a 'T' or 'F' tag slot. Either letter accepts either
// value; the letter is rewritten to match v. No payload bytes are written.
func (m *Message) WriteBool(v bool) error {
	letter := format.TagFalse
	if v {
		letter = format.TagTrue
	}
	if err := m.checkWrite(letter, 0); err != nil {
		return err
	}
	m.buf[m.tag+1+m.idx] = letter
	m.advance(0)
	return nil
}

// WriteNil consumes an 'N' tag slot.
func (m *Message) WriteNil() error {
	if err := m.checkWrite(format.TagNil, 0); err != nil {
		return err
	}
	m.advance(0)
	return nil
}

// WriteImpulse consumes an 'I' tag slot.
func (m *Message) WriteImpulse() error {
	if err := m.checkWrite(format.TagImpulse, 0); err != nil {
		return err
	}
	m.advance(0)
	return nil
}

// WriteString writes an 's' argument: the raw bytes, a NUL terminator and
// padding to the next 4-byte boundary.
func (m *Message) WriteString(s string) error {
	if strings.IndexByte(s, 0) >= 0 {
		return fmt.Errorf("%w: string argument contains NUL", types.ErrTagMismatch)
	}
	size := format.Padded(len(s))
	if err := m.checkWrite(format.TagString, size); err != nil {
		return err
	}
	copy(m.buf[m.cur:], s)
	buf.Zero(m.buf[m.cur+len(s) : m.cur+size])
	m.advance(size)
	return nil
}

// WriteValue writes v as the next argument(s). Vectors consume one 'f' slot
// per component and are written all-or-nothing.
func (m *Message) WriteValue(v types.Value) error {
	switch v.Type {
	case types.TypeInt:
		return m.WriteInt32(v.I)
	case types.TypeFloat:
		return m.WriteFloat32(v.F)
	case types.TypeChar:
		return m.WriteChar(v.C)
	case types.TypeBool:
		return m.WriteBool(v.B)
	case types.TypeString:
		return m.WriteString(v.S)
	case types.TypeNil:
		return m.WriteNil()
	case types.TypeImpulse:
		return m.WriteImpulse()
	case types.TypeVec2, types.TypeVec3, types.TypeVec4:
		return m.writeVec(v.Vec())
	}
	return fmt.Errorf("%w: cannot encode %s", types.ErrTagMismatch, v.Type)
}

func (m *Message) writeVec(vec []float32) error {
	if err := m.checkFloats(len(vec)); err != nil {
		return err
	}
	for _, f := range vec {
		buf.PutF32BE(m.buf[m.cur:], f)
		m.advance(format.NumericSize)
	}
	return nil
}

// checkFloats validates that the next n arguments are 'f' slots that fit.
func (m *Message) checkFloats(n int) error {
	if err := m.checkWrite(format.TagFloat, n*format.NumericSize); err != nil {
		return err
	}
	if m.idx+n > m.ntag {
		return fmt.Errorf("%w: %d floats requested, %d slots left", types.ErrTagEnd, n, m.ntag-m.idx)
	}
	for i := 1; i < n; i++ {
		if c := m.buf[m.tag+1+m.idx+i]; c != format.TagFloat {
			return fmt.Errorf("%w: tag expects %q at argument %d", types.ErrTagMismatch, c, m.idx+i)
		}
	}
	return nil
}

// Build writes addr, a tag derived from vals, and every value. The message
// must be in write mode.
func (m *Message) Build(addr string, vals ...types.Value) error {
	if err := m.SetAddress(addr); err != nil {
		return err
	}
	var tags strings.Builder
	for _, v := range vals {
		tags.WriteString(v.Tags())
	}
	if err := m.SetTag(tags.String()); err != nil {
		return err
	}
	for _, v := range vals {
		if err := m.WriteValue(v); err != nil {
			return err
		}
	}
	return nil
}

// Size returns the exact encoded size of a message with addr and vals.
func Size(addr string, vals ...types.Value) int {
	n := format.AddressField(len(addr))
	letters := 0
	for _, v := range vals {
		letters += len(v.Tags())
		switch v.Type {
		case types.TypeString:
			n += format.Padded(len(v.S))
		case types.TypeInt, types.TypeFloat, types.TypeChar:
			n += format.NumericSize
		case types.TypeVec2, types.TypeVec3, types.TypeVec4:
			n += v.Type.Arity() * format.NumericSize
		}
	}
	return n + format.TagField(letters)
}

// Encode builds a message into dst and returns the encoded bytes, which alias
// dst.
func Encode(dst []byte, addr string, vals ...types.Value) ([]byte, error) {
	m := New(dst)
	if err := m.Build(addr, vals...); err != nil {
		return nil, err
	}
	return m.Bytes(), nil
}
