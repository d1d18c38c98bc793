package message

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/joshuapare/osckit/internal/buf"
	"github.com/joshuapare/osckit/internal/format"
	"github.com/joshuapare/osckit/osc/alloc"
	"github.com/joshuapare/osckit/osc/uri"
	"github.com/joshuapare/osckit/pkg/types"
)

// Mode is the message's read/write state.
type Mode uint8

const (
	ModeInvalid    Mode = iota // no buffer attached
	ModeWrite                  // buffer attached, address not set
	ModeAddressSet             // address written, tag not set
	ModeTagLocked              // tag written, arguments pending
	ModeRead                   // fully encoded or decoded
)

func (m Mode) String() string {
	switch m {
	case ModeWrite:
		return "write"
	case ModeAddressSet:
		return "address-set"
	case ModeTagLocked:
		return "tag-locked"
	case ModeRead:
		return "read"
	default:
		return "invalid"
	}
}

// Message is a cursor over one encoded OSC message.
type Message struct {
	buf  []byte
	cur  int // read/write cursor
	used int // encoded length
	tag  int // offset of the ',' introducer
	ntag int // number of tag letters
	args int // offset of the first argument
	idx  int // index of the next argument
	mode Mode

	written bool // completed through the write path rather than Decode
}

// New returns a message in write mode over b.
func New(b []byte) *Message {
	m := &Message{}
	m.SetBuffer(b)
	return m
}

// Alloc reserves an n-byte buffer from a and returns a message in write mode
// over it.
func Alloc(a alloc.Allocator, n int) (*Message, error) {
	region, err := alloc.Reserve(a, n)
	if err != nil {
		return nil, fmt.Errorf("message buffer: %w", err)
	}
	return New(region), nil
}

// SetBuffer attaches b and resets the message to write mode.
func (m *Message) SetBuffer(b []byte) {
	*m = Message{buf: b, mode: ModeWrite}
}

// SetAddress writes the address. It may be called again until the tag is set.
func (m *Message) SetAddress(addr string) error {
	switch m.mode {
	case ModeInvalid:
		return fmt.Errorf("%w: no buffer attached", types.ErrBufferOverflow)
	case ModeRead:
		return types.ErrReadOnly
	case ModeTagLocked:
		return types.ErrTagLocked
	}
	if err := uri.Check(addr); err != nil {
		return err
	}

	n := format.AddressField(len(addr))
	// leave room for at least an empty tag string
	if n+format.MinTagField > len(m.buf) {
		return fmt.Errorf("%w: address needs %d bytes, buffer has %d", types.ErrBufferOverflow, n+format.MinTagField, len(m.buf))
	}

	copy(m.buf, addr)
	buf.Zero(m.buf[len(addr):n])
	m.tag = n
	m.cur = n
	m.used = n
	m.mode = ModeAddressSet
	return nil
}

// SetTag writes the type tag string (letters only, without the leading ',')
// and locks it: subsequent writes must follow it in order. An empty tag
// completes the message immediately.
func (m *Message) SetTag(tags string) error {
	switch m.mode {
	case ModeInvalid:
		return fmt.Errorf("%w: no buffer attached", types.ErrBufferOverflow)
	case ModeWrite:
		return fmt.Errorf("%w: address must be set before the tag", types.ErrAddressInvalid)
	case ModeTagLocked:
		return types.ErrTagLocked
	case ModeRead:
		return types.ErrReadOnly
	}
	for i := 0; i < len(tags); i++ {
		if !format.KnownTag(tags[i]) {
			return fmt.Errorf("%w: unsupported type tag %q", types.ErrTagMismatch, tags[i])
		}
	}

	end := m.tag + format.TagField(len(tags))
	if end > len(m.buf) {
		return fmt.Errorf("%w: tag needs %d bytes, buffer has %d", types.ErrBufferOverflow, end, len(m.buf))
	}

	m.buf[m.tag] = format.TagIntroducer
	copy(m.buf[m.tag+1:], tags)
	buf.Zero(m.buf[m.tag+1+len(tags) : end])

	m.ntag = len(tags)
	m.args = end
	m.cur = end
	m.used = end
	m.idx = 0
	m.mode = ModeTagLocked
	if m.ntag == 0 {
		m.written = true
		m.finish()
	}
	return nil
}

// Decode parses an encoded message in b and puts m in read mode with the
// cursor on the first argument. The address and tag offsets are recovered
// from the content.
func (m *Message) Decode(b []byte) error {
	if len(b) < format.MinAddressField+format.MinTagField {
		return fmt.Errorf("%w: %d bytes is shorter than an empty message", types.ErrBufferOverflow, len(b))
	}
	if b[0] != format.Separator {
		return fmt.Errorf("%w: message does not start with '/'", types.ErrAddressInvalid)
	}

	nul := buf.IndexNUL(b, 0)
	if nul < 0 {
		return fmt.Errorf("%w: unterminated address", types.ErrBufferOverflow)
	}
	tag := format.AddressField(nul)
	if tag >= len(b) {
		return fmt.Errorf("%w: address padding runs past the buffer", types.ErrBufferOverflow)
	}
	if b[tag] != format.TagIntroducer {
		return fmt.Errorf("%w: missing ',' type tag introducer at %d", types.ErrTagMismatch, tag)
	}

	tnul := buf.IndexNUL(b, tag)
	if tnul < 0 {
		return fmt.Errorf("%w: unterminated type tag", types.ErrBufferOverflow)
	}
	ntag := tnul - tag - 1
	for i := tag + 1; i < tnul; i++ {
		if !format.KnownTag(b[i]) {
			return fmt.Errorf("%w: unsupported type tag %q", types.ErrTagMismatch, b[i])
		}
	}
	args := tag + format.TagField(ntag)
	if args > len(b) {
		return fmt.Errorf("%w: tag padding runs past the buffer", types.ErrBufferOverflow)
	}

	*m = Message{
		buf:  b,
		cur:  args,
		used: len(b),
		tag:  tag,
		ntag: ntag,
		args: args,
		mode: ModeRead,
	}
	return nil
}

// Decode parses b into a new read-only message.
func Decode(b []byte) (*Message, error) {
	m := &Message{}
	if err := m.Decode(b); err != nil {
		return nil, err
	}
	return m, nil
}

// finish switches to read mode with the cursor on the first argument.
func (m *Message) finish() {
	m.mode = ModeRead
	m.cur = m.args
	m.idx = 0
}

// Rewind moves the read cursor back to the first argument.
func (m *Message) Rewind() {
	if m.mode == ModeRead {
		m.cur = m.args
		m.idx = 0
	}
}

// Mode returns the current state.
func (m *Message) Mode() Mode { return m.mode }

// Address returns the message address, or "" before one is set.
func (m *Message) Address() string {
	if m.mode < ModeAddressSet {
		return ""
	}
	end := buf.IndexNUL(m.buf, 0)
	if end < 0 {
		return ""
	}
	return string(m.buf[:end])
}

// Tag returns the type tag letters without the ',' introducer.
func (m *Message) Tag() string {
	if m.mode < ModeTagLocked {
		return ""
	}
	return string(m.buf[m.tag+1 : m.tag+1+m.ntag])
}

// Len returns the number of encoded bytes.
func (m *Message) Len() int { return m.used }

// ArgCount returns the number of arguments declared by the tag.
func (m *Message) ArgCount() int { return m.ntag }

// Remaining returns the number of arguments not yet read (read mode) or not
// yet written (tag-locked mode).
func (m *Message) Remaining() int {
	if m.mode < ModeTagLocked {
		return 0
	}
	return m.ntag - m.idx
}

// Bytes returns the encoded bytes. The slice aliases the message buffer.
func (m *Message) Bytes() []byte { return m.buf[:m.used] }

// Dump writes a hex dump of the encoded bytes to w.
func (m *Message) Dump(w io.Writer) error {
	d := hex.Dumper(w)
	if _, err := d.Write(m.Bytes()); err != nil {
		return err
	}
	return d.Close()
}

// nextTag returns the letter of the next unconsumed argument.
func (m *Message) nextTag() byte {
	return m.buf[m.tag+1+m.idx]
}

func (m *Message) String() string {
	return fmt.Sprintf("%s ,%s (%d bytes, %s)", m.Address(), m.Tag(), m.used, m.mode)
}
