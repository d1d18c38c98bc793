package message

import (
	"bytes"
	"strings"
	"testing"

	"github.com/joshuapare/osckit/osc/alloc"
	"github.com/joshuapare/osckit/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const owls = "owls are not what they seem"

// test02 is /test_02 ,fis (47.31, 16, "two coopers") zero-padded to 64 bytes.
var test02 = [64]byte{
	0x2f, 0x74, 0x65, 0x73, 0x74, 0x5f, 0x30, 0x32, 0x00, 0x00, 0x00, 0x00,
	0x2c, 0x66, 0x69, 0x73, 0x00, 0x00, 0x00, 0x00,
	0x42, 0x3d, 0x3d, 0x71,
	0x00, 0x00, 0x00, 0x10,
	0x74, 0x77, 0x6f, 0x20, 0x63, 0x6f, 0x6f, 0x70, 0x65, 0x72, 0x73, 0x00,
}

func writeFooBar(t *testing.T, m *Message) {
	t.Helper()
	require.NoError(t, m.SetAddress("/foo/bar"))
	require.NoError(t, m.SetTag("fiTcs"))
	require.NoError(t, m.WriteFloat32(32.4))
	require.NoError(t, m.WriteInt32(47))
	require.NoError(t, m.WriteBool(true))
	require.NoError(t, m.WriteChar('W'))
	require.NoError(t, m.WriteString(owls))
}

func TestMessage_RoundTrip(t *testing.T) {
	var raw [512]byte
	m := New(raw[:])
	writeFooBar(t, m)

	require.Equal(t, ModeRead, m.Mode(), "last write switches to read mode")
	require.Equal(t, 60, m.Len())
	require.ErrorIs(t, m.WriteInt32(1), types.ErrTagEnd, "6th write past the tag")

	// read back in place
	f, err := m.ReadFloat32()
	require.NoError(t, err)
	require.Equal(t, float32(32.4), f)

	// decode a copy of the encoded bytes
	enc := bytes.Clone(m.Bytes())
	d, err := Decode(enc)
	require.NoError(t, err)
	require.Equal(t, "/foo/bar", d.Address())
	require.Equal(t, "fiTcs", d.Tag())
	require.Equal(t, 5, d.ArgCount())

	f, err = d.ReadFloat32()
	require.NoError(t, err)
	assert.Equal(t, float32(32.4), f)

	i, err := d.ReadInt32()
	require.NoError(t, err)
	assert.Equal(t, int32(47), i)

	b, err := d.ReadBool()
	require.NoError(t, err)
	assert.True(t, b)

	c, err := d.ReadChar()
	require.NoError(t, err)
	assert.Equal(t, byte('W'), c)

	s, err := d.ReadString()
	require.NoError(t, err)
	assert.Equal(t, owls, s)

	_, err = d.ReadInt32()
	require.ErrorIs(t, err, types.ErrTagEnd)
	require.ErrorIs(t, d.WriteInt32(1), types.ErrReadOnly, "decoded messages are read-only")
}

func TestMessage_WireLayout(t *testing.T) {
	var raw [64]byte
	m := New(raw[:])
	require.NoError(t, m.Build("/test_02", types.Float(47.31), types.Int(16), types.String("two coopers")))
	require.Equal(t, test02[:40], m.Bytes())
	require.Equal(t, 40, Size("/test_02", types.Float(47.31), types.Int(16), types.String("two coopers")))
}

func TestDecode_LiteralBuffer(t *testing.T) {
	m, err := Decode(test02[:])
	require.NoError(t, err)
	require.Equal(t, "/test_02", m.Address())
	require.Equal(t, "fis", m.Tag())

	f, err := m.ReadFloat32()
	require.NoError(t, err)
	require.Equal(t, float32(47.31), f)

	i, err := m.ReadInt32()
	require.NoError(t, err)
	require.Equal(t, int32(16), i)

	s, err := m.ReadString()
	require.NoError(t, err)
	require.Equal(t, "two coopers", s)

	require.Zero(t, m.Remaining())
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"too short", []byte("/a\x00"), types.ErrBufferOverflow},
		{"no leading slash", []byte("foo\x00,\x00\x00\x00"), types.ErrAddressInvalid},
		{"unterminated address", []byte("/foobarbaz"), types.ErrBufferOverflow},
		{"missing comma", []byte("/foo\x00\x00\x00\x00i\x00\x00\x00"), types.ErrTagMismatch},
		{"unterminated tag", []byte("/foo\x00\x00\x00\x00,iii"), types.ErrBufferOverflow},
		{"unknown tag", []byte("/foo\x00\x00\x00\x00,b\x00\x00"), types.ErrTagMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestMessage_TruncatedArgument(t *testing.T) {
	// tag promises an int, payload is missing
	data := []byte("/foo\x00\x00\x00\x00,i\x00\x00")
	m, err := Decode(data)
	require.NoError(t, err)
	_, err = m.ReadInt32()
	require.ErrorIs(t, err, types.ErrBufferOverflow)
}

func TestMessage_TagDiscipline(t *testing.T) {
	var raw [64]byte
	m := New(raw[:])

	require.ErrorIs(t, m.WriteInt32(1), types.ErrTagEnd, "write before tag")
	require.ErrorIs(t, m.SetTag("i"), types.ErrAddressInvalid, "tag before address")
	require.ErrorIs(t, m.SetAddress("foo"), types.ErrAddressInvalid)

	require.NoError(t, m.SetAddress("/foo"))
	require.ErrorIs(t, m.SetTag("ib"), types.ErrTagMismatch)
	require.NoError(t, m.SetTag("if"))
	require.ErrorIs(t, m.SetTag("i"), types.ErrTagLocked)
	require.ErrorIs(t, m.SetAddress("/bar"), types.ErrTagLocked)

	require.ErrorIs(t, m.WriteFloat32(1), types.ErrTagMismatch)
	_, err := m.ReadInt32()
	require.ErrorIs(t, err, types.ErrWriteOnly)

	require.NoError(t, m.WriteInt32(7))
	require.Equal(t, 1, m.Remaining())
	require.NoError(t, m.WriteFloat32(0.5))
	require.Equal(t, ModeRead, m.Mode())
}

func TestMessage_BufferOverflowDoesNotMutate(t *testing.T) {
	raw := make([]byte, 16)
	m := New(raw)
	require.NoError(t, m.SetAddress("/foo"))
	require.NoError(t, m.SetTag("s"))
	before := bytes.Clone(raw)

	require.ErrorIs(t, m.WriteString("this will never fit"), types.ErrBufferOverflow)
	require.Equal(t, before, raw)
	require.Equal(t, ModeTagLocked, m.Mode())

	require.NoError(t, m.WriteString("ok"))
	require.Equal(t, 16, m.Len())

	small := New(make([]byte, 6))
	require.ErrorIs(t, small.SetAddress("/foo"), types.ErrBufferOverflow)

	var none Message
	require.ErrorIs(t, none.SetAddress("/foo"), types.ErrBufferOverflow)
}

func TestMessage_BoolLetterFollowsValue(t *testing.T) {
	var raw [32]byte
	m := New(raw[:])
	require.NoError(t, m.SetAddress("/b"))
	require.NoError(t, m.SetTag("TF"))
	require.NoError(t, m.WriteBool(false))
	require.NoError(t, m.WriteBool(true))
	require.Equal(t, "FT", m.Tag())

	v, err := m.ReadBool()
	require.NoError(t, err)
	require.False(t, v)
	v, err = m.ReadBool()
	require.NoError(t, err)
	require.True(t, v)
}

func TestMessage_EmptyTagCompletesImmediately(t *testing.T) {
	var raw [16]byte
	m := New(raw[:])
	require.NoError(t, m.SetAddress("/ping"))
	require.NoError(t, m.SetTag(""))
	require.Equal(t, ModeRead, m.Mode())
	require.Equal(t, 12, m.Len())
	require.ErrorIs(t, m.WriteNil(), types.ErrTagEnd)
}

func TestMessage_ValuesAndVectors(t *testing.T) {
	vals := []types.Value{
		types.Vec3(1, 2, 3),
		types.Nil(),
		types.Impulse(),
		types.Char('x'),
		types.Bool(false),
	}
	raw := make([]byte, Size("/v", vals...))
	enc, err := Encode(raw, "/v", vals...)
	require.NoError(t, err)
	require.Len(t, enc, len(raw))

	m, err := Decode(enc)
	require.NoError(t, err)
	require.Equal(t, "fffNIcF", m.Tag())

	v, err := m.ReadVec(3)
	require.NoError(t, err)
	require.True(t, v.Equal(types.Vec3(1, 2, 3)))

	for _, want := range vals[1:] {
		got, err := m.ReadValue()
		require.NoError(t, err)
		require.Equal(t, want.Type, got.Type)
		if want.Type != types.TypeImpulse {
			require.True(t, want.Equal(got), "%s != %s", want, got)
		}
	}
}

func TestMessage_VectorIsAllOrNothing(t *testing.T) {
	var raw [64]byte
	m := New(raw[:])
	require.NoError(t, m.SetAddress("/v"))
	require.NoError(t, m.SetTag("ffi"))

	require.ErrorIs(t, m.WriteValue(types.Vec3(1, 2, 3)), types.ErrTagMismatch)
	require.Equal(t, 3, m.Remaining(), "nothing consumed")
	require.NoError(t, m.WriteValue(types.Vec2(1, 2)))
	require.NoError(t, m.WriteInt32(3))

	_, err := m.ReadVec(3)
	require.ErrorIs(t, err, types.ErrTagMismatch)
	v, err := m.ReadVec(2)
	require.NoError(t, err)
	require.Equal(t, []float32{1, 2}, v.Vec())
}

func TestMessage_StringRules(t *testing.T) {
	var raw [64]byte
	m := New(raw[:])
	require.NoError(t, m.SetAddress("/s"))
	require.NoError(t, m.SetTag("ss"))
	require.ErrorIs(t, m.WriteString("a\x00b"), types.ErrTagMismatch)

	// exactly four bytes still gets a full pad
	require.NoError(t, m.WriteString("abcd"))
	require.NoError(t, m.WriteString(""))
	require.Equal(t, 4+4+8+4, m.Len())

	b, err := m.ReadBytes()
	require.NoError(t, err)
	require.Equal(t, "abcd", string(b))
	s, err := m.ReadString()
	require.NoError(t, err)
	require.Empty(t, s)

	m.Rewind()
	s, err = m.ReadString()
	require.NoError(t, err)
	require.Equal(t, "abcd", s)
}

func TestAlloc_FromPool(t *testing.T) {
	pool := alloc.NewPool(128)
	m, err := Alloc(pool, 64)
	require.NoError(t, err)
	require.Equal(t, int64(64), pool.Remaining())
	writeFooBar(t, m)

	_, err = Alloc(pool, 65)
	require.ErrorIs(t, err, alloc.ErrNoSpace)
}

func TestMessage_DumpAndString(t *testing.T) {
	m, err := Decode(test02[:])
	require.NoError(t, err)

	var out strings.Builder
	require.NoError(t, m.Dump(&out))
	require.Contains(t, out.String(), "2f 74 65 73 74 5f 30 32")
	require.Equal(t, "/test_02 ,fis (64 bytes, read)", m.String())
}
