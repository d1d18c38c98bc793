package main

import (
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/osckit/pkg/types"
)

func TestParseArg(t *testing.T) {
	tests := []struct {
		arg     string
		want    types.Value
		wantErr bool
	}{
		{"i:42", types.Int(42), false},
		{"int:0x10", types.Int(16), false},
		{"f:0.5", types.Float(0.5), false},
		{"s:hello world", types.String("hello world"), false},
		{"c:x", types.Char('x'), false},
		{"bool:true", types.Bool(true), false},
		{"impulse", types.Impulse(), false},
		{"vec2:1,2", types.Vec2(1, 2), false},
		{"vec3:1,2", types.Value{}, true},
		{"blob:00", types.Value{}, true},
		{"i:nope", types.Value{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			got, err := parseArg(tt.arg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v", got)
		})
	}
}

func TestEncodeDecode(t *testing.T) {
	resetFlags(t)

	out, err := captureOutput(t, func() error {
		return runEncode([]string{"/foo/bar", "i:42", "f:0.5", "s:hi"})
	})
	require.NoError(t, err)
	hexOut := strings.TrimSpace(out)
	_, err = hex.DecodeString(hexOut)
	require.NoError(t, err)

	data, err := decodeInput(nil, []string{hexOut})
	require.NoError(t, err)

	out, err = captureOutput(t, func() error { return runDecode(data) })
	require.NoError(t, err)
	assert.Contains(t, out, "/foo/bar ,ifs")
	assert.Contains(t, out, "42")
	assert.Contains(t, out, "hi")

	jsonOut = true
	out, err = captureOutput(t, func() error { return runDecode(data) })
	require.NoError(t, err)

	var got decodedMessage
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "/foo/bar", got.Address)
	assert.Equal(t, "ifs", got.Tag)
	assert.Equal(t, len(data), got.Size)
	assert.Equal(t, []any{float64(42), 0.5, "hi"}, got.Args)
}

func TestEncode_RawFile(t *testing.T) {
	resetFlags(t)

	encodeRaw = true
	encodeOut = filepath.Join(t.TempDir(), "pos.osc")
	require.NoError(t, runEncode([]string{"/pos", "vec3:1,2,3"}))

	raw, err := os.ReadFile(encodeOut)
	require.NoError(t, err)
	assert.Zero(t, len(raw)%4)

	decodeFile = encodeOut
	data, err := decodeInput(nil, nil)
	require.NoError(t, err)
	out, err := captureOutput(t, func() error { return runDecode(data) })
	require.NoError(t, err)
	assert.Contains(t, out, "/pos ,fff")
}

func TestDecode_Errors(t *testing.T) {
	resetFlags(t)

	_, err := decodeInput(nil, nil)
	require.Error(t, err)

	_, err = decodeInput(nil, []string{"zz"})
	require.Error(t, err)

	err = runDecode([]byte("nope"))
	require.Error(t, err)
}

func TestEncode_InvalidAddress(t *testing.T) {
	resetFlags(t)

	err := runEncode([]string{"foo", "i:1"})
	require.ErrorIs(t, err, types.ErrAddressInvalid)
}
