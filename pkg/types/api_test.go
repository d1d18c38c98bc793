package types

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrKind
		ok   bool
	}{
		{"sentinel", ErrTagEnd, ErrKindTag, true},
		{"wrapped", fmt.Errorf("set /x: %w", ErrTypeMismatch), ErrKindType, true},
		{"not found", fmt.Errorf("%w: /nope", ErrNotFound), ErrKindNotFound, true},
		{"capacity", &Error{Kind: ErrKindCapacity, Msg: "full"}, ErrKindCapacity, true},
		{"foreign", errors.New("boom"), 0, false},
		{"nil", nil, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := KindOf(tt.err)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.want, got)
		})
	}
	assert.Equal(t, "not_found", ErrKindNotFound.String())
	assert.Equal(t, "unknown", ErrKind(99).String())
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("disk on fire")
	err := &Error{Kind: ErrKindCapacity, Msg: "reserve", Err: cause}
	require.ErrorIs(t, err, cause)
	require.Equal(t, "reserve: disk on fire", err.Error())

	var nilErr *Error
	require.Equal(t, "<nil>", nilErr.Error())
}

func TestParseType(t *testing.T) {
	tests := []struct {
		in   string
		want Type
	}{
		{"int", TypeInt},
		{"F", TypeFloat},
		{" string ", TypeString},
		{"container", TypeNil},
		{"pulse", TypeImpulse},
		{"vec3f", TypeVec3},
	}
	for _, tt := range tests {
		got, err := ParseType(tt.in)
		require.NoError(t, err, tt.in)
		require.Equal(t, tt.want, got, tt.in)
	}
	for _, typ := range []Type{TypeInt, TypeFloat, TypeChar, TypeBool, TypeString, TypeImpulse, TypeVec2, TypeVec4} {
		got, err := ParseType(typ.String())
		require.NoError(t, err)
		require.Equal(t, typ, got)
	}
	_, err := ParseType("blob")
	require.Error(t, err)
}

func TestTags(t *testing.T) {
	assert.Equal(t, "T", Bool(true).Tags())
	assert.Equal(t, "F", Bool(false).Tags())
	assert.Equal(t, "fff", Vec3(1, 2, 3).Tags())
	assert.Equal(t, "I", Impulse().Tags())
	assert.Equal(t, 4, TypeVec4.Arity())
	assert.Zero(t, TypeInt.Arity())
}

func TestValue_Equal(t *testing.T) {
	nan := float32(math.NaN())
	negZero := float32(math.Copysign(0, -1))

	assert.True(t, Int(1).Equal(Int(1)))
	assert.False(t, Int(1).Equal(Float(1)))
	assert.True(t, Float(nan).Equal(Float(nan)), "same NaN bits")
	assert.False(t, Float(0).Equal(Float(negZero)), "-0 differs from +0")
	assert.True(t, Vec2(1, 2).Equal(Vec2(1, 2)))
	assert.False(t, Vec2(1, 2).Equal(Vec2(1, 3)))
	assert.False(t, Impulse().Equal(Impulse()))
	assert.True(t, Nil().Equal(Nil()))
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		typ     Type
		in      string
		want    Value
		wantErr bool
	}{
		{TypeInt, "-7", Int(-7), false},
		{TypeInt, "0x7fffffff", Int(math.MaxInt32), false},
		{TypeInt, "0x80000000", Value{}, true},
		{TypeFloat, "1.5", Float(1.5), false},
		{TypeChar, "ab", Value{}, true},
		{TypeBool, "false", Bool(false), false},
		{TypeString, " padded ", String("padded"), false},
		{TypeVec4, "1, 2, 3, 4", Vec4(1, 2, 3, 4), false},
		{TypeVec2, "1,x", Value{}, true},
		{TypeInvalid, "1", Value{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.typ.String()+"/"+tt.in, func(t *testing.T) {
			got, err := ParseValue(tt.typ, tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.True(t, tt.want.Equal(got), "got %v", got)
		})
	}
}

func TestValue_AnyAndString(t *testing.T) {
	assert.Equal(t, int32(3), Int(3).Any())
	assert.Equal(t, "x", Char('x').Any())
	assert.Equal(t, []float32{1, 2}, Vec2(1, 2).Any())
	assert.Nil(t, Impulse().Any())

	assert.Equal(t, `"hi"`, String("hi").String())
	assert.Equal(t, "[1, 2.5]", Vec2(1, 2.5).String())
	assert.Equal(t, "impulse", Impulse().String())
}
