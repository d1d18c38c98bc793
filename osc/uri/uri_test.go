package uri

import (
	"testing"

	"github.com/joshuapare/osckit/pkg/types"
	"github.com/stretchr/testify/require"
)

func TestCheck(t *testing.T) {
	valid := []string{"/", "/foo", "/foo/bar/int", "/test_02", "/a.b-c/d"}
	for _, addr := range valid {
		require.NoError(t, Check(addr), addr)
	}

	invalid := []string{"", "foo", "foo/bar", "/foo//bar", "/foo/", "/foo bar", "/foo/*", "/a,b", "/x\x00y"}
	for _, addr := range invalid {
		require.ErrorIs(t, Check(addr), types.ErrAddressInvalid, "%q", addr)
	}
}

func TestSegLen(t *testing.T) {
	tests := []struct {
		addr string
		want int
	}{
		{"/foo/bar", 4},
		{"/foo", 4},
		{"/", 1},
		{"/foobar/x", 7},
		{"", 0},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, SegLen(tt.addr), tt.addr)
	}
	require.Equal(t, 7, SegLenMax("/foo/bar", "/foobar"))
}

func TestSegCompare(t *testing.T) {
	cmp, n := SegCompare("/foo/bar", "/foo/baz")
	require.Zero(t, cmp)
	require.Equal(t, 4, n)

	cmp, n = SegCompare("/foo", "/foobar")
	require.Negative(t, cmp)
	require.Equal(t, 7, n)

	cmp, _ = SegCompare("/zeta", "/alpha/beta")
	require.Positive(t, cmp)
}

func TestCommonRun(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"/foo/bar/int", "/foo/bar/float", len("/foo/bar")},
		{"/foo/bar/int", "/foo/bar/int2", len("/foo/bar")},
		{"/foo/bar/int", "/foo/bar/int/int", len("/foo/bar/int")},
		{"/foo/bar", "/foobar", 0},
		{"/foo", "/foo", 4},
		{"/", "/foo", 0},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, CommonRun(tt.a, tt.b), "%s vs %s", tt.a, tt.b)
	}
}

func TestIsAncestor(t *testing.T) {
	require.True(t, IsAncestor("/", "/foo"))
	require.True(t, IsAncestor("/foo", "/foo/bar/int"))
	require.True(t, IsAncestor("/foo/bar/int", "/foo/bar/int/int"))
	require.False(t, IsAncestor("/foo/bar/int", "/foo/bar/int2"))
	require.False(t, IsAncestor("/foo", "/foo"))
	require.False(t, IsAncestor("/", "/"))
}

func TestDepthLastParent(t *testing.T) {
	require.Equal(t, 0, Depth("/"))
	require.Equal(t, 1, Depth("/foo"))
	require.Equal(t, 3, Depth("/foo/bar/int"))
	require.True(t, DepthEq("/foo/bar", 2))
	require.False(t, DepthEq("/foo/bar", 3))

	require.Equal(t, "int", Last("/foo/bar/int"))
	require.Equal(t, "", Last("/"))

	require.Equal(t, "/foo/bar", Parent("/foo/bar/int"))
	require.Equal(t, "/", Parent("/foo"))
	require.Equal(t, "/", Parent("/"))

	buf := make([]byte, 0, 16)
	buf = AppendParent(buf, "/foo/bar/int")
	require.Equal(t, "/foo/bar", string(buf))

	require.Equal(t, []string{"foo", "bar"}, Segments("/foo/bar"))
	require.Empty(t, Segments("/"))
}
