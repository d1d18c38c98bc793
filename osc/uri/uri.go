// Package uri provides pure functions over OSC addresses ("/foo/bar/int").
//
// Addresses always start with the separator. The comparison primitives here
// work on whole segments and support runs longer than one segment, which the
// registry relies on when intermediate nodes are elided.
package uri

import (
	"fmt"
	"strings"

	"github.com/joshuapare/osckit/internal/format"
	"github.com/joshuapare/osckit/pkg/types"
)

// reserved holds OSC pattern characters plus bytes that can never appear in
// an address. Pattern matching is not supported, so these are rejected.
const reserved = " #*,?[]{}\x00"

// Check validates addr. It returns an error wrapping types.ErrAddressInvalid
// when addr is empty, doesn't start with '/', contains reserved characters or
// an empty interior segment.
func Check(addr string) error {
	if addr == "" || addr[0] != format.Separator {
		return fmt.Errorf("%w: %q must start with '/'", types.ErrAddressInvalid, addr)
	}
	if i := strings.IndexAny(addr, reserved); i >= 0 {
		return fmt.Errorf("%w: %q has reserved character %q at %d", types.ErrAddressInvalid, addr, addr[i], i)
	}
	if len(addr) > 1 && strings.Contains(addr, "//") {
		return fmt.Errorf("%w: %q has an empty segment", types.ErrAddressInvalid, addr)
	}
	if len(addr) > 1 && addr[len(addr)-1] == format.Separator {
		return fmt.Errorf("%w: %q has a trailing separator", types.ErrAddressInvalid, addr)
	}
	return nil
}

// SegLen returns the length of the first segment of addr, counting the
// leading separator and stopping at the next separator or the end.
//
//	SegLen("/foo/bar") = 4
//	SegLen("/")        = 1
func SegLen(addr string) int {
	if addr == "" {
		return 0
	}
	if i := strings.IndexByte(addr[1:], format.Separator); i >= 0 {
		return i + 1
	}
	return len(addr)
}

// SegLenMax returns the larger first-segment length of a and b.
func SegLenMax(a, b string) int {
	return max(SegLen(a), SegLen(b))
}

// SegCompare compares the first segment of a with the first segment of b.
// cmp is negative, zero or positive like strings.Compare; n is SegLenMax(a, b),
// i.e. how far either segment extends.
func SegCompare(a, b string) (cmp, n int) {
	n = SegLenMax(a, b)
	return strings.Compare(a[:SegLen(a)], b[:SegLen(b)]), n
}

// CommonRun returns the length of the longest run of whole, equal segments
// at the start of a and b.
//
//	CommonRun("/foo/bar/int", "/foo/bar/float") = 8
//	CommonRun("/foo/bar", "/foobar")            = 0
func CommonRun(a, b string) int {
	n := 0
	for n < len(a) && n < len(b) {
		cmp, l := SegCompare(a[n:], b[n:])
		if cmp != 0 || l == 0 {
			break
		}
		n += l
	}
	return n
}

// IsAncestor reports whether a is a strict whole-segment prefix of b.
// The root "/" is an ancestor of every other address.
func IsAncestor(a, b string) bool {
	if a == "/" {
		return len(b) > 1 && b[0] == format.Separator
	}
	return len(a) < len(b) && CommonRun(a, b) == len(a)
}

// Depth returns the number of separators in addr. The root "/" has depth 0.
//
//	Depth("/foo/bar") = 2
func Depth(addr string) int {
	if addr == "/" {
		return 0
	}
	return strings.Count(addr, "/")
}

// DepthEq reports whether Depth(addr) == n.
func DepthEq(addr string, n int) bool {
	return Depth(addr) == n
}

// Last returns the final segment of addr without its separator.
//
//	Last("/foo/bar") = "bar"
//	Last("/")        = ""
func Last(addr string) string {
	i := strings.LastIndexByte(addr, format.Separator)
	if i < 0 {
		return addr
	}
	return addr[i+1:]
}

// Parent returns addr with its final segment stripped. Top-level addresses
// and the root return "/".
//
//	Parent("/foo/bar") = "/foo"
//	Parent("/foo")     = "/"
func Parent(addr string) string {
	i := strings.LastIndexByte(addr, format.Separator)
	if i <= 0 {
		return "/"
	}
	return addr[:i]
}

// AppendParent appends Parent(addr) to dst, for callers that keep the result
// in their own buffer.
func AppendParent(dst []byte, addr string) []byte {
	return append(dst, Parent(addr)...)
}

// Segments splits addr into its segment names.
//
//	Segments("/foo/bar") = ["foo", "bar"]
//	Segments("/")        = []
func Segments(addr string) []string {
	if addr == "/" || addr == "" {
		return nil
	}
	return strings.Split(addr[1:], "/")
}
