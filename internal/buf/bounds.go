package buf

import (
	"bytes"
	"math"
)

// AddOverflowSafe adds a and b, returning ok = false when the result would overflow int.
func AddOverflowSafe(a, b int) (int, bool) {
	switch {
	case b > 0 && a > math.MaxInt-b:
		return 0, false
	case b < 0 && a < math.MinInt-b:
		return 0, false
	default:
		return a + b, true
	}
}

// Slice returns the sub-slice [off:off+n] if it fits within len(b).
func Slice(b []byte, off, n int) ([]byte, bool) {
	if off < 0 || n < 0 || off > len(b) {
		return nil, false
	}
	end, ok := AddOverflowSafe(off, n)
	if !ok || end > len(b) {
		return nil, false
	}
	return b[off:end], true
}

// Has reports whether b[off:off+n] is within bounds.
func Has(b []byte, off, n int) bool {
	_, ok := Slice(b, off, n)
	return ok
}

// IndexNUL returns the absolute index of the first NUL byte at or after off,
// or -1 when off is out of range or no terminator exists.
func IndexNUL(b []byte, off int) int {
	if off < 0 || off >= len(b) {
		return -1
	}
	i := bytes.IndexByte(b[off:], 0)
	if i < 0 {
		return -1
	}
	return off + i
}

// Zero clears b.
func Zero(b []byte) {
	clear(b)
}
