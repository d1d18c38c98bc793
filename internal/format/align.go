package format

// Padding utilities for the OSC wire format. Every string-like field is
// NUL-terminated and padded so the next field starts on a 4-byte boundary.

// Pad returns the number of NUL bytes that follow a field of n bytes.
// The result is always in 1..4: a field whose length is already a multiple
// of 4 still receives a full 4-byte pad, which doubles as its terminator.
//
// Example:
//
//	Pad(0) = 4
//	Pad(3) = 1
//	Pad(4) = 4
//	Pad(5) = 3
func Pad(n int) int {
	return Alignment - (n % Alignment)
}

// Padded returns n plus its padding.
//
// Example:
//
//	Padded(8)  = 12 // "/test_02"
//	Padded(11) = 12 // "two coopers"
func Padded(n int) int {
	return n + Pad(n)
}
