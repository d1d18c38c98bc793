// Package buf contains bounds-checked big-endian helpers for the OSC wire format.
package buf

import (
	"encoding/binary"
	"math"
)

// U32BE reads a big-endian uint32 from b. Returns 0 when b is too short.
func U32BE(b []byte) uint32 {
	if len(b) < 4 {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

// I32BE reads a big-endian two's-complement int32 from b. Returns 0 when b is too short.
func I32BE(b []byte) int32 {
	return int32(U32BE(b))
}

// F32BE reads a big-endian IEEE-754 float32 from b. Returns 0 when b is too short.
func F32BE(b []byte) float32 {
	return math.Float32frombits(U32BE(b))
}

// PutU32BE writes v big-endian into b[0:4]. Returns false when b is too short.
func PutU32BE(b []byte, v uint32) bool {
	if len(b) < 4 {
		return false
	}
	binary.BigEndian.PutUint32(b, v)
	return true
}

// PutI32BE writes v big-endian into b[0:4]. Returns false when b is too short.
func PutI32BE(b []byte, v int32) bool {
	return PutU32BE(b, uint32(v))
}

// PutF32BE writes the IEEE-754 bits of v big-endian into b[0:4].
func PutF32BE(b []byte, v float32) bool {
	return PutU32BE(b, math.Float32bits(v))
}
