// Package message encodes and decodes single OSC 1.0 messages in a
// caller-supplied buffer.
//
// # Overview
//
// A Message borrows its buffer for its whole lifetime and never allocates.
// It is a small state machine:
//
//	ModeInvalid ─SetBuffer→ ModeWrite ─SetAddress→ ModeAddressSet
//	            ─SetTag→ ModeTagLocked ─last Write*→ ModeRead
//	Decode(buf) ───────────────────────────────────→ ModeRead
//
// SetTag locks the argument types: every following Write* must supply the
// type of the next unconsumed tag letter, in order. Once the last argument is
// written the message turns read-only and its read cursor rewinds to the
// first argument, so an encoded message can be read back immediately.
//
// # Wire Format
//
//	address  "/foo/bar" NUL-terminated, padded to 4 bytes
//	tag      "," + one letter per argument, NUL-terminated, padded
//	args     i: int32 BE   f: float32 BE   c: char in a 4-byte slot
//	         s: bytes + NUL padding   T/F/N/I: no payload
//
// Padding follows format.Pad: a field whose length is already a multiple of
// 4 still gets a full 4-byte pad.
//
// # Usage Example
//
//	var raw [512]byte
//	m := message.New(raw[:])
//	_ = m.SetAddress("/foo/bar")
//	_ = m.SetTag("fi")
//	_ = m.WriteFloat32(32.4)
//	_ = m.WriteInt32(47)     // message is now read-only
//	f, _ := m.ReadFloat32()  // 32.4
//
// # Errors
//
// Every failure is returned as one of the pkg/types codec sentinels
// (ErrReadOnly, ErrWriteOnly, ErrTagMismatch, ErrTagEnd, ErrTagLocked,
// ErrBufferOverflow, ErrAddressInvalid), possibly wrapped with context. A
// failed write leaves the buffer and the cursor untouched.
package message
