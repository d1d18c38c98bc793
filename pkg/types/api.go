package types

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// -----------------------------------------------------------------------------
// Typed Errors (stable categories for programmatic handling)
// -----------------------------------------------------------------------------

// ErrKind classifies errors so callers can branch on intent rather than text.
type ErrKind int

const (
	ErrKindAddress     ErrKind = iota // malformed or unknown OSC address
	ErrKindTag                        // type tag discipline violated (mismatch, end, locked)
	ErrKindBounds                     // buffer or bounded-string capacity exceeded
	ErrKindType                       // value type doesn't match the node's fixed type
	ErrKindState                      // invalid operation for current mode (read-only, write-only, access)
	ErrKindNotFound                   // missing node
	ErrKindUnsupported                // recognized but unsupported attribute or feature
	ErrKindCapacity                   // allocator exhausted
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindAddress:
		return "address"
	case ErrKindTag:
		return "tag"
	case ErrKindBounds:
		return "bounds"
	case ErrKindType:
		return "type"
	case ErrKindState:
		return "state"
	case ErrKindNotFound:
		return "not_found"
	case ErrKindUnsupported:
		return "unsupported"
	case ErrKindCapacity:
		return "capacity"
	default:
		return "unknown"
	}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (ErrKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// Error is a typed error with an optional underlying cause.
type Error struct {
	Kind ErrKind
	Msg  string
	Err  error // optional underlying cause
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Codec sentinels.
var (
	// ErrReadOnly indicates a write was attempted on a message in read mode.
	ErrReadOnly = &Error{Kind: ErrKindState, Msg: "message is read-only"}
	// ErrWriteOnly indicates a read was attempted before the message was complete.
	ErrWriteOnly = &Error{Kind: ErrKindState, Msg: "message is write-only"}
	// ErrTagMismatch indicates the requested type doesn't match the next tag letter.
	ErrTagMismatch = &Error{Kind: ErrKindTag, Msg: "type tag mismatch"}
	// ErrTagEnd indicates every tag letter has already been consumed.
	ErrTagEnd = &Error{Kind: ErrKindTag, Msg: "type tag exhausted"}
	// ErrTagLocked indicates the tag string was already set for this message.
	ErrTagLocked = &Error{Kind: ErrKindTag, Msg: "type tag already locked"}
	// ErrBufferOverflow indicates the operation doesn't fit in the message buffer.
	ErrBufferOverflow = &Error{Kind: ErrKindBounds, Msg: "message buffer overflow"}
	// ErrAddressInvalid indicates an address that doesn't start with '/' or is otherwise malformed.
	ErrAddressInvalid = &Error{Kind: ErrKindAddress, Msg: "invalid address"}
)

// Registry sentinels.
var (
	// ErrTypeMismatch indicates a set or get with a type other than the node's.
	ErrTypeMismatch = &Error{Kind: ErrKindType, Msg: "node value has different type"}
	// ErrStringBufferOverflow indicates a string longer than the node's capacity.
	ErrStringBufferOverflow = &Error{Kind: ErrKindBounds, Msg: "string exceeds node capacity"}
	// ErrAttributeUnsupported indicates an unknown attribute query.
	ErrAttributeUnsupported = &Error{Kind: ErrKindUnsupported, Msg: "attribute unsupported"}
	// ErrNotFound indicates no node exists at the address.
	ErrNotFound = &Error{Kind: ErrKindNotFound, Msg: "node not found"}
	// ErrNodeExists indicates a node was already added at the address.
	ErrNodeExists = &Error{Kind: ErrKindAddress, Msg: "node already exists"}
	// ErrFlagsInvalid indicates a contradictory flag set (e.g. ReadOnly|WriteOnly).
	ErrFlagsInvalid = &Error{Kind: ErrKindState, Msg: "invalid node flags"}
	// ErrAccessDenied indicates a remote write to a read-only node.
	ErrAccessDenied = &Error{Kind: ErrKindState, Msg: "node access denied"}
	// ErrNoSpace indicates the tree's allocator could not satisfy a request.
	ErrNoSpace = &Error{Kind: ErrKindCapacity, Msg: "allocator capacity exceeded"}
)

// -----------------------------------------------------------------------------
// Value model
// -----------------------------------------------------------------------------

// Type enumerates the value types a node or message argument can carry.
type Type uint8

const (
	TypeInvalid Type = iota
	TypeNil
	TypeInt
	TypeFloat
	TypeChar
	TypeBool
	TypeString
	TypeImpulse
	TypeVec2
	TypeVec3
	TypeVec4
)

// String implements the Stringer interface for Type.
func (t Type) String() string {
	switch t {
	case TypeNil:
		return "nil"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeChar:
		return "char"
	case TypeBool:
		return "bool"
	case TypeString:
		return "string"
	case TypeImpulse:
		return "impulse"
	case TypeVec2:
		return "vec2f"
	case TypeVec3:
		return "vec3f"
	case TypeVec4:
		return "vec4f"
	default:
		return fmt.Sprintf("UNKNOWN_TYPE_%d", uint8(t))
	}
}

// ParseType maps a type name (as printed by String) back to a Type.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "nil", "container", "":
		return TypeNil, nil
	case "int", "i":
		return TypeInt, nil
	case "float", "f":
		return TypeFloat, nil
	case "char", "c":
		return TypeChar, nil
	case "bool", "b":
		return TypeBool, nil
	case "string", "s":
		return TypeString, nil
	case "impulse", "pulse":
		return TypeImpulse, nil
	case "vec2f", "vec2":
		return TypeVec2, nil
	case "vec3f", "vec3":
		return TypeVec3, nil
	case "vec4f", "vec4":
		return TypeVec4, nil
	}
	return TypeInvalid, fmt.Errorf("unknown value type %q", s)
}

// Arity is the number of float components of a vector type, 0 otherwise.
func (t Type) Arity() int {
	switch t {
	case TypeVec2:
		return 2
	case TypeVec3:
		return 3
	case TypeVec4:
		return 4
	default:
		return 0
	}
}

// Tags returns the OSC type tag letters describing t. Bool reports 'T';
// use Value.Tags for the tag of a concrete boolean.
func (t Type) Tags() string {
	switch t {
	case TypeNil:
		return "N"
	case TypeInt:
		return "i"
	case TypeFloat:
		return "f"
	case TypeChar:
		return "c"
	case TypeBool:
		return "T"
	case TypeString:
		return "s"
	case TypeImpulse:
		return "I"
	case TypeVec2:
		return "ff"
	case TypeVec3:
		return "fff"
	case TypeVec4:
		return "ffff"
	default:
		return ""
	}
}

// Value is a tagged union over the supported value types. Only the field
// selected by Type is meaningful.
type Value struct {
	Type Type
	I    int32
	F    float32
	C    byte
	B    bool
	S    string
	V    [4]float32
}

func Nil() Value { return Value{Type: TypeNil} }
func Int(i int32) Value { return Value{Type: TypeInt, I: i} }
func Float(f float32) Value { return Value{Type: TypeFloat, F: f} }
func Char(c byte) Value { return Value{Type: TypeChar, C: c} }
func Bool(b bool) Value { return Value{Type: TypeBool, B: b} }
func String(s string) Value { return Value{Type: TypeString, S: s} }
func Impulse() Value { return Value{Type: TypeImpulse} }
func Vec2(x, y float32) Value { return Value{Type: TypeVec2, V: [4]float32{x, y}} }

func Vec3(x, y, z float32) Value {
	return Value{Type: TypeVec3, V: [4]float32{x, y, z}}
}

func Vec4(x, y, z, w float32) Value {
	return Value{Type: TypeVec4, V: [4]float32{x, y, z, w}}
}

// Zero returns the zero value for t.
func Zero(t Type) Value { return Value{Type: t} }

// Vec returns the used vector components. It is empty for non-vector values.
func (v Value) Vec() []float32 {
	return v.V[:v.Type.Arity()]
}

// Tags returns the OSC type tag letters that encode v on the wire.
func (v Value) Tags() string {
	if v.Type == TypeBool {
		if v.B {
			return "T"
		}
		return "F"
	}
	return v.Type.Tags()
}

// Equal reports whether v and o hold the same type and bit-identical payload.
func (v Value) Equal(o Value) bool {
	if v.Type != o.Type {
		return false
	}
	switch v.Type {
	case TypeInt:
		return v.I == o.I
	case TypeFloat:
		return math.Float32bits(v.F) == math.Float32bits(o.F)
	case TypeChar:
		return v.C == o.C
	case TypeBool:
		return v.B == o.B
	case TypeString:
		return v.S == o.S
	case TypeVec2, TypeVec3, TypeVec4:
		for i := range v.Type.Arity() {
			if math.Float32bits(v.V[i]) != math.Float32bits(o.V[i]) {
				return false
			}
		}
		return true
	case TypeImpulse:
		// every pulse is a new event
		return false
	default:
		return true
	}
}

// Any returns the payload as a plain Go value suitable for JSON/CBOR encoding.
// Vectors become []float32, nil and impulse become nil.
func (v Value) Any() any {
	switch v.Type {
	case TypeInt:
		return v.I
	case TypeFloat:
		return v.F
	case TypeChar:
		return string(rune(v.C))
	case TypeBool:
		return v.B
	case TypeString:
		return v.S
	case TypeVec2, TypeVec3, TypeVec4:
		out := make([]float32, v.Type.Arity())
		copy(out, v.V[:])
		return out
	default:
		return nil
	}
}

func (v Value) String() string {
	switch v.Type {
	case TypeInt:
		return strconv.FormatInt(int64(v.I), 10)
	case TypeFloat:
		return strconv.FormatFloat(float64(v.F), 'g', -1, 32)
	case TypeChar:
		return strconv.QuoteRune(rune(v.C))
	case TypeBool:
		return strconv.FormatBool(v.B)
	case TypeString:
		return strconv.Quote(v.S)
	case TypeVec2, TypeVec3, TypeVec4:
		parts := make([]string, 0, 4)
		for _, f := range v.Vec() {
			parts = append(parts, strconv.FormatFloat(float64(f), 'g', -1, 32))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case TypeImpulse:
		return "impulse"
	case TypeNil:
		return "nil"
	default:
		return "invalid"
	}
}

// ParseValue parses a textual value of type t, as used by config files and
// the CLI. Vectors are comma-separated floats.
func ParseValue(t Type, s string) (Value, error) {
	s = strings.TrimSpace(s)
	switch t {
	case TypeNil:
		return Nil(), nil
	case TypeImpulse:
		return Impulse(), nil
	case TypeInt:
		i, err := strconv.ParseInt(s, 0, 32)
		if err != nil {
			return Value{}, fmt.Errorf("parse int %q: %w", s, err)
		}
		return Int(int32(i)), nil
	case TypeFloat:
		f, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return Value{}, fmt.Errorf("parse float %q: %w", s, err)
		}
		return Float(float32(f)), nil
	case TypeChar:
		if len(s) != 1 {
			return Value{}, fmt.Errorf("parse char %q: want exactly one byte", s)
		}
		return Char(s[0]), nil
	case TypeBool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return Value{}, fmt.Errorf("parse bool %q: %w", s, err)
		}
		return Bool(b), nil
	case TypeString:
		return String(s), nil
	case TypeVec2, TypeVec3, TypeVec4:
		parts := strings.Split(s, ",")
		if len(parts) != t.Arity() {
			return Value{}, fmt.Errorf("parse %s %q: want %d components, got %d", t, s, t.Arity(), len(parts))
		}
		v := Zero(t)
		for i, p := range parts {
			f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
			if err != nil {
				return Value{}, fmt.Errorf("parse %s component %d: %w", t, i, err)
			}
			v.V[i] = float32(f)
		}
		return v, nil
	}
	return Value{}, fmt.Errorf("parse value: unsupported type %s", t)
}
