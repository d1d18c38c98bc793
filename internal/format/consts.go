package format

// OSC 1.0 wire constants.
const (
	// Alignment is the boundary every field is padded to.
	Alignment = 4

	// Separator starts every address and delimits its segments.
	Separator = '/'
	// TagIntroducer is the first byte of a type tag string.
	TagIntroducer = ','

	// NumericSize is the payload size of i, f and c arguments.
	NumericSize = 4
	// MinAddressField is the smallest encoded address ("/" + 3 NULs).
	MinAddressField = 4
	// MinTagField is the smallest encoded tag string ("," + 3 NULs).
	MinTagField = 4
)

// Type tag letters.
const (
	TagInt     byte = 'i'
	TagFloat   byte = 'f'
	TagChar    byte = 'c'
	TagString  byte = 's'
	TagTrue    byte = 'T'
	TagFalse   byte = 'F'
	TagNil     byte = 'N'
	TagImpulse byte = 'I'
)

// PayloadSize returns the fixed payload size of a tag letter, or -1 for
// variable-length (string) and unsupported letters.
func PayloadSize(tag byte) int {
	switch tag {
	case TagInt, TagFloat, TagChar:
		return NumericSize
	case TagTrue, TagFalse, TagNil, TagImpulse:
		return 0
	default:
		return -1
	}
}

// KnownTag reports whether tag is a letter this codec can encode and decode.
func KnownTag(tag byte) bool {
	return tag == TagString || PayloadSize(tag) >= 0
}

// AddressField returns the encoded size of an address of n bytes.
func AddressField(n int) int {
	return Padded(n)
}

// TagField returns the encoded size of a tag string with n letters
// (the introducer is counted here).
func TagField(n int) int {
	return Padded(n + 1)
}
