// Package charset transcodes OSC string payloads between UTF-8 and the
// legacy 8-bit charsets some controllers still send.
package charset

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Charset converts string payloads. The zero value is UTF-8 passthrough.
type Charset struct {
	name string
	enc  encoding.Encoding // nil for UTF-8
}

var named = map[string]*charmap.Charmap{
	"latin1":       charmap.ISO8859_1,
	"iso-8859-1":   charmap.ISO8859_1,
	"iso-8859-15":  charmap.ISO8859_15,
	"latin9":       charmap.ISO8859_15,
	"windows-1252": charmap.Windows1252,
	"cp1252":       charmap.Windows1252,
}

// Lookup returns the charset called name. Empty, "utf8" and "utf-8" select
// passthrough.
func Lookup(name string) (Charset, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	switch key {
	case "", "utf8", "utf-8":
		return Charset{name: "utf-8"}, nil
	}
	cm, ok := named[key]
	if !ok {
		return Charset{}, fmt.Errorf("unknown charset %q", name)
	}
	return Charset{name: key, enc: cm}, nil
}

// Name returns the canonical name used to look the charset up.
func (c Charset) Name() string {
	if c.name == "" {
		return "utf-8"
	}
	return c.name
}

// Decode converts an inbound payload to a UTF-8 string.
func (c Charset) Decode(b []byte) (string, error) {
	if c.enc == nil {
		return string(b), nil
	}
	out, err := c.enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", c.name, err)
	}
	return string(out), nil
}

// Encode converts a UTF-8 string to the charset for outbound payloads.
// Runes the charset cannot represent fail.
func (c Charset) Encode(s string) (string, error) {
	if c.enc == nil {
		return s, nil
	}
	out, err := c.enc.NewEncoder().String(s)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", c.name, err)
	}
	return out, nil
}
