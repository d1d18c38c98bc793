package query

import (
	"fmt"
	"strings"

	"github.com/joshuapare/osckit/pkg/types"
)

// Flags control a node's access, delivery and callback behavior.
type Flags uint16

const (
	// FlagCritical marks a node whose updates need guaranteed delivery.
	FlagCritical Flags = 1 << iota
	// FlagReadOnly rejects writes that arrive from remote messages.
	FlagReadOnly
	// FlagWriteOnly hides the value from queries.
	FlagWriteOnly
	// FlagNoRepeat drops a set whose value equals the stored one.
	FlagNoRepeat
	// FlagCallbackBeforeSet runs the callback before commit so it can clamp
	// the incoming value.
	FlagCallbackBeforeSet
	// FlagCallbackAfterSet runs the callback after commit. This is the default
	// timing when no callback flag is given.
	FlagCallbackAfterSet
	// FlagCallbackNone suppresses the node callback.
	FlagCallbackNone
)

const callbackFlags = FlagCallbackBeforeSet | FlagCallbackAfterSet | FlagCallbackNone

var flagNames = []struct {
	f    Flags
	name string
}{
	{FlagCritical, "critical"},
	{FlagReadOnly, "readonly"},
	{FlagWriteOnly, "writeonly"},
	{FlagNoRepeat, "norepeat"},
	{FlagCallbackBeforeSet, "before"},
	{FlagCallbackAfterSet, "after"},
	{FlagCallbackNone, "nocallback"},
}

// Validate rejects contradictory combinations: read-only together with
// write-only, or more than one callback timing.
func (f Flags) Validate() error {
	if f&FlagReadOnly != 0 && f&FlagWriteOnly != 0 {
		return fmt.Errorf("%w: readonly and writeonly are exclusive", types.ErrFlagsInvalid)
	}
	if cb := f & callbackFlags; cb&(cb-1) != 0 {
		return fmt.Errorf("%w: more than one callback timing (%s)", types.ErrFlagsInvalid, cb)
	}
	return nil
}

func (f Flags) String() string {
	if f == 0 {
		return "none"
	}
	var parts []string
	for _, fn := range flagNames {
		if f&fn.f != 0 {
			parts = append(parts, fn.name)
		}
	}
	return strings.Join(parts, "|")
}

// ParseFlags parses names as printed by Flags.String, e.g. "critical|readonly".
// Commas are accepted as separators too.
func ParseFlags(s string) (Flags, error) {
	var f Flags
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == '|' || r == ',' }) {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" || part == "none" {
			continue
		}
		found := false
		for _, fn := range flagNames {
			if fn.name == part {
				f |= fn.f
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("%w: unknown flag %q", types.ErrFlagsInvalid, part)
		}
	}
	return f, f.Validate()
}

// Access is the OSCQuery access mode of a node.
type Access uint8

const (
	AccessNone      Access = 0
	AccessRead      Access = 1
	AccessWrite     Access = 2
	AccessReadWrite Access = 3
)

func (a Access) String() string {
	switch a {
	case AccessRead:
		return "r"
	case AccessWrite:
		return "w"
	case AccessReadWrite:
		return "rw"
	default:
		return "-"
	}
}

// TreeFlags configure tree-wide behavior.
type TreeFlags uint8

const (
	// CreateIntermediate materializes missing intermediate segments as
	// container nodes when a node is added. By default they are elided.
	CreateIntermediate TreeFlags = 1 << iota
)
