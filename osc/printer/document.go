package printer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joshuapare/osckit/osc/query"
	"github.com/joshuapare/osckit/osc/uri"
	"github.com/joshuapare/osckit/pkg/types"
)

// ErrNoValue indicates a VALUE query on a node that has no readable value
// (write-only nodes, containers and impulses).
var ErrNoValue = errors.New("printer: node has no readable value")

// Attribute names understood by Attribute.
const (
	AttrFullPath = "FULL_PATH"
	AttrType     = "TYPE"
	AttrValue    = "VALUE"
	AttrAccess   = "ACCESS"
	AttrCritical = "CRITICAL"
	AttrNoRepeat = "NOREPEAT"
	AttrContents = "CONTENTS"
	AttrHostInfo = "HOST_INFO"
)

// NodeDoc is the OSCQuery attribute document of one node. Synthetic
// containers stand in for address segments that have no node; they carry
// only FULL_PATH, ACCESS and CONTENTS.
type NodeDoc struct {
	FullPath string              `json:"FULL_PATH"`
	Type     string              `json:"TYPE,omitempty"`
	Value    []any               `json:"VALUE,omitempty"`
	Access   query.Access        `json:"ACCESS"`
	Critical *bool               `json:"CRITICAL,omitempty"`
	NoRepeat *bool               `json:"NOREPEAT,omitempty"`
	Contents map[string]*NodeDoc `json:"CONTENTS,omitempty"`
}

// Document projects n and, up to maxDepth levels (0 = unlimited), its
// descendants. It never mutates the tree.
func Document(n *query.Node, maxDepth int) *NodeDoc {
	d := leafDoc(n)
	if maxDepth == 1 {
		return d
	}
	next := 0
	if maxDepth > 1 {
		next = maxDepth - 1
	}

	base := uri.Depth(n.Address())
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		segs := uri.Segments(c.Address())[base:]
		parent := d
		// elided segments between n and c become synthetic containers
		for i, seg := range segs[:len(segs)-1] {
			if parent.Contents == nil {
				parent.Contents = make(map[string]*NodeDoc)
			}
			sub, ok := parent.Contents[seg]
			if !ok {
				sub = &NodeDoc{FullPath: joinPath(n.Address(), segs[:i+1])}
				parent.Contents[seg] = sub
			}
			parent = sub
		}
		if parent.Contents == nil {
			parent.Contents = make(map[string]*NodeDoc)
		}
		parent.Contents[segs[len(segs)-1]] = Document(c, next)
	}
	return d
}

func joinPath(base string, segs []string) string {
	if base == "/" {
		base = ""
	}
	return base + "/" + strings.Join(segs, "/")
}

func leafDoc(n *query.Node) *NodeDoc {
	d := &NodeDoc{
		FullPath: n.Address(),
		Access:   n.Access(),
	}
	if n.IsContainer() {
		return d
	}
	critical, norepeat := n.Critical(), n.NoRepeat()
	// booleans declare "T"; the value itself travels in VALUE
	d.Type = n.Type().Tags()
	d.Critical = &critical
	d.NoRepeat = &norepeat
	if v, err := valueArray(n); err == nil {
		d.Value = v
	}
	return d
}

// valueArray renders n's value as an OSCQuery VALUE array.
func valueArray(n *query.Node) ([]any, error) {
	if n.WriteOnly() || n.IsContainer() || n.Type() == types.TypeImpulse {
		return nil, ErrNoValue
	}
	v := n.Value()
	if vec := v.Vec(); len(vec) > 0 {
		out := make([]any, len(vec))
		for i, f := range vec {
			out[i] = f
		}
		return out, nil
	}
	return []any{v.Any()}, nil
}

// Attribute returns the single attribute attr of n (case-insensitive).
// Unknown names fail with types.ErrAttributeUnsupported; VALUE on a node
// without a readable value fails with ErrNoValue.
func Attribute(n *query.Node, attr string) (any, error) {
	switch strings.ToUpper(attr) {
	case AttrFullPath:
		return n.Address(), nil
	case AttrType:
		if n.IsContainer() {
			return nil, ErrNoValue
		}
		return n.Type().Tags(), nil
	case AttrValue:
		return valueArray(n)
	case AttrAccess:
		return n.Access(), nil
	case AttrCritical:
		return n.Critical(), nil
	case AttrNoRepeat:
		return n.NoRepeat(), nil
	case AttrContents:
		return Document(n, 0).Contents, nil
	}
	return nil, fmt.Errorf("%w: %q", types.ErrAttributeUnsupported, attr)
}

// HostInfo is the OSCQuery host-info document.
type HostInfo struct {
	Name         string          `json:"NAME"`
	OSCPort      int             `json:"OSC_PORT"`
	OSCTransport string          `json:"OSC_TRANSPORT"`
	Extensions   map[string]bool `json:"EXTENSIONS"`
}

// NewHostInfo returns a host-info document advertising the attributes this
// package can serve.
func NewHostInfo(name string, oscPort int) HostInfo {
	return HostInfo{
		Name:         name,
		OSCPort:      oscPort,
		OSCTransport: "UDP",
		Extensions: map[string]bool{
			"ACCESS":        true,
			"VALUE":         true,
			"CRITICAL":      true,
			"LISTEN":        true,
			"RANGE":         false,
			"DESCRIPTION":   false,
			"TAGS":          false,
			"EXTENDED_TYPE": false,
			"UNIT":          false,
			"CLIPMODE":      false,
			"PATH_CHANGED":  false,
			"PATH_RENAMED":  false,
			"PATH_ADDED":    false,
			"PATH_REMOVED":  false,
			"HTML":          false,
		},
	}
}
