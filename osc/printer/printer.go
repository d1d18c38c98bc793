package printer

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"

	"github.com/fxamacker/cbor/v2"

	"github.com/joshuapare/osckit/osc/query"
)

const (
	DefaultIndentSize = 2
	DefaultMaxDepth   = 0
)

// Format specifies the output format for printing.
type Format string

const (
	// FormatText outputs an indented, human-readable tree.
	FormatText Format = "text"

	// FormatJSON outputs OSCQuery JSON.
	FormatJSON Format = "json"

	// FormatCBOR outputs the OSCQuery document encoded as CBOR.
	FormatCBOR Format = "cbor"
)

// ParseFormat maps a format name to a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatCBOR:
		return f, nil
	case "":
		return FormatText, nil
	}
	return "", fmt.Errorf("unknown format %q (want text, json or cbor)", s)
}

// Options controls printing behavior.
type Options struct {
	// Format specifies output format (text, json, cbor).
	// Default: FormatText
	Format Format

	// IndentSize is the number of spaces per indent level (text and JSON).
	// Default: 2
	IndentSize int

	// MaxDepth limits recursion depth (0 = unlimited).
	// Default: 0 (unlimited)
	MaxDepth int

	// ShowFlags appends CRITICAL/NOREPEAT markers in text output.
	// Default: true
	ShowFlags bool
}

// DefaultOptions returns sensible defaults for printing.
func DefaultOptions() Options {
	return Options{
		Format:     FormatText,
		IndentSize: DefaultIndentSize,
		MaxDepth:   DefaultMaxDepth,
		ShowFlags:  true,
	}
}

// Printer writes attribute projections of a tree. It only reads the tree.
type Printer struct {
	opts   Options
	writer io.Writer
	tree   *query.Tree
}

// New creates a new Printer.
//
// Example:
//
//	p := printer.New(tree, os.Stdout, printer.DefaultOptions())
//	p.PrintTree("/foo")
func New(t *query.Tree, w io.Writer, opts Options) *Printer {
	return &Printer{
		tree:   t,
		writer: w,
		opts:   opts,
	}
}

// PrintNode prints the node at addr without its descendants.
func (p *Printer) PrintNode(addr string) error {
	n, err := p.tree.Get(addr)
	if err != nil {
		return fmt.Errorf("find node %q: %w", addr, err)
	}
	return p.write(Document(n, 1))
}

// PrintTree prints the subtree rooted at addr, limited by MaxDepth.
func (p *Printer) PrintTree(addr string) error {
	n, err := p.tree.Get(addr)
	if err != nil {
		return fmt.Errorf("find node %q: %w", addr, err)
	}
	return p.write(Document(n, p.opts.MaxDepth))
}

// PrintAttribute prints a single attribute of the node at addr as
// {"ATTR": value}.
func (p *Printer) PrintAttribute(addr, attr string) error {
	n, err := p.tree.Get(addr)
	if err != nil {
		return fmt.Errorf("find node %q: %w", addr, err)
	}
	v, err := Attribute(n, attr)
	if err != nil {
		return err
	}
	doc := map[string]any{strings.ToUpper(attr): v}
	if p.opts.Format == FormatText {
		_, err = fmt.Fprintf(p.writer, "%s %s = %v\n", addr, strings.ToUpper(attr), v)
		return err
	}
	return p.encode(doc)
}

// PrintHostInfo prints a host-info document.
func (p *Printer) PrintHostInfo(info HostInfo) error {
	if p.opts.Format == FormatText {
		_, err := fmt.Fprintf(p.writer, "%s osc=%s:%d\n", info.Name, info.OSCTransport, info.OSCPort)
		return err
	}
	return p.encode(info)
}

func (p *Printer) write(d *NodeDoc) error {
	if p.opts.Format == FormatText {
		return p.printDocText(d, "", 0)
	}
	return p.encode(d)
}

// encode writes v as JSON or CBOR.
func (p *Printer) encode(v any) error {
	switch p.opts.Format {
	case FormatCBOR:
		data, err := Marshal(v, FormatCBOR)
		if err != nil {
			return err
		}
		_, err = p.writer.Write(data)
		return err
	default:
		enc := json.NewEncoder(p.writer)
		if p.opts.IndentSize > 0 {
			enc.SetIndent("", strings.Repeat(" ", p.opts.IndentSize))
		}
		return enc.Encode(v)
	}
}

// encMode uses Core Deterministic Encoding so the same document always
// yields the same bytes.
var encMode cbor.EncMode

// decMode decodes untyped maps as map[string]any so CBOR documents compare
// equal to their JSON counterparts.
var decMode cbor.DecMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("printer: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("printer: CBOR decoder initialization failed: " + err.Error())
	}
}

// UnmarshalCBOR decodes a CBOR document produced by Marshal into v.
func UnmarshalCBOR(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// Marshal encodes a document (NodeDoc, HostInfo or an attribute map) in
// compact JSON or CBOR. Text is not a wire format and is rejected.
func Marshal(v any, f Format) ([]byte, error) {
	switch f {
	case FormatJSON:
		return json.Marshal(v)
	case FormatCBOR:
		return encMode.Marshal(v)
	}
	return nil, fmt.Errorf("marshal: unsupported format %q", f)
}

func sortedKeys(m map[string]*NodeDoc) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
