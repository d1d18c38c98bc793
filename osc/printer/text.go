package printer

import (
	"fmt"
	"strings"
)

// printDocText prints d and its contents as an indented tree:
//
//	/
//	  foo/
//	    bar [i] rw = 42 critical
func (p *Printer) printDocText(d *NodeDoc, name string, depth int) error {
	indent := strings.Repeat(" ", depth*p.opts.IndentSize)
	if depth == 0 {
		name = d.FullPath
	}

	var b strings.Builder
	b.WriteString(indent)
	b.WriteString(name)
	if d.Type == "" {
		if depth > 0 {
			b.WriteByte('/')
		}
	} else {
		fmt.Fprintf(&b, " [%s] %s", d.Type, d.Access)
		if d.Value != nil {
			b.WriteString(" = ")
			b.WriteString(formatValue(d.Value))
		}
		if p.opts.ShowFlags {
			if d.Critical != nil && *d.Critical {
				b.WriteString(" critical")
			}
			if d.NoRepeat != nil && *d.NoRepeat {
				b.WriteString(" norepeat")
			}
		}
	}
	b.WriteByte('\n')
	if _, err := fmt.Fprint(p.writer, b.String()); err != nil {
		return err
	}

	for _, k := range sortedKeys(d.Contents) {
		if err := p.printDocText(d.Contents[k], k, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func formatValue(vals []any) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		if s, ok := v.(string); ok {
			parts[i] = fmt.Sprintf("%q", s)
			continue
		}
		parts[i] = fmt.Sprint(v)
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
