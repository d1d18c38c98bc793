package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshuapare/osckit/osc/message"
	"github.com/joshuapare/osckit/pkg/types"
)

var (
	encodeRaw  bool
	encodeDump bool
	encodeOut  string
)

func init() {
	cmd := newEncodeCmd()
	cmd.Flags().BoolVar(&encodeRaw, "raw", false, "Write the raw packet instead of hex")
	cmd.Flags().BoolVar(&encodeDump, "dump", false, "Write a hex dump")
	cmd.Flags().StringVarP(&encodeOut, "output", "o", "", "Write to file instead of stdout")
	rootCmd.AddCommand(cmd)
}

func newEncodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "encode <address> [type:value...]",
		Short: "Encode an OSC message",
		Long: `The encode command builds an OSC message from an address and typed
arguments. Types are int, float, char, bool, string, impulse, nil and
vec2..vec4 (comma-separated components).

Example:
  oscctl encode /foo/bar i:42 f:0.5 s:hello
  oscctl encode /pos vec3:1,2,3 --raw -o pos.osc`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEncode(args)
		},
	}
}

// parseArg parses "type:value". A bare type name is allowed for impulse
// and nil.
func parseArg(arg string) (types.Value, error) {
	name, raw, _ := strings.Cut(arg, ":")
	typ, err := types.ParseType(name)
	if err != nil {
		return types.Value{}, fmt.Errorf("argument %q: %w", arg, err)
	}
	v, err := types.ParseValue(typ, raw)
	if err != nil {
		return types.Value{}, fmt.Errorf("argument %q: %w", arg, err)
	}
	return v, nil
}

func runEncode(args []string) error {
	addr := args[0]
	vals := make([]types.Value, 0, len(args)-1)
	for _, a := range args[1:] {
		v, err := parseArg(a)
		if err != nil {
			return err
		}
		vals = append(vals, v)
	}

	m := message.New(make([]byte, message.Size(addr, vals...)))
	if err := m.Build(addr, vals...); err != nil {
		return fmt.Errorf("failed to encode: %w", err)
	}
	printVerbose("Encoded %s\n", m)

	out := os.Stdout
	if encodeOut != "" {
		f, err := os.Create(encodeOut)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer f.Close()
		out = f
	}

	switch {
	case encodeRaw:
		_, err := out.Write(m.Bytes())
		return err
	case encodeDump:
		return m.Dump(out)
	default:
		_, err := fmt.Fprintln(out, hex.EncodeToString(m.Bytes()))
		return err
	}
}
