package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshuapare/osckit/osc/message"
	"github.com/joshuapare/osckit/pkg/types"
)

var decodeFile string

func init() {
	cmd := newDecodeCmd()
	cmd.Flags().StringVarP(&decodeFile, "file", "f", "", "Read a raw packet from file (- for stdin)")
	rootCmd.AddCommand(cmd)
}

func newDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode [hex]",
		Short: "Decode an OSC message",
		Long: `The decode command parses an OSC message given as hex or read from a
file and prints its address, type tag and arguments.

Example:
  oscctl decode 2f666f6f000000002c690000 0000002a
  oscctl decode --file pos.osc --json`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := decodeInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			return runDecode(data)
		},
	}
}

func decodeInput(stdin io.Reader, args []string) ([]byte, error) {
	switch {
	case decodeFile == "-":
		return io.ReadAll(stdin)
	case decodeFile != "":
		return os.ReadFile(decodeFile)
	case len(args) > 0:
		data, err := hex.DecodeString(strings.Join(args, ""))
		if err != nil {
			return nil, fmt.Errorf("invalid hex: %w", err)
		}
		return data, nil
	}
	return nil, errors.New("expected hex argument or --file")
}

// decodedMessage is the JSON form of a decoded message.
type decodedMessage struct {
	Address string `json:"address"`
	Tag     string `json:"tag"`
	Size    int    `json:"size"`
	Args    []any  `json:"args"`
}

func runDecode(data []byte) error {
	m, err := message.Decode(data)
	if err != nil {
		return fmt.Errorf("failed to decode: %w", err)
	}

	out := decodedMessage{Address: m.Address(), Tag: m.Tag(), Size: m.Len(), Args: []any{}}
	var vals []types.Value
	for m.Remaining() > 0 {
		v, err := m.ReadValue()
		if err != nil {
			return fmt.Errorf("failed to read argument %d: %w", len(vals), err)
		}
		vals = append(vals, v)
		out.Args = append(out.Args, v.Any())
	}

	if jsonOut {
		return printJSON(out)
	}
	fmt.Printf("%s ,%s\n", out.Address, out.Tag)
	for i, v := range vals {
		fmt.Printf("  [%d] %s %s\n", i, v.Type, v)
	}
	return nil
}
