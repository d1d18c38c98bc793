package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/osckit/osc/alloc"
	"github.com/joshuapare/osckit/osc/printer"
)

var (
	treeConfig string
	treeFormat string
	treeDepth  int
	treeAttr   string
	treeStats  bool
)

func init() {
	cmd := newTreeCmd()
	cmd.Flags().StringVarP(&treeConfig, "config", "c", "", "Config file (.toml, .yaml)")
	cmd.Flags().StringVar(&treeFormat, "format", "text", "Output format: text, json, cbor")
	cmd.Flags().IntVar(&treeDepth, "depth", 0, "Maximum depth (0 = unlimited)")
	cmd.Flags().StringVar(&treeAttr, "attr", "", "Print a single attribute (VALUE, TYPE, ACCESS, ...)")
	cmd.Flags().BoolVar(&treeStats, "stats", false, "Print arena usage")
	rootCmd.AddCommand(cmd)
}

func newTreeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tree [address]",
		Short: "Print the configured node tree",
		Long: `The tree command builds the node tree from a config file and prints
it, or one attribute of one node, without starting a server.

Example:
  oscctl tree --config osckit.toml
  oscctl tree /foo --config osckit.toml --format json --depth 2
  oscctl tree /foo/bar/int --config osckit.toml --attr VALUE`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr := "/"
			if len(args) == 1 {
				addr = args[0]
			}
			return runTree(addr)
		},
	}
}

func runTree(addr string) error {
	cfg, err := loadConfig(treeConfig)
	if err != nil {
		return err
	}
	t, release, err := buildTree(cfg)
	if err != nil {
		return err
	}
	defer release()

	opts := printer.DefaultOptions()
	opts.MaxDepth = treeDepth
	if jsonOut {
		opts.Format = printer.FormatJSON
	} else if opts.Format, err = printer.ParseFormat(treeFormat); err != nil {
		return err
	}

	printVerbose("Built %d nodes from %q\n", t.Len()-1, treeConfig)
	p := printer.New(t, os.Stdout, opts)
	if treeAttr != "" {
		err = p.PrintAttribute(addr, treeAttr)
	} else {
		err = p.PrintTree(addr)
	}
	if err != nil {
		return fmt.Errorf("failed to print tree: %w", err)
	}

	if pool, ok := t.Allocator().(*alloc.Pool); ok && treeStats {
		return pool.WriteStats(os.Stderr)
	}
	return nil
}
