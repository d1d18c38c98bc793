package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/joshuapare/osckit/internal/logging"
)

var (
	// Global flags
	verbose bool
	quiet   bool
	jsonOut bool
	noColor bool
)

var rootCmd = &cobra.Command{
	Use:   "oscctl",
	Short: "Serve, encode and inspect OSC messages and OSCQuery trees",
	Long: `oscctl runs an OSCQuery server over a configured node tree and
provides helpers to encode, decode and print OSC messages and trees.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v\n", err)
		os.Exit(1)
	}
}

// newLogger builds the process logger from the global flags, a configured
// level and the OSCKIT_LOG_* environment.
func newLogger(level, format string) zerolog.Logger {
	cfg := logging.DefaultConfig()
	if lvl, ok := logging.ParseLevel(level); ok {
		cfg.Level = lvl
	}
	if format == "json" || jsonOut {
		cfg.JSON = true
	}
	switch {
	case quiet:
		cfg.Level = zerolog.ErrorLevel
	case verbose:
		cfg.Level = zerolog.DebugLevel
	}
	cfg.NoColor = noColor
	logging.ApplyEnv(&cfg)
	return logging.Init("oscctl", cfg)
}

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

func printError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format, args...)
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
