package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/joshuapare/osckit/internal/charset"
	"github.com/joshuapare/osckit/internal/config"
	"github.com/joshuapare/osckit/server"
)

var (
	serveConfig   string
	serveBind     string
	serveOSCPort  int
	serveHTTPPort int
)

func init() {
	cmd := newServeCmd()
	cmd.Flags().StringVarP(&serveConfig, "config", "c", "", "Config file (.toml, .yaml)")
	cmd.Flags().StringVar(&serveBind, "bind", "", "Override the listen host")
	cmd.Flags().IntVar(&serveOSCPort, "osc-port", -1, "Override the OSC UDP port")
	cmd.Flags().IntVar(&serveHTTPPort, "http-port", -1, "Override the OSCQuery HTTP port")
	rootCmd.AddCommand(cmd)
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run an OSCQuery server",
		Long: `The serve command builds the configured node tree and serves it:
OSC over UDP, OSCQuery over HTTP and LISTEN streams over WebSocket.

Example:
  oscctl serve --config osckit.toml
  oscctl serve --config osckit.yaml --osc-port 9000 --http-port 9001`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx)
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, err := loadConfig(serveConfig)
	if err != nil {
		return err
	}
	if serveBind != "" {
		cfg.Bind = serveBind
	}
	if serveOSCPort >= 0 {
		cfg.OSCPort = serveOSCPort
	}
	if serveHTTPPort >= 0 {
		cfg.HTTPPort = serveHTTPPort
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	logger := newLogger(cfg.Log.Level, cfg.Log.Format)

	t, release, err := buildTree(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := release(); err != nil {
			logger.Warn().Err(err).Msg("release arena")
		}
	}()

	cs, err := charset.Lookup(cfg.Charset)
	if err != nil {
		return err
	}
	srv, err := server.New(t, server.Options{
		Name:     cfg.Name,
		Bind:     cfg.Bind,
		OSCPort:  cfg.OSCPort,
		HTTPPort: cfg.HTTPPort,
		Charset:  cs,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	if err := srv.Listen(); err != nil {
		return err
	}
	printInfo("Serving %d nodes: osc=udp://%s http=http://%s\n", t.Len()-1, srv.OSCAddr(), srv.HTTPAddr())
	return srv.Run(ctx)
}
