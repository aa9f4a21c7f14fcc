package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/marmos91/hellod/internal/logger"
	"github.com/marmos91/hellod/pkg/config"
	"github.com/marmos91/hellod/pkg/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	startPort     int
	startLogLevel string

	startCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the server",
		Long: `Start accepting connections.

The server runs until SIGINT or SIGTERM, then stops accepting and waits
for every in-flight connection to finish.`,
		RunE: runStart,
	}
)

func init() {
	addStartFlags(startCmd)
}

func addStartFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&startPort, "port", config.DefaultPort, "TCP port to listen on (0 picks an ephemeral port)")
	cmd.Flags().StringVar(&startLogLevel, "log-level", "INFO", "log level (DEBUG, INFO, WARN, ERROR)")
}

func runStart(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := logger.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output); err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("hellod %s", getVersionString())
	logger.Info("Server configuration:")
	logger.Info("  Port: %d", cfg.Server.Port)
	if cfg.Server.MetricsLogInterval > 0 {
		logger.Info("  Metrics log interval: %v", cfg.Server.MetricsLogInterval)
	} else {
		logger.Info("  Metrics log interval: disabled")
	}

	m := config.InitializeMetrics(cfg)

	srv, err := config.CreateServer(cfg, m.ServerMetrics)
	if err != nil {
		var setupErr *server.SetupError
		if errors.As(err, &setupErr) {
			logger.Error("Socket setup failed at %s: %v", setupErr.Step, setupErr.Err)
		} else {
			logger.Error("Failed to create server: %v", err)
		}
		return &ExitError{Code: 1, Err: err}
	}

	return serve(cmd.Context(), srv, m)
}

// serve runs the connection server and the optional metrics server until
// ctx is cancelled or one of them fails.
func serve(ctx context.Context, srv *server.Server, m *config.MetricsResult) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Serve(gctx)
	})

	if m.Server != nil {
		g.Go(func() error {
			return m.Server.Start(gctx)
		})
	}

	logger.Info("Server is running on port %d. Press Ctrl+C to stop.", srv.Port())

	if err := g.Wait(); err != nil {
		logger.Error("Server error: %v", err)
		return &ExitError{Code: 1, Err: err}
	}

	logger.Info("Server stopped gracefully")
	return nil
}

// loadConfig loads the configuration and applies start's flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Server.Port = startPort
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = strings.ToUpper(startLogLevel)
	}

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}
