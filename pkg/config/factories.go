package config

import (
	"github.com/marmos91/hellod/pkg/metrics"
	"github.com/marmos91/hellod/pkg/server"
)

// CreateServer binds the connection server described by cfg.
//
// Errors from socket setup are *server.SetupError and mean the process
// should exit.
func CreateServer(cfg *Config, m metrics.ServerMetrics) (*server.Server, error) {
	return server.New(cfg.Server, m)
}
