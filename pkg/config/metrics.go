package config

import (
	"github.com/marmos91/hellod/pkg/metrics"
	promMetrics "github.com/marmos91/hellod/pkg/metrics/prometheus"
)

// MetricsResult contains all metrics-related components created from configuration.
type MetricsResult struct {
	// Server is the HTTP server exposing Prometheus metrics (nil if disabled)
	Server *metrics.Server

	// ServerMetrics is handed to the connection server (never nil)
	ServerMetrics metrics.ServerMetrics
}

// InitializeMetrics creates the metrics components for cfg.
//
// When metrics are disabled the result has a nil Server and no-op
// ServerMetrics.
func InitializeMetrics(cfg *Config) *MetricsResult {
	if !cfg.Metrics.Enabled {
		return &MetricsResult{
			ServerMetrics: metrics.NewNoopServerMetrics(),
		}
	}

	metrics.InitRegistry()

	return &MetricsResult{
		Server: metrics.NewServer(metrics.ServerConfig{
			Port: cfg.Metrics.Port,
		}),
		ServerMetrics: promMetrics.NewServerMetrics(),
	}
}
