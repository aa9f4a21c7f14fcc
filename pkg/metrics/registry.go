// Package metrics provides Prometheus metrics collection for hellod.
//
// Metrics are optional. Components that are handed a nil ServerMetrics use
// a no-op implementation, so the server runs the same with or without
// collection enabled. Metrics only observe: nothing here limits or delays
// connections.
//
// Usage:
//
//	metrics.InitRegistry()
//	m := prometheus.NewServerMetrics()
//	srv, err := server.New(cfg, m)
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// registry is written once by InitRegistry and read afterwards.
	registry     *prometheus.Registry
	registryOnce sync.Once
)

// InitRegistry initializes the global Prometheus registry, including the Go
// runtime and process collectors. Subsequent calls are ignored.
func InitRegistry() {
	registryOnce.Do(func() {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	})
}

// GetRegistry returns the global registry, or nil if InitRegistry has not
// been called.
func GetRegistry() *prometheus.Registry {
	return registry
}

// IsEnabled reports whether InitRegistry has been called.
func IsEnabled() bool {
	return GetRegistry() != nil
}
