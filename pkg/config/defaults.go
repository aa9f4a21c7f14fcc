package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultPort               = 8080
	DefaultMetricsPort        = 9090
	DefaultMetricsLogInterval = 5 * time.Minute
)

// registerDefaults seeds viper with every known key.
func registerDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "INFO")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("server.port", DefaultPort)
	v.SetDefault("server.metrics_log_interval", DefaultMetricsLogInterval)
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.port", DefaultMetricsPort)
}

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// Zero values are replaced, explicit values are preserved. The server
// fields are the exception: server.port 0 means an ephemeral port and
// server.metrics_log_interval 0 means "disabled", so their defaults come
// from registerDefaults instead.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyMetricsDefaults(&cfg.Metrics)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Port == 0 {
		cfg.Port = DefaultMetricsPort
	}
}

// GetDefaultConfig returns a Config with all default values applied.
//
// Used to generate sample configuration files and in tests.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	cfg.Server.Port = DefaultPort
	cfg.Server.MetricsLogInterval = DefaultMetricsLogInterval
	ApplyDefaults(cfg)
	return cfg
}
