package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const configHeader = `# hellod Configuration File
#
# Every value can be overridden with an environment variable named after
# its path, e.g. HELLOD_SERVER_PORT=9000 or HELLOD_LOGGING_LEVEL=debug.
#
# server.metrics_log_interval: 0 disables the periodic worker count log.

`

// InitConfig writes a sample configuration to the default location.
//
// Returns the path written. An existing file is only replaced when force
// is true.
func InitConfig(force bool) (string, error) {
	return InitConfigAt(GetDefaultConfigPath(), force)
}

// InitConfigAt writes a sample configuration to path.
func InitConfigAt(path string, force bool) (string, error) {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := Render(GetDefaultConfig())
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, append([]byte(configHeader), data...), 0644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	return path, nil
}

// Render marshals cfg as YAML.
func Render(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}
