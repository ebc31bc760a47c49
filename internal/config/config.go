package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Load reads configuration from standard locations with environment overrides.
// Search order: ~/.stemdeckrc, $XDG_CONFIG_HOME/stemdeck/config.toml, ~/.config/stemdeck/config.toml
func Load() (*Config, error) {
	cfg := &Config{}

	// Try loading from file
	path := findConfigFile()
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, err
		}
	}

	// Apply defaults, then environment variable overrides
	cfg.ApplyDefaults()
	applyEnvOverrides(cfg)

	return cfg, nil
}

// LoadFrom reads configuration from a specific file path.
func LoadFrom(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	applyEnvOverrides(cfg)
	return cfg, nil
}

// Path returns the file Load would read, or the default location for a new
// config file when none exists yet.
func Path() string {
	if p := findConfigFile(); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".stemdeckrc"
	}
	return filepath.Join(home, ".stemdeckrc")
}

// Save writes cfg as TOML to path, creating parent directories.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	_, _ = fmt.Fprintln(f, "# Stemdeck Configuration")
	_, _ = fmt.Fprintln(f, "")

	encoder := toml.NewEncoder(f)
	encoder.Indent = "  "
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// findConfigFile returns the first existing config file path.
func findConfigFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	paths := []string{
		filepath.Join(home, ".stemdeckrc"),
	}

	// XDG_CONFIG_HOME or default
	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}
	paths = append(paths, filepath.Join(xdgConfig, "stemdeck", "config.toml"))

	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			*dst = i
		}
	}
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) {
	// Sync
	envInt("STEMDECK_SYNC_TICK_INTERVAL_MS", &cfg.Sync.TickInterval)
	envInt("STEMDECK_SYNC_DRIFT_THRESHOLD_MS", &cfg.Sync.DriftThreshold)
	envInt("STEMDECK_SYNC_THROTTLE_MS", &cfg.Sync.Throttle)

	// Audio
	envInt("STEMDECK_AUDIO_SAMPLE_RATE", &cfg.Audio.SampleRate)
	envInt("STEMDECK_AUDIO_BUFFER_MS", &cfg.Audio.BufferMs)

	// Storage
	envString("STEMDECK_STORAGE_BACKEND", &cfg.Storage.Backend)
	envString("STEMDECK_STORAGE_ROOT", &cfg.Storage.Root)
	envString("STEMDECK_STORAGE_BUCKET", &cfg.Storage.Bucket)
	envString("STEMDECK_STORAGE_PREFIX", &cfg.Storage.Prefix)
	envString("STEMDECK_STORAGE_CREDENTIALS_FILE", &cfg.Storage.CredentialsFile)

	// Usage
	envInt("STEMDECK_USAGE_MIN_DURATION", &cfg.Usage.MinDuration)
	envString("STEMDECK_USAGE_ENDPOINT", &cfg.Usage.Endpoint)
	envString("STEMDECK_USAGE_TOKEN", &cfg.Usage.Token)
	envString("STEMDECK_USAGE_DATABASE", &cfg.Usage.Database)

	// TUI
	envString("STEMDECK_TUI_THEME", &cfg.TUI.Theme)
	envInt("STEMDECK_TUI_REFRESH_INTERVAL", &cfg.TUI.RefreshInterval)

	// Log
	envString("STEMDECK_LOG_LEVEL", &cfg.Log.Level)
	envString("STEMDECK_LOG_FILE", &cfg.Log.File)
}
