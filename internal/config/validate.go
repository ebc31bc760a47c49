package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Sync.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("sync: %w", err))
	}
	if err := c.Audio.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("audio: %w", err))
	}
	if err := c.Storage.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("storage: %w", err))
	}
	if err := c.Usage.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("usage: %w", err))
	}
	if err := c.TUI.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("tui: %w", err))
	}
	if err := c.Log.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("log: %w", err))
	}

	return errors.Join(errs...)
}

// Validate checks SyncConfig for errors.
func (c *SyncConfig) Validate() error {
	if c.TickInterval < 0 || c.DriftThreshold < 0 || c.Throttle < 0 {
		return errors.New("intervals must be non-negative")
	}
	if c.Throttle > 0 && c.TickInterval > 0 && c.Throttle > c.TickInterval {
		return fmt.Errorf("throttle_ms (%d) must not exceed tick_interval_ms (%d)", c.Throttle, c.TickInterval)
	}
	return nil
}

// Validate checks AudioConfig for errors.
func (c *AudioConfig) Validate() error {
	switch c.SampleRate {
	case 0, 22050, 44100, 48000, 88200, 96000:
		// valid
	default:
		return fmt.Errorf("unsupported sample_rate: %d", c.SampleRate)
	}
	if c.BufferMs < 0 || c.TimeUpdateMs < 0 {
		return errors.New("buffer_ms and time_update_ms must be non-negative")
	}
	return nil
}

// Validate checks StorageConfig for errors.
func (c *StorageConfig) Validate() error {
	switch c.Backend {
	case "", "local":
	case "gcs":
		if c.Bucket == "" {
			return errors.New("bucket is required for the gcs backend")
		}
	default:
		return fmt.Errorf("invalid backend: %s (must be local or gcs)", c.Backend)
	}
	if c.URLExpiry < 0 {
		return errors.New("url_expiry must be non-negative")
	}
	return nil
}

// Validate checks UsageConfig for errors.
func (c *UsageConfig) Validate() error {
	if c.MinDuration < 0 {
		return errors.New("min_duration must be non-negative")
	}
	if c.Endpoint != "" {
		u, err := url.Parse(c.Endpoint)
		if err != nil {
			return fmt.Errorf("invalid endpoint: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("invalid endpoint scheme: %q", u.Scheme)
		}
	}
	return nil
}

// Validate checks TUIConfig for errors.
func (c *TUIConfig) Validate() error {
	switch c.Theme {
	case "", "auto", "dark", "light", "mocha", "latte":
		// valid
	default:
		return fmt.Errorf("invalid theme: %s (must be auto, dark, light, mocha, or latte)", c.Theme)
	}
	if c.RefreshInterval < 0 {
		return errors.New("refresh_interval must be non-negative")
	}
	return nil
}

// Validate checks LogConfig for errors.
func (c *LogConfig) Validate() error {
	switch c.Level {
	case "", "debug", "info", "warn", "error":
		// valid
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Level)
	}
	return nil
}
