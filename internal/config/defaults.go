package config

import (
	"os"
	"path/filepath"
)

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		Sync: SyncConfig{
			TickInterval:   100,
			DriftThreshold: 20,
			Throttle:       50,
		},
		Audio: AudioConfig{
			SampleRate:   44100,
			BufferMs:     100,
			TimeUpdateMs: 250,
		},
		Storage: StorageConfig{
			Backend:   "local",
			Root:      ".",
			URLExpiry: 900,
		},
		Usage: UsageConfig{
			MinDuration: 30,
			Database:    defaultDatabasePath(),
		},
		TUI: TUIConfig{
			Theme:           "auto",
			RefreshInterval: 250,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// ApplyDefaults fills in zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	d := Default()

	// Sync
	if c.Sync.TickInterval == 0 {
		c.Sync.TickInterval = d.Sync.TickInterval
	}
	if c.Sync.DriftThreshold == 0 {
		c.Sync.DriftThreshold = d.Sync.DriftThreshold
	}
	if c.Sync.Throttle == 0 {
		c.Sync.Throttle = d.Sync.Throttle
	}

	// Audio
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = d.Audio.SampleRate
	}
	if c.Audio.BufferMs == 0 {
		c.Audio.BufferMs = d.Audio.BufferMs
	}
	if c.Audio.TimeUpdateMs == 0 {
		c.Audio.TimeUpdateMs = d.Audio.TimeUpdateMs
	}

	// Storage
	if c.Storage.Backend == "" {
		c.Storage.Backend = d.Storage.Backend
	}
	if c.Storage.Root == "" {
		c.Storage.Root = d.Storage.Root
	}
	if c.Storage.URLExpiry == 0 {
		c.Storage.URLExpiry = d.Storage.URLExpiry
	}

	// Usage
	if c.Usage.MinDuration == 0 {
		c.Usage.MinDuration = d.Usage.MinDuration
	}
	if c.Usage.Database == "" {
		c.Usage.Database = d.Usage.Database
	}

	// TUI
	if c.TUI.Theme == "" {
		c.TUI.Theme = d.TUI.Theme
	}
	if c.TUI.RefreshInterval == 0 {
		c.TUI.RefreshInterval = d.TUI.RefreshInterval
	}

	// Log
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
}

func defaultDatabasePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "listens.db"
	}
	return filepath.Join(dir, "stemdeck", "listens.db")
}
