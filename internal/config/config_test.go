package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if got := cfg.Sync.TickIntervalDuration(); got != 100*time.Millisecond {
		t.Errorf("tick interval = %v, want 100ms", got)
	}
	if got := cfg.Sync.DriftThresholdDuration(); got != 20*time.Millisecond {
		t.Errorf("drift threshold = %v, want 20ms", got)
	}
	if got := cfg.Usage.MinDurationDuration(); got != 30*time.Second {
		t.Errorf("min duration = %v, want 30s", got)
	}
	if got := cfg.Storage.URLExpiryDuration(); got != 15*time.Minute {
		t.Errorf("url expiry = %v, want 15m", got)
	}
}

func TestLoadFromAppliesDefaultsAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[sync]
drift_threshold_ms = 40

[storage]
backend = "gcs"
bucket = "stems"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("STEMDECK_STORAGE_PREFIX", "catalog/")
	t.Setenv("STEMDECK_SYNC_THROTTLE_MS", "not-a-number")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Sync.DriftThreshold != 40 {
		t.Errorf("drift threshold = %d, want 40", cfg.Sync.DriftThreshold)
	}
	if cfg.Sync.TickInterval != 100 {
		t.Errorf("tick interval = %d, want default 100", cfg.Sync.TickInterval)
	}
	if cfg.Sync.Throttle != 50 {
		t.Errorf("throttle = %d, want 50 (bad env value ignored)", cfg.Sync.Throttle)
	}
	if cfg.Storage.Prefix != "catalog/" {
		t.Errorf("prefix = %q, want env override", cfg.Storage.Prefix)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := Default()
	cfg.TUI.Theme = "latte"

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if got.TUI.Theme != "latte" {
		t.Errorf("theme = %q, want latte", got.TUI.Theme)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"gcs without bucket", func(c *Config) { c.Storage.Backend = "gcs" }, "bucket is required"},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "s3" }, "invalid backend"},
		{"throttle above tick", func(c *Config) { c.Sync.Throttle = 500 }, "throttle_ms"},
		{"negative threshold", func(c *Config) { c.Sync.DriftThreshold = -1 }, "non-negative"},
		{"odd sample rate", func(c *Config) { c.Audio.SampleRate = 12345 }, "sample_rate"},
		{"endpoint scheme", func(c *Config) { c.Usage.Endpoint = "ftp://example.com" }, "scheme"},
		{"theme", func(c *Config) { c.TUI.Theme = "neon" }, "invalid theme"},
		{"log level", func(c *Config) { c.Log.Level = "trace" }, "invalid log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}
