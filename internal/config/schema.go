package config

import "time"

// Config is the root configuration structure.
type Config struct {
	Sync    SyncConfig    `toml:"sync" json:"sync"`
	Audio   AudioConfig   `toml:"audio" json:"audio"`
	Storage StorageConfig `toml:"storage" json:"storage"`
	Usage   UsageConfig   `toml:"usage" json:"usage"`
	TUI     TUIConfig     `toml:"tui" json:"tui"`
	Log     LogConfig     `toml:"log" json:"log"`
}

// SyncConfig holds drift-correction settings, in milliseconds.
type SyncConfig struct {
	TickInterval   int `toml:"tick_interval_ms" json:"tick_interval_ms"`
	DriftThreshold int `toml:"drift_threshold_ms" json:"drift_threshold_ms"`
	Throttle       int `toml:"throttle_ms" json:"throttle_ms"`
}

// TickIntervalDuration returns the corrector period.
func (c SyncConfig) TickIntervalDuration() time.Duration {
	return time.Duration(c.TickInterval) * time.Millisecond
}

// DriftThresholdDuration returns the largest tolerated drift.
func (c SyncConfig) DriftThresholdDuration() time.Duration {
	return time.Duration(c.DriftThreshold) * time.Millisecond
}

// ThrottleDuration returns the minimum spacing of correction passes.
func (c SyncConfig) ThrottleDuration() time.Duration {
	return time.Duration(c.Throttle) * time.Millisecond
}

// AudioConfig holds output device settings.
type AudioConfig struct {
	SampleRate   int `toml:"sample_rate" json:"sample_rate"`
	BufferMs     int `toml:"buffer_ms" json:"buffer_ms"`
	TimeUpdateMs int `toml:"time_update_ms" json:"time_update_ms"`
}

// StorageConfig selects where sources are resolved from.
type StorageConfig struct {
	Backend         string `toml:"backend" json:"backend"`
	Root            string `toml:"root" json:"root"`
	Bucket          string `toml:"bucket" json:"bucket"`
	Prefix          string `toml:"prefix" json:"prefix"`
	CredentialsFile string `toml:"credentials_file" json:"credentials_file"`
	URLExpiry       int    `toml:"url_expiry" json:"url_expiry"`
}

// URLExpiryDuration returns how long signed URLs stay valid.
func (c StorageConfig) URLExpiryDuration() time.Duration {
	return time.Duration(c.URLExpiry) * time.Second
}

// UsageConfig holds listen reporting settings.
type UsageConfig struct {
	MinDuration int    `toml:"min_duration" json:"min_duration"`
	Endpoint    string `toml:"endpoint" json:"endpoint"`
	Token       string `toml:"token" json:"-"`
	Database    string `toml:"database" json:"database"`
}

// MinDurationDuration returns the shortest segment counted as a listen.
func (c UsageConfig) MinDurationDuration() time.Duration {
	return time.Duration(c.MinDuration) * time.Second
}

// TUIConfig holds terminal UI settings.
type TUIConfig struct {
	Theme           string `toml:"theme" json:"theme"`
	RefreshInterval int    `toml:"refresh_interval" json:"refresh_interval"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level" json:"level"`
	File  string `toml:"file" json:"file"`
}
