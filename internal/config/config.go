// Package config loads runtime configuration for the adventkeeper CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Environment variables, optionally seeded from a .env file.
//  3. Optional JSON file selected via flags: -c or -config.
//  4. Command-line flags, which override earlier values.
package config

import "time"

// Config holds runtime settings.
//
// Fields:
//   - StorageDir: root of the private file area owned by the storage engine.
//   - StagingDir: where the media resolver materializes renderable files.
//   - SessionDSN: sqlite DSN of the session metadata database.
//   - RPCTimeout: per-call deadline on the worker transport.
//   - CompressionThresholdKB: image size above which compression kicks in.
type Config struct {
	StorageDir             string
	StagingDir             string
	SessionDSN             string
	RPCTimeout             time.Duration
	CompressionThresholdKB int64
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.StorageDir = "calendar_data"
	c.StagingDir = "media_staging"
	c.SessionDSN = "session.db"
	c.RPCTimeout = 30 * time.Second
	c.CompressionThresholdKB = 500
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// the environment, JSON (if present) and command-line flags (if present).
// Later sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
