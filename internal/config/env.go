package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays Config with environment variables, loading a .env file
// first if one exists in the working directory. Unset variables leave the
// current values untouched.
//
// Supported variables:
//
//	ADVENTKEEPER_STORAGE_DIR
//	ADVENTKEEPER_STAGING_DIR
//	ADVENTKEEPER_SESSION_DSN
//	ADVENTKEEPER_RPC_TIMEOUT            (duration, e.g. "30s")
//	ADVENTKEEPER_COMPRESSION_THRESHOLD_KB
func parseEnv(cfg *Config) {
	_ = godotenv.Load()

	if v := os.Getenv("ADVENTKEEPER_STORAGE_DIR"); v != "" {
		cfg.StorageDir = v
	}
	if v := os.Getenv("ADVENTKEEPER_STAGING_DIR"); v != "" {
		cfg.StagingDir = v
	}
	if v := os.Getenv("ADVENTKEEPER_SESSION_DSN"); v != "" {
		cfg.SessionDSN = v
	}
	if v := os.Getenv("ADVENTKEEPER_RPC_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RPCTimeout = d
		}
	}
	if v := os.Getenv("ADVENTKEEPER_COMPRESSION_THRESHOLD_KB"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.CompressionThresholdKB = n
		}
	}
}
