package config

import (
	"encoding/json"
	"os"
	"time"

	"adventkeeper/internal/flagx"
	"adventkeeper/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify intervals either as strings like "30s"
// or as integer nanoseconds.
type JsonConfig struct {
	StorageDir             string         `json:"storage_dir"`
	StagingDir             string         `json:"staging_dir"`
	SessionDSN             string         `json:"session_dsn"`
	RPCTimeout             timex.Duration `json:"rpc_timeout"`
	CompressionThresholdKB int64          `json:"compression_threshold_kb"`
}

// parseJson overlays Config with values loaded from a JSON file resolved via
// the -c/-config flags. Empty JSON fields leave the current values untouched.
// Panics on read or unmarshal errors (caller should recover if desired).
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.StorageDir != "" {
		cfg.StorageDir = jc.StorageDir
	}
	if jc.StagingDir != "" {
		cfg.StagingDir = jc.StagingDir
	}
	if jc.SessionDSN != "" {
		cfg.SessionDSN = jc.SessionDSN
	}
	if jc.RPCTimeout.Duration != 0 {
		cfg.RPCTimeout = time.Duration(jc.RPCTimeout.Duration)
	}
	if jc.CompressionThresholdKB > 0 {
		cfg.CompressionThresholdKB = jc.CompressionThresholdKB
	}
}
