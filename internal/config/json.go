package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/mediavault/internal/flagx"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
type JsonConfig struct {
	StorageRootDir string `json:"storage_root_dir"`
	LegacyRootDir  string `json:"legacy_root_dir"`
	DatabaseDSN    string `json:"database_dsn"`
}

// parseJson overlays Config with values loaded from a JSON file.
//
// Lookup order for the JSON file path:
//  1. Command-line flags (-c or -config) via flagx.JsonConfigFlags().
//  2. If empty, no JSON is loaded and the function returns.
//
// Only keys present in the file override the config; absent keys leave the
// earlier value in place. Panics on read or unmarshal errors (caller should
// recover if desired).
//
// Intended usage is: defaults -> parseJson -> parseFlags, where later stages
// override earlier ones.
func parseJson(cfg *Config) {
	// Resolve file path from flags.
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

	if jc.StorageRootDir != "" {
		cfg.StorageRootDir = jc.StorageRootDir
	}
	if jc.LegacyRootDir != "" {
		cfg.LegacyRootDir = jc.LegacyRootDir
	}
	if jc.DatabaseDSN != "" {
		cfg.DatabaseDSN = jc.DatabaseDSN
	}
}
