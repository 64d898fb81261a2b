package config

import (
	"os"
	"path/filepath"
)

// Config holds runtime settings for the mediavault CLI.
//
// Fields:
//   - StorageRootDir: directory holding attachment files and cached
//     thumbnail renditions.
//   - LegacyRootDir: previous storage location; when set, startup migrates
//     files from it into StorageRootDir. Empty disables migration.
//   - DatabaseDSN: SQLite file holding attachment metadata.
type Config struct {
	StorageRootDir string
	LegacyRootDir  string
	DatabaseDSN    string
}

// LoadDefaults populates c with sensible defaults under the user's home
// directory, falling back to the working directory when home is unknown.
func (c *Config) LoadDefaults() {
	base, err := os.UserHomeDir()
	if err != nil {
		base = "."
	}
	c.StorageRootDir = filepath.Join(base, ".mediavault", "attachments")
	c.LegacyRootDir = ""
	c.DatabaseDSN = filepath.Join(base, ".mediavault", "mediavault.db")
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
