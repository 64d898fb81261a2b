package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	pathFlag := writeTempJSON(t, dir, "flag.json", map[string]any{
		"storage_root_dir": "/srv/media",
		"database_dsn":     "/srv/media.db",
	})

	t.Run("loads from flags", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", pathFlag}

		cfg := &Config{}
		parseJson(cfg)

		assert.Equal(t, "/srv/media", cfg.StorageRootDir)
		assert.Equal(t, "/srv/media.db", cfg.DatabaseDSN)
	})

	t.Run("absent keys keep earlier values", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", pathFlag}

		cfg := &Config{LegacyRootDir: "/old/media"}
		parseJson(cfg)

		assert.Equal(t, "/old/media", cfg.LegacyRootDir)
	})

	t.Run("no config flag leaves config untouched", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{
			StorageRootDir: "defaults",
			DatabaseDSN:    "defaults.db",
		}
		parseJson(cfg)

		assert.Equal(t, "defaults", cfg.StorageRootDir)
		assert.Equal(t, "defaults.db", cfg.DatabaseDSN)
	})
}
