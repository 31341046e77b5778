package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "records", cfg.Storage.Bucket)
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, 25, cfg.Scopus.PageSize)
	assert.Equal(t, 1000, cfg.Scopus.HardCeiling)
	assert.Equal(t, 500, cfg.Sync.Commit().ChunkSize)
	assert.Equal(t, 30*time.Second, cfg.Sync.PurgeCooldown())
	assert.Equal(t, 10*time.Minute, cfg.Sync.PurgeTTL())
	assert.Equal(t, 24*time.Hour, cfg.Sync.LogTTL())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("SYNC_CHUNK_SIZE", "100")
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("SCOPUS_API_KEY", "secret")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Sync.ChunkSize)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "secret", cfg.Scopus.ApiKey)
}

func TestLoadConfig_DotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("REDIS_ADDR=localhost:6379\nSERVER_PORT=9090\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("REDIS_ADDR")
		os.Unsetenv("SERVER_PORT")
	})

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.True(t, cfg.Redis.Enabled())
}
