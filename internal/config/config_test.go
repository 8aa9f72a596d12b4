package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "worldgen.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	t.Setenv("WORLDGEN_CONFIG", "")
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, "./storage", cfg.Storage.Dir)
	assert.Equal(t, "file", cfg.Storage.Backend)
	assert.Equal(t, filepath.Join("./storage", "jobs.db"), cfg.Index.Path)
	assert.Equal(t, 512, cfg.Generation.DefaultWorldSize)
	assert.Equal(t, 128, cfg.Generation.MinWorldSize)
	assert.Equal(t, 2048, cfg.Generation.MaxWorldSize)
	assert.Equal(t, 50000, cfg.Generation.MaxObjects)
	assert.Equal(t, time.Hour, cfg.Jobs.Retention)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.Equal(t, cfg, Default())
}

func TestFileOverridesEnv(t *testing.T) {
	t.Setenv("WORLDGEN_ADDR", ":9999")
	t.Setenv("WORLDGEN_WORKERS", "6")
	path := writeConfig(t, `
server:
  addr: ":7000"
storage:
  backend: Badger
  dir: /tmp/worlds
  compress: true
generation:
  max_world_size: 1024
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.Server.Addr, "file beats env")
	assert.Equal(t, 6, cfg.Jobs.Workers, "env beats default")
	assert.Equal(t, "badger", cfg.Storage.Backend)
	assert.True(t, cfg.Storage.Compress)
	assert.Equal(t, "/tmp/worlds/jobs.db", cfg.Index.Path)
	assert.Equal(t, 1024, cfg.Generation.MaxWorldSize)
}

func TestConfigFromEnvPath(t *testing.T) {
	path := writeConfig(t, "jobs:\n  queue_size: 3\n  retention: 15m\n")
	t.Setenv("WORLDGEN_CONFIG", path)
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Jobs.QueueSize)
	assert.Equal(t, 15*time.Minute, cfg.Jobs.Retention)
}

func TestInvalidEnvIgnored(t *testing.T) {
	t.Setenv("WORLDGEN_WORKERS", "many")
	t.Setenv("WORLDGEN_TELEMETRY", "true")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultWorkers, cfg.Jobs.Workers)
	assert.True(t, cfg.Telemetry.Enabled)
}

func TestValidate(t *testing.T) {
	path := writeConfig(t, `
storage:
  backend: s3
generation:
  min_world_size: 600
  max_world_size: 500
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage.backend")
	assert.Contains(t, err.Error(), "max_world_size")
}

func TestLoadErrors(t *testing.T) {
	_, err := Load("/nonexistent/worldgen.yaml")
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "server: [unclosed"))
	assert.Error(t, err)
}
