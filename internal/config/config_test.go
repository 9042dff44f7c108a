package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tckz/go-view-counter/internal/counter"
)

func env(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefault(t *testing.T) {
	c := Default()
	assert.Equal(t, ":8080", c.Listen)
	assert.Equal(t, "local", c.Counter.Backend)
	assert.Equal(t, "PWebsiteStats", c.Counter.Table)
	assert.NoError(t, c.Counter.Validate())
}

func TestApplyEnvTablePrecedence(t *testing.T) {
	c := Default()
	require.NoError(t, c.applyEnv(env(map[string]string{"DYNAMODB_TABLE_NAME": "Legacy"})))
	assert.Equal(t, "Legacy", c.Counter.Table)

	c = Default()
	require.NoError(t, c.applyEnv(env(map[string]string{"TABLE_NAME": "Stats", "DYNAMODB_TABLE_NAME": "Legacy"})))
	assert.Equal(t, "Stats", c.Counter.Table)

	c = Default()
	require.NoError(t, c.applyEnv(env(map[string]string{"TABLE_NAME": ""})))
	assert.Equal(t, counter.DefaultTable, c.Counter.Table)
}

func TestApplyEnvBackend(t *testing.T) {
	c := Default()
	require.NoError(t, c.applyEnv(env(map[string]string{
		"COUNTER_BACKEND":  "redis",
		"REDIS_ADDR":       "localhost:6379",
		"REDIS_DB":         "2",
		"SQLITE_PROVISION": "true",
	})))
	assert.Equal(t, "redis", c.Counter.Backend)
	assert.Equal(t, "localhost:6379", c.Counter.Redis.Addr)
	assert.Equal(t, 2, c.Counter.Redis.DB)
	assert.True(t, c.Counter.SQLite.Provision)
}

func TestApplyEnvBadNumber(t *testing.T) {
	c := Default()
	assert.Error(t, c.applyEnv(env(map[string]string{"REDIS_DB": "two"})))
}

func TestLoadYAML(t *testing.T) {
	t.Setenv("COUNTER_BACKEND", "")
	t.Setenv("SQLITE_DSN", "")
	t.Setenv("LOG_LEVEL", "")
	path := filepath.Join(t.TempDir(), "counter.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen: ":9090"
counter:
  backend: sqlite
  table: Stats
  sqlite:
    dsn: "file:stats.db"
    provision: true
`), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", c.Counter.Backend)
	assert.Equal(t, "file:stats.db", c.Counter.SQLite.DSN)
	assert.True(t, c.Counter.SQLite.Provision)
	// Unset keys keep their defaults.
	assert.Equal(t, "info", c.LogLevel)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
