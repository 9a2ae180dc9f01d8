package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcess(t *testing.T) {
	config, err := Process([]string{})
	require.NoError(t, err)
	assert.Equal(t, "tally.db", config.Database.Path)
	assert.True(t, config.Cache.Enabled)
	assert.Equal(t, time.Hour, config.Cache.Expiry())
	assert.True(t, config.Catalog.Seed)
	assert.Equal(t, 12, config.Stats.Weeks)
	assert.Equal(t, 5, config.Stats.Window)
	assert.False(t, config.Log.Debug)

	dir := t.TempDir()

	// yaml config
	{
		yaml := filepath.Join(dir, "config.yaml")
		err = os.WriteFile(yaml, []byte(`
database:
  path: /tmp/games.db
cache:
  redis:
    address: localhost:6379
    db: 2
`), 0644)
		require.NoError(t, err)

		config, err := Process([]string{yaml})
		require.NoError(t, err)
		assert.Equal(t, "/tmp/games.db", config.Database.Path)
		assert.Equal(t, "localhost:6379", config.Cache.Redis.Address)
		assert.Equal(t, 2, config.Cache.Redis.DB)
		assert.Equal(t, 3600, config.Cache.TTL)
	}

	// json config
	{
		json := filepath.Join(dir, "config.json")
		err = os.WriteFile(json, []byte(`{
  "database": {
    "memory": true
  },
  "stats": {
    "weeks": 4
  }
}`), 0644)
		require.NoError(t, err)

		config, err := Process([]string{json})
		require.NoError(t, err)
		assert.True(t, config.Database.Memory)
		assert.Equal(t, 4, config.Stats.Weeks)
	}

	// multiple yaml
	{
		yaml1 := filepath.Join(dir, "config1.yaml")
		err = os.WriteFile(yaml1, []byte(`
log:
  debug: true
`), 0644)
		require.NoError(t, err)

		yaml2 := filepath.Join(dir, "config2.yml")
		err = os.WriteFile(yaml2, []byte(`
catalog:
  seed: false
`), 0644)
		require.NoError(t, err)

		config, err := Process([]string{yaml1, yaml2})
		require.NoError(t, err)
		assert.True(t, config.Log.Debug)
		assert.False(t, config.Catalog.Seed)
	}

	// conflicting values
	{
		yaml1 := filepath.Join(dir, "a.yaml")
		require.NoError(t, os.WriteFile(yaml1, []byte("stats:\n  weeks: 4\n"), 0644))
		yaml2 := filepath.Join(dir, "b.yaml")
		require.NoError(t, os.WriteFile(yaml2, []byte("stats:\n  weeks: 8\n"), 0644))

		_, err = Process([]string{yaml1, yaml2})
		assert.Error(t, err)
	}

	// out of range
	{
		yaml := filepath.Join(dir, "range.yaml")
		require.NoError(t, os.WriteFile(yaml, []byte("cache:\n  ttl: 0\n"), 0644))

		_, err = Process([]string{yaml})
		assert.Error(t, err)
	}

	// missing and unsupported files
	_, err = Process([]string{filepath.Join(dir, "nope.yaml")})
	assert.Error(t, err)

	toml := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(toml, []byte("a = 1"), 0644))
	_, err = Process([]string{toml})
	assert.Error(t, err)
}
