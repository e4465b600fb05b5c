package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesFileOverOnDefaults(t *testing.T) {
	path := writeConfigFile(t, `
thread_pool_size = 12

[db]
host = "localhost"
name = "mmcatalog"

[mm]
key = "k"
secret = "s"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.DB.Host)
	assert.Equal(t, 12, cfg.ThreadPoolSize)
	assert.Equal(t, int64(30), cfg.LookbackTimeframe) // untouched default
	assert.Equal(t, "production", cfg.MM.Env)          // untouched default
	assert.True(t, cfg.EnableHooks)
}

func TestLoadFailsOnMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	assert.Error(t, err)
}

func TestLoadFailsValidationWhenRequiredFieldsMissing(t *testing.T) {
	path := writeConfigFile(t, `
[db]
host = "localhost"
name = "mmcatalog"
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestHookTableConvertsTOMLShape(t *testing.T) {
	cfg := Defaults()
	cfg.Hooks = map[string][]HookEntry{
		"show": {{URL: "http://hook/show", Username: "u", Password: "p"}},
	}

	table := cfg.HookTable()

	require.Len(t, table["show"], 1)
	assert.Equal(t, "http://hook/show", table["show"][0].URL)
	assert.True(t, table["show"][0].HasAuth())
}
