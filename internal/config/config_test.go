package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8563", cfg.AgentURL)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 5*time.Second, cfg.PullTimeout)
	assert.Equal(t, 4, cfg.MaxPulls)
	assert.Equal(t, 5*time.Second, cfg.CleanupTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, filepath.Join(home, ".arthas", "state.toml"), cfg.StatePath)
}

func TestLoadReadsConfigFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	require.NoError(t, os.MkdirAll(filepath.Join(home, ".arthas"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(home, ".arthas", "config.toml"), []byte(`
[arthas]
url = "http://10.1.2.3:3658"
timeout = "10s"

[async]
pull_timeout = "2s"
max_pulls = 6

[log]
level = "debug"
`), 0o600))

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "http://10.1.2.3:3658", cfg.AgentURL)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 2*time.Second, cfg.PullTimeout)
	assert.Equal(t, 6, cfg.MaxPulls)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("ARTHAS_URL", "http://agent.internal:8563")
	t.Setenv("ARTHAS_MAX_PULLS", "2")

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "http://agent.internal:8563", cfg.AgentURL)
	assert.Equal(t, 2, cfg.MaxPulls)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	v := viper.New()
	v.Set(KeyMaxPulls, 0)
	_, err := Load(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "async.max_pulls")

	v = viper.New()
	v.Set(KeyAgentURL, "localhost:8563")
	_, err = Load(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "arthas.url")
}
