package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// CONFIG TESTS
// =============================================================================

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"RIMWORKS_DATA_DIR",
		"RIMWORKS_ENGINEER_USER",
		"RIMWORKS_ENGINEER_PASSWORD",
		"RIMWORKS_LOG_LEVEL",
		"RIMWORKS_DARK_MODE",
	} {
		t.Setenv(k, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Name != "RIMWorks" {
		t.Errorf("expected Name=RIMWorks, got %s", cfg.Name)
	}
	if cfg.Engineer.Username != "admin" || cfg.Engineer.Password != "admin123" {
		t.Errorf("unexpected engineer defaults: %+v", cfg.Engineer)
	}
	if cfg.Data.Root != "data" {
		t.Errorf("expected data root 'data', got %s", cfg.Data.Root)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "nested", "rimworks.yaml")
	cfg := DefaultConfig()
	cfg.Data.Root = "/srv/rim"
	cfg.Dashboard.WatchDebounce = "1s"

	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/rim", loaded.Data.Root)
	assert.Equal(t, time.Second, loaded.GetWatchDebounce())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "rimworks.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data:\n  root: shop\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "shop", cfg.Data.Root)
	assert.Equal(t, "admin", cfg.Engineer.Username)
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rimworks.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data: [unclosed"), 0644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("RIMWORKS_DATA_DIR", "/tmp/rim")
	t.Setenv("RIMWORKS_ENGINEER_USER", "boss")
	t.Setenv("RIMWORKS_ENGINEER_PASSWORD", "s3cret")
	t.Setenv("RIMWORKS_LOG_LEVEL", "debug")
	t.Setenv("RIMWORKS_DARK_MODE", "true")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/rim", cfg.Data.Root)
	assert.Equal(t, "boss", cfg.Engineer.Username)
	assert.Equal(t, "s3cret", cfg.Engineer.Password)
	assert.Equal(t, "debug", cfg.Logging.Level)

	dark, ok := cfg.DarkMode()
	assert.True(t, ok)
	assert.True(t, dark)

	t.Setenv("RIMWORKS_DARK_MODE", "0")
	cfg.applyEnvOverrides()
	dark, ok = cfg.DarkMode()
	assert.True(t, ok)
	assert.False(t, dark)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		edit func(*Config)
	}{
		{"empty root", func(c *Config) { c.Data.Root = " " }},
		{"no engineer password", func(c *Config) { c.Engineer.Password = "" }},
		{"bad theme", func(c *Config) { c.UI.Theme = "neon" }},
		{"bad level", func(c *Config) { c.Logging.Level = "chatty" }},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }},
		{"bad debounce", func(c *Config) { c.Dashboard.WatchDebounce = "soon" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.edit(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestGetWatchDebounceFallback(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Dashboard.WatchDebounce = "nonsense"
	assert.Equal(t, 250*time.Millisecond, cfg.GetWatchDebounce())
}

func TestLoggingOptions(t *testing.T) {
	cfg := DefaultConfig()
	opts := cfg.Logging.Options(true)
	assert.True(t, opts.Quiet)
	assert.Equal(t, "info", opts.Level)
	assert.Equal(t, filepath.Join("logs", "rimworks.log"), opts.File)
}
