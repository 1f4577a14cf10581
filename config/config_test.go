package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/networkteam/uiharness/config"
	"github.com/networkteam/uiharness/driver"
)

// Tests in this file use t.Setenv and therefore do not run in parallel.

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "", cfg.BaseURL)
	assert.Equal(t, "results", cfg.ResultsDir)
	assert.Equal(t, driver.Chromium, cfg.Browser)
	assert.True(t, cfg.Headless)
	assert.Equal(t, time.Duration(0), cfg.SlowMo)
	assert.Equal(t, 10*time.Second, cfg.WaitTimeout)
	assert.Equal(t, uint64(500), cfg.ConsoleBuffer)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("UIHARNESS_BASE_URL", "https://www.demoblaze.com")
	t.Setenv("UIHARNESS_RESULTS_DIR", "out")
	t.Setenv("UIHARNESS_BROWSER", "firefox")
	t.Setenv("UIHARNESS_SLOW_MO", "500ms")
	t.Setenv("UIHARNESS_WAIT_TIMEOUT", "3s")
	t.Setenv("UIHARNESS_LOG_LEVEL", "debug")
	t.Setenv("UIHARNESS_CONSOLE_BUFFER", "50")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://www.demoblaze.com", cfg.BaseURL)
	assert.Equal(t, "out", cfg.ResultsDir)
	assert.Equal(t, driver.Firefox, cfg.Browser)
	assert.Equal(t, 500*time.Millisecond, cfg.SlowMo)
	assert.Equal(t, 3*time.Second, cfg.WaitTimeout)
	assert.Equal(t, uint64(50), cfg.ConsoleBuffer)

	opts := cfg.LaunchOptions()
	assert.Equal(t, driver.Firefox, opts.Browser)
	assert.Equal(t, 500*time.Millisecond, opts.SlowMo)
}

func TestLoad_HeadlessSwitch(t *testing.T) {
	t.Setenv("HEADLESS", "false")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.False(t, cfg.Headless)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uiharness.yaml")
	require.NoError(t, os.WriteFile(path, []byte("base_url: http://localhost:9000\nheadless: false\nwait_timeout: 2s\n"), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9000", cfg.BaseURL)
	assert.False(t, cfg.Headless)
	assert.Equal(t, 2*time.Second, cfg.WaitTimeout)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "browser", key: "UIHARNESS_BROWSER", val: "netscape"},
		{name: "wait timeout", key: "UIHARNESS_WAIT_TIMEOUT", val: "0s"},
		{name: "log level", key: "UIHARNESS_LOG_LEVEL", val: "loud"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)

			_, err := config.Load("")
			assert.Error(t, err)
		})
	}
}
