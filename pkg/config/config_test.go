package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func newTestCommand() *cobra.Command {
	def := NewDefaultConfig()
	cmd := &cobra.Command{Use: "test"}
	f := cmd.Flags()
	f.StringP("config", "c", "", "")
	f.Duration("monitor.interval", def.Monitor.Interval, "")
	f.String("monitor.stats-log-path", def.Monitor.StatsLogPath, "")
	f.Bool("monitor.show-net", def.Monitor.ShowNet, "")
	f.String("server.addr", def.Server.Addr, "")
	f.String("log.level", def.Log.Level, "")
	f.String("log.path", def.Log.Path, "")
	f.Int("log.max-size", def.Log.MaxSize, "")
	return cmd
}

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Log.Path = t.TempDir()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultInterval, cfg.Monitor.Interval)
	assert.Empty(t, cfg.Monitor.StatsLogPath)
	assert.True(t, cfg.Monitor.ShowGPU)
	assert.True(t, cfg.Monitor.ShowNet)
	assert.Empty(t, cfg.Server.Addr, "HTTP endpoint is off by default")
}

func TestEffectiveInterval(t *testing.T) {
	tests := []struct {
		in, want time.Duration
	}{
		{0, MinInterval},
		{100 * time.Millisecond, MinInterval},
		{499 * time.Millisecond, MinInterval},
		{500 * time.Millisecond, 500 * time.Millisecond},
		{2 * time.Second, 2 * time.Second},
		{-time.Second, MinInterval},
	}
	for _, tt := range tests {
		m := MonitorConfig{Interval: tt.in}
		assert.Equal(t, tt.want, m.EffectiveInterval(), "interval %s", tt.in)
	}
}

func TestEnvToggle(t *testing.T) {
	const key = "MONITOR_TEST_TOGGLE"

	unsetEnv(t, key)
	assert.True(t, EnvToggle(key, true), "unset falls back to default")
	assert.False(t, EnvToggle(key, false))

	for raw, want := range map[string]bool{
		"true":  true,
		"TRUE":  true,
		" True": true,
		"false": false,
		"1":     false,
		"yes":   false,
		"":      false,
	} {
		t.Setenv(key, raw)
		assert.Equal(t, want, EnvToggle(key, true), "value %q", raw)
	}
}

func TestNewMonitorConfigReadsToggles(t *testing.T) {
	t.Setenv(EnvShowGPU, "false")
	t.Setenv(EnvShowNet, "True")

	m := NewMonitorConfig(100*time.Millisecond, "/tmp/stats.log")
	assert.False(t, m.ShowGPU)
	assert.True(t, m.ShowNet)
	assert.Equal(t, MinInterval, m.EffectiveInterval())
	assert.Equal(t, "/tmp/stats.log", m.StatsLogPath)
}

func TestLoadConfigWithCliDefaults(t *testing.T) {
	unsetEnv(t, EnvShowGPU, EnvShowNet, "MONITOR_INTERVAL", "LOG_LEVEL", "LOG_PATH", "HTTP_ADDR")
	logDir := t.TempDir()

	cmd := newTestCommand()
	require.NoError(t, cmd.ParseFlags([]string{"--log.path", logDir}))

	cfg, err := LoadConfigWithCli(cmd)
	require.NoError(t, err)
	assert.Equal(t, DefaultInterval, cfg.Monitor.Interval)
	assert.Equal(t, logDir, cfg.Log.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.True(t, cfg.Monitor.ShowNet)
}

func TestLoadConfigWithCliFileFlagsAndEnv(t *testing.T) {
	unsetEnv(t, EnvShowGPU, "MONITOR_INTERVAL", "LOG_PATH", "HTTP_ADDR")
	t.Setenv(EnvShowNet, "false")
	t.Setenv("LOG_LEVEL", "debug")

	dir := t.TempDir()
	logDir := filepath.Join(dir, "logs")
	file := filepath.Join(dir, "config.yaml")
	yaml := `
monitor:
  interval: 3s
  stats_log_path: ` + filepath.Join(dir, "stats.log") + `
  show_gpu: false
server:
  addr: "127.0.0.1:9100"
log:
  level: warn
  max_size: 20
  path: ` + logDir + `
`
	require.NoError(t, os.WriteFile(file, []byte(yaml), 0o644))

	cmd := newTestCommand()
	require.NoError(t, cmd.ParseFlags([]string{"-c", file, "--monitor.interval", "5s", "--log.max-size", "30"}))

	cfg, err := LoadConfigWithCli(cmd)
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.Monitor.Interval, "flag wins over file")
	assert.Equal(t, 30, cfg.Log.MaxSize, "dashed flag maps onto underscored key")
	assert.Equal(t, filepath.Join(dir, "stats.log"), cfg.Monitor.StatsLogPath)
	assert.False(t, cfg.Monitor.ShowGPU, "file value kept when env unset")
	assert.False(t, cfg.Monitor.ShowNet, "env toggle overrides default")
	assert.Equal(t, "debug", cfg.Log.Level, "env wins over file")
	assert.Equal(t, "127.0.0.1:9100", cfg.Server.Addr)
	assert.DirExists(t, logDir)
}

func TestLoadConfigWithCliMissingFile(t *testing.T) {
	cmd := newTestCommand()
	require.NoError(t, cmd.ParseFlags([]string{"-c", filepath.Join(t.TempDir(), "missing.yaml")}))

	_, err := LoadConfigWithCli(cmd)
	assert.ErrorContains(t, err, "read config file")
}

func TestValidateRejectsBadValues(t *testing.T) {
	base := func(t *testing.T) *Config {
		cfg := NewDefaultConfig()
		cfg.Log.Path = t.TempDir()
		return cfg
	}

	cfg := base(t)
	cfg.Log.Level = "verbose"
	assert.Error(t, cfg.Validate())

	cfg = base(t)
	cfg.Log.Filename = "sub/app.log"
	assert.ErrorContains(t, cfg.Validate(), "bare file name")

	cfg = base(t)
	cfg.Server.Addr = "not an address"
	assert.Error(t, cfg.Validate())

	cfg = base(t)
	cfg.Server.ReadTimeout = 0
	assert.Error(t, cfg.Validate())

	cfg = base(t)
	cfg.Monitor.StatsLogPath = "   "
	assert.ErrorContains(t, cfg.Validate(), "stats_log_path")

	cfg = base(t)
	cfg.Monitor.Interval = 10 * time.Millisecond
	assert.NoError(t, cfg.Validate(), "short interval is clamped, not rejected")
}
