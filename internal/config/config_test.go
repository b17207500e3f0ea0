package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(newViper())
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 12.0, cfg.Player.FrameRate)
	assert.Equal(t, "streaming", cfg.Player.LoadBehavior)
	assert.Empty(t, cfg.Player.SpoofedURL)
	assert.Equal(t, 64, cfg.Player.ExecutorQueue)

	assert.Equal(t, 30*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, 3, cfg.Fetch.RetryAttempts)
	assert.Equal(t, time.Second, cfg.Fetch.RetryDelay)
	assert.Equal(t, int64(64*1024*1024), cfg.Fetch.MaxResponseSize)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
player:
  frame_rate: 24
  load_behavior: delayed
  spoofed_url: "http://spoof/"
  rewrite_rules:
    "http://old/": "http://new/"
fetch:
  timeout: 10s
logging:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	v := newViper()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, 24.0, cfg.Player.FrameRate)
	assert.Equal(t, "delayed", cfg.Player.LoadBehavior)
	assert.Equal(t, "http://spoof/", cfg.Player.SpoofedURL)
	assert.Equal(t, map[string]string{"http://old/": "http://new/"}, cfg.Player.RewriteRules)
	assert.Equal(t, 10*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("SWFPLAYER_PLAYER_LOAD_BEHAVIOR", "blocking")

	v := newViper()
	v.SetEnvPrefix("SWFPLAYER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "blocking", cfg.Player.LoadBehavior)
}

func TestValidate_InvalidLoadBehavior(t *testing.T) {
	v := newViper()
	v.Set("player.load_behavior", "eager")

	_, err := Load(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load_behavior")
}

func TestValidate_InvalidFrameRate(t *testing.T) {
	v := newViper()
	v.Set("player.frame_rate", -1)

	_, err := Load(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "frame_rate")
}

func TestValidate_InvalidLogFormat(t *testing.T) {
	v := newViper()
	v.Set("logging.format", "xml")

	_, err := Load(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.format")
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	v := newViper()
	v.Set("player.frame_rate", 0)
	v.Set("logging.format", "xml")

	_, err := Load(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "frame_rate")
	assert.Contains(t, err.Error(), "logging.format")
}
