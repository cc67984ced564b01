package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
log:
  level: debug
export:
  output_dir: /tmp/shots
  pixel_ratio: 2
  image_timeout: 1500ms
  settle_delay: 0s
fonts:
  families: ["Pretendard"]
chat:
  platform: instagram
  show_date_bar: false
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

// TestLoad_File verifies that Load reads the file named by CONFIG_PATH.
func TestLoad_File(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeConfig(t, sampleConfig))

	cfg, err := Load(nil)
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "/tmp/shots", cfg.Export.OutputDir)
	require.Equal(t, 2.0, cfg.Export.PixelRatio)
	require.Equal(t, 1500*time.Millisecond, cfg.Export.ImageTimeout)
	require.Zero(t, cfg.Export.SettleDelay)
	require.Equal(t, []string{"Pretendard"}, cfg.Fonts.Families)
	require.Equal(t, "instagram", cfg.Chat.Platform)
	require.False(t, cfg.Chat.ShowDateBar)
	require.NotEmpty(t, cfg.File())

	// untouched keys keep their defaults
	require.Equal(t, 2.0, cfg.Export.FallbackPixelRatio)
	require.Equal(t, "firewood", cfg.Export.AppName)
}

// TestLoad_Defaults verifies that a missing config file falls back to defaults.
func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("CONFIG_PATH", "")

	cfg, err := Load(nil)
	require.NoError(t, err)
	require.Equal(t, "info", cfg.Log.Level)
	require.Equal(t, 3.0, cfg.Export.PixelRatio)
	require.Equal(t, 5*time.Second, cfg.Export.ImageTimeout)
	require.Equal(t, 500*time.Millisecond, cfg.Export.SettleDelay)
	require.Equal(t, "kakaotalk", cfg.Chat.Platform)
	require.True(t, cfg.Chat.ShowDateBar)
	require.Len(t, cfg.Fonts.Families, 4)
	require.Empty(t, cfg.File())
}

// TestLoad_MissingExplicitFile verifies that a CONFIG_PATH that does not exist fails.
func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "nope.yaml"))
	_, err := Load(nil)
	require.Error(t, err)
}

// TestLoad_EnvAndFlags verifies the env and flag overlays.
func TestLoad_EnvAndFlags(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeConfig(t, sampleConfig))
	t.Setenv("FIREWOOD_LOG_LEVEL", "error")

	fs := pflag.NewFlagSet("export", pflag.ContinueOnError)
	fs.String("out", "", "")
	fs.String("platform", "", "")
	require.NoError(t, fs.Parse([]string{"--out", "/srv/out"}))

	cfg, err := Load(fs)
	require.NoError(t, err)
	require.Equal(t, "error", cfg.Log.Level)
	require.Equal(t, "/srv/out", cfg.Export.OutputDir)
	require.Equal(t, "instagram", cfg.Chat.Platform)
}
