package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, 20, cfg.Console.PageSize)
	require.Equal(t, 115, cfg.Console.ReferenceYear)
	require.Equal(t, "/all-data", cfg.Webhook.Endpoints.AllData)
	require.True(t, cfg.Backend.LocalFallback)
}

func TestLoadConfig_OverlaysYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
webhook:
  use_test: true
  timeout_seconds: 5
console:
  page_size: 50
  reference_year: 0
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, 50, cfg.Console.PageSize)
	require.Equal(t, 0, cfg.Console.ReferenceYear)
	require.Equal(t, "https://findmyhome.zeabur.app/webhook-test", cfg.Webhook.ActiveURL())
	require.Equal(t, 5*time.Second, cfg.Webhook.GetTimeout())
	// untouched sections keep defaults
	require.Equal(t, "/admin/properties", cfg.Webhook.Endpoints.Properties)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("console: ["), 0o644))

	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("WEBHOOK_TOKEN", "secret")
	t.Setenv("JWT_SECRET", "jwt")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, "secret", cfg.Webhook.Token)
	require.Equal(t, "jwt", cfg.Auth.JWTSecret)
}
