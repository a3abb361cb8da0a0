package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(envFileEnv, filepath.Join(t.TempDir(), "missing.env"))

	cfg := Load()

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 3, cfg.Gateway.MaxAttempts)
	assert.Equal(t, 45*time.Second, cfg.Gateway.Timeout)
	assert.Equal(t, "search", cfg.Signals.Engine)
	assert.Equal(t, "Book a demo", cfg.Vendor.Default.CTA())
}

func TestLoadMergesFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	raw := `
logging:
  level: debug
  format: json
gateway:
  endpoint: https://proxy.example.org/functions/v1/ai-json
  model: file-model
signals:
  engine: feed
  newsLimit: 8
vendor:
  default:
    name: Acme Sell
    personas: ["VP Procurement"]
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("GATEWAY_API_KEY=from-dotenv\n"), 0o600))

	t.Setenv(configPathEnv, path)
	t.Setenv(envFileEnv, envFile)
	t.Setenv(gatewayModelEnv, "env-model")
	t.Cleanup(func() { os.Unsetenv(gatewayKeyEnv) })

	cfg := Load()

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "https://proxy.example.org/functions/v1/ai-json", cfg.Gateway.Endpoint)
	assert.Equal(t, "env-model", cfg.Gateway.Model)
	assert.Equal(t, "from-dotenv", cfg.Gateway.APIKey)
	assert.Equal(t, "feed", cfg.Signals.Engine)
	assert.Equal(t, 8, cfg.Signals.NewsLimit)
	assert.Equal(t, 5, cfg.Signals.FinancialLimit)
	assert.Equal(t, "Acme Sell", cfg.Vendor.Default.Name)
	assert.Equal(t, []string{"VP Procurement"}, cfg.Vendor.Default.Personas)
	assert.Equal(t, "Professional", cfg.Vendor.Default.Tone)
}

func TestLoadIgnoresBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging: [oops"), 0o600))
	t.Setenv(configPathEnv, path)
	t.Setenv(envFileEnv, filepath.Join(t.TempDir(), "missing.env"))

	cfg := Load()

	assert.Equal(t, defaultConfig().Gateway.Model, cfg.Gateway.Model)
}
