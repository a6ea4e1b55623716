package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const minimalConfig = `
providers:
  mashreq:
    enabled: true
    api_url: https://bank.example/api
    api_key: secret
`

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.App.Env)
	assert.Equal(t, ":9880", cfg.App.HTTPAddr)
	assert.Equal(t, 8, cfg.Engine.CallTimeoutSeconds)
	assert.Equal(t, "5m", cfg.Engine.PriceStaleAfter)
	assert.Equal(t, 50, cfg.Engine.DefaultTxLimit)
	assert.Equal(t, 30, cfg.Health.IntervalSeconds)
	assert.Equal(t, 60, cfg.Health.CooldownSeconds) // 2x interval
	assert.Equal(t, "sandbox", cfg.Providers.Mashreq.Environment)
	assert.Equal(t, 15, cfg.Providers.Mashreq.TimeoutSeconds)
	assert.Equal(t, "paybridge.route-decisions", cfg.Events.Topic)
}

func TestLoadExpandsEnvironmentSecrets(t *testing.T) {
	t.Setenv("TEST_BANK_KEY", "s3cret-from-env")
	cfg, err := Load(writeConfig(t, `
providers:
  mashreq:
    enabled: true
    api_url: https://bank.example/api
    api_key: ${TEST_BANK_KEY}
`))
	require.NoError(t, err)
	assert.Equal(t, "s3cret-from-env", cfg.Providers.Mashreq.APIKey)
}

func TestLoadRejectsEnabledProviderWithoutEndpoint(t *testing.T) {
	_, err := Load(writeConfig(t, `
providers:
  mashreq:
    enabled: true
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api_url")
}

func TestLoadRejectsBinanceWithoutCredentials(t *testing.T) {
	_, err := Load(writeConfig(t, `
providers:
  binance:
    enabled: true
    api_key: only-key
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "binance")
}

func TestLoadRejectsUnknownProviderInOrder(t *testing.T) {
	_, err := Load(writeConfig(t, `
providers:
  order: [mashreq, paypal]
`))
	require.Error(t, err)
}

func TestLoadRejectsDuplicateOrderEntries(t *testing.T) {
	_, err := Load(writeConfig(t, `
providers:
  order: [rain, rain]
`))
	require.Error(t, err)
}

func TestLoadRejectsBadStaleInterval(t *testing.T) {
	_, err := Load(writeConfig(t, `
engine:
  price_stale_after: whenever
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "price_stale_after")
}

func TestLoadRejectsEventsWithoutBrokers(t *testing.T) {
	_, err := Load(writeConfig(t, `
events:
  enabled: true
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "brokers")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
