package app

import (
	"testing"

	"paybridge/internal/config"
	"paybridge/internal/provider"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderOrderDefaultsAndOverride(t *testing.T) {
	assert.Equal(t,
		[]string{"mashreq", "binance", "rain", "coingecko"},
		providerOrder(nil))

	assert.Equal(t,
		[]string{"rain", "mashreq", "binance", "coingecko"},
		providerOrder([]string{"rain"}))

	assert.Equal(t,
		[]string{"coingecko", "rain", "mashreq", "binance"},
		providerOrder([]string{" Coingecko ", "rain", "rain"}))
}

func TestBuildRegistryDeclaresEveryProvider(t *testing.T) {
	cfg := config.ProvidersConfig{
		Mashreq: config.MashreqConfig{
			Enabled: true, APIURL: "https://bank.example", APIKey: "k", TimeoutSeconds: 5,
		},
		Rain: config.RainConfig{Enabled: false},
		Binance: config.BinanceConfig{
			Enabled: true, APIKey: "key", APISecret: "secret",
		},
		Coingecko: config.CoingeckoConfig{Enabled: true},
	}

	reg, err := buildRegistry(cfg)
	require.NoError(t, err)

	all := reg.All()
	require.Len(t, all, 4)
	assert.Equal(t, "mashreq", all[0].Name())
	assert.Equal(t, "binance", all[1].Name())
	assert.Equal(t, "rain", all[2].Name())
	assert.Equal(t, "coingecko", all[3].Name())

	assert.True(t, all[0].Configured())
	assert.True(t, all[1].Configured())
	assert.False(t, all[2].Configured(), "disabled provider stays declared but unconfigured")
	assert.True(t, all[3].Configured())
}

func TestBuildRegistryHonoursOrder(t *testing.T) {
	cfg := config.ProvidersConfig{
		Order:     []string{"rain", "coingecko"},
		Rain:      config.RainConfig{Enabled: true, APIURL: "https://rain.example", APIKey: "k", APISecret: "s"},
		Coingecko: config.CoingeckoConfig{Enabled: true},
	}

	reg, err := buildRegistry(cfg)
	require.NoError(t, err)

	all := reg.All()
	require.Len(t, all, 4)
	assert.Equal(t, "rain", all[0].Name())
	assert.Equal(t, "coingecko", all[1].Name())
	assert.Equal(t, provider.CategoryCryptoExchange, all[0].Category())
}

func TestBuildRegistryUnconfiguredEndpointDoesNotFail(t *testing.T) {
	reg, err := buildRegistry(config.ProvidersConfig{})
	require.NoError(t, err)
	for _, p := range reg.All() {
		assert.False(t, p.Configured(), p.Name())
	}
}
