package currency

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "AED", Normalize(" aed "))
	assert.Equal(t, "USDT", Normalize("usdt"))
	assert.Equal(t, "", Normalize("   "))
}

func TestPegRateToReporting(t *testing.T) {
	rate, ok := PegRateToReporting("AED")
	require.True(t, ok)
	assert.True(t, rate.Equal(decimal.NewFromInt(1)))

	rate, ok = PegRateToReporting("usd")
	require.True(t, ok)
	assert.True(t, rate.Equal(USDToAED))

	for _, stable := range []string{"USDT", "USDC", "DAI"} {
		rate, ok = PegRateToReporting(stable)
		require.True(t, ok, stable)
		assert.True(t, rate.Equal(USDToAED), stable)
	}

	_, ok = PegRateToReporting("BTC")
	assert.False(t, ok)
}

func TestUSDQuoteToReporting(t *testing.T) {
	got := USDQuoteToReporting(decimal.NewFromInt(100))
	assert.True(t, got.Equal(decimal.NewFromFloat(367.25)))
}

func TestIsReporting(t *testing.T) {
	assert.True(t, IsReporting("aed"))
	assert.False(t, IsReporting("USD"))
}
