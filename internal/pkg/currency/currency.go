// Package currency holds reporting-currency helpers. All balances and
// prices are normalized to AED; the USD peg is the central-bank fixed rate,
// not a market quote, and stable assets are converted at their documented
// peg rather than a live price.
package currency

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Reporting is the single currency all totals are expressed in.
const Reporting = "AED"

// USDToAED is the fixed peg maintained by the UAE central bank since 1997.
var USDToAED = decimal.NewFromFloat(3.6725)

// stablePegsUSD maps stable assets to their documented USD peg.
var stablePegsUSD = map[string]decimal.Decimal{
	"USDT": decimal.NewFromInt(1),
	"USDC": decimal.NewFromInt(1),
	"DAI":  decimal.NewFromInt(1),
}

// Normalize upper-cases and trims a currency or asset code.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsReporting reports whether code is the reporting currency itself.
func IsReporting(code string) bool {
	return Normalize(code) == Reporting
}

// PegRateToReporting returns the fixed conversion rate to AED for currencies
// that have one (AED itself, USD, and pegged stable assets). The boolean is
// false for anything that needs a live quote.
func PegRateToReporting(code string) (decimal.Decimal, bool) {
	code = Normalize(code)
	switch {
	case code == Reporting:
		return decimal.NewFromInt(1), true
	case code == "USD":
		return USDToAED, true
	}
	if peg, ok := stablePegsUSD[code]; ok {
		return peg.Mul(USDToAED), true
	}
	return decimal.Decimal{}, false
}

// USDQuoteToReporting converts a price expressed in USD (or a USD-pegged
// stable asset) into AED.
func USDQuoteToReporting(price decimal.Decimal) decimal.Decimal {
	return price.Mul(USDToAED)
}
