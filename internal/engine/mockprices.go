package engine

import (
	"fmt"
	"os"
	"sort"
	"time"

	"paybridge/internal/pkg/currency"
	"paybridge/internal/provider"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Built-in degraded-mode table, AED per unit. Used when the live price
// capability yields zero quotes overall, so dashboards keep rendering while
// clearly marked as simulated.
var defaultMockPrices = map[string]decimal.Decimal{
	"BTC":  decimal.NewFromInt(235000),
	"ETH":  decimal.NewFromInt(12100),
	"SOL":  decimal.NewFromInt(520),
	"XRP":  decimal.NewFromFloat(8.25),
	"USDT": currency.USDToAED,
	"USDC": currency.USDToAED,
}

// LoadMockPrices reads a symbol→price YAML table that overrides the
// built-in one. Prices are AED per unit.
func LoadMockPrices(path string) (map[string]decimal.Decimal, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading mock price table: %w", err)
	}
	var table map[string]float64
	if err := yaml.Unmarshal(raw, &table); err != nil {
		return nil, fmt.Errorf("parsing mock price table: %w", err)
	}
	out := make(map[string]decimal.Decimal, len(table))
	for sym, price := range table {
		sym = currency.Normalize(sym)
		if sym == "" || price <= 0 {
			continue
		}
		out[sym] = decimal.NewFromFloat(price)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("mock price table %s has no usable entries", path)
	}
	return out, nil
}

// mockBook builds a degraded-mode PriceBook. The source carries a -mock
// suffix so simulated data is never indistinguishable from live data.
func mockBook(table map[string]decimal.Decimal, sourceName string, symbols []string, now time.Time) PriceBook {
	if len(table) == 0 {
		table = defaultMockPrices
	}
	source := fmt.Sprintf("%s-mock", sourceName)
	syms := make([]string, 0, len(table))
	for sym := range table {
		syms = append(syms, sym)
	}
	sort.Strings(syms)
	quotes := make([]provider.PriceQuote, 0, len(syms))
	for _, sym := range syms {
		quotes = append(quotes, provider.PriceQuote{
			Symbol:     sym,
			Price:      table[sym],
			Source:     source,
			ObservedAt: now,
		})
	}
	return PriceBook{
		Quotes:    filterQuotes(quotes, symbols),
		Sources:   []string{source},
		Degraded:  true,
		FetchedAt: now,
	}
}
