package engine

import (
	"time"

	"paybridge/internal/logger"
	"paybridge/internal/pkg/currency"
	"paybridge/internal/provider"

	"github.com/shopspring/decimal"
)

// ProviderBalance is one provider's contribution to the balance report:
// native holdings plus their value in the reporting currency.
type ProviderBalance struct {
	Provider   string                     `json:"provider"`
	Native     map[string]decimal.Decimal `json:"native"`
	Converted  decimal.Decimal            `json:"converted"`
	Incomplete bool                       `json:"incomplete,omitempty"` // some holdings had no usable rate
}

// BalanceReport is the aggregated view across providers. Total is computed
// from successfully fetched snapshots only; a provider whose fetch failed
// is listed in Failed so callers can tell "no holdings" apart from "unknown
// due to failure".
// Degraded marks totals valued against the simulated price table; mock-rate
// valuations must never look like live ones.
type BalanceReport struct {
	Currency    string            `json:"currency"`
	Total       decimal.Decimal   `json:"total"`
	ByProvider  []ProviderBalance `json:"byProvider"`
	Failed      []CallError       `json:"failed,omitempty"`
	Degraded    bool              `json:"degraded,omitempty"`
	GeneratedAt time.Time         `json:"generatedAt"`
}

// aggregateBalances converts heterogeneous per-provider snapshots into the
// reporting currency. Fiat in the reporting currency and pegged stable
// assets use the documented fixed peg; crypto holdings use the unified
// price book. Holdings with neither a peg nor a quote are kept in Native
// but excluded from Converted, with the provider flagged Incomplete.
func aggregateBalances(snaps []provider.BalanceSnapshot, failures []CallError, book PriceBook, now time.Time) BalanceReport {
	report := BalanceReport{
		Currency:    currency.Reporting,
		ByProvider:  make([]ProviderBalance, 0, len(snaps)),
		Failed:      failures,
		GeneratedAt: now,
	}
	for _, snap := range snaps {
		pb := ProviderBalance{
			Provider: snap.Provider,
			Native:   make(map[string]decimal.Decimal, len(snap.Balances)),
		}
		for code, amount := range snap.Balances {
			code = currency.Normalize(code)
			if code == "" || amount.IsZero() {
				continue
			}
			pb.Native[code] = amount
			rate, fromBook, ok := conversionRate(code, book)
			if !ok {
				logger.Warnf("[balances] %s holds %s but no peg or quote is available, excluded from total", snap.Provider, code)
				pb.Incomplete = true
				continue
			}
			if fromBook && book.Degraded {
				report.Degraded = true
			}
			pb.Converted = pb.Converted.Add(amount.Mul(rate))
		}
		report.Total = report.Total.Add(pb.Converted)
		report.ByProvider = append(report.ByProvider, pb)
	}
	return report
}

// rounded trims converted amounts to the configured precision. Native
// holdings stay untouched; rounding is a presentation concern of the
// reporting currency only.
func (r BalanceReport) rounded(places int32) BalanceReport {
	if places <= 0 {
		return r
	}
	r.Total = r.Total.Round(places)
	for i := range r.ByProvider {
		r.ByProvider[i].Converted = r.ByProvider[i].Converted.Round(places)
	}
	return r
}

// conversionRate resolves one unit of code into the reporting currency,
// preferring the fixed peg table over live quotes. fromBook reports whether
// the rate came from the price book rather than the peg table.
func conversionRate(code string, book PriceBook) (rate decimal.Decimal, fromBook, ok bool) {
	if rate, ok := currency.PegRateToReporting(code); ok {
		return rate, false, true
	}
	if q, ok := book.Lookup(code); ok {
		return q.Price, true, true
	}
	return decimal.Decimal{}, false, false
}
