// Package engine is the provider aggregation and payment routing core. It
// fans capability calls out across the registry's adapters, reconciles the
// partial results into canonical views (status, accounts, balances,
// transactions, prices) and selects payment routes.
package engine

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"paybridge/internal/pkg/currency"
	"paybridge/internal/provider"
	"paybridge/internal/registry"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

const (
	defaultCallTimeout     = 8 * time.Second
	defaultPriceStaleAfter = 5 * time.Minute
	defaultTxLimit         = 50
)

// Options tune the engine's timeouts and degraded-mode behavior.
type Options struct {
	// CallTimeout bounds every individual adapter call inside a fan-out.
	CallTimeout time.Duration
	// PriceStaleAfter is how old a quote may be before unification skips it.
	PriceStaleAfter time.Duration
	// MockPrices overrides the built-in degraded-mode price table.
	MockPrices map[string]decimal.Decimal
	// Rank replaces the default route ranking policy.
	Rank RankPolicy
	// DefaultTxLimit caps transaction listings when the caller passes none.
	DefaultTxLimit int
	// ReportingPrecision is the decimal places converted totals are rounded
	// to; 0 keeps full precision.
	ReportingPrecision int32
}

// Engine exposes the aggregation operations. The registry pointer is
// swapped atomically on reconfiguration, never mutated in place while a
// fan-out is in flight.
type Engine struct {
	reg         atomic.Pointer[registry.Registry]
	callTimeout time.Duration
	staleAfter  time.Duration
	mockPrices  map[string]decimal.Decimal
	rank        RankPolicy
	txLimit     int
	precision   int32
}

// New builds an engine over the given registry.
func New(reg *registry.Registry, opts Options) *Engine {
	e := &Engine{
		callTimeout: opts.CallTimeout,
		staleAfter:  opts.PriceStaleAfter,
		mockPrices:  opts.MockPrices,
		rank:        opts.Rank,
		txLimit:     opts.DefaultTxLimit,
		precision:   opts.ReportingPrecision,
	}
	if e.callTimeout <= 0 {
		e.callTimeout = defaultCallTimeout
	}
	if e.txLimit <= 0 {
		e.txLimit = defaultTxLimit
	}
	if e.staleAfter <= 0 {
		e.staleAfter = defaultPriceStaleAfter
	}
	if e.rank == nil {
		e.rank = priorityRank{}
	}
	e.reg.Store(reg)
	return e
}

// ReplaceRegistry atomically swaps the provider set. In-flight fan-outs
// keep the registry they started with.
func (e *Engine) ReplaceRegistry(reg *registry.Registry) {
	if reg != nil {
		e.reg.Store(reg)
	}
}

// Registry returns the current provider set.
func (e *Engine) Registry() *registry.Registry { return e.registry() }

func (e *Engine) registry() *registry.Registry {
	return e.reg.Load()
}

// Domain narrows an operation to one provider category; empty means all.
type Domain = provider.Category

func filterDomain(providers []*registry.Provider, domain Domain) []*registry.Provider {
	if domain == "" {
		return providers
	}
	return lo.Filter(providers, func(p *registry.Provider, _ int) bool {
		return p.Category() == domain
	})
}

// Status reports every known provider in the domain, including unconfigured
// ones. No upstream calls are made; this reflects the health monitor's last
// observations.
func (e *Engine) Status(domain Domain) []registry.StatusEntry {
	entries := e.registry().Status()
	if domain == "" {
		return entries
	}
	return lo.Filter(entries, func(s registry.StatusEntry, _ int) bool {
		return s.Category == domain
	})
}

// AccountList is the accounts aggregation envelope.
type AccountList struct {
	Accounts []provider.Account `json:"accounts"`
	Errors   []CallError        `json:"errors"`
}

// Accounts fans out across every configured provider with the accounts
// capability and flattens the results in declaration order.
func (e *Engine) Accounts(ctx context.Context, domain Domain) AccountList {
	providers := filterDomain(e.registry().AdaptersFor(provider.CapAccounts), domain)
	res := fanOut(ctx, providers, provider.CapAccounts, e.callTimeout,
		func(ctx context.Context, p *registry.Provider) ([]provider.Account, error) {
			return p.Adapter().Accounts(ctx)
		})
	return AccountList{
		Accounts: lo.Flatten(res.Succeeded),
		Errors:   res.Errors,
	}
}

// Balances fetches every provider's balance snapshot plus a fresh price
// book, then aggregates into the reporting currency.
func (e *Engine) Balances(ctx context.Context, domain Domain) BalanceReport {
	providers := filterDomain(e.registry().AdaptersFor(provider.CapBalances), domain)
	res := fanOut(ctx, providers, provider.CapBalances, e.callTimeout,
		func(ctx context.Context, p *registry.Provider) (provider.BalanceSnapshot, error) {
			return p.Adapter().Balances(ctx)
		})
	book := e.Prices(ctx)
	report := aggregateBalances(res.Succeeded, res.Errors, book, time.Now().UTC())
	return report.rounded(e.precision)
}

// TransactionList is the transactions aggregation envelope.
type TransactionList struct {
	Transactions []provider.TransactionRecord `json:"transactions"`
	Errors       []CallError                  `json:"errors"`
}

// Transactions merges every provider's recent transactions, most recent
// first, capped at limit.
func (e *Engine) Transactions(ctx context.Context, domain Domain, limit int) TransactionList {
	if limit <= 0 {
		limit = e.txLimit
	}
	providers := filterDomain(e.registry().AdaptersFor(provider.CapTransactions), domain)
	res := fanOut(ctx, providers, provider.CapTransactions, e.callTimeout,
		func(ctx context.Context, p *registry.Provider) ([]provider.TransactionRecord, error) {
			return p.Adapter().Transactions(ctx, limit)
		})
	merged := lo.Flatten(res.Succeeded)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Timestamp.After(merged[j].Timestamp)
	})
	if len(merged) > limit {
		merged = merged[:limit]
	}
	return TransactionList{Transactions: merged, Errors: res.Errors}
}

// Prices fans out across price-capable providers and unifies the quotes
// into one table. When the live capability yields zero quotes overall the
// built-in mock table is substituted, tagged with a -mock source.
func (e *Engine) Prices(ctx context.Context, symbols ...string) PriceBook {
	reg := e.registry()
	providers := reg.AdaptersFor(provider.CapPrices)
	res := fanOut(ctx, providers, provider.CapPrices, e.callTimeout,
		func(ctx context.Context, p *registry.Provider) ([]provider.PriceQuote, error) {
			return p.Adapter().Prices(ctx, symbols)
		})

	now := time.Now().UTC()
	ordered := make([]providerQuotes, 0, len(res.Succeeded))
	sources := make([]string, 0, len(res.Succeeded))
	idx := 0
	total := 0
	for _, p := range providers {
		if containsError(res.Errors, p.Name()) {
			continue
		}
		quotes := res.Succeeded[idx]
		idx++
		if len(quotes) == 0 {
			continue
		}
		ordered = append(ordered, providerQuotes{source: p.Name(), quotes: quotes})
		sources = append(sources, p.Name())
		total += len(quotes)
	}

	if total == 0 {
		return mockBook(e.mockPrices, mockSourceName(providers), symbols, now)
	}
	return PriceBook{
		Quotes:    filterQuotes(unifyQuotes(ordered, e.staleAfter, now), symbols),
		Sources:   sources,
		Errors:    res.Errors,
		FetchedAt: now,
	}
}

func containsError(errs []CallError, providerName string) bool {
	for _, e := range errs {
		if e.Provider == providerName {
			return true
		}
	}
	return false
}

// mockSourceName names the degraded-mode source after the highest-priority
// price provider, so operators can see which integration went dark.
func mockSourceName(providers []*registry.Provider) string {
	if len(providers) > 0 {
		return providers[0].Name()
	}
	return "paybridge"
}

// Conversion is the result of valuing an asset amount in the reporting
// currency at the current unified rate.
type Conversion struct {
	Symbol   string          `json:"symbol"`
	Amount   decimal.Decimal `json:"amount"`
	Rate     decimal.Decimal `json:"rate"`
	ToAmount decimal.Decimal `json:"toAmount"`
	Currency string          `json:"currency"`
	Source   string          `json:"source"`
}

// Convert values amount units of symbol in the reporting currency using the
// current price book (peg table first, live quote otherwise).
func (e *Engine) Convert(ctx context.Context, symbol string, amount decimal.Decimal) (Conversion, error) {
	symbol = currency.Normalize(symbol)
	if symbol == "" {
		return Conversion{}, fmt.Errorf("symbol is required")
	}
	if rate, ok := currency.PegRateToReporting(symbol); ok {
		return Conversion{
			Symbol: symbol, Amount: amount, Rate: rate,
			ToAmount: amount.Mul(rate), Currency: currency.Reporting, Source: "peg",
		}, nil
	}
	book := e.Prices(ctx, symbol)
	q, ok := book.Lookup(symbol)
	if !ok {
		return Conversion{}, fmt.Errorf("no rate available for %s", symbol)
	}
	return Conversion{
		Symbol: symbol, Amount: amount, Rate: q.Price,
		ToAmount: amount.Mul(q.Price), Currency: currency.Reporting, Source: q.Source,
	}, nil
}
