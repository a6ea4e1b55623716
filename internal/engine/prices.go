package engine

import (
	"sort"
	"strings"
	"time"

	"paybridge/internal/logger"
	"paybridge/internal/provider"
)

// PriceBook is the unified price table: at most one quote per symbol.
// Degraded marks a book built from the mock table; mock and live quotes are
// never mixed in one book, so callers can always tell simulated data apart.
type PriceBook struct {
	Quotes    []provider.PriceQuote
	Sources   []string
	Degraded  bool
	Errors    []CallError
	FetchedAt time.Time
}

// Lookup finds the unified quote for a symbol.
func (b PriceBook) Lookup(symbol string) (provider.PriceQuote, bool) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	for _, q := range b.Quotes {
		if q.Symbol == symbol {
			return q, true
		}
	}
	return provider.PriceQuote{}, false
}

// providerQuotes keeps one provider's quotes together with its priority
// position during unification.
type providerQuotes struct {
	source string
	quotes []provider.PriceQuote
}

// unifyQuotes merges per-provider quote lists into one table. Input order is
// registry declaration order, which is the source priority: within a symbol
// group the highest-priority usable quote wins, falling back to the next
// source when the preferred one reports zero or is stale. Symbols for which
// every source failed are omitted rather than emitted at zero.
func unifyQuotes(ordered []providerQuotes, staleAfter time.Duration, now time.Time) []provider.PriceQuote {
	type group struct {
		symbol string
		quotes []provider.PriceQuote // priority order
	}
	groups := make(map[string]*group)
	var symbols []string
	for _, pq := range ordered {
		for _, q := range pq.quotes {
			sym := strings.ToUpper(strings.TrimSpace(q.Symbol))
			if sym == "" {
				continue
			}
			q.Symbol = sym
			if q.Source == "" {
				q.Source = pq.source
			}
			g, ok := groups[sym]
			if !ok {
				g = &group{symbol: sym}
				groups[sym] = g
				symbols = append(symbols, sym)
			}
			g.quotes = append(g.quotes, q)
		}
	}
	sort.Strings(symbols)

	out := make([]provider.PriceQuote, 0, len(symbols))
	for _, sym := range symbols {
		g := groups[sym]
		picked := false
		for _, q := range g.quotes {
			if !usableQuote(q, staleAfter, now) {
				continue
			}
			out = append(out, q)
			picked = true
			break
		}
		if !picked {
			logger.Warnf("[prices] no usable quote for %s across %d source(s), omitting", sym, len(g.quotes))
		}
	}
	return out
}

// usableQuote rejects zero/negative prices and observations past the
// staleness threshold.
func usableQuote(q provider.PriceQuote, staleAfter time.Duration, now time.Time) bool {
	if q.Price.Sign() <= 0 {
		return false
	}
	if q.Stale {
		return false
	}
	if staleAfter > 0 && !q.ObservedAt.IsZero() && now.Sub(q.ObservedAt) > staleAfter {
		return false
	}
	return true
}

// filterQuotes keeps only the requested symbols; nil keeps everything.
func filterQuotes(quotes []provider.PriceQuote, symbols []string) []provider.PriceQuote {
	if len(symbols) == 0 {
		return quotes
	}
	want := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s != "" {
			want[s] = struct{}{}
		}
	}
	out := make([]provider.PriceQuote, 0, len(want))
	for _, q := range quotes {
		if _, ok := want[q.Symbol]; ok {
			out = append(out, q)
		}
	}
	return out
}
