package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"paybridge/internal/logger"
	"paybridge/internal/metrics"
	"paybridge/internal/pkg/currency"
	"paybridge/internal/provider"
	"paybridge/internal/registry"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RejectionReason is the machine-readable code attached to every candidate
// the router did not choose.
type RejectionReason string

const (
	ReasonUnconfigured        RejectionReason = "unconfigured"
	ReasonOffline             RejectionReason = "offline"
	ReasonUnsupportedCurrency RejectionReason = "unsupported-currency"
	ReasonLowerPriority       RejectionReason = "lower-priority"
)

// RejectedRoute is one candidate that was considered and passed over.
type RejectedRoute struct {
	Provider string          `json:"provider"`
	Reason   RejectionReason `json:"reason"`
}

// RouteDecision is the router's verdict for one payment request. Produced
// fresh per request; the engine never persists it.
type RouteDecision struct {
	ID           string          `json:"id"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	Provider     string          `json:"provider"`
	Alternatives []RejectedRoute `json:"alternatives"`
	Confidence   float64         `json:"confidence"`
	DecidedAt    time.Time       `json:"decidedAt"`
}

// ErrNoRouteAvailable is the terminal routing failure. There is no safe
// default for money movement, so the router never falls back to an
// arbitrary provider.
var ErrNoRouteAvailable = errors.New("no route available")

// NoRouteError carries the per-candidate rejection reasons alongside the
// sentinel; errors.Is(err, ErrNoRouteAvailable) matches it.
type NoRouteError struct {
	Currency string
	Rejected []RejectedRoute
}

func (e *NoRouteError) Error() string {
	return fmt.Sprintf("no route available for currency %s (%d candidate(s) rejected)", e.Currency, len(e.Rejected))
}

func (e *NoRouteError) Unwrap() error { return ErrNoRouteAvailable }

// RankPolicy orders eligible candidates. The contract fixed here is
// priority order plus eligibility filtering; any richer cost/latency
// scoring plugs in through this interface without touching the filter.
type RankPolicy interface {
	Rank(candidates []*registry.Provider) []*registry.Provider
}

// priorityRank is the default policy: operator-declared priority first,
// most recently observed healthy as the tie-break.
type priorityRank struct{}

func (priorityRank) Rank(candidates []*registry.Provider) []*registry.Provider {
	ranked := make([]*registry.Provider, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Priority() != ranked[j].Priority() {
			return ranked[i].Priority() < ranked[j].Priority()
		}
		return ranked[i].LastHealthyAt().After(ranked[j].LastHealthyAt())
	})
	return ranked
}

// SelectRoute picks the provider that should execute a payment of the given
// amount and currency. Candidates must declare the execute-payment
// capability, be configured, not be offline, and support the currency.
// Every considered-but-rejected candidate is returned with its reason.
func (e *Engine) SelectRoute(ctx context.Context, amount decimal.Decimal, curr string) (RouteDecision, error) {
	curr = currency.Normalize(curr)
	if curr == "" {
		return RouteDecision{}, fmt.Errorf("currency is required")
	}
	if amount.Sign() <= 0 {
		return RouteDecision{}, fmt.Errorf("amount must be positive, got %s", amount)
	}

	reg := e.registry()
	candidates := reg.DeclaringCapability(provider.CapExecutePayment)

	var (
		eligible []*registry.Provider
		rejected []RejectedRoute
	)
	for _, p := range candidates {
		switch {
		case !p.Configured():
			rejected = append(rejected, RejectedRoute{Provider: p.Name(), Reason: ReasonUnconfigured})
		case p.Offline():
			rejected = append(rejected, RejectedRoute{Provider: p.Name(), Reason: ReasonOffline})
		case !supportsCurrency(p, curr):
			rejected = append(rejected, RejectedRoute{Provider: p.Name(), Reason: ReasonUnsupportedCurrency})
		default:
			eligible = append(eligible, p)
		}
	}

	if len(eligible) == 0 {
		metrics.RecordRouteDecision("", curr)
		logger.Warnf("[router] no eligible provider for %s %s, %d candidate(s) rejected", amount, curr, len(rejected))
		return RouteDecision{}, &NoRouteError{Currency: curr, Rejected: rejected}
	}

	ranked := e.rank.Rank(eligible)
	chosen := ranked[0]
	for _, p := range ranked[1:] {
		rejected = append(rejected, RejectedRoute{Provider: p.Name(), Reason: ReasonLowerPriority})
	}

	decision := RouteDecision{
		ID:           uuid.NewString(),
		Amount:       amount,
		Currency:     curr,
		Provider:     chosen.Name(),
		Alternatives: rejected,
		Confidence:   routeConfidence(chosen),
		DecidedAt:    time.Now().UTC(),
	}
	metrics.RecordRouteDecision(chosen.Name(), curr)
	logger.Infof("[router] %s %s -> %s (confidence=%.2f, rejected=%d)", amount, curr, chosen.Name(), decision.Confidence, len(rejected))
	return decision, nil
}

func supportsCurrency(p *registry.Provider, curr string) bool {
	for _, c := range p.Adapter().SupportedCurrencies() {
		if strings.EqualFold(c, curr) {
			return true
		}
	}
	return false
}

// routeConfidence discounts providers whose health is not a fresh "online"
// observation. Deterministic: same inputs, same score.
func routeConfidence(p *registry.Provider) float64 {
	switch p.LastStatus().Health {
	case provider.HealthOnline:
		return 1.0
	case provider.HealthDegraded:
		return 0.75
	default: // unknown: reachable until proven otherwise, but less certain
		return 0.9
	}
}
