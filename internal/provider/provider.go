package provider

import (
	"context"
	"errors"
)

// ErrNotSupported is returned by adapters when an operation outside their
// declared capability set is invoked anyway.
var ErrNotSupported = errors.New("operation not supported by provider")

// Adapter normalizes one upstream API into the engine's canonical types.
// Implementations are thin per-provider shims; the aggregation, unification
// and routing logic never sees upstream shapes.
type Adapter interface {
	Name() string

	Category() Category

	// Capabilities returns the declared capability set. Operations outside
	// it are never invoked by the engine.
	Capabilities() []Capability

	// SupportedCurrencies lists currency codes the provider can hold or
	// settle. Used by the payment router's eligibility filter.
	SupportedCurrencies() []string

	CheckStatus(ctx context.Context) (Status, error)

	Accounts(ctx context.Context) ([]Account, error)

	Balances(ctx context.Context) (BalanceSnapshot, error)

	Transactions(ctx context.Context, limit int) ([]TransactionRecord, error)

	// Prices returns quotes in the reporting currency. An empty symbols
	// slice means "everything the provider quotes".
	Prices(ctx context.Context, symbols []string) ([]PriceQuote, error)

	ExecutePayment(ctx context.Context, req PaymentRequest) (PaymentReceipt, error)
}

// HasCapability reports whether cap is in the adapter's declared set.
func HasCapability(a Adapter, cap Capability) bool {
	if a == nil {
		return false
	}
	for _, c := range a.Capabilities() {
		if c == cap {
			return true
		}
	}
	return false
}
