package engine

import (
	"context"
	"os"
	"testing"

	"paybridge/internal/provider"
	"paybridge/internal/registry"
)

// fakeAdapter implements provider.Adapter with overridable function fields.
type fakeAdapter struct {
	name       string
	category   provider.Category
	caps       []provider.Capability
	currencies []string

	statusFn       func(ctx context.Context) (provider.Status, error)
	accountsFn     func(ctx context.Context) ([]provider.Account, error)
	balancesFn     func(ctx context.Context) (provider.BalanceSnapshot, error)
	transactionsFn func(ctx context.Context, limit int) ([]provider.TransactionRecord, error)
	pricesFn       func(ctx context.Context, symbols []string) ([]provider.PriceQuote, error)
	paymentFn      func(ctx context.Context, req provider.PaymentRequest) (provider.PaymentReceipt, error)
}

func (f *fakeAdapter) Name() string                { return f.name }
func (f *fakeAdapter) Category() provider.Category { return f.category }

func (f *fakeAdapter) Capabilities() []provider.Capability {
	if f.caps != nil {
		return f.caps
	}
	return []provider.Capability{
		provider.CapStatus, provider.CapAccounts, provider.CapBalances,
		provider.CapTransactions, provider.CapPrices, provider.CapExecutePayment,
	}
}

func (f *fakeAdapter) SupportedCurrencies() []string { return f.currencies }

func (f *fakeAdapter) CheckStatus(ctx context.Context) (provider.Status, error) {
	if f.statusFn != nil {
		return f.statusFn(ctx)
	}
	return provider.Status{Health: provider.HealthOnline}, nil
}

func (f *fakeAdapter) Accounts(ctx context.Context) ([]provider.Account, error) {
	if f.accountsFn != nil {
		return f.accountsFn(ctx)
	}
	return nil, nil
}

func (f *fakeAdapter) Balances(ctx context.Context) (provider.BalanceSnapshot, error) {
	if f.balancesFn != nil {
		return f.balancesFn(ctx)
	}
	return provider.BalanceSnapshot{Provider: f.name}, nil
}

func (f *fakeAdapter) Transactions(ctx context.Context, limit int) ([]provider.TransactionRecord, error) {
	if f.transactionsFn != nil {
		return f.transactionsFn(ctx, limit)
	}
	return nil, nil
}

func (f *fakeAdapter) Prices(ctx context.Context, symbols []string) ([]provider.PriceQuote, error) {
	if f.pricesFn != nil {
		return f.pricesFn(ctx, symbols)
	}
	return nil, nil
}

func (f *fakeAdapter) ExecutePayment(ctx context.Context, req provider.PaymentRequest) (provider.PaymentReceipt, error) {
	if f.paymentFn != nil {
		return f.paymentFn(ctx, req)
	}
	return provider.PaymentReceipt{Provider: f.name, Reference: req.Reference}, nil
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// newTestRegistry registers the adapters as configured, in the given order.
func newTestRegistry(adapters ...provider.Adapter) *registry.Registry {
	entries := make([]registry.Entry, 0, len(adapters))
	for _, a := range adapters {
		entries = append(entries, registry.Entry{Adapter: a, Configured: true})
	}
	return registry.New(entries)
}
