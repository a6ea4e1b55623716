package registry

import (
	"context"
	"testing"
	"time"

	"paybridge/internal/provider"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAdapter struct {
	name     string
	category provider.Category
	caps     []provider.Capability
}

func (s *stubAdapter) Name() string                        { return s.name }
func (s *stubAdapter) Category() provider.Category         { return s.category }
func (s *stubAdapter) Capabilities() []provider.Capability { return s.caps }
func (s *stubAdapter) SupportedCurrencies() []string       { return nil }
func (s *stubAdapter) CheckStatus(context.Context) (provider.Status, error) {
	return provider.Status{Health: provider.HealthOnline}, nil
}
func (s *stubAdapter) Accounts(context.Context) ([]provider.Account, error) { return nil, nil }
func (s *stubAdapter) Balances(context.Context) (provider.BalanceSnapshot, error) {
	return provider.BalanceSnapshot{}, nil
}
func (s *stubAdapter) Transactions(context.Context, int) ([]provider.TransactionRecord, error) {
	return nil, nil
}
func (s *stubAdapter) Prices(context.Context, []string) ([]provider.PriceQuote, error) {
	return nil, nil
}
func (s *stubAdapter) ExecutePayment(context.Context, provider.PaymentRequest) (provider.PaymentReceipt, error) {
	return provider.PaymentReceipt{}, nil
}

func TestAdaptersForFiltersAndKeepsOrder(t *testing.T) {
	reg := New([]Entry{
		{Adapter: &stubAdapter{name: "a", caps: []provider.Capability{provider.CapPrices}}, Configured: true},
		{Adapter: &stubAdapter{name: "b", caps: []provider.Capability{provider.CapPrices}}, Configured: false},
		{Adapter: &stubAdapter{name: "c", caps: []provider.Capability{provider.CapStatus}}, Configured: true},
		{Adapter: &stubAdapter{name: "d", caps: []provider.Capability{provider.CapPrices}}, Configured: true},
	})

	got := reg.AdaptersFor(provider.CapPrices)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Name())
	assert.Equal(t, "d", got[1].Name())
}

func TestDeclaringCapabilityIncludesUnconfigured(t *testing.T) {
	reg := New([]Entry{
		{Adapter: &stubAdapter{name: "a", caps: []provider.Capability{provider.CapExecutePayment}}, Configured: false},
		{Adapter: &stubAdapter{name: "b", caps: []provider.Capability{provider.CapExecutePayment}}, Configured: true},
	})

	got := reg.DeclaringCapability(provider.CapExecutePayment)
	require.Len(t, got, 2)
	assert.False(t, got[0].Configured())
	assert.True(t, got[1].Configured())
}

func TestPriorityFollowsDeclarationIndex(t *testing.T) {
	reg := New([]Entry{
		{Adapter: &stubAdapter{name: "first"}, Configured: true},
		{Adapter: &stubAdapter{name: "second"}, Configured: true},
	})

	first, ok := reg.Lookup("first")
	require.True(t, ok)
	second, ok := reg.Lookup("second")
	require.True(t, ok)
	assert.Less(t, first.Priority(), second.Priority())
}

func TestLastStatusDefaultsToUnknown(t *testing.T) {
	reg := New([]Entry{{Adapter: &stubAdapter{name: "a"}, Configured: true}})
	p, _ := reg.Lookup("a")

	assert.Equal(t, provider.HealthUnknown, p.LastStatus().Health)
	assert.False(t, p.Offline())

	now := time.Now().UTC()
	p.SetLastStatus(provider.Status{Health: provider.HealthOnline, CheckedAt: now})
	assert.Equal(t, provider.HealthOnline, p.LastStatus().Health)
	assert.Equal(t, now, p.LastHealthyAt())

	p.SetLastStatus(provider.Status{Health: provider.HealthOffline, CheckedAt: now.Add(time.Minute)})
	assert.True(t, p.Offline())
	// last healthy timestamp survives the offline observation
	assert.Equal(t, now, p.LastHealthyAt())
}

func TestStatusReportsEveryProvider(t *testing.T) {
	reg := New([]Entry{
		{Adapter: &stubAdapter{name: "a", category: provider.CategoryBanking,
			caps: []provider.Capability{provider.CapStatus, provider.CapAccounts}}, Configured: true, Environment: provider.EnvProduction},
		{Adapter: &stubAdapter{name: "b", category: provider.CategoryIndex}, Configured: false},
	})

	entries := reg.Status()
	require.Len(t, entries, 2)
	assert.Equal(t, provider.EnvProduction, entries[0].Environment)
	assert.Equal(t, []string{"status", "accounts"}, entries[0].Features)
	assert.Equal(t, provider.EnvSandbox, entries[1].Environment) // defaulted
	assert.False(t, entries[1].Configured)
}
