package health

import (
	"context"
	"fmt"
	"testing"
	"time"

	"paybridge/internal/provider"
	"paybridge/internal/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type probeAdapter struct {
	name   string
	status func(ctx context.Context) (provider.Status, error)
}

func (p *probeAdapter) Name() string                { return p.name }
func (p *probeAdapter) Category() provider.Category { return provider.CategoryBanking }
func (p *probeAdapter) Capabilities() []provider.Capability {
	return []provider.Capability{provider.CapStatus}
}
func (p *probeAdapter) SupportedCurrencies() []string { return nil }
func (p *probeAdapter) CheckStatus(ctx context.Context) (provider.Status, error) {
	return p.status(ctx)
}
func (p *probeAdapter) Accounts(context.Context) ([]provider.Account, error) { return nil, nil }
func (p *probeAdapter) Balances(context.Context) (provider.BalanceSnapshot, error) {
	return provider.BalanceSnapshot{}, nil
}
func (p *probeAdapter) Transactions(context.Context, int) ([]provider.TransactionRecord, error) {
	return nil, nil
}
func (p *probeAdapter) Prices(context.Context, []string) ([]provider.PriceQuote, error) {
	return nil, nil
}
func (p *probeAdapter) ExecutePayment(context.Context, provider.PaymentRequest) (provider.PaymentReceipt, error) {
	return provider.PaymentReceipt{}, nil
}

func newMonitorOver(adapters ...provider.Adapter) (*Monitor, *registry.Registry) {
	entries := make([]registry.Entry, 0, len(adapters))
	for _, a := range adapters {
		entries = append(entries, registry.Entry{Adapter: a, Configured: true})
	}
	reg := registry.New(entries)
	m := NewMonitor(func() *registry.Registry { return reg }, Options{
		Interval:         time.Minute,
		ProbeTimeout:     time.Second,
		FailureThreshold: 3,
		Cooldown:         time.Hour,
	})
	return m, reg
}

func TestSweepMarksOnline(t *testing.T) {
	m, reg := newMonitorOver(&probeAdapter{name: "ok", status: func(context.Context) (provider.Status, error) {
		return provider.Status{Health: provider.HealthOnline}, nil
	}})

	m.Sweep(context.Background())

	p, _ := reg.Lookup("ok")
	status := p.LastStatus()
	assert.Equal(t, provider.HealthOnline, status.Health)
	assert.False(t, status.CheckedAt.IsZero())
}

func TestSweepDefaultsEmptyHealthToOnline(t *testing.T) {
	m, reg := newMonitorOver(&probeAdapter{name: "bare", status: func(context.Context) (provider.Status, error) {
		return provider.Status{}, nil
	}})

	m.Sweep(context.Background())

	p, _ := reg.Lookup("bare")
	assert.Equal(t, provider.HealthOnline, p.LastStatus().Health)
}

func TestConsecutiveFailuresTripToOffline(t *testing.T) {
	m, reg := newMonitorOver(&probeAdapter{name: "down", status: func(context.Context) (provider.Status, error) {
		return provider.Status{}, fmt.Errorf("connection refused")
	}})

	ctx := context.Background()
	m.Sweep(ctx)
	p, _ := reg.Lookup("down")
	assert.Equal(t, provider.HealthDegraded, p.LastStatus().Health)

	m.Sweep(ctx)
	assert.Equal(t, provider.HealthDegraded, p.LastStatus().Health)

	m.Sweep(ctx) // third failure trips the breaker
	require.Equal(t, provider.HealthOffline, p.LastStatus().Health)
	assert.True(t, p.Offline())

	// with the breaker open the probe is suppressed entirely
	m.Sweep(ctx)
	assert.Contains(t, p.LastStatus().Detail, "suppressed")
}

func TestRecoveryAfterHalfOpenProbe(t *testing.T) {
	healthy := false
	adapter := &probeAdapter{name: "flaky", status: func(context.Context) (provider.Status, error) {
		if healthy {
			return provider.Status{Health: provider.HealthOnline}, nil
		}
		return provider.Status{}, fmt.Errorf("timeout")
	}}
	reg := registry.New([]registry.Entry{{Adapter: adapter, Configured: true}})
	m := NewMonitor(func() *registry.Registry { return reg }, Options{
		Interval:         time.Minute,
		FailureThreshold: 1,
		Cooldown:         time.Millisecond,
	})

	ctx := context.Background()
	m.Sweep(ctx)
	p, _ := reg.Lookup("flaky")
	require.Equal(t, provider.HealthOffline, p.LastStatus().Health)

	healthy = true
	time.Sleep(5 * time.Millisecond) // let the cooldown elapse
	m.Sweep(ctx)
	assert.Equal(t, provider.HealthOnline, p.LastStatus().Health)
}

func TestSlowProbeReadsDegraded(t *testing.T) {
	reg := registry.New([]registry.Entry{{Adapter: &probeAdapter{name: "slow", status: func(context.Context) (provider.Status, error) {
		time.Sleep(20 * time.Millisecond)
		return provider.Status{Health: provider.HealthOnline}, nil
	}}, Configured: true}})
	m := NewMonitor(func() *registry.Registry { return reg }, Options{
		Interval:      time.Minute,
		DegradedAfter: time.Millisecond,
	})

	m.Sweep(context.Background())

	p, _ := reg.Lookup("slow")
	status := p.LastStatus()
	assert.Equal(t, provider.HealthDegraded, status.Health)
	assert.Equal(t, "slow status probe", status.Detail)
}
