// Package health keeps every configured provider's lastStatus current. A
// background loop probes the status capability on an interval; consecutive
// failures trip a per-provider circuit breaker, which reads as offline
// until a half-open probe succeeds. The payment router's availability
// filter is fed entirely from these observations.
package health

import (
	"context"
	"sync"
	"time"

	"paybridge/internal/logger"
	"paybridge/internal/metrics"
	"paybridge/internal/pkg/circuit"
	"paybridge/internal/provider"
	"paybridge/internal/registry"
)

// Options tune the probe loop.
type Options struct {
	Interval         time.Duration // how often every provider is probed
	ProbeTimeout     time.Duration // per-probe upper bound
	FailureThreshold int           // consecutive failures before offline
	Cooldown         time.Duration // open-breaker duration before a retry probe
	// DegradedAfter marks a provider degraded when a successful probe is
	// slower than this.
	DegradedAfter time.Duration
}

func (o Options) withDefaults() Options {
	if o.Interval <= 0 {
		o.Interval = 30 * time.Second
	}
	if o.ProbeTimeout <= 0 {
		o.ProbeTimeout = 5 * time.Second
	}
	if o.FailureThreshold <= 0 {
		o.FailureThreshold = 3
	}
	if o.Cooldown <= 0 {
		o.Cooldown = 2 * o.Interval
	}
	if o.DegradedAfter <= 0 {
		o.DegradedAfter = 2 * time.Second
	}
	return o
}

// RegistrySource yields the current registry; the monitor re-reads it every
// cycle so an atomic registry swap is picked up without a restart.
type RegistrySource func() *registry.Registry

// Monitor runs the probe loop.
type Monitor struct {
	source RegistrySource
	opts   Options

	mu       sync.Mutex
	breakers map[string]*circuit.Breaker
}

// NewMonitor builds a monitor over a registry source.
func NewMonitor(source RegistrySource, opts Options) *Monitor {
	return &Monitor{
		source:   source,
		opts:     opts.withDefaults(),
		breakers: make(map[string]*circuit.Breaker),
	}
}

// Run blocks until ctx is cancelled, probing every cycle. The first sweep
// happens immediately so routing has health data soon after startup.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.opts.Interval)
	defer ticker.Stop()

	m.Sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep(ctx)
		}
	}
}

// Sweep probes every configured provider with the status capability once,
// concurrently.
func (m *Monitor) Sweep(ctx context.Context) {
	reg := m.source()
	if reg == nil {
		return
	}
	providers := reg.AdaptersFor(provider.CapStatus)
	var wg sync.WaitGroup
	for _, p := range providers {
		wg.Add(1)
		go func(p *registry.Provider) {
			defer wg.Done()
			m.probe(ctx, p)
		}(p)
	}
	wg.Wait()
}

func (m *Monitor) probe(ctx context.Context, p *registry.Provider) {
	br := m.breakerFor(p.Name())
	now := time.Now().UTC()
	if !br.Allow() {
		p.SetLastStatus(provider.Status{
			Health:    provider.HealthOffline,
			CheckedAt: now,
			Detail:    "circuit open, probe suppressed",
		})
		metrics.RecordProviderHealth(p.Name(), false)
		return
	}

	probeCtx, cancel := context.WithTimeout(ctx, m.opts.ProbeTimeout)
	defer cancel()
	start := time.Now()
	status, err := p.Adapter().CheckStatus(probeCtx)
	elapsed := time.Since(start)

	if err != nil {
		br.RecordFailure()
		health := provider.HealthDegraded
		if br.Open() {
			health = provider.HealthOffline
		}
		p.SetLastStatus(provider.Status{
			Health:    health,
			Latency:   elapsed,
			CheckedAt: now,
			Detail:    err.Error(),
		})
		metrics.RecordProviderHealth(p.Name(), false)
		logger.Warnf("[health] %s probe failed in %s: %v", p.Name(), elapsed.Truncate(time.Millisecond), err)
		return
	}

	br.RecordSuccess()
	if status.Health == "" || status.Health == provider.HealthUnknown {
		status.Health = provider.HealthOnline
	}
	if status.Health == provider.HealthOnline && elapsed > m.opts.DegradedAfter {
		status.Health = provider.HealthDegraded
		status.Detail = "slow status probe"
	}
	status.Latency = elapsed
	status.CheckedAt = now
	p.SetLastStatus(status)
	metrics.RecordProviderHealth(p.Name(), status.Health == provider.HealthOnline)
	logger.Debugf("[health] %s %s in %s", p.Name(), status.Health, elapsed.Truncate(time.Millisecond))
}

func (m *Monitor) breakerFor(name string) *circuit.Breaker {
	m.mu.Lock()
	defer m.mu.Unlock()
	br, ok := m.breakers[name]
	if !ok {
		br = circuit.NewBreaker(name, m.opts.FailureThreshold, m.opts.Cooldown)
		m.breakers[name] = br
	}
	return br
}
