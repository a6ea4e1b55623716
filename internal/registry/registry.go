// Package registry owns the set of configured provider adapters and their
// declared capabilities. The provider list is immutable after construction;
// reconfiguration replaces the whole registry, never mutates it in place.
// Declaration order doubles as operator preference: it is the tie-break
// order for payment routing and the priority order for price unification.
package registry

import (
	"sync"
	"time"

	"paybridge/internal/provider"
)

// Entry describes one provider at registry construction time.
type Entry struct {
	Adapter     provider.Adapter
	Configured  bool
	Environment provider.Environment
}

// Provider wraps an adapter with its configuration state and the only piece
// of mutable state in the registry: the last observed status.
type Provider struct {
	adapter     provider.Adapter
	configured  bool
	environment provider.Environment
	priority    int

	mu          sync.RWMutex
	last        provider.Status
	lastHealthy time.Time
}

func (p *Provider) Name() string                      { return p.adapter.Name() }
func (p *Provider) Adapter() provider.Adapter         { return p.adapter }
func (p *Provider) Category() provider.Category       { return p.adapter.Category() }
func (p *Provider) Configured() bool                  { return p.configured }
func (p *Provider) Environment() provider.Environment { return p.environment }

// Priority is the provider's declaration index; lower wins.
func (p *Provider) Priority() int { return p.priority }

func (p *Provider) Supports(cap provider.Capability) bool {
	return provider.HasCapability(p.adapter, cap)
}

// LastStatus returns the most recent health observation. Before the first
// check it reports HealthUnknown.
func (p *Provider) LastStatus() provider.Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.last.Health == "" {
		return provider.Status{Health: provider.HealthUnknown}
	}
	return p.last
}

// SetLastStatus records a health observation.
func (p *Provider) SetLastStatus(s provider.Status) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.last = s
	if s.Health == provider.HealthOnline {
		p.lastHealthy = s.CheckedAt
	}
}

// LastHealthyAt is when the provider was last observed online; zero if never.
func (p *Provider) LastHealthyAt() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastHealthy
}

// Offline reports whether the provider is currently known to be unreachable.
// Unknown counts as reachable: a provider is only excluded from routing once
// a check has actually failed.
func (p *Provider) Offline() bool {
	return p.LastStatus().Health == provider.HealthOffline
}

// StatusEntry is the operator-facing view of one provider. Unlike the data
// capabilities this includes unconfigured providers, so operators can see
// what is missing.
type StatusEntry struct {
	Name        string               `json:"name"`
	Category    provider.Category    `json:"category"`
	Configured  bool                 `json:"configured"`
	Environment provider.Environment `json:"environment"`
	Features    []string             `json:"features"`
	LastStatus  provider.Health      `json:"lastStatus"`
	CheckedAt   time.Time            `json:"checkedAt,omitempty"`
}

// Registry holds the provider set. Reads need no locking: the slice is
// never written after New returns.
type Registry struct {
	providers []*Provider
}

// New builds a registry from entries in declaration order.
func New(entries []Entry) *Registry {
	providers := make([]*Provider, 0, len(entries))
	for i, e := range entries {
		if e.Adapter == nil {
			continue
		}
		env := e.Environment
		if env == "" {
			env = provider.EnvSandbox
		}
		providers = append(providers, &Provider{
			adapter:     e.Adapter,
			configured:  e.Configured,
			environment: env,
			priority:    i,
		})
	}
	return &Registry{providers: providers}
}

// All returns every known provider, configured or not, in declaration order.
func (r *Registry) All() []*Provider {
	return r.providers
}

// AdaptersFor returns the configured providers declaring cap, in declaration
// order. Unconfigured providers are omitted entirely; they are not attempted
// and therefore must not show up in either succeeded or errors downstream.
func (r *Registry) AdaptersFor(cap provider.Capability) []*Provider {
	out := make([]*Provider, 0, len(r.providers))
	for _, p := range r.providers {
		if !p.configured || !p.Supports(cap) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// DeclaringCapability returns all providers declaring cap regardless of
// configuration state. The payment router uses this to report unconfigured
// candidates as rejected rather than silently dropping them.
func (r *Registry) DeclaringCapability(cap provider.Capability) []*Provider {
	out := make([]*Provider, 0, len(r.providers))
	for _, p := range r.providers {
		if p.Supports(cap) {
			out = append(out, p)
		}
	}
	return out
}

// Lookup finds a provider by name.
func (r *Registry) Lookup(name string) (*Provider, bool) {
	for _, p := range r.providers {
		if p.Name() == name {
			return p, true
		}
	}
	return nil, false
}

// Status reports every known provider for the operator dashboard.
func (r *Registry) Status() []StatusEntry {
	out := make([]StatusEntry, 0, len(r.providers))
	for _, p := range r.providers {
		caps := p.adapter.Capabilities()
		features := make([]string, 0, len(caps))
		for _, c := range caps {
			features = append(features, string(c))
		}
		last := p.LastStatus()
		out = append(out, StatusEntry{
			Name:        p.Name(),
			Category:    p.Category(),
			Configured:  p.configured,
			Environment: p.environment,
			Features:    features,
			LastStatus:  last.Health,
			CheckedAt:   last.CheckedAt,
		})
	}
	return out
}
