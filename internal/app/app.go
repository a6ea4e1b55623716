// Package app wires configuration into a running service: provider
// adapters, registry, engine, health monitor, audit store, event publisher
// and the HTTP API.
package app

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"paybridge/internal/config"
	"paybridge/internal/engine"
	"paybridge/internal/events"
	"paybridge/internal/health"
	"paybridge/internal/logger"
	"paybridge/internal/provider"
	"paybridge/internal/provider/binance"
	"paybridge/internal/provider/coingecko"
	"paybridge/internal/provider/mashreq"
	"paybridge/internal/provider/rain"
	"paybridge/internal/registry"
	"paybridge/internal/scheduler"
	"paybridge/internal/store"
	apihttp "paybridge/internal/transport/http/api"

	"golang.org/x/sync/errgroup"
)

// App owns the constructed service graph.
type App struct {
	cfg       *config.Config
	cfgPath   string
	engine    *engine.Engine
	monitor   *health.Monitor
	store     *store.Store
	publisher *events.Publisher
	server    *apihttp.Server
}

// New builds the application from config without starting anything.
// cfgPath enables live reconfiguration; pass "" to disable the watcher.
func New(cfg *config.Config, cfgPath string) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)

	reg, err := buildRegistry(cfg.Providers)
	if err != nil {
		return nil, err
	}

	opts := engine.Options{
		CallTimeout:        cfg.Engine.CallTimeout(),
		DefaultTxLimit:     cfg.Engine.DefaultTxLimit,
		ReportingPrecision: cfg.Engine.ReportingPrecision,
	}
	if stale, ok := scheduler.ParseIntervalDuration(cfg.Engine.PriceStaleAfter); ok {
		opts.PriceStaleAfter = stale
	}
	if path := strings.TrimSpace(cfg.Engine.MockPricesPath); path != "" {
		table, err := engine.LoadMockPrices(path)
		if err != nil {
			return nil, err
		}
		opts.MockPrices = table
	}
	eng := engine.New(reg, opts)

	monitor := health.NewMonitor(eng.Registry, health.Options{
		Interval:         cfg.Health.Interval(),
		ProbeTimeout:     cfg.Health.ProbeTimeout(),
		FailureThreshold: cfg.Health.FailureThreshold,
		Cooldown:         cfg.Health.Cooldown(),
		DegradedAfter:    cfg.Health.DegradedAfter(),
	})

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("opening route audit store: %w", err)
	}

	var pub *events.Publisher
	if cfg.Events.Enabled {
		pub = events.NewPublisher(cfg.Events.Brokers, cfg.Events.Topic)
	}

	server, err := apihttp.NewServer(apihttp.ServerConfig{
		Addr:   cfg.App.HTTPAddr,
		Router: apihttp.NewRouter(eng, st, pub),
	})
	if err != nil {
		return nil, err
	}

	return &App{
		cfg:       cfg,
		cfgPath:   cfgPath,
		engine:    eng,
		monitor:   monitor,
		store:     st,
		publisher: pub,
		server:    server,
	}, nil
}

// Engine exposes the aggregation core (replay and test harnesses).
func (a *App) Engine() *engine.Engine {
	if a == nil {
		return nil
	}
	return a.engine
}

// Run starts the health monitor, config watcher and HTTP server, blocking
// until ctx is cancelled or SIGINT/SIGTERM arrives.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer a.close()

	if a.cfgPath != "" {
		err := config.Watch(ctx, a.cfgPath, func(next *config.Config) {
			reg, err := buildRegistry(next.Providers)
			if err != nil {
				logger.Errorf("[app] rebuilding registry after reload: %v", err)
				return
			}
			a.engine.ReplaceRegistry(reg)
			logger.SetLevel(next.App.LogLevel)
			logger.Infof("[app] provider registry replaced (%d providers)", len(reg.All()))
		})
		if err != nil {
			return fmt.Errorf("starting config watcher: %w", err)
		}
	}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		a.monitor.Run(ctx)
		return nil
	})
	group.Go(func() error {
		logger.Infof("[app] http api listening on %s", a.server.Addr())
		if err := a.server.Start(ctx); err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})
	return group.Wait()
}

func (a *App) close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			logger.Warnf("[app] closing event publisher: %v", err)
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			logger.Warnf("[app] closing route audit store: %v", err)
		}
	}
}

// buildRegistry constructs every declared adapter. An adapter is always
// registered so the status surface and router can report it; Configured is
// what gates actual calls.
func buildRegistry(cfg config.ProvidersConfig) (*registry.Registry, error) {
	entries := make(map[string]registry.Entry, 4)

	mashreqAdapter, err := mashreq.New(mashreq.Config{
		APIURL:  orPlaceholder(cfg.Mashreq.APIURL),
		APIKey:  cfg.Mashreq.APIKey,
		Timeout: time.Duration(cfg.Mashreq.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("building mashreq adapter: %w", err)
	}
	entries[mashreq.Name] = registry.Entry{
		Adapter:     mashreqAdapter,
		Configured:  cfg.Mashreq.Enabled && strings.TrimSpace(cfg.Mashreq.APIURL) != "",
		Environment: provider.Environment(cfg.Mashreq.Environment),
	}

	entries[binance.Name] = registry.Entry{
		Adapter: binance.New(binance.Config{
			APIKey:    cfg.Binance.APIKey,
			APISecret: cfg.Binance.APISecret,
			BaseURL:   cfg.Binance.BaseURL,
			Timeout:   time.Duration(cfg.Binance.TimeoutSeconds) * time.Second,
		}),
		Configured:  cfg.Binance.Enabled && strings.TrimSpace(cfg.Binance.APIKey) != "",
		Environment: provider.Environment(cfg.Binance.Environment),
	}

	rainAdapter, err := rain.New(rain.Config{
		APIURL:    orPlaceholder(cfg.Rain.APIURL),
		APIKey:    cfg.Rain.APIKey,
		APISecret: cfg.Rain.APISecret,
		Timeout:   time.Duration(cfg.Rain.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("building rain adapter: %w", err)
	}
	entries[rain.Name] = registry.Entry{
		Adapter:     rainAdapter,
		Configured:  cfg.Rain.Enabled && strings.TrimSpace(cfg.Rain.APIURL) != "",
		Environment: provider.Environment(cfg.Rain.Environment),
	}

	entries[coingecko.Name] = registry.Entry{
		Adapter: coingecko.New(coingecko.Config{
			BaseURL:    cfg.Coingecko.BaseURL,
			VsCurrency: cfg.Coingecko.VsCurrency,
			Timeout:    time.Duration(cfg.Coingecko.TimeoutSeconds) * time.Second,
		}),
		Configured: cfg.Coingecko.Enabled,
	}

	ordered := make([]registry.Entry, 0, len(entries))
	for _, name := range providerOrder(cfg.Order) {
		entry, ok := entries[name]
		if !ok {
			continue
		}
		ordered = append(ordered, entry)
		delete(entries, name)
	}
	return registry.New(ordered), nil
}

// providerOrder resolves the operator's priority list; names it omits keep
// default order after the listed ones.
func providerOrder(order []string) []string {
	defaults := []string{mashreq.Name, binance.Name, rain.Name, coingecko.Name}
	out := make([]string, 0, len(defaults))
	seen := make(map[string]bool, len(defaults))
	for _, name := range order {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || seen[name] {
			continue
		}
		out = append(out, name)
		seen[name] = true
	}
	for _, name := range defaults {
		if !seen[name] {
			out = append(out, name)
		}
	}
	return out
}

// orPlaceholder keeps adapter construction from failing when a provider is
// declared but not yet pointed at an endpoint. Unconfigured providers are
// never called, so the placeholder is inert.
func orPlaceholder(apiURL string) string {
	if strings.TrimSpace(apiURL) == "" {
		return "http://unconfigured.invalid"
	}
	return apiURL
}
