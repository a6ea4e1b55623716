package config

const (
	defaultAppEnv              = "dev"
	defaultAppLogLevel         = "info"
	defaultAppHTTPAddr         = ":9880"
	defaultAppLogPath          = "/data/logs/paybridge.log"
	defaultEngineCallTimeout   = 8
	defaultEnginePriceStale    = "5m"
	defaultEngineTxLimit       = 50
	defaultEnginePrecision     = 2
	defaultHealthInterval      = 30
	defaultHealthProbeTimeout  = 5
	defaultHealthFailures      = 3
	defaultHealthDegradedAfter = 2000
	defaultStorePath           = "/data/db/paybridge.db"
	defaultEventsTopic         = "paybridge.route-decisions"
	defaultProviderTimeout     = 15
	defaultEnvironment         = "sandbox"
)

// applyDefaults fills zero values after unmarshalling.
func (c *Config) applyDefaults() {
	c.App.applyDefaults()
	c.Engine.applyDefaults()
	c.Providers.applyDefaults()
	c.Health.applyDefaults()
	c.Store.applyDefaults()
	c.Events.applyDefaults()
}

func (a *AppConfig) applyDefaults() {
	if a.Env == "" {
		a.Env = defaultAppEnv
	}
	if a.LogLevel == "" {
		a.LogLevel = defaultAppLogLevel
	}
	if a.HTTPAddr == "" {
		a.HTTPAddr = defaultAppHTTPAddr
	}
	if a.LogPath == "" {
		a.LogPath = defaultAppLogPath
	}
}

func (e *EngineConfig) applyDefaults() {
	if e.CallTimeoutSeconds <= 0 {
		e.CallTimeoutSeconds = defaultEngineCallTimeout
	}
	if e.PriceStaleAfter == "" {
		e.PriceStaleAfter = defaultEnginePriceStale
	}
	if e.DefaultTxLimit <= 0 {
		e.DefaultTxLimit = defaultEngineTxLimit
	}
	if e.ReportingPrecision <= 0 {
		e.ReportingPrecision = defaultEnginePrecision
	}
}

func (p *ProvidersConfig) applyDefaults() {
	if p.Mashreq.Environment == "" {
		p.Mashreq.Environment = defaultEnvironment
	}
	if p.Mashreq.TimeoutSeconds <= 0 {
		p.Mashreq.TimeoutSeconds = defaultProviderTimeout
	}
	if p.Binance.Environment == "" {
		p.Binance.Environment = defaultEnvironment
	}
	if p.Binance.TimeoutSeconds <= 0 {
		p.Binance.TimeoutSeconds = defaultProviderTimeout
	}
	if p.Rain.Environment == "" {
		p.Rain.Environment = defaultEnvironment
	}
	if p.Rain.TimeoutSeconds <= 0 {
		p.Rain.TimeoutSeconds = defaultProviderTimeout
	}
	if p.Coingecko.TimeoutSeconds <= 0 {
		p.Coingecko.TimeoutSeconds = 10
	}
}

func (h *HealthConfig) applyDefaults() {
	if h.IntervalSeconds <= 0 {
		h.IntervalSeconds = defaultHealthInterval
	}
	if h.ProbeTimeoutSeconds <= 0 {
		h.ProbeTimeoutSeconds = defaultHealthProbeTimeout
	}
	if h.FailureThreshold <= 0 {
		h.FailureThreshold = defaultHealthFailures
	}
	if h.CooldownSeconds <= 0 {
		h.CooldownSeconds = 2 * h.IntervalSeconds
	}
	if h.DegradedAfterMillis <= 0 {
		h.DegradedAfterMillis = defaultHealthDegradedAfter
	}
}

func (s *StoreConfig) applyDefaults() {
	if s.Path == "" {
		s.Path = defaultStorePath
	}
}

func (e *EventsConfig) applyDefaults() {
	if e.Topic == "" {
		e.Topic = defaultEventsTopic
	}
}
