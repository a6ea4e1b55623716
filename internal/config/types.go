package config

import "time"

// Config is the root configuration carrier for paybridge.
type Config struct {
	App       AppConfig       `yaml:"app"`
	Engine    EngineConfig    `yaml:"engine"`
	Providers ProvidersConfig `yaml:"providers"`
	Health    HealthConfig    `yaml:"health"`
	Store     StoreConfig     `yaml:"store"`
	Events    EventsConfig    `yaml:"events"`
}

type AppConfig struct {
	Env      string `yaml:"env"`
	LogLevel string `yaml:"log_level"`
	HTTPAddr string `yaml:"http_addr"`
	LogPath  string `yaml:"log_path"`
}

// EngineConfig tunes aggregation behaviour.
type EngineConfig struct {
	CallTimeoutSeconds int    `yaml:"call_timeout_seconds"` // per-provider call bound
	PriceStaleAfter    string `yaml:"price_stale_after"`    // e.g. "5m"
	MockPricesPath     string `yaml:"mock_prices_path"`     // optional yaml price table override
	DefaultTxLimit     int    `yaml:"default_tx_limit"`     // transactions returned when unspecified
	ReportingPrecision int32  `yaml:"reporting_precision"`  // decimal places in converted totals
}

// ProvidersConfig declares every provider. Struct field order here is NOT
// priority order; Order lists provider names highest priority first, and
// names it omits keep declaration order after the listed ones.
type ProvidersConfig struct {
	Order     []string        `yaml:"order"`
	Mashreq   MashreqConfig   `yaml:"mashreq"`
	Binance   BinanceConfig   `yaml:"binance"`
	Rain      RainConfig      `yaml:"rain"`
	Coingecko CoingeckoConfig `yaml:"coingecko"`
}

type MashreqConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Environment    string `yaml:"environment"` // sandbox | production
	APIURL         string `yaml:"api_url"`
	APIKey         string `yaml:"api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type BinanceConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Environment    string `yaml:"environment"`
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	APISecret      string `yaml:"api_secret"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type RainConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Environment    string `yaml:"environment"`
	APIURL         string `yaml:"api_url"`
	APIKey         string `yaml:"api_key"`
	APISecret      string `yaml:"api_secret"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type CoingeckoConfig struct {
	Enabled        bool   `yaml:"enabled"`
	BaseURL        string `yaml:"base_url"`
	VsCurrency     string `yaml:"vs_currency"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type HealthConfig struct {
	IntervalSeconds     int `yaml:"interval_seconds"`
	ProbeTimeoutSeconds int `yaml:"probe_timeout_seconds"`
	FailureThreshold    int `yaml:"failure_threshold"`
	CooldownSeconds     int `yaml:"cooldown_seconds"`
	DegradedAfterMillis int `yaml:"degraded_after_millis"`
}

type StoreConfig struct {
	Path string `yaml:"path"` // sqlite file for the route audit trail
}

type EventsConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// CallTimeout returns the per-provider call bound as a duration.
func (e EngineConfig) CallTimeout() time.Duration {
	return time.Duration(e.CallTimeoutSeconds) * time.Second
}

func (h HealthConfig) Interval() time.Duration {
	return time.Duration(h.IntervalSeconds) * time.Second
}

func (h HealthConfig) ProbeTimeout() time.Duration {
	return time.Duration(h.ProbeTimeoutSeconds) * time.Second
}

func (h HealthConfig) Cooldown() time.Duration {
	return time.Duration(h.CooldownSeconds) * time.Second
}

func (h HealthConfig) DegradedAfter() time.Duration {
	return time.Duration(h.DegradedAfterMillis) * time.Millisecond
}
