package config

import (
	"encoding/json"
	"fmt"
	"strings"

	"paybridge/internal/scheduler"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// providersSchema guards the shape of the providers section. Structural
// checks live here; cross-field rules stay in the validate methods below.
const providersSchema = `{
  "type": "object",
  "properties": {
    "order": {
      "type": "array",
      "items": {"enum": ["mashreq", "binance", "rain", "coingecko"]},
      "uniqueItems": true
    },
    "mashreq": {
      "type": "object",
      "properties": {
        "enabled": {"type": "boolean"},
        "environment": {"enum": ["", "sandbox", "production"]},
        "api_url": {"type": "string"},
        "api_key": {"type": "string"},
        "timeout_seconds": {"type": "integer", "minimum": 0}
      }
    },
    "binance": {
      "type": "object",
      "properties": {
        "enabled": {"type": "boolean"},
        "environment": {"enum": ["", "sandbox", "production"]},
        "base_url": {"type": "string"},
        "api_key": {"type": "string"},
        "api_secret": {"type": "string"},
        "timeout_seconds": {"type": "integer", "minimum": 0}
      }
    },
    "rain": {
      "type": "object",
      "properties": {
        "enabled": {"type": "boolean"},
        "environment": {"enum": ["", "sandbox", "production"]},
        "api_url": {"type": "string"},
        "api_key": {"type": "string"},
        "api_secret": {"type": "string"},
        "timeout_seconds": {"type": "integer", "minimum": 0}
      }
    },
    "coingecko": {
      "type": "object",
      "properties": {
        "enabled": {"type": "boolean"},
        "base_url": {"type": "string"},
        "vs_currency": {"type": "string"},
        "timeout_seconds": {"type": "integer", "minimum": 0}
      }
    }
  }
}`

var compiledProvidersSchema = jsonschema.MustCompileString("providers.json", providersSchema)

func validate(c *Config) error {
	if err := validateProvidersSchema(c.Providers); err != nil {
		return err
	}
	if err := c.Engine.validate(); err != nil {
		return err
	}
	if err := c.Providers.validate(); err != nil {
		return err
	}
	if err := c.Events.validate(); err != nil {
		return err
	}
	return nil
}

// validateProvidersSchema round-trips the section through JSON so the
// compiled schema can check it.
func validateProvidersSchema(p ProvidersConfig) error {
	raw, err := json.Marshal(map[string]any{
		"order": p.Order,
		"mashreq": map[string]any{
			"enabled": p.Mashreq.Enabled, "environment": p.Mashreq.Environment,
			"api_url": p.Mashreq.APIURL, "api_key": p.Mashreq.APIKey,
			"timeout_seconds": p.Mashreq.TimeoutSeconds,
		},
		"binance": map[string]any{
			"enabled": p.Binance.Enabled, "environment": p.Binance.Environment,
			"base_url": p.Binance.BaseURL, "api_key": p.Binance.APIKey,
			"api_secret": p.Binance.APISecret, "timeout_seconds": p.Binance.TimeoutSeconds,
		},
		"rain": map[string]any{
			"enabled": p.Rain.Enabled, "environment": p.Rain.Environment,
			"api_url": p.Rain.APIURL, "api_key": p.Rain.APIKey,
			"api_secret": p.Rain.APISecret, "timeout_seconds": p.Rain.TimeoutSeconds,
		},
		"coingecko": map[string]any{
			"enabled": p.Coingecko.Enabled, "base_url": p.Coingecko.BaseURL,
			"vs_currency": p.Coingecko.VsCurrency, "timeout_seconds": p.Coingecko.TimeoutSeconds,
		},
	})
	if err != nil {
		return fmt.Errorf("encoding providers for validation: %w", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("decoding providers for validation: %w", err)
	}
	if err := compiledProvidersSchema.Validate(doc); err != nil {
		return fmt.Errorf("providers config invalid: %w", err)
	}
	return nil
}

func (e *EngineConfig) validate() error {
	if _, ok := scheduler.ParseIntervalDuration(e.PriceStaleAfter); !ok {
		return fmt.Errorf("engine.price_stale_after is not an interval (want e.g. 30s, 5m, 1h): %s", e.PriceStaleAfter)
	}
	return nil
}

func (p *ProvidersConfig) validate() error {
	if p.Mashreq.Enabled && strings.TrimSpace(p.Mashreq.APIURL) == "" {
		return fmt.Errorf("providers.mashreq enabled but missing api_url")
	}
	if p.Binance.Enabled {
		if strings.TrimSpace(p.Binance.APIKey) == "" || strings.TrimSpace(p.Binance.APISecret) == "" {
			return fmt.Errorf("providers.binance enabled but missing api_key or api_secret")
		}
	}
	if p.Rain.Enabled {
		if strings.TrimSpace(p.Rain.APIURL) == "" {
			return fmt.Errorf("providers.rain enabled but missing api_url")
		}
		if strings.TrimSpace(p.Rain.APIKey) == "" || strings.TrimSpace(p.Rain.APISecret) == "" {
			return fmt.Errorf("providers.rain enabled but missing api_key or api_secret")
		}
	}
	seen := make(map[string]bool, len(p.Order))
	for _, name := range p.Order {
		name = strings.ToLower(strings.TrimSpace(name))
		if seen[name] {
			return fmt.Errorf("providers.order lists %s twice", name)
		}
		seen[name] = true
	}
	return nil
}

func (e *EventsConfig) validate() error {
	if e.Enabled && len(e.Brokers) == 0 {
		return fmt.Errorf("events enabled but no brokers configured")
	}
	return nil
}
