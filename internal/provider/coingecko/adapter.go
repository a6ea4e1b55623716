// Package coingecko adapts the public CoinGecko price index. It needs no
// credentials and only declares the status and prices capabilities; the
// engine uses it as the lowest-priority price source and as a liveness
// reference when exchange price feeds go dark.
package coingecko

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"paybridge/internal/pkg/currency"
	"paybridge/internal/provider"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

const (
	Name           = "coingecko"
	defaultBaseURL = "https://api.coingecko.com/api/v3"
	defaultTimeout = 10 * time.Second
)

// coinIDs maps asset symbols to CoinGecko coin ids. Only assets the
// aggregated exchanges can hold are listed.
var coinIDs = map[string]string{
	"BTC":  "bitcoin",
	"ETH":  "ethereum",
	"SOL":  "solana",
	"XRP":  "ripple",
	"USDT": "tether",
	"USDC": "usd-coin",
}

type Config struct {
	BaseURL    string
	VsCurrency string // lower-case CoinGecko currency code, default "aed"
	Timeout    time.Duration
}

type Adapter struct {
	baseURL    string
	vsCurrency string
	client     *http.Client
}

func New(cfg Config) *Adapter {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = defaultBaseURL
	}
	vs := strings.ToLower(strings.TrimSpace(cfg.VsCurrency))
	if vs == "" {
		vs = strings.ToLower(currency.Reporting)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Adapter{
		baseURL:    strings.TrimRight(base, "/"),
		vsCurrency: vs,
		client:     &http.Client{Timeout: timeout},
	}
}

// SetHTTPClient sets the HTTP client for testing.
func (a *Adapter) SetHTTPClient(client *http.Client) { a.client = client }

func (a *Adapter) Name() string                { return Name }
func (a *Adapter) Category() provider.Category { return provider.CategoryIndex }

func (a *Adapter) Capabilities() []provider.Capability {
	return []provider.Capability{provider.CapStatus, provider.CapPrices}
}

// SupportedCurrencies is empty: an index holds nothing and settles nothing.
func (a *Adapter) SupportedCurrencies() []string { return nil }

func (a *Adapter) CheckStatus(ctx context.Context) (provider.Status, error) {
	body, err := a.get(ctx, "/ping", nil)
	if err != nil {
		return provider.Status{}, err
	}
	if gjson.GetBytes(body, "gecko_says").String() == "" {
		return provider.Status{}, fmt.Errorf("unexpected ping response")
	}
	return provider.Status{Health: provider.HealthOnline}, nil
}

// Prices fetches simple spot prices in the reporting currency. An empty
// symbols slice returns every asset in the coin id table.
func (a *Adapter) Prices(ctx context.Context, symbols []string) ([]provider.PriceQuote, error) {
	wanted := symbols
	if len(wanted) == 0 {
		wanted = make([]string, 0, len(coinIDs))
		for sym := range coinIDs {
			wanted = append(wanted, sym)
		}
	}
	ids := make([]string, 0, len(wanted))
	bySymbol := make(map[string]string, len(wanted))
	for _, sym := range wanted {
		sym = currency.Normalize(sym)
		id, ok := coinIDs[sym]
		if !ok {
			continue
		}
		ids = append(ids, id)
		bySymbol[sym] = id
	}
	if len(ids) == 0 {
		return nil, nil
	}

	body, err := a.get(ctx, "/simple/price", url.Values{
		"ids":                     {strings.Join(ids, ",")},
		"vs_currencies":           {a.vsCurrency},
		"include_last_updated_at": {"true"},
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	out := make([]provider.PriceQuote, 0, len(bySymbol))
	for sym, id := range bySymbol {
		price := gjson.GetBytes(body, id+"."+a.vsCurrency)
		if !price.Exists() || price.Float() <= 0 {
			continue
		}
		observed := now
		if ts := gjson.GetBytes(body, id+".last_updated_at"); ts.Exists() && ts.Int() > 0 {
			observed = time.Unix(ts.Int(), 0).UTC()
		}
		out = append(out, provider.PriceQuote{
			Symbol:     sym,
			Price:      decimal.NewFromFloat(price.Float()),
			Source:     Name,
			ObservedAt: observed,
		})
	}
	return out, nil
}

func (a *Adapter) Accounts(context.Context) ([]provider.Account, error) {
	return nil, provider.ErrNotSupported
}

func (a *Adapter) Balances(context.Context) (provider.BalanceSnapshot, error) {
	return provider.BalanceSnapshot{}, provider.ErrNotSupported
}

func (a *Adapter) Transactions(context.Context, int) ([]provider.TransactionRecord, error) {
	return nil, provider.ErrNotSupported
}

func (a *Adapter) ExecutePayment(context.Context, provider.PaymentRequest) (provider.PaymentReceipt, error) {
	return provider.PaymentReceipt{}, provider.ErrNotSupported
}

func (a *Adapter) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	endpoint := a.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("coingecko %s: HTTP status %d", path, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return body, nil
}
