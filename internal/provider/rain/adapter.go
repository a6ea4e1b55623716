// Package rain adapts a regionally regulated crypto exchange. It is the
// only provider that both quotes crypto in the reporting currency directly
// and settles fiat withdrawals, so it declares the full capability set.
package rain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"paybridge/internal/pkg/currency"
	"paybridge/internal/provider"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

const Name = "rain"

type Config struct {
	APIURL    string
	APIKey    string
	APISecret string
	Timeout   time.Duration
}

type Adapter struct {
	client *Client
}

func New(cfg Config) (*Adapter, error) {
	client, err := NewClient(cfg.APIURL, cfg.APIKey, cfg.APISecret, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	return &Adapter{client: client}, nil
}

// Client exposes the underlying REST client, used by tests to inject a
// fake HTTP transport.
func (a *Adapter) Client() *Client { return a.client }

func (a *Adapter) Name() string                { return Name }
func (a *Adapter) Category() provider.Category { return provider.CategoryCryptoExchange }

func (a *Adapter) Capabilities() []provider.Capability {
	return []provider.Capability{
		provider.CapStatus,
		provider.CapAccounts,
		provider.CapBalances,
		provider.CapTransactions,
		provider.CapPrices,
		provider.CapExecutePayment,
	}
}

func (a *Adapter) SupportedCurrencies() []string {
	return []string{"AED", "BTC", "ETH", "XRP", "USDT", "USDC"}
}

func (a *Adapter) CheckStatus(ctx context.Context) (provider.Status, error) {
	start := time.Now()
	if err := a.client.Ping(ctx); err != nil {
		return provider.Status{}, err
	}
	return provider.Status{
		Health:  provider.HealthOnline,
		Latency: time.Since(start),
	}, nil
}

// Accounts maps exchange wallets one-to-one onto accounts; the wallet's
// asset symbol doubles as the account id suffix.
func (a *Adapter) Accounts(ctx context.Context) ([]provider.Account, error) {
	raw, err := a.client.Wallets(ctx)
	if err != nil {
		return nil, err
	}
	var out []provider.Account
	raw.ForEach(func(_, w gjson.Result) bool {
		asset := currency.Normalize(w.Get("asset").String())
		if asset == "" {
			return true
		}
		out = append(out, provider.Account{
			Provider:  Name,
			ID:        fmt.Sprintf("%s-%s", Name, strings.ToLower(asset)),
			Currency:  asset,
			Available: decimal.NewFromFloat(w.Get("available").Float()),
			Type:      "wallet",
		})
		return true
	})
	return out, nil
}

func (a *Adapter) Balances(ctx context.Context) (provider.BalanceSnapshot, error) {
	accounts, err := a.Accounts(ctx)
	if err != nil {
		return provider.BalanceSnapshot{}, err
	}
	balances := make(map[string]decimal.Decimal)
	for _, acc := range accounts {
		if acc.Available.Sign() == 0 {
			continue
		}
		balances[acc.Currency] = balances[acc.Currency].Add(acc.Available)
	}
	return provider.BalanceSnapshot{
		Provider:  Name,
		Balances:  balances,
		FetchedAt: time.Now().UTC(),
	}, nil
}

func (a *Adapter) Transactions(ctx context.Context, limit int) ([]provider.TransactionRecord, error) {
	raw, err := a.client.Transfers(ctx, limit)
	if err != nil {
		return nil, err
	}
	var out []provider.TransactionRecord
	raw.ForEach(func(_, tx gjson.Result) bool {
		direction := provider.DirectionIn
		if strings.EqualFold(tx.Get("type").String(), "withdrawal") {
			direction = provider.DirectionOut
		}
		ts, _ := time.Parse(time.RFC3339, tx.Get("created_at").String())
		out = append(out, provider.TransactionRecord{
			Provider:  Name,
			Reference: tx.Get("transfer_id").String(),
			Amount:    decimal.NewFromFloat(tx.Get("amount").Float()).Abs(),
			Currency:  currency.Normalize(tx.Get("currency").String()),
			Direction: direction,
			Timestamp: ts,
			Status:    strings.ToLower(tx.Get("status").String()),
		})
		return true
	})
	return out, nil
}

// Prices reads AED-quoted tickers. Markets are named BASE-AED; only bases
// in the requested symbol set are returned, or every market when the set
// is empty.
func (a *Adapter) Prices(ctx context.Context, symbols []string) ([]provider.PriceQuote, error) {
	raw, err := a.client.Tickers(ctx)
	if err != nil {
		return nil, err
	}
	wanted := make(map[string]bool, len(symbols))
	for _, sym := range symbols {
		wanted[currency.Normalize(sym)] = true
	}
	now := time.Now().UTC()
	var out []provider.PriceQuote
	raw.ForEach(func(_, t gjson.Result) bool {
		market := t.Get("market").String()
		base, quote, ok := strings.Cut(market, "-")
		if !ok || !strings.EqualFold(quote, currency.Reporting) {
			return true
		}
		base = currency.Normalize(base)
		if len(wanted) > 0 && !wanted[base] {
			return true
		}
		price := decimal.NewFromFloat(t.Get("last").Float())
		observed := now
		if ts := t.Get("timestamp"); ts.Exists() && ts.Int() > 0 {
			observed = time.UnixMilli(ts.Int()).UTC()
		}
		out = append(out, provider.PriceQuote{
			Symbol:     base,
			Price:      price,
			Source:     Name,
			ObservedAt: observed,
		})
		return true
	})
	return out, nil
}

func (a *Adapter) ExecutePayment(ctx context.Context, req provider.PaymentRequest) (provider.PaymentReceipt, error) {
	if req.Amount.Sign() <= 0 {
		return provider.PaymentReceipt{}, fmt.Errorf("payment amount must be positive")
	}
	id, err := a.client.SubmitWithdrawal(ctx, withdrawalPayload{
		Amount:      req.Amount.String(),
		Currency:    currency.Normalize(req.Currency),
		Reference:   req.Reference,
		Beneficiary: req.Beneficiary,
	})
	if err != nil {
		return provider.PaymentReceipt{}, err
	}
	return provider.PaymentReceipt{
		Provider:    Name,
		Reference:   req.Reference,
		ExternalID:  id,
		SubmittedAt: time.Now().UTC(),
	}, nil
}
