// Package binance adapts the Binance spot API via the official SDK. Spot
// markets quote in USDT, so prices are re-expressed in the reporting
// currency through the USD peg before they leave the adapter.
package binance

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"paybridge/internal/pkg/currency"
	"paybridge/internal/provider"

	gobinance "github.com/adshao/go-binance/v2"
	"github.com/shopspring/decimal"
)

const Name = "binance"

// quoteAsset is the spot quote leg used for price lookups.
const quoteAsset = "USDT"

type Config struct {
	APIKey    string
	APISecret string
	BaseURL   string
	Timeout   time.Duration
}

type Adapter struct {
	client *gobinance.Client
}

func New(cfg Config) *Adapter {
	client := gobinance.NewClient(strings.TrimSpace(cfg.APIKey), strings.TrimSpace(cfg.APISecret))
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		client.BaseURL = base
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	client.HTTPClient = &http.Client{Timeout: timeout}
	return &Adapter{client: client}
}

// SetHTTPClient sets the HTTP client for testing.
func (a *Adapter) SetHTTPClient(client *http.Client) { a.client.HTTPClient = client }

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

// SupportedCurrencies lists settleable assets. No AED: Binance cannot
// settle the reporting currency, which matters to the payment router.
func (a *Adapter) SupportedCurrencies() []string {
	return []string{"BTC", "ETH", "SOL", "XRP", "USDT", "USDC"}
}

func (a *Adapter) CheckStatus(ctx context.Context) (provider.Status, error) {
	start := time.Now()
	if err := a.client.NewPingService().Do(ctx); err != nil {
		return provider.Status{}, err
	}
	return provider.Status{
		Health:  provider.HealthOnline,
		Latency: time.Since(start),
	}, nil
}

// Accounts maps non-empty spot balances onto one account per asset.
func (a *Adapter) Accounts(ctx context.Context) ([]provider.Account, error) {
	acct, err := a.client.NewGetAccountService().Do(ctx)
	if err != nil {
		return nil, err
	}
	var out []provider.Account
	for _, bal := range acct.Balances {
		free, err := decimal.NewFromString(strings.TrimSpace(bal.Free))
		if err != nil || free.Sign() == 0 {
			continue
		}
		asset := currency.Normalize(bal.Asset)
		out = append(out, provider.Account{
			Provider:  Name,
			ID:        fmt.Sprintf("%s-spot-%s", Name, strings.ToLower(asset)),
			Currency:  asset,
			Available: free,
			Type:      "spot",
		})
	}
	return out, nil
}

func (a *Adapter) Balances(ctx context.Context) (provider.BalanceSnapshot, error) {
	accounts, err := a.Accounts(ctx)
	if err != nil {
		return provider.BalanceSnapshot{}, err
	}
	balances := make(map[string]decimal.Decimal)
	for _, acc := range accounts {
		balances[acc.Currency] = balances[acc.Currency].Add(acc.Available)
	}
	return provider.BalanceSnapshot{
		Provider:  Name,
		Balances:  balances,
		FetchedAt: time.Now().UTC(),
	}, nil
}

// Transactions merges deposit and withdrawal history into a single
// newest-first list.
func (a *Adapter) Transactions(ctx context.Context, limit int) ([]provider.TransactionRecord, error) {
	deposits, err := a.client.NewListDepositsService().Do(ctx)
	if err != nil {
		return nil, err
	}
	withdrawals, err := a.client.NewListWithdrawsService().Do(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]provider.TransactionRecord, 0, len(deposits)+len(withdrawals))
	for _, d := range deposits {
		amount, err := decimal.NewFromString(strings.TrimSpace(d.Amount))
		if err != nil {
			continue
		}
		out = append(out, provider.TransactionRecord{
			Provider:  Name,
			Reference: d.TxID,
			Amount:    amount.Abs(),
			Currency:  currency.Normalize(d.Coin),
			Direction: provider.DirectionIn,
			Timestamp: time.UnixMilli(d.InsertTime).UTC(),
			Status:    depositStatus(d.Status),
		})
	}
	for _, w := range withdrawals {
		amount, err := decimal.NewFromString(strings.TrimSpace(w.Amount))
		if err != nil {
			continue
		}
		ts, _ := time.Parse("2006-01-02 15:04:05", w.ApplyTime)
		out = append(out, provider.TransactionRecord{
			Provider:  Name,
			Reference: w.ID,
			Amount:    amount.Abs(),
			Currency:  currency.Normalize(w.Coin),
			Direction: provider.DirectionOut,
			Timestamp: ts.UTC(),
			Status:    withdrawStatus(w.Status),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Prices fetches USDT-leg spot prices and converts them into the
// reporting currency through the USD peg.
func (a *Adapter) Prices(ctx context.Context, symbols []string) ([]provider.PriceQuote, error) {
	wanted := symbols
	if len(wanted) == 0 {
		wanted = a.SupportedCurrencies()
	}
	markets := make([]string, 0, len(wanted))
	baseBySymbol := make(map[string]string, len(wanted))
	for _, sym := range wanted {
		base := currency.Normalize(sym)
		if base == "" || base == quoteAsset || currency.IsReporting(base) {
			continue
		}
		market := base + quoteAsset
		markets = append(markets, market)
		baseBySymbol[market] = base
	}
	if len(markets) == 0 {
		return nil, nil
	}

	prices, err := a.client.NewListPricesService().Symbols(markets).Do(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	out := make([]provider.PriceQuote, 0, len(prices))
	for _, p := range prices {
		base, ok := baseBySymbol[p.Symbol]
		if !ok {
			continue
		}
		usdt, err := decimal.NewFromString(strings.TrimSpace(p.Price))
		if err != nil || usdt.Sign() <= 0 {
			continue
		}
		out = append(out, provider.PriceQuote{
			Symbol:     base,
			Price:      currency.USDQuoteToReporting(usdt),
			Source:     Name,
			ObservedAt: now,
		})
	}
	return out, nil
}

// ExecutePayment submits an on-chain withdrawal; the beneficiary field
// carries the destination address.
func (a *Adapter) ExecutePayment(ctx context.Context, req provider.PaymentRequest) (provider.PaymentReceipt, error) {
	if req.Amount.Sign() <= 0 {
		return provider.PaymentReceipt{}, fmt.Errorf("payment amount must be positive")
	}
	if strings.TrimSpace(req.Beneficiary) == "" {
		return provider.PaymentReceipt{}, fmt.Errorf("beneficiary address is required")
	}
	resp, err := a.client.NewCreateWithdrawService().
		Coin(currency.Normalize(req.Currency)).
		Address(strings.TrimSpace(req.Beneficiary)).
		Amount(req.Amount.String()).
		Do(ctx)
	if err != nil {
		return provider.PaymentReceipt{}, err
	}
	return provider.PaymentReceipt{
		Provider:    Name,
		Reference:   req.Reference,
		ExternalID:  resp.ID,
		SubmittedAt: time.Now().UTC(),
	}, nil
}

func depositStatus(code int) string {
	switch code {
	case 0:
		return "pending"
	case 6:
		return "credited"
	case 1:
		return "success"
	default:
		return "unknown"
	}
}

func withdrawStatus(code int) string {
	switch code {
	case 0, 2, 4:
		return "pending"
	case 1:
		return "cancelled"
	case 3, 5:
		return "rejected"
	case 6:
		return "completed"
	default:
		return "unknown"
	}
}
