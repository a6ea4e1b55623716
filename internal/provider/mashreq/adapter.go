// Package mashreq adapts a traditional corporate-banking REST API into the
// engine's canonical types. Fiat only: AED and USD accounts, transactions
// and payment execution, no price capability.
package mashreq

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

const Name = "mashreq"

type Config struct {
	APIURL  string
	APIKey  string
	Timeout time.Duration
}

type Adapter struct {
	client *Client
}

func New(cfg Config) (*Adapter, error) {
	client, err := NewClient(cfg.APIURL, cfg.APIKey, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	return &Adapter{client: client}, nil
}

// Client exposes the underlying REST client, used by tests to inject a
// fake HTTP transport.
func (a *Adapter) Client() *Client { return a.client }

func (a *Adapter) Name() string                { return Name }
func (a *Adapter) Category() provider.Category { return provider.CategoryBanking }

func (a *Adapter) Capabilities() []provider.Capability {
	return []provider.Capability{
		provider.CapStatus,
		provider.CapAccounts,
		provider.CapBalances,
		provider.CapTransactions,
		provider.CapExecutePayment,
	}
}

func (a *Adapter) SupportedCurrencies() []string { return []string{"AED", "USD"} }

func (a *Adapter) CheckStatus(ctx context.Context) (provider.Status, error) {
	state, err := a.client.Health(ctx)
	if err != nil {
		return provider.Status{}, err
	}
	health := provider.HealthOnline
	if !strings.EqualFold(state, "UP") && !strings.EqualFold(state, "ok") {
		health = provider.HealthDegraded
	}
	return provider.Status{Health: health, Detail: state}, nil
}

func (a *Adapter) Accounts(ctx context.Context) ([]provider.Account, error) {
	raw, err := a.client.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	var out []provider.Account
	raw.ForEach(func(_, acc gjson.Result) bool {
		out = append(out, provider.Account{
			Provider:  Name,
			ID:        acc.Get("accountId").String(),
			Currency:  currency.Normalize(acc.Get("currency").String()),
			Available: decimal.NewFromFloat(acc.Get("availableBalance").Float()),
			Type:      strings.ToLower(acc.Get("accountType").String()),
		})
		return true
	})
	return out, nil
}

// Balances sums available balances per currency across the bank's accounts.
func (a *Adapter) Balances(ctx context.Context) (provider.BalanceSnapshot, error) {
	accounts, err := a.Accounts(ctx)
	if err != nil {
		return provider.BalanceSnapshot{}, err
	}
	balances := make(map[string]decimal.Decimal)
	for _, acc := range accounts {
		if acc.Currency == "" {
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
	raw, err := a.client.ListTransactions(ctx, limit)
	if err != nil {
		return nil, err
	}
	var out []provider.TransactionRecord
	raw.ForEach(func(_, tx gjson.Result) bool {
		amount := decimal.NewFromFloat(tx.Get("amount").Float())
		direction := provider.DirectionIn
		if strings.EqualFold(tx.Get("creditDebitIndicator").String(), "DEBIT") || amount.Sign() < 0 {
			direction = provider.DirectionOut
		}
		ts, _ := time.Parse(time.RFC3339, tx.Get("bookingDate").String())
		out = append(out, provider.TransactionRecord{
			Provider:  Name,
			Reference: tx.Get("transactionId").String(),
			Amount:    amount.Abs(),
			Currency:  currency.Normalize(tx.Get("currency").String()),
			Direction: direction,
			Timestamp: ts,
			Status:    strings.ToLower(tx.Get("status").String()),
		})
		return true
	})
	return out, nil
}

func (a *Adapter) Prices(context.Context, []string) ([]provider.PriceQuote, error) {
	return nil, provider.ErrNotSupported
}

func (a *Adapter) ExecutePayment(ctx context.Context, req provider.PaymentRequest) (provider.PaymentReceipt, error) {
	if req.Amount.Sign() <= 0 {
		return provider.PaymentReceipt{}, fmt.Errorf("payment amount must be positive")
	}
	id, err := a.client.SubmitPayment(ctx, paymentPayload{
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
