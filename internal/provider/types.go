// Package provider defines a common abstraction for external financial
// providers. This allows the engine to work with heterogeneous backends
// (banking APIs, crypto exchanges, public price indexes) without changing
// the aggregation and routing logic.
package provider

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category classifies what kind of institution a provider is.
type Category string

const (
	CategoryBanking        Category = "banking"
	CategoryCryptoExchange Category = "crypto-exchange"
	CategoryIndex          Category = "index"
)

// Capability is a named operation a provider may or may not support.
type Capability string

const (
	CapStatus         Capability = "status"
	CapAccounts       Capability = "accounts"
	CapBalances       Capability = "balances"
	CapTransactions   Capability = "transactions"
	CapPrices         Capability = "prices"
	CapExecutePayment Capability = "execute-payment"
)

// Environment distinguishes sandbox credentials from production ones.
type Environment string

const (
	EnvSandbox    Environment = "sandbox"
	EnvProduction Environment = "production"
)

// Health is the coarse availability state of an upstream.
type Health string

const (
	HealthOnline   Health = "online"
	HealthDegraded Health = "degraded"
	HealthOffline  Health = "offline"
	HealthUnknown  Health = "unknown"
)

// Status is one observation of a provider's availability.
type Status struct {
	Health    Health
	Latency   time.Duration
	CheckedAt time.Time
	Detail    string // human-readable context, e.g. upstream error text
}

// Account is a single account held at a provider. Value object, rebuilt on
// every aggregation call and never cached across calls.
type Account struct {
	Provider  string
	ID        string
	Currency  string
	Available decimal.Decimal
	Type      string // e.g. "current", "savings", "spot"
}

// BalanceSnapshot holds one provider's balances keyed by currency code.
// Immutable once produced.
type BalanceSnapshot struct {
	Provider  string
	Balances  map[string]decimal.Decimal
	FetchedAt time.Time
}

// PriceQuote is a single price observation in the reporting currency.
// Multiple quotes for the same symbol may coexist before unification.
type PriceQuote struct {
	Symbol     string
	Price      decimal.Decimal
	Source     string
	ObservedAt time.Time
	Stale      bool
}

// Direction of a transaction relative to the account holder.
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// TransactionRecord is a read-only projection of an upstream transaction.
type TransactionRecord struct {
	Provider  string
	Reference string
	Amount    decimal.Decimal
	Currency  string
	Direction Direction
	Timestamp time.Time
	Status    string
}

// PaymentRequest describes a payment to be executed by a provider.
type PaymentRequest struct {
	Amount      decimal.Decimal
	Currency    string
	Reference   string
	Beneficiary string
}

// PaymentReceipt is what a provider returns after accepting a payment.
type PaymentReceipt struct {
	Provider    string
	Reference   string
	ExternalID  string
	SubmittedAt time.Time
}
