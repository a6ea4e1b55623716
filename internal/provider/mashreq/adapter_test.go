package mashreq

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"paybridge/internal/provider"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAdapter(t *testing.T, handler http.Handler) *Adapter {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	adapter, err := New(Config{APIURL: server.URL, APIKey: "test-key"})
	require.NoError(t, err)
	return adapter
}

func TestCheckStatus(t *testing.T) {
	adapter := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/health", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Write([]byte(`{"status":"UP"}`))
	}))

	status, err := adapter.CheckStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, provider.HealthOnline, status.Health)
}

func TestCheckStatusDegraded(t *testing.T) {
	adapter := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"MAINTENANCE"}`))
	}))

	status, err := adapter.CheckStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, provider.HealthDegraded, status.Health)
	assert.Equal(t, "MAINTENANCE", status.Detail)
}

func TestAccountsAndBalances(t *testing.T) {
	adapter := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/accounts", r.URL.Path)
		w.Write([]byte(`{"accounts":[
			{"accountId":"ACC-1","currency":"aed","availableBalance":1500.50,"accountType":"CURRENT"},
			{"accountId":"ACC-2","currency":"USD","availableBalance":200,"accountType":"SAVINGS"},
			{"accountId":"ACC-3","currency":"AED","availableBalance":100,"accountType":"CURRENT"}
		]}`))
	}))

	accounts, err := adapter.Accounts(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 3)
	assert.Equal(t, "ACC-1", accounts[0].ID)
	assert.Equal(t, "AED", accounts[0].Currency)
	assert.Equal(t, "current", accounts[0].Type)
	assert.True(t, accounts[0].Available.Equal(decimal.NewFromFloat(1500.50)))

	snap, err := adapter.Balances(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Name, snap.Provider)
	assert.True(t, snap.Balances["AED"].Equal(decimal.NewFromFloat(1600.50)))
	assert.True(t, snap.Balances["USD"].Equal(decimal.NewFromInt(200)))
}

func TestTransactionsDirectionMapping(t *testing.T) {
	adapter := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/transactions", r.URL.Path)
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		w.Write([]byte(`{"transactions":[
			{"transactionId":"TX-1","amount":250,"currency":"AED","creditDebitIndicator":"DEBIT","bookingDate":"2026-08-20T10:00:00Z","status":"BOOKED"},
			{"transactionId":"TX-2","amount":90,"currency":"AED","creditDebitIndicator":"CREDIT","bookingDate":"2026-08-21T09:30:00Z","status":"BOOKED"}
		]}`))
	}))

	txs, err := adapter.Transactions(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, provider.DirectionOut, txs[0].Direction)
	assert.Equal(t, provider.DirectionIn, txs[1].Direction)
	assert.Equal(t, "booked", txs[0].Status)
	assert.True(t, txs[0].Amount.Equal(decimal.NewFromInt(250)))
}

func TestExecutePayment(t *testing.T) {
	adapter := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/payments", r.URL.Path)
		w.Write([]byte(`{"paymentId":"PAY-99"}`))
	}))

	receipt, err := adapter.ExecutePayment(context.Background(), provider.PaymentRequest{
		Amount:      decimal.NewFromInt(500),
		Currency:    "aed",
		Reference:   "inv-42",
		Beneficiary: "BEN-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "PAY-99", receipt.ExternalID)
	assert.Equal(t, "inv-42", receipt.Reference)
}

func TestExecutePaymentRejectsNonPositiveAmount(t *testing.T) {
	adapter := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("must not reach the API")
	}))

	_, err := adapter.ExecutePayment(context.Background(), provider.PaymentRequest{
		Amount: decimal.Zero, Currency: "AED",
	})
	assert.Error(t, err)
}

func TestErrorMessageExtraction(t *testing.T) {
	adapter := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"message":"key expired"}}`))
	}))

	_, err := adapter.Accounts(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "key expired")
	assert.Contains(t, err.Error(), "403")
}

func TestPricesNotSupported(t *testing.T) {
	adapter := newTestAdapter(t, http.NewServeMux())
	_, err := adapter.Prices(context.Background(), nil)
	assert.ErrorIs(t, err, provider.ErrNotSupported)
}
