package mashreq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Client wraps the corporate-banking REST API interactions paybridge needs.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	apiKey     string
}

// NewClient constructs a banking API client.
func NewClient(apiURL, apiKey string, timeout time.Duration) (*Client, error) {
	raw := strings.TrimSpace(apiURL)
	if raw == "" {
		return nil, fmt.Errorf("mashreq api_url cannot be empty")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing mashreq api_url: %w", err)
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    parsed,
		httpClient: &http.Client{Timeout: timeout},
		apiKey:     strings.TrimSpace(apiKey),
	}, nil
}

// SetHTTPClient sets the HTTP client for testing.
func (c *Client) SetHTTPClient(client *http.Client) { c.httpClient = client }

// Health calls the API health endpoint and returns upstream's self-reported
// state string.
func (c *Client) Health(ctx context.Context) (string, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/v1/health", nil)
	if err != nil {
		return "", err
	}
	return gjson.GetBytes(body, "status").String(), nil
}

// ListAccounts returns the raw accounts array.
func (c *Client) ListAccounts(ctx context.Context) (gjson.Result, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/v1/accounts", nil)
	if err != nil {
		return gjson.Result{}, err
	}
	return gjson.GetBytes(body, "accounts"), nil
}

// ListTransactions returns the raw transactions array, newest first.
func (c *Client) ListTransactions(ctx context.Context, limit int) (gjson.Result, error) {
	path := fmt.Sprintf("/v1/transactions?limit=%d", limit)
	body, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return gjson.Result{}, err
	}
	return gjson.GetBytes(body, "transactions"), nil
}

// paymentPayload mirrors the bank's payment-initiation schema.
type paymentPayload struct {
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Reference   string `json:"reference"`
	Beneficiary string `json:"beneficiary"`
}

// SubmitPayment initiates a payment and returns the bank's payment id.
func (c *Client) SubmitPayment(ctx context.Context, p paymentPayload) (string, error) {
	body, err := c.doRequest(ctx, http.MethodPost, "/v1/payments", p)
	if err != nil {
		return "", err
	}
	id := gjson.GetBytes(body, "paymentId").String()
	if id == "" {
		return "", fmt.Errorf("bank did not return a paymentId")
	}
	return id, nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}
	// JoinPath percent-encodes a query string, so split it off first.
	endpoint := c.baseURL.JoinPath(strings.SplitN(path, "?", 2)[0]).String()
	if i := strings.IndexByte(path, '?'); i >= 0 {
		endpoint += path[i:]
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		msg := gjson.GetBytes(body, "error.message").String()
		if msg == "" {
			msg = strings.TrimSpace(string(body))
		}
		return nil, fmt.Errorf("%s %s: HTTP %d: %s", method, path, resp.StatusCode, msg)
	}
	return body, nil
}
