package rain

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Client wraps the regulated-exchange REST API. Requests are signed with an
// HMAC-SHA256 of timestamp+method+path, the scheme the exchange documents
// for API keys.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	apiKey     string
	apiSecret  string
}

func NewClient(apiURL, apiKey, apiSecret string, timeout time.Duration) (*Client, error) {
	raw := strings.TrimSpace(apiURL)
	if raw == "" {
		return nil, fmt.Errorf("rain api_url cannot be empty")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing rain api_url: %w", err)
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    parsed,
		httpClient: &http.Client{Timeout: timeout},
		apiKey:     strings.TrimSpace(apiKey),
		apiSecret:  strings.TrimSpace(apiSecret),
	}, nil
}

// SetHTTPClient sets the HTTP client for testing.
func (c *Client) SetHTTPClient(client *http.Client) { c.httpClient = client }

// Ping checks exchange availability.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.doRequest(ctx, http.MethodGet, "/v2/system/status", nil)
	return err
}

// Wallets returns the raw wallet array (one entry per asset).
func (c *Client) Wallets(ctx context.Context) (gjson.Result, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/v2/wallets", nil)
	if err != nil {
		return gjson.Result{}, err
	}
	return gjson.GetBytes(body, "wallets"), nil
}

// Tickers returns the raw ticker array for AED-quoted markets.
func (c *Client) Tickers(ctx context.Context) (gjson.Result, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/v2/tickers?quote=AED", nil)
	if err != nil {
		return gjson.Result{}, err
	}
	return gjson.GetBytes(body, "tickers"), nil
}

// Transfers returns the raw deposit/withdrawal history, newest first.
func (c *Client) Transfers(ctx context.Context, limit int) (gjson.Result, error) {
	path := fmt.Sprintf("/v2/transfers?limit=%d", limit)
	body, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return gjson.Result{}, err
	}
	return gjson.GetBytes(body, "transfers"), nil
}

// withdrawalPayload mirrors the exchange's fiat withdrawal schema.
type withdrawalPayload struct {
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Reference   string `json:"reference"`
	Beneficiary string `json:"beneficiary_id"`
}

// SubmitWithdrawal initiates a fiat withdrawal and returns the transfer id.
func (c *Client) SubmitWithdrawal(ctx context.Context, p withdrawalPayload) (string, error) {
	body, err := c.doRequest(ctx, http.MethodPost, "/v2/withdrawals", p)
	if err != nil {
		return "", err
	}
	id := gjson.GetBytes(body, "transfer_id").String()
	if id == "" {
		return "", fmt.Errorf("exchange did not return a transfer_id")
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
	c.sign(req, method, path)

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
		msg := gjson.GetBytes(body, "message").String()
		if msg == "" {
			msg = strings.TrimSpace(string(body))
		}
		return nil, fmt.Errorf("%s %s: HTTP %d: %s", method, path, resp.StatusCode, msg)
	}
	return body, nil
}

func (c *Client) sign(req *http.Request, method, path string) {
	if c.apiKey == "" || c.apiSecret == "" {
		return
	}
	ts := strconv.FormatInt(time.Now().UnixMilli(), 10)
	mac := hmac.New(sha256.New, []byte(c.apiSecret))
	mac.Write([]byte(ts + method + path))
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("X-Timestamp", ts)
	req.Header.Set("X-Signature", hex.EncodeToString(mac.Sum(nil)))
}
