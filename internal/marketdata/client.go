// Package marketdata fetches historical market quotes from CoinMarketCap.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"tokenomics-lab/internal/domain"
	"tokenomics-lab/internal/observability"
)

// Default configuration values.
const (
	DefaultBaseURL  = "https://pro-api.coinmarketcap.com"
	DefaultTimeout  = 30 * time.Second
	DefaultCurrency = "USD"

	historicalQuotesPath = "/v3/cryptocurrency/quotes/historical"
	apiKeyHeader         = "X-CMC_PRO_API_KEY"
	auxFields            = "price,volume,market_cap,circulating_supply,total_supply,quote_timestamp,is_active,is_fiat"
)

// Client fetches historical quotes over HTTP.
type Client struct {
	baseURL  string
	apiKey   string
	currency string
	client   *http.Client
	logger   *zap.Logger
	metrics  *observability.Metrics
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.client.Timeout = d
		}
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// WithLogger sets the logger used for rejected responses.
func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) {
		c.logger = l
	}
}

// WithMetrics records fetch latency and rejected responses.
func WithMetrics(m *observability.Metrics) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient creates a new CoinMarketCap client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:  DefaultBaseURL,
		apiKey:   apiKey,
		currency: DefaultCurrency,
		client:   &http.Client{Timeout: DefaultTimeout},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HistoricalQuotes fetches daily quotes for ids over the window.
//
// A non-200 answer is logged with its status and body and yields an empty
// response with a nil error. Transport and decoding failures are returned.
// Requests are not retried.
func (c *Client) HistoricalQuotes(ctx context.Context, ids []string, window domain.Window) (*HistoricalQuotesResponse, error) {
	start := time.Now()
	resp, err := c.historicalQuotes(ctx, ids, window)
	if c.metrics != nil {
		c.metrics.RecordFetch("coinmarketcap", time.Since(start).Seconds(), err)
	}
	return resp, err
}

func (c *Client) historicalQuotes(ctx context.Context, ids []string, window domain.Window) (*HistoricalQuotesResponse, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("historical quotes: no asset ids")
	}

	params := url.Values{}
	params.Set("id", strings.Join(ids, ","))
	params.Set("time_start", window.Start.UTC().Format(time.RFC3339))
	params.Set("time_end", window.End.UTC().Format(time.RFC3339))
	params.Set("interval", window.Interval)
	params.Set("convert", c.currency)
	params.Set("aux", auxFields)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+historicalQuotesPath+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(apiKeyHeader, c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("quote request rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
			zap.Strings("ids", ids),
		)
		if c.metrics != nil {
			c.metrics.RecordEmptyQuotes(resp.StatusCode)
		}
		return &HistoricalQuotesResponse{}, nil
	}

	var out HistoricalQuotesResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("unmarshal quotes: %w", err)
	}
	return &out, nil
}
