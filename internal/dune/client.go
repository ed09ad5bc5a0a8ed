// Package dune downloads the latest results of saved Dune queries.
package dune

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.dune.com"
	DefaultTimeout = 60 * time.Second

	apiKeyHeader = "X-Dune-API-Key"
)

// ErrNoResult is returned when a query has no completed execution.
var ErrNoResult = errors.New("query has no result")

// Client reads query results from the Dune API.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *zap.Logger
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

// WithLogger sets the client logger.
func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates a new Dune client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: DefaultTimeout},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Result is a query result with a stable column order.
type Result struct {
	QueryID int
	Columns []string
	Rows    [][]string
}

// LatestResult fetches the most recent completed result of a saved query.
func (c *Client) LatestResult(ctx context.Context, queryID int) (*Result, error) {
	endpoint := fmt.Sprintf("%s/api/v1/query/%d/results", c.baseURL, queryID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
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
		return nil, fmt.Errorf("query %d: unexpected status %d: %s", queryID, resp.StatusCode, string(body))
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("query %d: invalid json", queryID)
	}

	result, err := parseResult(queryID, body)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("dune result fetched",
		zap.Int("query_id", queryID),
		zap.Int("rows", len(result.Rows)),
		zap.String("state", gjson.GetBytes(body, "state").String()),
	)
	return result, nil
}

func parseResult(queryID int, body []byte) (*Result, error) {
	rows := gjson.GetBytes(body, "result.rows")
	if !rows.Exists() {
		return nil, fmt.Errorf("query %d: %w", queryID, ErrNoResult)
	}

	var columns []string
	for _, name := range gjson.GetBytes(body, "result.metadata.column_names").Array() {
		columns = append(columns, name.String())
	}
	if len(columns) == 0 {
		// Fall back to the key order of the first row.
		rows.Get("0").ForEach(func(key, _ gjson.Result) bool {
			columns = append(columns, key.String())
			return true
		})
	}

	out := &Result{QueryID: queryID, Columns: columns}
	rows.ForEach(func(_, row gjson.Result) bool {
		record := make([]string, len(columns))
		for i, col := range columns {
			record[i] = cell(row.Get(gjson.Escape(col)))
		}
		out.Rows = append(out.Rows, record)
		return true
	})
	return out, nil
}

func cell(v gjson.Result) string {
	switch v.Type {
	case gjson.Null:
		return ""
	case gjson.String:
		return v.Str
	case gjson.Number:
		return v.Raw
	default:
		return v.String()
	}
}

// WriteCSV writes the result with a header row.
func (r *Result) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(r.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := cw.WriteAll(r.Rows); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return nil
}
