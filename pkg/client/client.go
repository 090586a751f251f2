// Package client talks to a running pokegate over HTTP. The CLI and the MCP
// tool server use it.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pario-ai/pokegate/pkg/models"
)

// APIError is a non-200 answer from the gateway.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gateway returned %d: %s", e.StatusCode, e.Message)
}

// InsightQuery holds the optional insight parameters. Empty fields use the
// gateway defaults.
type InsightQuery struct {
	Lang   string
	Format string
	Model  string
	Audio  bool
}

// Client calls the gateway endpoints.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a Client for the gateway at baseURL.
func New(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

// Details returns the raw entity payload for name.
func (c *Client) Details(ctx context.Context, name string) (json.RawMessage, error) {
	var raw json.RawMessage
	err := c.do(ctx, http.MethodGet, "/pokemon/"+url.PathEscape(name)+"/details", nil, &raw)
	return raw, err
}

// Insight returns a generated or fallback insight for name.
func (c *Client) Insight(ctx context.Context, name string, q InsightQuery) (models.InsightResult, error) {
	v := url.Values{}
	if q.Lang != "" {
		v.Set("lang", q.Lang)
	}
	if q.Format != "" {
		v.Set("format", q.Format)
	}
	if q.Model != "" {
		v.Set("model", q.Model)
	}
	if q.Audio {
		v.Set("audio", strconv.FormatBool(true))
	}
	path := "/pokemon/" + url.PathEscape(name) + "/insight"
	if len(v) > 0 {
		path += "?" + v.Encode()
	}

	var res models.InsightResult
	err := c.do(ctx, http.MethodGet, path, nil, &res)
	return res, err
}

// Batch resolves several names in one call.
func (c *Client) Batch(ctx context.Context, names []string) (models.BatchOutcome, error) {
	var out models.BatchOutcome
	err := c.do(ctx, http.MethodPost, "/pokemon/batch", models.BatchRequest{Names: names}, &out)
	return out, err
}

// Metrics returns the gateway counters.
func (c *Client) Metrics(ctx context.Context) (models.MetricsSnapshot, error) {
	var snap models.MetricsSnapshot
	err := c.do(ctx, http.MethodGet, "/metrics", nil, &snap)
	return snap, err
}

// ResetMetrics zeroes the gateway counters.
func (c *Client) ResetMetrics(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/metrics/reset", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeAPIError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode gateway response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	apiErr := &APIError{StatusCode: resp.StatusCode}
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		apiErr.Message = body.Error
	} else {
		apiErr.Message = strings.TrimSpace(string(raw))
	}
	return apiErr
}
