// Package pokeapi fetches list and detail records from the Pokémon reference API.
package pokeapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/pario-ai/pokegate/pkg/config"
	"github.com/pario-ai/pokegate/pkg/models"
)

const providerName = "pokeapi"

var (
	// ErrNotFound is returned when the provider reports the entity does not exist.
	ErrNotFound = errors.New("pokemon not found")
	// ErrUnavailable covers transport errors, 5xx and unreadable responses.
	ErrUnavailable = errors.New("upstream unavailable")
)

// Observer receives the outcome of every upstream call.
type Observer interface {
	ObserveUpstream(provider string, start time.Time, err error)
}

// Detail is a detail record: the raw upstream payload plus the decoded fields
// the gateway uses.
type Detail struct {
	Raw     []byte
	Pokemon models.Pokemon
}

// Client is a thin HTTP client for the reference API. It does not retry.
type Client struct {
	baseURL  string
	http     *http.Client
	limiter  *rate.Limiter
	observer Observer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithObserver registers o for call latency.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// New creates a Client from cfg. Outbound calls are paced by
// cfg.RequestsPerSecond; zero disables pacing.
func New(cfg config.UpstreamConfig, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
	}
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchList returns the raw list payload for the given page.
func (c *Client) FetchList(ctx context.Context, limit, offset int) ([]byte, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	return c.get(ctx, "/pokemon?"+q.Encode())
}

// FetchDetail returns the detail record for a name or numeric id.
func (c *Client) FetchDetail(ctx context.Context, nameOrID string) (*Detail, error) {
	body, err := c.get(ctx, "/pokemon/"+url.PathEscape(nameOrID))
	if err != nil {
		return nil, err
	}
	var p models.Pokemon
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("%w: decode detail %q: %v", ErrUnavailable, nameOrID, err)
	}
	return &Detail{Raw: body, Pokemon: p}, nil
}

func (c *Client) get(ctx context.Context, path string) (body []byte, err error) {
	start := time.Now()
	if c.observer != nil {
		defer func() {
			// a missing pokemon is a healthy upstream answer
			obsErr := err
			if errors.Is(err, ErrNotFound) {
				obsErr = nil
			}
			c.observer.ObserveUpstream(providerName, start, obsErr)
		}()
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: rate wait: %v", ErrUnavailable, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: %s returned %d", ErrUnavailable, path, resp.StatusCode)
	}

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}
	return body, nil
}
