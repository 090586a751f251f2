// Package ratelimit implements fixed-window request admission keyed by client.
package ratelimit

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// DefaultMessage is returned to rejected clients.
const DefaultMessage = "Too many requests, please wait a moment."

// Decision is the outcome of one admission check.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter is the time left until the window resets, rounded up to a second.
func (d Decision) RetryAfter(now time.Time) time.Duration {
	wait := d.ResetAt.Sub(now)
	if wait <= 0 {
		return 0
	}
	return (wait + time.Second - 1).Truncate(time.Second)
}

// Limiter counts requests per key inside wall-clock aligned windows.
type Limiter struct {
	window  time.Duration
	max     int
	now     func() time.Time
	message string

	mu          sync.Mutex
	windowStart time.Time
	counts      map[string]int
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// WithMessage replaces the rejection message.
func WithMessage(msg string) Option {
	return func(l *Limiter) { l.message = msg }
}

// New creates a Limiter admitting max requests per key per window.
func New(window time.Duration, max int, opts ...Option) *Limiter {
	l := &Limiter{
		window:  window,
		max:     max,
		now:     time.Now,
		message: DefaultMessage,
		counts:  make(map[string]int),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow counts one request for key and reports whether it is admitted.
func (l *Limiter) Allow(key string) Decision {
	now := l.now()
	start := windowStart(now, l.window)

	l.mu.Lock()
	if !start.Equal(l.windowStart) {
		// every counter belongs to the previous window
		l.windowStart = start
		clear(l.counts)
	}
	l.counts[key]++
	n := l.counts[key]
	l.mu.Unlock()

	remaining := l.max - n
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   n <= l.max,
		Limit:     l.max,
		Remaining: remaining,
		ResetAt:   start.Add(l.window),
	}
}

// Middleware rejects requests over the limit with 429. Requests for which
// skip returns true bypass the limiter and are not counted.
func (l *Limiter) Middleware(next http.Handler, keyFn func(*http.Request) string, skip func(*http.Request) bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if skip != nil && skip(r) {
			next.ServeHTTP(w, r)
			return
		}

		d := l.Allow(keyFn(r))
		now := l.now()
		h := w.Header()
		h.Set("RateLimit-Limit", strconv.Itoa(d.Limit))
		h.Set("RateLimit-Remaining", strconv.Itoa(d.Remaining))
		h.Set("RateLimit-Reset", strconv.Itoa(int(d.RetryAfter(now).Seconds())))

		if !d.Allowed {
			h.Set("Retry-After", strconv.Itoa(int(d.RetryAfter(now).Seconds())))
			h.Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": l.message})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClientKey returns the client address for r. trustedHops is the number of
// reverse proxies in front of the gateway; each appends one X-Forwarded-For
// entry, so the client is the entry trustedHops from the right. Entries
// further left are client-supplied and never used. Zero ignores the header.
func ClientKey(trustedHops int) func(*http.Request) string {
	return func(r *http.Request) string {
		if trustedHops > 0 {
			if ip := forwardedHop(r.Header.Values("X-Forwarded-For"), trustedHops); ip != "" {
				return ip
			}
		}
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			return r.RemoteAddr
		}
		return host
	}
}

// forwardedHop picks the entry hops positions from the right of the combined
// X-Forwarded-For list, clamped to the leftmost entry.
func forwardedHop(headers []string, hops int) string {
	var hopsList []string
	for _, h := range headers {
		for _, part := range strings.Split(h, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				hopsList = append(hopsList, ip)
			}
		}
	}
	if len(hopsList) == 0 {
		return ""
	}
	return hopsList[max(len(hopsList)-hops, 0)]
}

func windowStart(now time.Time, window time.Duration) time.Time {
	return now.Truncate(window)
}
