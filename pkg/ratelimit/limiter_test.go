package ratelimit

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newClock() *clock {
	return &clock{now: time.Date(2026, 3, 1, 10, 0, 15, 0, time.UTC)}
}

func TestAllowWithinWindow(t *testing.T) {
	c := newClock()
	l := New(time.Minute, 3, WithClock(c.Now))

	for i := range 3 {
		d := l.Allow("1.2.3.4")
		require.True(t, d.Allowed, "request %d should be admitted", i+1)
		assert.Equal(t, 3-(i+1), d.Remaining)
	}

	d := l.Allow("1.2.3.4")
	assert.False(t, d.Allowed, "quota+1 must be rejected")
	assert.Equal(t, 0, d.Remaining)
	assert.Equal(t, time.Date(2026, 3, 1, 10, 1, 0, 0, time.UTC), d.ResetAt)
	assert.Equal(t, 45*time.Second, d.RetryAfter(c.now))

	// other clients have their own counters
	assert.True(t, l.Allow("5.6.7.8").Allowed)
}

func TestWindowResetsOnBoundary(t *testing.T) {
	c := newClock()
	l := New(time.Minute, 1, WithClock(c.Now))

	require.True(t, l.Allow("k").Allowed)
	require.False(t, l.Allow("k").Allowed)

	// still inside the same wall-clock minute
	c.now = c.now.Add(44 * time.Second)
	assert.False(t, l.Allow("k").Allowed)

	// crossing 10:01:00 resets, even though less than a full window has
	// passed since the first request
	c.now = c.now.Add(time.Second)
	assert.True(t, l.Allow("k").Allowed)
}

func TestMiddleware(t *testing.T) {
	c := newClock()
	l := New(time.Minute, 2, WithClock(c.Now))

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	skip := func(r *http.Request) bool { return r.URL.Path == "/free" }
	h := l.Middleware(ok, ClientKey(0), skip)

	do := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = "10.0.0.1:5555"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w
	}

	for range 10 {
		assert.Equal(t, http.StatusOK, do("/free").Code)
	}

	assert.Equal(t, http.StatusOK, do("/paid").Code)
	assert.Equal(t, http.StatusOK, do("/paid").Code)

	w := do("/paid")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "45", w.Header().Get("Retry-After"))
	assert.Equal(t, "2", w.Header().Get("RateLimit-Limit"))
	assert.Equal(t, "0", w.Header().Get("RateLimit-Remaining"))
	assert.JSONEq(t, `{"error":"`+DefaultMessage+`"}`, w.Body.String())
}

func TestClientKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	req.Header.Set("X-Forwarded-For", "198.51.100.7, 203.0.113.9, 10.0.0.2")

	assert.Equal(t, "10.0.0.1", ClientKey(0)(req), "header ignored without trusted proxies")
	assert.Equal(t, "10.0.0.2", ClientKey(1)(req), "one proxy appends the rightmost entry")
	assert.Equal(t, "203.0.113.9", ClientKey(2)(req))
	assert.Equal(t, "198.51.100.7", ClientKey(5)(req), "clamped to the leftmost entry")

	req.Header.Del("X-Forwarded-For")
	assert.Equal(t, "10.0.0.1", ClientKey(1)(req))
}

func TestClientKeyIgnoresSpoofedHops(t *testing.T) {
	key := ClientKey(1)
	seen := map[string]bool{}
	for i := range 5 {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("6.6.6.%d", i))
		req.Header.Add("X-Forwarded-For", "203.0.113.9")
		seen[key(req)] = true
	}
	assert.Equal(t, map[string]bool{"203.0.113.9": true}, seen)
}
