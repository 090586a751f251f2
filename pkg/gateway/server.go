// Package gateway serves the Pokémon edge API. It fronts the reference data
// provider and the generative provider with a response cache, fixed-window
// admission control, batch fan-out and a templated fallback for failed
// generations.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/pario-ai/pokegate/pkg/audit"
	"github.com/pario-ai/pokegate/pkg/cache"
	"github.com/pario-ai/pokegate/pkg/config"
	"github.com/pario-ai/pokegate/pkg/metrics"
	"github.com/pario-ai/pokegate/pkg/models"
	"github.com/pario-ai/pokegate/pkg/pokeapi"
	"github.com/pario-ai/pokegate/pkg/ratelimit"
	"github.com/pario-ai/pokegate/pkg/router"
)

// DataSource fetches reference data. *pokeapi.Client implements it.
type DataSource interface {
	FetchList(ctx context.Context, limit, offset int) ([]byte, error)
	FetchDetail(ctx context.Context, nameOrID string) (*pokeapi.Detail, error)
}

// InsightSource generates text and speech. *insight.Client implements it.
type InsightSource interface {
	GenerateInsight(ctx context.Context, p models.Pokemon, lang models.Language, format models.Format, model string) (string, error)
	GenerateSpeech(ctx context.Context, text string) ([]byte, error)
}

// Server is the gateway HTTP server.
type Server struct {
	cfg     *config.Config
	data    DataSource
	ai      InsightSource
	cache   *cache.Cache[[]byte]
	metrics *metrics.Registry
	auditor *audit.Logger
	router  *router.Router
	limiter *ratelimit.Limiter
	logger  *slog.Logger
	handler http.Handler

	// background audit writes
	pending sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithAuditLogger records every insight resolution.
func WithAuditLogger(a *audit.Logger) Option {
	return func(s *Server) { s.auditor = a }
}

// WithRateLimiter replaces the limiter built from cfg.RateLimit.
func WithRateLimiter(l *ratelimit.Limiter) Option {
	return func(s *Server) { s.limiter = l }
}

// New creates a Server wired with its dependencies. The cache and metrics
// registry are owned by the caller and may outlive the Server.
func New(cfg *config.Config, data DataSource, ai InsightSource, c *cache.Cache[[]byte], m *metrics.Registry, opts ...Option) *Server {
	s := &Server{
		cfg:     cfg,
		data:    data,
		ai:      ai,
		cache:   c,
		metrics: m,
		router:  router.New(cfg.Router),
		logger:  slog.Default(),
	}
	if cfg.RateLimit.Enabled {
		s.limiter = ratelimit.New(cfg.RateLimit.Window, cfg.RateLimit.Max)
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := m.RegisterGaugeFunc("cache_entries", "Entries held by the response cache.",
		func() float64 { return float64(c.Len()) }); err != nil {
		s.logger.Warn("cache gauge not registered", "error", err)
	}
	if err := m.RegisterCounterFunc("cache_evictions_total", "Response cache entries removed on expiry.",
		func() float64 { return float64(c.Evictions()) }); err != nil {
		s.logger.Warn("cache eviction counter not registered", "error", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /metrics", s.handleMetrics)
	mux.HandleFunc("POST /metrics/reset", s.handleMetricsReset)
	mux.Handle("GET /metrics/prometheus", m.Handler())
	mux.HandleFunc("GET /pokemon", s.handleList)
	mux.HandleFunc("GET /pokemon/{id}/details", s.handleDetails)
	mux.HandleFunc("GET /pokemon/{id}/insight", s.handleInsight)
	mux.HandleFunc("POST /pokemon/batch", s.handleBatch)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusNotFound, "route not found")
	})

	var h http.Handler = mux
	if s.limiter != nil {
		h = s.limiter.Middleware(h, ratelimit.ClientKey(cfg.RateLimit.TrustedHops), isBypassed)
	}
	h = s.logRequests(h)
	h = s.recoverPanics(h)
	h = withRequestID(h)
	s.handler = h
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe starts the server with graceful shutdown support.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("pokegate listening", "addr", s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := srv.Shutdown(shutCtx)
		s.pending.Wait()
		return err
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// isBypassed reports whether r skips admission control. Plain listing,
// detail lookups, health and scrapes are cheap and must never be throttled.
func isBypassed(r *http.Request) bool {
	if r.Method != http.MethodGet {
		return false
	}
	p := r.URL.Path
	switch {
	case p == "/pokemon", p == "/health", p == "/metrics/prometheus":
		return true
	case strings.HasPrefix(p, "/pokemon/") && strings.HasSuffix(p, "/details"):
		return true
	}
	return false
}
