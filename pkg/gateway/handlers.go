package gateway

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/pario-ai/pokegate/pkg/cache"
)

const (
	defaultListLimit = 151
	maxListLimit     = 2000
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.metrics.Snapshot())
}

func (s *Server) handleMetricsReset(w http.ResponseWriter, r *http.Request) {
	s.metrics.Reset()
	s.logger.Info("metrics reset", "request_id", requestID(r.Context()))
	writeJSON(w, http.StatusOK, s.metrics.Snapshot())
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit", defaultListLimit)
	if !ok || limit < 1 || limit > maxListLimit {
		writeJSONError(w, http.StatusBadRequest, "limit must be an integer between 1 and "+strconv.Itoa(maxListLimit))
		return
	}
	offset, ok := queryInt(r, "offset", 0)
	if !ok || offset < 0 {
		writeJSONError(w, http.StatusBadRequest, "offset must be a non-negative integer")
		return
	}

	key := cache.ListKey(limit, offset)
	if body, hit := s.cache.Get(key); hit {
		writeRaw(w, "hit", body)
		return
	}

	body, err := s.data.FetchList(context.WithoutCancel(r.Context()), limit, offset)
	if err != nil {
		s.logger.Error("list fetch failed", "limit", limit, "offset", offset, "error", err)
		writeJSONError(w, http.StatusInternalServerError, msgUpstream)
		return
	}
	s.cache.SetWithTTL(key, body, s.cfg.Cache.LongTTL)
	writeRaw(w, "miss", body)
}

func (s *Server) handleDetails(w http.ResponseWriter, r *http.Request) {
	s.metrics.IncRequests()

	name := cache.NormalizeName(r.PathValue("id"))
	if name == "" {
		writeJSONError(w, http.StatusBadRequest, "pokemon name or id is required")
		return
	}

	key := cache.DetailsKey(name)
	if body, hit := s.cache.Get(key); hit {
		s.metrics.IncCacheHit()
		writeRaw(w, "hit", body)
		return
	}
	s.metrics.IncCacheMiss()

	d, err := s.data.FetchDetail(context.WithoutCancel(r.Context()), name)
	if err != nil {
		s.logger.Warn("detail fetch failed", "pokemon", name, "error", err)
		writeUpstreamError(w, err)
		return
	}
	s.cache.SetWithTTL(key, d.Raw, s.cfg.Cache.LongTTL)
	writeRaw(w, "miss", d.Raw)
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, name string, def int) (int, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, true
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
