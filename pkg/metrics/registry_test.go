package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pario-ai/pokegate/pkg/models"
)

func TestSnapshotAndReset(t *testing.T) {
	r := New()
	r.IncRequests()
	r.IncRequests()
	r.IncCacheMiss()
	r.IncCacheHit()
	r.IncAIError()
	r.IncFallback()

	assert.Equal(t, models.MetricsSnapshot{
		TotalRequests: 2,
		CacheHits:     1,
		CacheMisses:   1,
		AIErrors:      1,
		FallbacksUsed: 1,
	}, r.Snapshot())

	r.Reset()
	assert.Equal(t, models.MetricsSnapshot{}, r.Snapshot())
}

func TestConcurrentIncrements(t *testing.T) {
	r := New()
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				r.IncRequests()
				r.IncCacheHit()
			}
		}()
	}
	wg.Wait()

	snap := r.Snapshot()
	assert.Equal(t, int64(5000), snap.TotalRequests)
	assert.Equal(t, int64(5000), snap.CacheHits)
}

func TestPrometheusExport(t *testing.T) {
	r := New()
	r.IncFallback()
	r.IncFallback()
	r.ObserveUpstream("pokeapi", time.Now(), nil)
	r.ObserveUpstream("pokeapi", time.Now(), errors.New("boom"))
	require.NoError(t, r.RegisterGaugeFunc("cache_entries", "entries", func() float64 { return 7 }))

	n, err := testutil.GatherAndCount(r.PrometheusRegistry(),
		"pokegate_fallbacks_total", "pokegate_upstream_request_duration_seconds", "pokegate_cache_entries")
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	w := httptest.NewRecorder()
	r.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics/prometheus", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "pokegate_fallbacks_total 2"))
	assert.True(t, strings.Contains(w.Body.String(), "pokegate_cache_entries 7"))
}

func TestRegisterDuplicateGauge(t *testing.T) {
	r := New()
	require.NoError(t, r.RegisterGaugeFunc("cache_entries", "entries", func() float64 { return 0 }))
	assert.Error(t, r.RegisterGaugeFunc("cache_entries", "entries", func() float64 { return 0 }))
}
