package models

// MetricsSnapshot is a point-in-time copy of the gateway counters.
type MetricsSnapshot struct {
	TotalRequests int64 `json:"totalRequests"`
	CacheHits     int64 `json:"cacheHits"`
	CacheMisses   int64 `json:"cacheMisses"`
	AIErrors      int64 `json:"aiErrors"`
	FallbacksUsed int64 `json:"fallbacksUsed"`
}
