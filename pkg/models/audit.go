package models

import "time"

// InsightRecord is one audited insight resolution.
type InsightRecord struct {
	RequestID string        `json:"request_id"`
	Pokemon   string        `json:"pokemon"`
	Lang      Language      `json:"lang"`
	Model     string        `json:"model"`
	Source    InsightSource `json:"source"`
	Error     string        `json:"error,omitempty"`
	LatencyMs int64         `json:"latency_ms"`
	CreatedAt time.Time     `json:"created_at"`
}

// AuditQueryOpts specifies filters for querying insight records.
type AuditQueryOpts struct {
	Pokemon   string
	Source    InsightSource
	Since     time.Time
	RequestID string
	Limit     int
}

// AuditStat holds aggregate counts for a source/day combination.
type AuditStat struct {
	Source InsightSource
	Day    string
	Count  int
}
