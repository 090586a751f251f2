package models

import "encoding/json"

// BatchSource tags whether a batch item was served from cache or upstream.
type BatchSource string

const (
	BatchFromCache BatchSource = "cache"
	BatchFromAPI   BatchSource = "api"
)

// BatchRequest is the body of POST /pokemon/batch.
type BatchRequest struct {
	Names []string `json:"names"`
}

// BatchItem is one resolved name.
type BatchItem struct {
	Name   string          `json:"name"`
	Data   json.RawMessage `json:"data"`
	Source BatchSource     `json:"source"`
}

// BatchOutcome aggregates a batch call. Success and Failed keep request order.
type BatchOutcome struct {
	Success      []BatchItem `json:"success"`
	Failed       []string    `json:"failed"`
	Total        int         `json:"total"`
	SuccessCount int         `json:"successCount"`
}
