package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pario-ai/pokegate/pkg/pokeapi"
)

const (
	msgNotFound    = "pokemon not found"
	msgUpstream    = "upstream data provider unavailable"
	msgInvalidBody = "invalid request body"
)

// writeUpstreamError maps a data provider error to a response. Only
// not-found and unavailable ever cross the gateway boundary.
func writeUpstreamError(w http.ResponseWriter, err error) {
	if errors.Is(err, pokeapi.ErrNotFound) {
		writeJSONError(w, http.StatusNotFound, msgNotFound)
		return
	}
	writeJSONError(w, http.StatusInternalServerError, msgUpstream)
}

func writeJSONError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeRaw writes an already encoded JSON payload.
func writeRaw(w http.ResponseWriter, cacheStatus string, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", cacheStatus)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
