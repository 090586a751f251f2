package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/pario-ai/pokegate/pkg/cache"
	"github.com/pario-ai/pokegate/pkg/models"
)

const maxBatchBody = 1 << 20

type batchResult struct {
	data   []byte
	source models.BatchSource
	ok     bool
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Names json.RawMessage `json:"names"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBatchBody)).Decode(&body); err != nil {
		writeJSONError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	var names []string
	if len(body.Names) == 0 || json.Unmarshal(body.Names, &names) != nil || len(names) == 0 {
		writeJSONError(w, http.StatusBadRequest, "names must be a non-empty array of strings")
		return
	}
	if limit := s.cfg.Batch.MaxNames; len(names) > limit {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("at most %d names per batch", limit))
		return
	}

	writeJSON(w, http.StatusOK, s.resolveBatch(context.WithoutCancel(r.Context()), names))
}

// resolveBatch looks up every name concurrently. Individual failures are
// collected; the batch as a whole never fails.
func (s *Server) resolveBatch(ctx context.Context, names []string) models.BatchOutcome {
	results := make([]batchResult, len(names))

	var g errgroup.Group
	if n := s.cfg.Batch.Concurrency; n > 0 {
		g.SetLimit(n)
	}
	for i, name := range names {
		g.Go(func() error {
			results[i] = s.resolveBatchItem(ctx, name)
			return nil
		})
	}
	_ = g.Wait()

	out := models.BatchOutcome{
		Success: []models.BatchItem{},
		Failed:  []string{},
		Total:   len(names),
	}
	for i, res := range results {
		if !res.ok {
			out.Failed = append(out.Failed, names[i])
			continue
		}
		out.Success = append(out.Success, models.BatchItem{
			Name:   names[i],
			Data:   res.data,
			Source: res.source,
		})
	}
	out.SuccessCount = len(out.Success)
	return out
}

func (s *Server) resolveBatchItem(ctx context.Context, name string) batchResult {
	normalized := cache.NormalizeName(name)
	if normalized == "" {
		return batchResult{}
	}
	key := cache.DetailsKey(normalized)
	if raw, ok := s.cache.Get(key); ok {
		return batchResult{data: raw, source: models.BatchFromCache, ok: true}
	}
	d, err := s.data.FetchDetail(ctx, normalized)
	if err != nil {
		s.logger.Warn("batch item failed", "pokemon", normalized, "error", err)
		return batchResult{}
	}
	s.cache.SetWithTTL(key, d.Raw, s.cfg.Cache.LongTTL)
	return batchResult{data: d.Raw, source: models.BatchFromAPI, ok: true}
}
