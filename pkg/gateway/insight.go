package gateway

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pario-ai/pokegate/pkg/cache"
	"github.com/pario-ai/pokegate/pkg/fallback"
	"github.com/pario-ai/pokegate/pkg/models"
)

// generation is the outcome of walking the model chain. cause is set only
// when the template fallback was served.
type generation struct {
	text   string
	model  string
	source models.InsightSource
	cause  error
}

func (s *Server) handleInsight(w http.ResponseWriter, r *http.Request) {
	s.metrics.IncRequests()
	start := time.Now()

	name := cache.NormalizeName(r.PathValue("id"))
	if name == "" {
		writeJSONError(w, http.StatusBadRequest, "pokemon name or id is required")
		return
	}
	q := r.URL.Query()
	lang := models.ParseLanguage(q.Get("lang"))
	format := models.ParseFormat(q.Get("format"))
	alias := s.router.Canonical(q.Get("model"))
	audio := parseFlag(q.Get("audio"))

	key := cache.InsightKey(name, lang, format, alias, audio)
	if body, hit := s.cache.Get(key); hit {
		s.metrics.IncCacheHit()
		writeRaw(w, "hit", body)
		return
	}
	s.metrics.IncCacheMiss()

	ctx := context.WithoutCancel(r.Context())
	p, err := s.lookupPokemon(ctx, name)
	if err != nil {
		s.logger.Warn("insight lookup failed", "pokemon", name, "error", err)
		writeUpstreamError(w, err)
		return
	}

	gen := s.generate(ctx, p, lang, format, alias)
	result := models.InsightResult{
		PokemonName: p.Name,
		Text:        gen.text,
		Source:      gen.source,
		ModelUsed:   gen.model,
		Lang:        lang,
		Format:      format,
	}
	if audio && gen.source == models.SourceAI {
		if speech, err := s.ai.GenerateSpeech(ctx, gen.text); err != nil {
			s.metrics.IncAIError()
			s.logger.Warn("speech synthesis failed", "pokemon", p.Name, "error", err)
		} else {
			result.AudioBase64 = base64.StdEncoding.EncodeToString(speech)
		}
	}

	body, err := json.Marshal(result)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "encode insight")
		return
	}
	s.cache.SetWithTTL(key, body, s.cfg.Cache.ShortTTL)
	s.recordInsight(requestID(r.Context()), result, gen.cause, time.Since(start))
	writeRaw(w, "miss", body)
}

// lookupPokemon reads the entity through the detail cache, populating it on
// a miss. Detail hits and misses here are not counted as requests.
func (s *Server) lookupPokemon(ctx context.Context, name string) (models.Pokemon, error) {
	key := cache.DetailsKey(name)
	if raw, ok := s.cache.Get(key); ok {
		var p models.Pokemon
		if err := json.Unmarshal(raw, &p); err == nil {
			return p, nil
		}
	}
	d, err := s.data.FetchDetail(ctx, name)
	if err != nil {
		return models.Pokemon{}, err
	}
	s.cache.SetWithTTL(key, d.Raw, s.cfg.Cache.LongTTL)
	return d.Pokemon, nil
}

// generate tries every model routed for alias in order and degrades to the
// template once the chain is exhausted. It never fails.
func (s *Server) generate(ctx context.Context, p models.Pokemon, lang models.Language, format models.Format, alias string) generation {
	routes, err := s.router.Resolve(alias)
	if err != nil {
		return s.degrade(p, lang, err)
	}

	var errs []error
	for _, route := range routes {
		text, err := s.ai.GenerateInsight(ctx, p, lang, format, route.Model)
		if err == nil {
			return generation{text: text, model: route.Model, source: models.SourceAI}
		}
		s.metrics.IncAIError()
		s.logger.Warn("insight generation failed", "pokemon", p.Name, "model", route.Model, "error", err)
		errs = append(errs, err)
	}
	return s.degrade(p, lang, errors.Join(errs...))
}

func (s *Server) degrade(p models.Pokemon, lang models.Language, cause error) generation {
	s.metrics.IncFallback()
	return generation{
		text:   fallback.Generate(p, lang),
		model:  models.FallbackModel,
		source: models.SourceFallback,
		cause:  cause,
	}
}

// recordInsight writes the audit record off the request path.
func (s *Server) recordInsight(reqID string, res models.InsightResult, cause error, latency time.Duration) {
	if s.auditor == nil {
		return
	}
	rec := models.InsightRecord{
		RequestID: reqID,
		Pokemon:   res.PokemonName,
		Lang:      res.Lang,
		Model:     res.ModelUsed,
		Source:    res.Source,
		LatencyMs: latency.Milliseconds(),
	}
	if cause != nil {
		rec.Error = cause.Error()
	}
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.auditor.Log(context.Background(), rec); err != nil {
			s.logger.Warn("audit log write failed", "request_id", reqID, "error", err)
		}
	}()
}

func parseFlag(v string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	return err == nil && b
}
