package gateway

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pario-ai/pokegate/pkg/audit"
	"github.com/pario-ai/pokegate/pkg/config"
	"github.com/pario-ai/pokegate/pkg/models"
)

func TestInsightAudited(t *testing.T) {
	a, err := audit.New(config.AuditConfig{
		Enabled: true,
		DBPath:  filepath.Join(t.TempDir(), "audit.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	env := newTestEnv(t, nil, WithAuditLogger(a))
	env.ai.failAll = true

	w := env.do(t, http.MethodGet, "/pokemon/pikachu/insight?lang=es", "")
	require.Equal(t, http.StatusOK, w.Code)
	env.srv.pending.Wait()

	recs, err := a.Query(context.Background(), models.AuditQueryOpts{Pokemon: "pikachu"})
	require.NoError(t, err)
	require.Len(t, recs, 1)

	rec := recs[0]
	assert.Equal(t, w.Header().Get("X-Request-ID"), rec.RequestID)
	assert.Equal(t, models.SourceFallback, rec.Source)
	assert.Equal(t, models.FallbackModel, rec.Model)
	assert.Equal(t, models.LangES, rec.Lang)
	assert.Contains(t, rec.Error, "provider unavailable")

	// cache hits are not audited
	env.do(t, http.MethodGet, "/pokemon/pikachu/insight?lang=es", "")
	env.srv.pending.Wait()
	recs, err = a.Query(context.Background(), models.AuditQueryOpts{})
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}
