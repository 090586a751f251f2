package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pario-ai/pokegate/pkg/cache"
	"github.com/pario-ai/pokegate/pkg/models"
)

func namesBody(names ...string) string {
	b, _ := json.Marshal(models.BatchRequest{Names: names})
	return string(b)
}

func TestBatchMixedResults(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodPost, "/pokemon/batch", namesBody("pikachu", "not-a-real-pokemon", "bulbasaur"))
	require.Equal(t, http.StatusOK, w.Code)

	out := decode[models.BatchOutcome](t, w)
	assert.Equal(t, 3, out.Total)
	assert.Equal(t, 2, out.SuccessCount)
	assert.Equal(t, []string{"not-a-real-pokemon"}, out.Failed)

	var names []string
	for _, item := range out.Success {
		names = append(names, item.Name)
		assert.Equal(t, models.BatchFromAPI, item.Source)
	}
	if diff := cmp.Diff([]string{"pikachu", "bulbasaur"}, names); diff != "" {
		t.Errorf("success order (-want +got):\n%s", diff)
	}
	assert.JSONEq(t, pikachuJSON, string(out.Success[0].Data))
}

func TestBatchUsesDetailCache(t *testing.T) {
	env := newTestEnv(t, nil)
	env.do(t, http.MethodGet, "/pokemon/pikachu/details", "")

	w := env.do(t, http.MethodPost, "/pokemon/batch", namesBody("PIKACHU", "bulbasaur"))
	require.Equal(t, http.StatusOK, w.Code)

	out := decode[models.BatchOutcome](t, w)
	require.Len(t, out.Success, 2)
	assert.Equal(t, "PIKACHU", out.Success[0].Name)
	assert.Equal(t, models.BatchFromCache, out.Success[0].Source)
	assert.Equal(t, models.BatchFromAPI, out.Success[1].Source)
	assert.Equal(t, 1, env.data.callCount("pikachu"))

	// batch lookups share the detail cache
	_, ok := env.cache.Get(cache.DetailsKey("bulbasaur"))
	assert.True(t, ok)
}

func TestBatchAllFailed(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodPost, "/pokemon/batch", namesBody("missingno", " "))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":[],"failed":["missingno"," "],"total":2,"successCount":0}`, w.Body.String())
}

func TestBatchValidation(t *testing.T) {
	tooMany := make([]string, 51)
	for i := range tooMany {
		tooMany[i] = fmt.Sprintf("p%d", i)
	}

	tests := []struct {
		name string
		body string
	}{
		{"not json", "{"},
		{"missing names", `{}`},
		{"null names", `{"names":null}`},
		{"empty names", `{"names":[]}`},
		{"names not array", `{"names":"pikachu"}`},
		{"non-string names", `{"names":[1,2]}`},
		{"over limit", namesBody(tooMany...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			w := env.do(t, http.MethodPost, "/pokemon/batch", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.NotEmpty(t, decode[map[string]string](t, w)["error"])
		})
	}
}

func TestBatchAtLimitAccepted(t *testing.T) {
	env := newTestEnv(t, nil)
	names := make([]string, 50)
	for i := range names {
		names[i] = "pikachu"
	}

	w := env.do(t, http.MethodPost, "/pokemon/batch", namesBody(names...))
	require.Equal(t, http.StatusOK, w.Code)
	out := decode[models.BatchOutcome](t, w)
	assert.Equal(t, 50, out.Total)
	assert.Equal(t, 50, out.SuccessCount)
}

func TestBatchLargeBodyRejected(t *testing.T) {
	env := newTestEnv(t, nil)
	body := `{"names":["` + strings.Repeat("a", maxBatchBody) + `"]}`
	w := env.do(t, http.MethodPost, "/pokemon/batch", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
