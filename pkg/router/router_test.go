package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pario-ai/pokegate/pkg/config"
)

func testConfig() config.RouterConfig {
	return config.RouterConfig{
		Default: "flash",
		Routes: []config.RouteConfig{
			{Alias: "flash", Models: []string{"gemini-2.5-flash"}},
			{Alias: "pro", Models: []string{"gemini-2.5-pro", "gemini-2.5-flash"}},
		},
	}
}

func TestResolveAlias(t *testing.T) {
	r := New(testConfig())
	routes, err := r.Resolve("pro")
	require.NoError(t, err)
	require.Len(t, routes, 2)
	assert.Equal(t, "gemini-2.5-pro", routes[0].Model)
	assert.Equal(t, "gemini-2.5-flash", routes[1].Model)
}

func TestResolveCaseInsensitive(t *testing.T) {
	r := New(testConfig())
	routes, err := r.Resolve(" PRO ")
	require.NoError(t, err)
	assert.Equal(t, "pro", routes[0].Alias)
}

func TestResolveUnknownUsesDefault(t *testing.T) {
	r := New(testConfig())
	for _, alias := range []string{"", "ultra"} {
		routes, err := r.Resolve(alias)
		require.NoError(t, err)
		require.Len(t, routes, 1)
		assert.Equal(t, "gemini-2.5-flash", routes[0].Model)
		assert.Equal(t, "flash", r.Canonical(alias))
	}
}

func TestResolveSkipsEmptyModels(t *testing.T) {
	cfg := testConfig()
	cfg.Routes = append(cfg.Routes, config.RouteConfig{Alias: "sparse", Models: []string{"", "m"}})
	routes, err := New(cfg).Resolve("sparse")
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.Equal(t, "m", routes[0].Model)
}

func TestResolveNoModels(t *testing.T) {
	cfg := testConfig()
	cfg.Routes = append(cfg.Routes, config.RouteConfig{Alias: "empty"})
	_, err := New(cfg).Resolve("empty")
	assert.Error(t, err)
}

func TestResolveNoRoutes(t *testing.T) {
	_, err := New(config.RouterConfig{}).Resolve("flash")
	assert.Error(t, err)
}
