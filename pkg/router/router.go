package router

import (
	"fmt"
	"strings"

	"github.com/pario-ai/pokegate/pkg/config"
)

// Route is one model to try for an insight request.
type Route struct {
	Alias string
	Model string
}

// Router resolves client-facing model aliases to ordered model chains.
type Router struct {
	cfg config.RouterConfig
}

// New creates a Router from the given configuration.
func New(cfg config.RouterConfig) *Router {
	return &Router{cfg: cfg}
}

// Canonical returns the alias a request resolves to. Unknown or empty
// aliases map to the default alias, so they share cache entries with it.
func (r *Router) Canonical(alias string) string {
	alias = strings.ToLower(strings.TrimSpace(alias))
	for _, route := range r.cfg.Routes {
		if strings.EqualFold(route.Alias, alias) {
			return strings.ToLower(route.Alias)
		}
	}
	return strings.ToLower(r.cfg.Default)
}

// Resolve returns the ordered models for alias.
func (r *Router) Resolve(alias string) ([]Route, error) {
	canonical := r.Canonical(alias)
	for _, route := range r.cfg.Routes {
		if !strings.EqualFold(route.Alias, canonical) {
			continue
		}
		var routes []Route
		for _, m := range route.Models {
			if m == "" {
				continue
			}
			routes = append(routes, Route{Alias: canonical, Model: m})
		}
		if len(routes) == 0 {
			return nil, fmt.Errorf("route %q: no models configured", canonical)
		}
		return routes, nil
	}
	return nil, fmt.Errorf("no route for model alias %q", alias)
}
