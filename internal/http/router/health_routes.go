package router

import "github.com/go-chi/chi/v5"

func registerHealthRoutes(r chi.Router, deps Deps) {
	if deps.Health != nil {
		r.Get("/healthz", deps.Health.Live)
		r.Get("/readyz", deps.Health.Ready)
	}
	if deps.JWKS != nil {
		r.Get("/.well-known/jwks.json", deps.JWKS.JWKS)
	}
	if deps.MetricsHandler != nil {
		r.Method("GET", "/metrics", deps.MetricsHandler)
	}
}
