package router

import (
	"github.com/go-chi/chi/v5"

	mw "github.com/dropDatabas3/prova/internal/http/middlewares"
)

// registerMFARoutes registra /mfa/* y /auth/settings. Requieren sesión.
func registerMFARoutes(r chi.Router, deps Deps) {
	c := deps.AuthControllers.MFA

	r.Group(func(r chi.Router) {
		chain := append([]mw.Middleware{deps.AuthMiddleware}, authChain(deps, true)...)
		r.Use(mw.Use(chain...)...)

		r.Post("/mfa/setup", c.Setup)
		r.Post("/mfa/enable", c.Enable)
		r.Post("/mfa/disable", c.Disable)
		r.Get("/auth/settings", c.Settings)
	})
}
