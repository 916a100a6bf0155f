package router

import (
	"github.com/go-chi/chi/v5"

	mw "github.com/dropDatabas3/prova/internal/http/middlewares"
)

// registerAuthRoutes registra sign-in, OAuth, password y setup. Ninguna
// requiere sesión.
func registerAuthRoutes(r chi.Router, deps Deps) {
	c := deps.AuthControllers

	// con rate limit por IP
	r.Group(func(r chi.Router) {
		r.Use(mw.Use(authChain(deps, true)...)...)

		r.Post("/auth/signin", c.SignIn.SignIn)
		r.Post("/auth/mfa/challenge", c.OAuth.Challenge)
		r.Post("/auth/password/forgot", c.Password.Forgot)
		r.Post("/auth/password/reset", c.Password.Reset)
	})

	r.Group(func(r chi.Router) {
		r.Use(mw.Use(authChain(deps, false)...)...)

		r.Post("/auth/setup", c.AccountSetup.Setup)
		r.Get("/auth/verify-email", c.Password.VerifyEmail)
		r.Get("/auth/oauth/{provider}/start", c.OAuth.Start)
		r.Get("/auth/oauth/{provider}/callback", c.OAuth.Callback)
	})
}
