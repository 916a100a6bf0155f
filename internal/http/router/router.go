// Package router arma el árbol de rutas chi de la API.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	authctrl "github.com/dropDatabas3/prova/internal/http/controllers/auth"
	healthctrl "github.com/dropDatabas3/prova/internal/http/controllers/health"
	httperrors "github.com/dropDatabas3/prova/internal/http/errors"
	mw "github.com/dropDatabas3/prova/internal/http/middlewares"
	"github.com/dropDatabas3/prova/internal/metrics"
	"github.com/dropDatabas3/prova/internal/rate"
)

// Deps contiene todo lo que el router necesita. Los nil se omiten.
type Deps struct {
	AuthControllers *authctrl.Controllers
	Health          *healthctrl.HealthController
	JWKS            *healthctrl.JWKSController
	MetricsHandler  http.Handler

	AuthMiddleware mw.Middleware // RequireAuth (valida JWT)
	RateLimiter    rate.Limiter  // sign-in y MFA, por IP
}

// New crea el router. Orden global: Metrics → Recover → RequestID; cada
// grupo agrega [Auth] → SecurityHeaders → NoStore → RateLimit → Logging.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(metrics.Middleware)
	r.Use(mw.Use(mw.WithRecover(), mw.WithRequestID())...)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	registerHealthRoutes(r, deps)
	if deps.AuthControllers != nil {
		registerAuthRoutes(r, deps)
		registerMFARoutes(r, deps)
	}
	return r
}

// authChain es la cadena de las rutas sensibles (sin la auth).
func authChain(deps Deps, limited bool) []mw.Middleware {
	chain := []mw.Middleware{mw.WithSecurityHeaders(), mw.WithNoStore()}
	if limited {
		chain = append(chain, mw.WithRateLimit(mw.RateLimitConfig{
			Limiter: deps.RateLimiter,
			KeyFunc: mw.IPOnlyRateKey,
		}))
	}
	return append(chain, mw.WithLogging())
}
