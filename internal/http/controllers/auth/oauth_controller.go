package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	dto "github.com/dropDatabas3/prova/internal/http/dto/auth"
	httperrors "github.com/dropDatabas3/prova/internal/http/errors"
	"github.com/dropDatabas3/prova/internal/http/helpers"
	svc "github.com/dropDatabas3/prova/internal/http/services/auth"
	jwtx "github.com/dropDatabas3/prova/internal/jwt"
	"github.com/dropDatabas3/prova/internal/observability/logger"
)

// OAuthController maneja el login social y el desafío MFA posterior.
type OAuthController struct {
	service svc.OAuthService
	issuer  *jwtx.Issuer
}

func NewOAuthController(s svc.OAuthService, issuer *jwtx.Issuer) *OAuthController {
	return &OAuthController{service: s, issuer: issuer}
}

// Start handles GET /auth/oauth/{provider}/start: redirige al consentimiento.
func (c *OAuthController) Start(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	provider := chi.URLParam(r, "provider")
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("oauth.start"), logger.Provider(provider))

	u, err := c.service.Start(ctx, provider)
	if err != nil {
		handleServiceError(w, err, log)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, u, http.StatusFound)
}

// Callback handles GET /auth/oauth/{provider}/callback
// Responde la sesión, o un ChallengeResponse si el usuario tiene MFA.
func (c *OAuthController) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	provider := chi.URLParam(r, "provider")
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("oauth.callback"), logger.Provider(provider))

	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		log.Info("oauth consent denied", logger.String("error", e))
		httperrors.WriteError(w, httperrors.ErrUnauthorized.WithDetail("consentimiento rechazado"))
		return
	}

	res, err := c.service.Callback(ctx, provider, q.Get("state"), q.Get("code"))
	if err != nil {
		handleServiceError(w, err, log)
		return
	}
	if res.Challenge != nil {
		helpers.WriteNoStoreJSON(w, http.StatusOK, dto.ChallengeResponse{
			MFARequired:    true,
			ChallengeToken: res.Challenge.Token,
			Provider:       res.Challenge.Provider,
			ExpiresAt:      res.Challenge.ExpiresAt,
		})
		return
	}
	writeSession(w, c.issuer, res.Identity, log)
}

// Challenge handles POST /auth/mfa/challenge
func (c *OAuthController) Challenge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("auth.mfa.challenge"))

	var req dto.ChallengeRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if req.ChallengeToken == "" || req.Token == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("challengeToken y token son obligatorios"))
		return
	}

	id, err := c.service.CompleteChallenge(ctx, req.ChallengeToken, req.Token)
	if err != nil {
		handleServiceError(w, err, log)
		return
	}
	writeSession(w, c.issuer, id, log)
}
