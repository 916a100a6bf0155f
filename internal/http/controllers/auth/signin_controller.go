package auth

import (
	"net/http"

	dto "github.com/dropDatabas3/prova/internal/http/dto/auth"
	httperrors "github.com/dropDatabas3/prova/internal/http/errors"
	"github.com/dropDatabas3/prova/internal/http/helpers"
	svc "github.com/dropDatabas3/prova/internal/http/services/auth"
	jwtx "github.com/dropDatabas3/prova/internal/jwt"
	"github.com/dropDatabas3/prova/internal/observability/logger"
)

// SignInController maneja POST /auth/signin.
type SignInController struct {
	service svc.SignInService
	issuer  *jwtx.Issuer
}

func NewSignInController(s svc.SignInService, issuer *jwtx.Issuer) *SignInController {
	return &SignInController{service: s, issuer: issuer}
}

// SignIn handles POST /auth/signin
func (c *SignInController) SignIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("auth.signin"))

	var req dto.SignInRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("email y password son obligatorios"))
		return
	}

	id, err := c.service.SignIn(ctx, svc.SignInInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		MFAToken: req.MFAToken,
	})
	if err != nil {
		handleServiceError(w, err, log)
		return
	}
	writeSession(w, c.issuer, id, log)
}
