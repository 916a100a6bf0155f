package auth

import (
	"net/http"

	dto "github.com/dropDatabas3/prova/internal/http/dto/auth"
	httperrors "github.com/dropDatabas3/prova/internal/http/errors"
	"github.com/dropDatabas3/prova/internal/http/helpers"
	svc "github.com/dropDatabas3/prova/internal/http/services/auth"
	"github.com/dropDatabas3/prova/internal/observability/logger"
)

type PasswordController struct {
	service svc.PasswordService
}

func NewPasswordController(s svc.PasswordService) *PasswordController {
	return &PasswordController{service: s}
}

// Forgot handles POST /auth/password/forgot. Siempre 200 para un email válido.
func (c *PasswordController) Forgot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("auth.password.forgot"))

	var req dto.ForgotPasswordRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if err := c.service.Forgot(ctx, req.Email); err != nil {
		handleServiceError(w, err, log)
		return
	}
	helpers.WriteNoStoreJSON(w, http.StatusOK, dto.MessageResponse{
		Message: "Si el email está registrado vas a recibir un link para restablecer la contraseña.",
	})
}

// Reset handles POST /auth/password/reset
func (c *PasswordController) Reset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("auth.password.reset"))

	var req dto.ResetPasswordRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if err := c.service.Reset(ctx, req.Token, req.Password); err != nil {
		handleServiceError(w, err, log)
		return
	}
	helpers.WriteNoStoreJSON(w, http.StatusOK, dto.SuccessResponse{Success: true})
}

// VerifyEmail handles GET /auth/verify-email?token=
func (c *PasswordController) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("auth.verify_email"))

	token := r.URL.Query().Get("token")
	if token == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("token es obligatorio"))
		return
	}
	if err := c.service.VerifyEmail(ctx, token); err != nil {
		handleServiceError(w, err, log)
		return
	}
	helpers.WriteNoStoreJSON(w, http.StatusOK, dto.SuccessResponse{Success: true})
}
