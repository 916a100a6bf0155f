package auth

import (
	"net/http"
	"strings"

	dto "github.com/dropDatabas3/prova/internal/http/dto/auth"
	httperrors "github.com/dropDatabas3/prova/internal/http/errors"
	"github.com/dropDatabas3/prova/internal/http/helpers"
	"github.com/dropDatabas3/prova/internal/http/middlewares"
	svc "github.com/dropDatabas3/prova/internal/http/services/auth"
	"github.com/dropDatabas3/prova/internal/observability/logger"
)

// MFAController maneja /mfa/* y /auth/settings. Todas las rutas requieren sesión.
type MFAController struct {
	service svc.MFAService
}

func NewMFAController(s svc.MFAService) *MFAController {
	return &MFAController{service: s}
}

// sessionUser devuelve el sub de la sesión. Si el body trae userId, debe coincidir.
func sessionUser(w http.ResponseWriter, r *http.Request, bodyUserID string) (string, bool) {
	userID := middlewares.GetUserID(r.Context())
	if userID == "" {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return "", false
	}
	if bodyUserID != "" && bodyUserID != userID {
		logger.From(r.Context()).Warn("mfa request for another user", logger.UserID(userID))
		httperrors.WriteError(w, httperrors.ErrUserMismatch)
		return "", false
	}
	return userID, true
}

// Setup handles POST /mfa/setup
func (c *MFAController) Setup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("mfa.setup"))

	var req dto.MFASetupRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("userId es obligatorio"))
		return
	}
	userID, ok := sessionUser(w, r, req.UserID)
	if !ok {
		return
	}

	label := userID
	if cl := middlewares.GetClaims(ctx); cl != nil && cl.Email != "" {
		label = cl.Email
	}
	res, err := c.service.Setup(ctx, userID, label)
	if err != nil {
		handleServiceError(w, err, log)
		return
	}

	// contiene el secreto y los backup codes en claro
	helpers.WriteNoStoreJSON(w, http.StatusOK, dto.MFASetupResponse{
		Secret:      res.Secret,
		BackupCodes: res.BackupCodes,
		OTPAuthURL:  res.OTPAuthURL,
	})
}

// Enable handles POST /mfa/enable
func (c *MFAController) Enable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("mfa.enable"))

	var req dto.MFAEnableRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Token) == "" || strings.TrimSpace(req.UserID) == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("userId y token son obligatorios"))
		return
	}
	userID, ok := sessionUser(w, r, req.UserID)
	if !ok {
		return
	}

	enabled, err := c.service.Enable(ctx, userID, req.Token)
	if err != nil {
		handleServiceError(w, err, log)
		return
	}
	if !enabled {
		httperrors.WriteError(w, httperrors.ErrInvalidMFACode)
		return
	}
	helpers.WriteNoStoreJSON(w, http.StatusOK, dto.SuccessResponse{Success: true})
}

// Disable handles POST /mfa/disable
func (c *MFAController) Disable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("mfa.disable"))

	var req dto.MFADisableRequest
	if r.ContentLength != 0 && !helpers.ReadJSON(w, r, &req) {
		return
	}
	userID, ok := sessionUser(w, r, req.UserID)
	if !ok {
		return
	}
	if err := c.service.Disable(ctx, userID); err != nil {
		handleServiceError(w, err, log)
		return
	}
	helpers.WriteNoStoreJSON(w, http.StatusOK, dto.SuccessResponse{Success: true})
}

// Settings handles GET /auth/settings
func (c *MFAController) Settings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("auth.settings"))

	userID, ok := sessionUser(w, r, "")
	if !ok {
		return
	}
	on, err := c.service.Status(ctx, userID)
	if err != nil {
		handleServiceError(w, err, log)
		return
	}
	helpers.WriteNoStoreJSON(w, http.StatusOK, dto.SettingsResponse{MFAEnabled: on})
}
