package auth

import (
	"net/http"

	dto "github.com/dropDatabas3/prova/internal/http/dto/auth"
	"github.com/dropDatabas3/prova/internal/http/helpers"
	svc "github.com/dropDatabas3/prova/internal/http/services/auth"
	"github.com/dropDatabas3/prova/internal/observability/logger"
)

type AccountSetupController struct {
	service svc.AccountSetupService
}

func NewAccountSetupController(s svc.AccountSetupService) *AccountSetupController {
	return &AccountSetupController{service: s}
}

// Setup handles POST /auth/setup
func (c *AccountSetupController) Setup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("auth.setup"))

	var req dto.AccountSetupRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	id, err := c.service.Setup(ctx, svc.AccountSetupInput{
		Email:             req.Email,
		Password:          req.Password,
		Name:              req.Name,
		Provider:          req.Provider,
		ProviderAccountID: req.ProviderAccountID,
		AvatarURL:         req.AvatarURL,
	})
	if err != nil {
		handleServiceError(w, err, log)
		return
	}
	helpers.WriteNoStoreJSON(w, http.StatusCreated, dto.UserResponse{
		ID:            id.ID,
		Email:         id.Email,
		Name:          id.Name,
		AvatarURL:     id.AvatarURL,
		EmailVerified: id.EmailVerified,
	})
}
