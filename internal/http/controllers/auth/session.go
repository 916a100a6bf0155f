package auth

import (
	"net/http"

	"go.uber.org/zap"

	dto "github.com/dropDatabas3/prova/internal/http/dto/auth"
	httperrors "github.com/dropDatabas3/prova/internal/http/errors"
	"github.com/dropDatabas3/prova/internal/http/helpers"
	"github.com/dropDatabas3/prova/internal/identity"
	jwtx "github.com/dropDatabas3/prova/internal/jwt"
	"github.com/dropDatabas3/prova/internal/observability/logger"
)

// writeSession emite el access token para id y escribe SessionResponse.
func writeSession(w http.ResponseWriter, issuer *jwtx.Issuer, id *identity.Identity, log *zap.Logger) {
	tok, exp, err := issuer.IssueAccess(id.ID, id.Email)
	if err != nil {
		log.Error("issue access token failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
		return
	}
	helpers.WriteNoStoreJSON(w, http.StatusOK, dto.SessionResponse{
		AccessToken: tok,
		TokenType:   "Bearer",
		ExpiresIn:   int64(exp.Sub(issuer.Now()).Seconds()),
		User: dto.UserResponse{
			ID:            id.ID,
			Email:         id.Email,
			Name:          id.Name,
			AvatarURL:     id.AvatarURL,
			EmailVerified: id.EmailVerified,
		},
	})
}
