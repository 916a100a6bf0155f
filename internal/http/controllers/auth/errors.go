package auth

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	httperrors "github.com/dropDatabas3/prova/internal/http/errors"
	svc "github.com/dropDatabas3/prova/internal/http/services/auth"
	"github.com/dropDatabas3/prova/internal/identity"
	"github.com/dropDatabas3/prova/internal/oauth"
	"github.com/dropDatabas3/prova/internal/observability/logger"
)

// mapServiceError traduce errores de services a la respuesta HTTP.
// Lo que no se reconoce sale como 500 y se loguea con la causa.
func mapServiceError(err error, log *zap.Logger) *httperrors.AppError {
	switch {
	case errors.Is(err, svc.ErrMissingFields):
		return httperrors.ErrMissingFields
	case errors.Is(err, svc.ErrTooManyAttempts):
		return httperrors.ErrTooManyAttempts
	case errors.Is(err, svc.ErrInvalidCredentials):
		return httperrors.ErrInvalidCredentials
	case errors.Is(err, svc.ErrMFARequired):
		return httperrors.ErrMFARequired
	case errors.Is(err, svc.ErrInvalidMFAToken):
		return httperrors.ErrInvalidMFAToken
	case errors.Is(err, svc.ErrMFAAlreadyEnabled):
		return httperrors.ErrMFAAlreadyEnabled
	case errors.Is(err, svc.ErrVerificationPending):
		return httperrors.ErrVerificationPending
	case errors.Is(err, svc.ErrChallengeNotFound):
		return httperrors.ErrChallengeExpired
	case errors.Is(err, svc.ErrAccountLinked):
		return httperrors.ErrAccountAlreadyLinked
	case errors.Is(err, svc.ErrInvalidState):
		return httperrors.ErrInvalidState
	case errors.Is(err, svc.ErrOAuthFailed):
		log.Warn("oauth provider failed", logger.Err(err))
		return httperrors.ErrBadGateway
	case errors.Is(err, svc.ErrNotSupported):
		return httperrors.ErrNotImplemented
	case errors.Is(err, svc.ErrBootstrapFailed):
		// el detalle (paso, usuario) ya quedó en el log del service
		return httperrors.ErrBootstrapFailed
	case errors.Is(err, oauth.ErrUnknownProvider):
		return httperrors.ErrProviderNotFound
	case errors.Is(err, oauth.ErrNoEmail):
		return httperrors.ErrOAuthNoEmail
	case errors.Is(err, identity.ErrWeakPassword):
		return httperrors.ErrPasswordWeak
	case errors.Is(err, identity.ErrInvalidToken):
		return httperrors.ErrTokenInvalid
	default:
		log.Error("unexpected service error", logger.Err(err))
		return httperrors.ErrInternalServerError.WithCause(err)
	}
}

func handleServiceError(w http.ResponseWriter, err error, log *zap.Logger) {
	httperrors.WriteError(w, mapServiceError(err, log))
}
