package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError es la forma estándar de un error de la API.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // causa, sólo para logs
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// New crea un nuevo AppError
func New(status int, code, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

// Wrap crea un AppError envolviendo un error existente
func Wrap(err error, status int, code, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// FromError convierte cualquier error en AppError. Lo que no es AppError
// sale como 500 genérico conservando la causa.
func FromError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return ErrInternalServerError.WithCause(err)
}

// WithDetail devuelve una COPIA con detalle, para no mutar los errores base.
func (e *AppError) WithDetail(detail string) *AppError {
	newErr := *e
	newErr.Detail = detail
	return &newErr
}

// WithCause devuelve una COPIA con la causa.
func (e *AppError) WithCause(err error) *AppError {
	newErr := *e
	newErr.Err = err
	return &newErr
}

// =================================================================================
// LISTA DE ERRORES PREDEFINIDOS
// =================================================================================

// 202 Accepted (no es un error para el cliente, pero corta el flujo de sign-in)
var ErrVerificationPending = New(http.StatusAccepted, "VERIFICATION_PENDING", "Revisá tu casilla de correo para confirmar la cuenta.")

// 400 Bad Request
var (
	ErrBadRequest     = New(http.StatusBadRequest, "BAD_REQUEST", "La solicitud es inválida.")
	ErrInvalidJSON    = New(http.StatusBadRequest, "INVALID_JSON", "El cuerpo de la solicitud no es un JSON válido.")
	ErrMissingFields  = New(http.StatusBadRequest, "MISSING_FIELDS", "Faltan campos obligatorios.")
	ErrInvalidMFACode = New(http.StatusBadRequest, "INVALID_MFA_CODE", "El código de verificación es inválido.")
	ErrPasswordWeak   = New(http.StatusBadRequest, "PASSWORD_TOO_WEAK", "La contraseña no cumple la política de seguridad.")
	ErrTokenInvalid   = New(http.StatusBadRequest, "INVALID_TOKEN", "El token es inválido o expiró.")
	ErrInvalidState   = New(http.StatusBadRequest, "INVALID_STATE", "El estado OAuth es inválido o expiró.")
	ErrOAuthNoEmail   = New(http.StatusBadRequest, "OAUTH_NO_EMAIL", "El proveedor no devolvió un email verificado.")
)

// 401 Unauthorized
var (
	ErrUnauthorized       = New(http.StatusUnauthorized, "UNAUTHORIZED", "No autorizado.")
	ErrTokenMissing       = New(http.StatusUnauthorized, "TOKEN_MISSING", "Falta el token de acceso.")
	ErrTokenExpired       = New(http.StatusUnauthorized, "TOKEN_EXPIRED", "El token de acceso es inválido o expiró.")
	ErrInvalidCredentials = New(http.StatusUnauthorized, "INVALID_CREDENTIALS", "Email o contraseña incorrectos.")
	ErrMFARequired        = New(http.StatusUnauthorized, "MFA_REQUIRED", "Se requiere el segundo factor de autenticación.")
	ErrInvalidMFAToken    = New(http.StatusUnauthorized, "INVALID_MFA_TOKEN", "El código de verificación es inválido.")
	ErrChallengeExpired   = New(http.StatusUnauthorized, "MFA_CHALLENGE_EXPIRED", "El desafío MFA expiró. Iniciá sesión nuevamente.")
	ErrUserMismatch       = New(http.StatusUnauthorized, "USER_MISMATCH", "El usuario no coincide con la sesión.")
)

// 404 / 405
var (
	ErrNotFound         = New(http.StatusNotFound, "NOT_FOUND", "El recurso solicitado no existe.")
	ErrProviderNotFound = New(http.StatusNotFound, "PROVIDER_NOT_FOUND", "Proveedor OAuth no habilitado.")
	ErrMethodNotAllowed = New(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Método no permitido.")
)

// 409 Conflict
var (
	ErrConflict             = New(http.StatusConflict, "CONFLICT", "Conflicto con el estado actual del recurso.")
	ErrMFAAlreadyEnabled    = New(http.StatusConflict, "MFA_ALREADY_ENABLED", "El MFA ya está habilitado.")
	ErrAccountAlreadyLinked = New(http.StatusConflict, "ACCOUNT_ALREADY_LINKED", "La cuenta del proveedor ya está vinculada a otro usuario.")
)

// 429 Too Many Requests
var (
	ErrRateLimitExceeded = New(http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Demasiadas solicitudes. Intentá más tarde.")
	ErrTooManyAttempts   = New(http.StatusTooManyRequests, "TOO_MANY_ATTEMPTS", "Demasiados intentos fallidos. Intentá más tarde o restablecé tu contraseña.")
)

// 5xx
var (
	ErrInternalServerError = New(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Ocurrió un error inesperado.")
	ErrBootstrapFailed     = New(http.StatusInternalServerError, "BOOTSTRAP_FAILED", "No se pudo preparar la cuenta. Intentá nuevamente.")
	ErrNotImplemented      = New(http.StatusNotImplemented, "NOT_IMPLEMENTED", "Operación no soportada.")
	ErrBadGateway          = New(http.StatusBadGateway, "BAD_GATEWAY", "El proveedor externo no respondió correctamente.")
	ErrServiceUnavailable  = New(http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "El servicio no está disponible.")
)
