package auth

import (
	"errors"
	"fmt"
)

// Errores de sign-in y MFA. Los controllers los mapean a httperrors.
var (
	ErrMissingFields       = errors.New("missing required fields")
	ErrTooManyAttempts     = errors.New("too many failed attempts")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrMFARequired         = errors.New("MFA_REQUIRED")
	ErrInvalidMFAToken     = errors.New("invalid mfa token")
	ErrMFAAlreadyEnabled   = errors.New("mfa already enabled")
	ErrVerificationPending = errors.New("email verification pending")
	ErrChallengeNotFound   = errors.New("mfa challenge not found or expired")
	ErrBootstrapFailed     = errors.New("first login bootstrap failed")
	ErrAccountLinked       = errors.New("provider account linked to another user")
	ErrTokenIssueFailed    = errors.New("failed to issue token")
)

// BootstrapError indica en qué paso del primer login se cortó.
// errors.Is(err, ErrBootstrapFailed) es true.
type BootstrapError struct {
	UserID string
	Step   string
	Err    error
}

func (e *BootstrapError) Error() string {
	return fmt.Sprintf("bootstrap user %s: step %s: %v", e.UserID, e.Step, e.Err)
}

func (e *BootstrapError) Unwrap() []error { return []error{ErrBootstrapFailed, e.Err} }
