// Package auth contiene los controllers HTTP de sign-in, MFA, OAuth y password.
package auth

import (
	svc "github.com/dropDatabas3/prova/internal/http/services/auth"
	jwtx "github.com/dropDatabas3/prova/internal/jwt"
)

// Controllers agrupa todos los controllers del dominio auth.
type Controllers struct {
	SignIn       *SignInController
	MFA          *MFAController
	OAuth        *OAuthController
	Password     *PasswordController
	AccountSetup *AccountSetupController
}

// NewControllers crea el agregador de controllers auth.
func NewControllers(s svc.Services, issuer *jwtx.Issuer) *Controllers {
	return &Controllers{
		SignIn:       NewSignInController(s.SignIn, issuer),
		MFA:          NewMFAController(s.MFA),
		OAuth:        NewOAuthController(s.OAuth, issuer),
		Password:     NewPasswordController(s.Password),
		AccountSetup: NewAccountSetupController(s.AccountSetup),
	}
}
