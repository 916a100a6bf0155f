// Package auth contiene los services de autenticación: sign-in con
// credenciales, ciclo de vida MFA, login OAuth y bootstrap del primer login.
package auth

import (
	"time"

	"github.com/dropDatabas3/prova/internal/cache"
	"github.com/dropDatabas3/prova/internal/domain/repository"
	"github.com/dropDatabas3/prova/internal/identity"
	"github.com/dropDatabas3/prova/internal/oauth"
	"github.com/dropDatabas3/prova/internal/rate"
	"github.com/dropDatabas3/prova/internal/security/secretbox"
	"github.com/dropDatabas3/prova/internal/security/totp"
)

// Deps contiene las dependencias para crear los services auth.
type Deps struct {
	Identity       identity.Provider
	MFARepo        repository.MFARepository
	BootstrapRepo  repository.BootstrapRepository
	OAuthAccounts  repository.OAuthAccountRepository
	Cache          cache.Client
	Throttle       rate.Throttle
	TOTP           *totp.Engine
	SecretBox      *secretbox.Box
	BackupCodes    int
	OAuthProviders oauth.Registry
	ChallengeTTL   time.Duration
	StateTTL       time.Duration
}

// Services agrupa todos los services del dominio auth.
type Services struct {
	SignIn       SignInService
	MFA          MFAService
	OAuth        OAuthService
	Password     PasswordService
	AccountSetup AccountSetupService
}

// NewServices crea el agregador de services auth.
func NewServices(d Deps) Services {
	boot := NewBootstrapper(d.BootstrapRepo)
	mfa := NewMFAService(MFADeps{
		Repo:            d.MFARepo,
		TOTP:            d.TOTP,
		Box:             d.SecretBox,
		BackupCodeCount: d.BackupCodes,
	})
	return Services{
		SignIn: NewSignInService(SignInDeps{
			Identity:     d.Identity,
			Throttle:     d.Throttle,
			MFA:          mfa,
			Bootstrapper: boot,
		}),
		MFA: mfa,
		OAuth: NewOAuthService(OAuthDeps{
			Providers:    d.OAuthProviders,
			Identity:     d.Identity,
			Accounts:     d.OAuthAccounts,
			MFA:          mfa,
			Bootstrapper: boot,
			Cache:        d.Cache,
			Throttle:     d.Throttle,
			ChallengeTTL: d.ChallengeTTL,
			StateTTL:     d.StateTTL,
		}),
		Password: NewPasswordService(d.Identity),
		AccountSetup: NewAccountSetupService(AccountSetupDeps{
			Identity:     d.Identity,
			Accounts:     d.OAuthAccounts,
			Bootstrapper: boot,
		}),
	}
}
