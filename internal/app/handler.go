package app

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dropDatabas3/prova/internal/config"
	"github.com/dropDatabas3/prova/internal/email"
	authctrl "github.com/dropDatabas3/prova/internal/http/controllers/auth"
	healthctrl "github.com/dropDatabas3/prova/internal/http/controllers/health"
	mw "github.com/dropDatabas3/prova/internal/http/middlewares"
	"github.com/dropDatabas3/prova/internal/http/router"
	authsvc "github.com/dropDatabas3/prova/internal/http/services/auth"
	healthsvc "github.com/dropDatabas3/prova/internal/http/services/health"
	"github.com/dropDatabas3/prova/internal/identity"
	"github.com/dropDatabas3/prova/internal/identity/gotrue"
	"github.com/dropDatabas3/prova/internal/identity/local"
	"github.com/dropDatabas3/prova/internal/metrics"
	"github.com/dropDatabas3/prova/internal/oauth"
	"github.com/dropDatabas3/prova/internal/oauth/github"
	"github.com/dropDatabas3/prova/internal/oauth/google"
	"github.com/dropDatabas3/prova/internal/observability/logger"
	"github.com/dropDatabas3/prova/internal/security/password"
	"github.com/dropDatabas3/prova/internal/security/secretbox"
	"github.com/dropDatabas3/prova/internal/security/totp"
)

// HandlerOptions ajusta lo que no sale de la config.
type HandlerOptions struct {
	Version string
	// Registry default: prometheus.DefaultRegisterer.
	Registry prometheus.Registerer
}

// Handler arma services, controllers y router sobre la infraestructura abierta.
func (c *Container) Handler(opts HandlerOptions) (http.Handler, error) {
	cfg := c.Config

	idp, err := c.identityProvider()
	if err != nil {
		return nil, err
	}
	box, err := secretbox.New(cfg.MFA.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("mfa.secret_key: %w", err)
	}
	if !box.Enabled() {
		logger.L().Warn("mfa.secret_key not set: TOTP secrets are stored in plain text", logger.Component("app"))
	}

	services := authsvc.NewServices(authsvc.Deps{
		Identity:       idp,
		MFARepo:        c.Store.MFA(),
		BootstrapRepo:  c.Store.Bootstrap(),
		OAuthAccounts:  c.Store.OAuthAccounts(),
		Cache:          c.Cache,
		Throttle:       c.Throttle,
		TOTP:           totp.NewEngine(cfg.MFA.Issuer, cfg.MFA.Skew),
		SecretBox:      box,
		BackupCodes:    cfg.MFA.BackupCodes,
		OAuthProviders: oauthRegistry(cfg),
		ChallengeTTL:   cfg.MFA.ChallengeTTL,
		StateTTL:       cfg.Auth.OAuthStateTTL,
	})

	reg := opts.Registry
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	metricsHandler, err := metrics.Register(metrics.Config{Registry: reg, Pool: c.Pool})
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	health := healthsvc.NewHealthService(healthsvc.Deps{
		Version:    opts.Version,
		Issuer:     c.Issuer,
		StoreCheck: c.Store.Ping,
		CacheCheck: c.Cache.Ping,
	})

	return router.New(router.Deps{
		AuthControllers: authctrl.NewControllers(services, c.Issuer),
		Health:          healthctrl.NewHealthController(health),
		JWKS:            healthctrl.NewJWKSController(c.Keys),
		MetricsHandler:  metricsHandler,
		AuthMiddleware:  mw.RequireAuth(c.Issuer),
		RateLimiter:     c.Limiter,
	}), nil
}

func (c *Container) identityProvider() (identity.Provider, error) {
	cfg := c.Config
	if cfg.Identity.Provider == "gotrue" {
		g := cfg.Identity.GoTrue
		return gotrue.New(gotrue.Config{
			URL:         g.URL,
			AnonKey:     g.AnonKey,
			ServiceKey:  g.ServiceKey,
			RedirectURL: g.RedirectURL,
			Timeout:     g.Timeout,
		}), nil
	}

	bl, err := password.LoadBlacklist(cfg.Security.PasswordBlacklistPath)
	if err != nil {
		return nil, fmt.Errorf("password blacklist: %w", err)
	}
	tpl, err := email.LoadTemplates()
	if err != nil {
		return nil, err
	}
	pp := cfg.Security.PasswordPolicy
	return local.New(local.Config{
		AppName:   cfg.MFA.Issuer,
		BaseURL:   cfg.App.BaseURL,
		VerifyTTL: cfg.Auth.Verify.TTL,
		ResetTTL:  cfg.Auth.Reset.TTL,
		Policy: password.Policy{
			MinLength:     pp.MinLength,
			RequireUpper:  pp.RequireUpper,
			RequireLower:  pp.RequireLower,
			RequireDigit:  pp.RequireDigit,
			RequireSymbol: pp.RequireSymbol,
			Blacklist:     bl,
		},
	}, local.Deps{
		Users:     c.Store.Users(),
		Cache:     c.Cache,
		Sender:    emailSender(cfg),
		Templates: tpl,
	})
}

func emailSender(cfg *config.Config) email.Sender {
	if cfg.SMTP.Host == "" {
		logger.L().Warn("smtp.host not set: emails are logged, not sent", logger.Component("app"))
		return email.LogSender{}
	}
	s := email.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.From, cfg.SMTP.Username, cfg.SMTP.Password)
	s.TLSMode = cfg.SMTP.TLS
	s.InsecureSkipVerify = cfg.SMTP.InsecureSkipVerify
	return s
}

func oauthRegistry(cfg *config.Config) oauth.Registry {
	reg := oauth.Registry{}
	if p := cfg.Providers.Google; p.Enabled {
		reg["google"] = google.New(p.ClientID, p.ClientSecret, p.RedirectURL, p.Scopes)
	}
	if p := cfg.Providers.GitHub; p.Enabled {
		reg["github"] = github.New(p.ClientID, p.ClientSecret, p.RedirectURL, p.Scopes)
	}
	return reg
}
