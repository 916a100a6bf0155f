// Package local implementa identity.Provider sobre la tabla users.
package local

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dropDatabas3/prova/internal/cache"
	"github.com/dropDatabas3/prova/internal/domain/repository"
	"github.com/dropDatabas3/prova/internal/email"
	"github.com/dropDatabas3/prova/internal/identity"
	"github.com/dropDatabas3/prova/internal/observability/logger"
	"github.com/dropDatabas3/prova/internal/security/password"
	"github.com/dropDatabas3/prova/internal/security/token"
)

const (
	verifyPrefix = "verify:"
	resetPrefix  = "reset:"
)

type Config struct {
	AppName   string
	BaseURL   string // URL pública para armar links (sin / final)
	VerifyTTL time.Duration
	ResetTTL  time.Duration
	Policy    password.Policy
	Hash      password.Params
}

type Deps struct {
	Users     repository.UserRepository
	Cache     cache.Client
	Sender    email.Sender
	Templates *email.Templates
}

type Provider struct {
	cfg  Config
	deps Deps
	// dummy se compara cuando el email no existe, para no filtrar existencia por timing.
	dummy string
}

func New(cfg Config, deps Deps) (*Provider, error) {
	if cfg.VerifyTTL <= 0 {
		cfg.VerifyTTL = 48 * time.Hour
	}
	if cfg.ResetTTL <= 0 {
		cfg.ResetTTL = time.Hour
	}
	if cfg.Hash.KeyLen == 0 {
		cfg.Hash = password.Default
	}
	if cfg.AppName == "" {
		cfg.AppName = "Prova"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	dummy, err := password.Hash(cfg.Hash, uuid.NewString())
	if err != nil {
		return nil, err
	}
	return &Provider{cfg: cfg, deps: deps, dummy: dummy}, nil
}

func toIdentity(u *repository.User) *identity.Identity {
	return &identity.Identity{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		AvatarURL:     u.AvatarURL,
		EmailVerified: u.EmailVerified,
	}
}

func (p *Provider) SignIn(ctx context.Context, addr, pwd string) (*identity.Identity, error) {
	u, err := p.deps.Users.GetByEmail(ctx, identity.NormalizeEmail(addr))
	if errors.Is(err, repository.ErrNotFound) {
		_ = password.Verify(pwd, p.dummy)
		return nil, identity.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if u.PasswordHash == "" || !password.Verify(pwd, u.PasswordHash) {
		return nil, identity.ErrInvalidCredentials
	}
	if !u.EmailVerified {
		logger.From(ctx).Info("signin rejected: email not verified",
			logger.Component("identity.local"), logger.UserID(u.ID))
		return nil, identity.ErrInvalidCredentials
	}
	return toIdentity(u), nil
}

func (p *Provider) validate(pwd string) error {
	if ok, reasons := p.cfg.Policy.Validate(pwd); !ok {
		return fmt.Errorf("%w: %s", identity.ErrWeakPassword, password.Describe(reasons))
	}
	return nil
}

func (p *Provider) SignUp(ctx context.Context, addr, pwd string, attrs identity.SignUpAttrs) error {
	if err := p.validate(pwd); err != nil {
		return err
	}
	hash, err := password.Hash(p.cfg.Hash, pwd)
	if err != nil {
		return err
	}
	u := &repository.User{
		ID:           uuid.NewString(),
		Email:        identity.NormalizeEmail(addr),
		Name:         strings.TrimSpace(attrs.Name),
		PasswordHash: hash,
	}
	if err := p.deps.Users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return identity.ErrEmailTaken
		}
		return err
	}
	return p.sendLink(ctx, u, verifyPrefix, p.cfg.VerifyTTL, "/auth/verify-email", email.TemplateVerify, "Confirmá tu email")
}

func (p *Provider) FindByEmail(ctx context.Context, addr string) (*identity.Identity, error) {
	u, err := p.deps.Users.GetByEmail(ctx, identity.NormalizeEmail(addr))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, identity.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return toIdentity(u), nil
}

func (p *Provider) CreateUser(ctx context.Context, in identity.CreateUserInput) (*identity.Identity, error) {
	u := &repository.User{
		ID:            uuid.NewString(),
		Email:         identity.NormalizeEmail(in.Email),
		Name:          strings.TrimSpace(in.Name),
		AvatarURL:     in.AvatarURL,
		EmailVerified: in.EmailConfirmed,
	}
	if in.Password != "" {
		if err := p.validate(in.Password); err != nil {
			return nil, err
		}
		hash, err := password.Hash(p.cfg.Hash, in.Password)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = hash
	}
	if err := p.deps.Users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, identity.ErrEmailTaken
		}
		return nil, err
	}
	return toIdentity(u), nil
}

func (p *Provider) SendPasswordReset(ctx context.Context, addr string) error {
	u, err := p.deps.Users.GetByEmail(ctx, identity.NormalizeEmail(addr))
	if errors.Is(err, repository.ErrNotFound) {
		logger.From(ctx).Debug("password reset for unknown email", logger.Email(addr))
		return nil
	}
	if err != nil {
		return err
	}
	return p.sendLink(ctx, u, resetPrefix, p.cfg.ResetTTL, "/auth/password/reset", email.TemplateReset, "Restablecer contraseña")
}

func (p *Provider) ResetPassword(ctx context.Context, tok, newPassword string) error {
	if err := p.validate(newPassword); err != nil {
		return err
	}
	userID, err := p.take(ctx, resetPrefix, tok)
	if err != nil {
		return err
	}
	hash, err := password.Hash(p.cfg.Hash, newPassword)
	if err != nil {
		return err
	}
	if err := p.deps.Users.SetPasswordHash(ctx, userID, hash); err != nil {
		return err
	}
	// el link llegó al inbox: el email queda probado
	return p.deps.Users.MarkEmailVerified(ctx, userID)
}

func (p *Provider) VerifyEmail(ctx context.Context, tok string) error {
	userID, err := p.take(ctx, verifyPrefix, tok)
	if err != nil {
		return err
	}
	return p.deps.Users.MarkEmailVerified(ctx, userID)
}

func (p *Provider) take(ctx context.Context, prefix, tok string) (string, error) {
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return "", identity.ErrInvalidToken
	}
	userID, err := p.deps.Cache.Take(ctx, prefix+token.SHA256Base64URL(tok))
	if cache.IsNotFound(err) {
		return "", identity.ErrInvalidToken
	}
	return userID, err
}

func (p *Provider) sendLink(ctx context.Context, u *repository.User, prefix string, ttl time.Duration, path, tpl, subject string) error {
	tok, err := token.Opaque(32)
	if err != nil {
		return err
	}
	if err := p.deps.Cache.Set(ctx, prefix+token.SHA256Base64URL(tok), u.ID, ttl); err != nil {
		return fmt.Errorf("store %s token: %w", strings.TrimSuffix(prefix, ":"), err)
	}
	link := p.cfg.BaseURL + path + "?token=" + url.QueryEscape(tok)
	html, text, err := p.deps.Templates.Render(tpl, email.Vars{
		UserEmail: u.Email,
		Link:      link,
		TTL:       ttl.String(),
		App:       p.cfg.AppName,
	})
	if err != nil {
		return err
	}
	if err := p.deps.Sender.Send(ctx, u.Email, subject, html, text); err != nil {
		// el token ya quedó guardado; el usuario puede pedir otro envío
		logger.From(ctx).Warn("email send failed", logger.Component("identity.local"),
			logger.UserID(u.ID), zap.String("template", tpl), logger.Err(err))
		return err
	}
	return nil
}
