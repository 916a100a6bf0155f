// Package gotrue implements identity.Provider against a GoTrue (Supabase Auth)
// REST API. Public calls use the anon key; admin calls use the service key.
package gotrue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dropDatabas3/prova/internal/identity"
	"github.com/dropDatabas3/prova/internal/observability/logger"
)

// maxAdminPages acota el barrido de /admin/users en FindByEmail.
const maxAdminPages = 20

type Config struct {
	URL         string // https://<project>.supabase.co/auth/v1
	AnonKey     string
	ServiceKey  string
	RedirectURL string // destino de los links de recover/confirm
	Timeout     time.Duration
}

// Client is the GoTrue REST client.
type Client struct {
	cfg  Config
	http *http.Client
}

func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	cfg.URL = strings.TrimRight(cfg.URL, "/")
	return &Client{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}}
}

type user struct {
	ID               string         `json:"id"`
	Email            string         `json:"email"`
	EmailConfirmedAt *time.Time     `json:"email_confirmed_at"`
	UserMetadata     map[string]any `json:"user_metadata"`
}

func (u *user) toIdentity() *identity.Identity {
	id := &identity.Identity{ID: u.ID, Email: u.Email, EmailVerified: u.EmailConfirmedAt != nil}
	if v, ok := u.UserMetadata["name"].(string); ok {
		id.Name = v
	} else if v, ok := u.UserMetadata["full_name"].(string); ok {
		id.Name = v
	}
	if v, ok := u.UserMetadata["avatar_url"].(string); ok {
		id.AvatarURL = v
	}
	return id
}

// apiError cubre los dos formatos que devuelve GoTrue según versión.
type apiError struct {
	Status    int    `json:"-"`
	Code      any    `json:"code"`
	ErrorCode string `json:"error_code"`
	Err       string `json:"error"`
	ErrDesc   string `json:"error_description"`
	Msg       string `json:"msg"`
	Message   string `json:"message"`
}

func (e *apiError) Error() string {
	msg := e.Msg
	for _, m := range []string{e.Message, e.ErrDesc, e.Err} {
		if msg == "" {
			msg = m
		}
	}
	return fmt.Sprintf("gotrue: status %d: %s", e.Status, msg)
}

func (e *apiError) text() string {
	return strings.ToLower(strings.Join([]string{e.ErrorCode, e.Err, e.ErrDesc, e.Msg, e.Message}, " "))
}

func (c *Client) do(ctx context.Context, method, path, bearer string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.URL+path, rdr)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("apikey", c.cfg.AnonKey)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("gotrue %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	logger.From(ctx).Debug("gotrue call", logger.Component("identity.gotrue"),
		logger.Method(method), logger.Path(path), logger.Status(resp.StatusCode), logger.Duration(time.Since(start)))

	if resp.StatusCode >= 300 {
		ae := &apiError{Status: resp.StatusCode}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(ae)
		return ae
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) admin(ctx context.Context, method, path string, body, out any) error {
	if c.cfg.ServiceKey == "" {
		return errors.New("gotrue: service key not configured")
	}
	return c.do(ctx, method, path, c.cfg.ServiceKey, body, out)
}

func asAPIError(err error) (*apiError, bool) {
	var ae *apiError
	ok := errors.As(err, &ae)
	return ae, ok
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*identity.Identity, error) {
	var out struct {
		AccessToken string `json:"access_token"`
		User        user   `json:"user"`
	}
	err := c.do(ctx, http.MethodPost, "/token?grant_type=password", "", map[string]string{
		"email":    identity.NormalizeEmail(email),
		"password": password,
	}, &out)
	if ae, ok := asAPIError(err); ok && ae.Status >= 400 && ae.Status < 500 {
		return nil, identity.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	return out.User.toIdentity(), nil
}

func (c *Client) SignUp(ctx context.Context, email, password string, attrs identity.SignUpAttrs) error {
	path := "/signup"
	if c.cfg.RedirectURL != "" {
		path += "?redirect_to=" + url.QueryEscape(c.cfg.RedirectURL)
	}
	err := c.do(ctx, http.MethodPost, path, "", map[string]any{
		"email":    identity.NormalizeEmail(email),
		"password": password,
		"data":     map[string]string{"name": strings.TrimSpace(attrs.Name)},
	}, nil)
	return mapWriteError(err)
}

func mapWriteError(err error) error {
	ae, ok := asAPIError(err)
	if !ok {
		return err
	}
	t := ae.text()
	switch {
	case strings.Contains(t, "weak_password") || strings.Contains(t, "password should"):
		return fmt.Errorf("%w: %s", identity.ErrWeakPassword, ae.Error())
	case strings.Contains(t, "already") || strings.Contains(t, "email_exists"):
		return identity.ErrEmailTaken
	}
	return err
}

// FindByEmail recorre /admin/users paginado. GoTrue no expone búsqueda por email.
func (c *Client) FindByEmail(ctx context.Context, email string) (*identity.Identity, error) {
	want := identity.NormalizeEmail(email)
	const perPage = 200
	for page := 1; page <= maxAdminPages; page++ {
		var out struct {
			Users []user `json:"users"`
		}
		path := fmt.Sprintf("/admin/users?page=%d&per_page=%d", page, perPage)
		if err := c.admin(ctx, http.MethodGet, path, nil, &out); err != nil {
			return nil, err
		}
		for i := range out.Users {
			if strings.EqualFold(out.Users[i].Email, want) {
				return out.Users[i].toIdentity(), nil
			}
		}
		if len(out.Users) < perPage {
			return nil, identity.ErrUserNotFound
		}
	}
	logger.From(ctx).Warn("gotrue user scan truncated", logger.Component("identity.gotrue"),
		zap.Int("pages", maxAdminPages))
	return nil, identity.ErrUserNotFound
}

func (c *Client) CreateUser(ctx context.Context, in identity.CreateUserInput) (*identity.Identity, error) {
	body := map[string]any{
		"email":         identity.NormalizeEmail(in.Email),
		"email_confirm": in.EmailConfirmed,
		"user_metadata": map[string]string{"name": in.Name, "avatar_url": in.AvatarURL},
	}
	if in.Password != "" {
		body["password"] = in.Password
	}
	var out user
	if err := c.admin(ctx, http.MethodPost, "/admin/users", body, &out); err != nil {
		return nil, mapWriteError(err)
	}
	return out.toIdentity(), nil
}

func (c *Client) SendPasswordReset(ctx context.Context, email string) error {
	path := "/recover"
	if c.cfg.RedirectURL != "" {
		path += "?redirect_to=" + url.QueryEscape(c.cfg.RedirectURL)
	}
	return c.do(ctx, http.MethodPost, path, "", map[string]string{"email": identity.NormalizeEmail(email)}, nil)
}

// ResetPassword recibe el access token de la sesión de recuperación que GoTrue
// entrega en el link del mail.
func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) error {
	if strings.TrimSpace(token) == "" {
		return identity.ErrInvalidToken
	}
	err := c.do(ctx, http.MethodPut, "/user", token, map[string]string{"password": newPassword}, nil)
	if ae, ok := asAPIError(err); ok && (ae.Status == http.StatusUnauthorized || ae.Status == http.StatusForbidden) {
		return identity.ErrInvalidToken
	}
	return mapWriteError(err)
}
