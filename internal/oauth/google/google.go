// Package google implements OAuth 2.0 sign-in with Google.
package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"

	"github.com/dropDatabas3/prova/internal/oauth"
)

const userInfoEndpoint = "https://www.googleapis.com/oauth2/v2/userinfo"

// OAuth is the Google client.
type OAuth struct {
	cfg         *oauth2.Config
	userInfoURL string
}

func New(clientID, clientSecret, redirectURL string, scopes []string) *OAuth {
	if len(scopes) == 0 {
		scopes = []string{"openid", "email", "profile"}
	}
	return &OAuth{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       scopes,
			Endpoint:     googleoauth.Endpoint,
		},
		userInfoURL: userInfoEndpoint,
	}
}

// WithEndpoints apunta el cliente a otro servidor (tests).
func (g *OAuth) WithEndpoints(ep oauth2.Endpoint, userInfoURL string) *OAuth {
	g.cfg.Endpoint = ep
	g.userInfoURL = userInfoURL
	return g
}

func (g *OAuth) Name() string { return "google" }

func (g *OAuth) AuthCodeURL(state string) string {
	return g.cfg.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account"))
}

type userInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func (g *OAuth) Exchange(ctx context.Context, code string) (*oauth.Profile, error) {
	tok, err := g.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("google exchange: %w", err)
	}
	resp, err := g.cfg.Client(ctx, tok).Get(g.userInfoURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("google api returned status %d: %s", resp.StatusCode, string(body))
	}
	var info userInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	if info.Email == "" || !info.VerifiedEmail {
		return nil, oauth.ErrNoEmail
	}
	return &oauth.Profile{
		Provider:          g.Name(),
		ProviderAccountID: info.ID,
		Email:             strings.ToLower(info.Email),
		EmailVerified:     true,
		Name:              info.Name,
		AvatarURL:         info.Picture,
	}, nil
}
