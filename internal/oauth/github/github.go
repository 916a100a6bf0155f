// Package github implements OAuth 2.0 sign-in with GitHub.
// GitHub has no ID token, so the profile comes from /user and /user/emails.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
	githuboauth "golang.org/x/oauth2/github"

	"github.com/dropDatabas3/prova/internal/oauth"
)

const apiBase = "https://api.github.com"

// OAuth is the GitHub client.
type OAuth struct {
	cfg     *oauth2.Config
	apiBase string
}

func New(clientID, clientSecret, redirectURL string, scopes []string) *OAuth {
	if len(scopes) == 0 {
		scopes = []string{"user:email", "read:user"}
	}
	return &OAuth{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       scopes,
			Endpoint:     githuboauth.Endpoint,
		},
		apiBase: apiBase,
	}
}

// WithEndpoints apunta el cliente a otro servidor (tests).
func (g *OAuth) WithEndpoints(ep oauth2.Endpoint, api string) *OAuth {
	g.cfg.Endpoint = ep
	g.apiBase = strings.TrimRight(api, "/")
	return g
}

func (g *OAuth) Name() string { return "github" }

func (g *OAuth) AuthCodeURL(state string) string {
	return g.cfg.AuthCodeURL(state, oauth2.SetAuthURLParam("allow_signup", "true"))
}

type userInfo struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

type emailInfo struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

func (g *OAuth) Exchange(ctx context.Context, code string) (*oauth.Profile, error) {
	tok, err := g.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("github exchange: %w", err)
	}
	client := g.cfg.Client(ctx, tok)

	var info userInfo
	if err := getJSON(ctx, client, g.apiBase+"/user", &info); err != nil {
		return nil, err
	}
	var emails []emailInfo
	if err := getJSON(ctx, client, g.apiBase+"/user/emails", &emails); err != nil {
		return nil, err
	}
	email := pickEmail(emails)
	if email == "" {
		return nil, oauth.ErrNoEmail
	}
	name := info.Name
	if name == "" {
		name = info.Login
	}
	return &oauth.Profile{
		Provider:          g.Name(),
		ProviderAccountID: strconv.FormatInt(info.ID, 10),
		Email:             strings.ToLower(email),
		EmailVerified:     true,
		Name:              name,
		AvatarURL:         info.AvatarURL,
	}, nil
}

// pickEmail: primary verificado, si no cualquier verificado. Nunca uno sin verificar.
func pickEmail(emails []emailInfo) string {
	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email
		}
	}
	for _, e := range emails {
		if e.Verified {
			return e.Email
		}
	}
	return ""
}

func getJSON(ctx context.Context, client *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("github api error: status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
