package auth

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/prova/internal/cache"
	"github.com/dropDatabas3/prova/internal/oauth"
	"github.com/dropDatabas3/prova/internal/rate"
	"github.com/dropDatabas3/prova/internal/store/memory"
)

type stubProvider struct {
	name    string
	profile *oauth.Profile
}

func (p *stubProvider) Name() string { return p.name }
func (p *stubProvider) AuthCodeURL(state string) string {
	return "https://idp.example/auth?state=" + url.QueryEscape(state)
}
func (p *stubProvider) Exchange(context.Context, string) (*oauth.Profile, error) {
	return p.profile, nil
}

type oauthFixture struct {
	idp   *fakeIdentity
	store *memory.Store
	cache cache.Client
	mfa   MFAService
	svc   OAuthService
}

func newOAuthFixture(t *testing.T, prof *oauth.Profile) *oauthFixture {
	t.Helper()
	f := &oauthFixture{idp: newFakeIdentity(), store: memory.New(), cache: cache.NewMemory("t")}
	f.mfa = newMFA(f.store)
	f.svc = NewOAuthService(OAuthDeps{
		Providers:    oauth.Registry{"google": &stubProvider{name: "google", profile: prof}},
		Identity:     f.idp,
		Accounts:     f.store.OAuthAccounts(),
		MFA:          f.mfa,
		Bootstrapper: NewBootstrapper(f.store.Bootstrap()),
		Cache:        f.cache,
		Throttle:     rate.NewMemoryThrottle(rate.DefaultPolicy, nil),
		Now:          func() time.Time { return testNow },
	})
	return f
}

func googleProfile() *oauth.Profile {
	return &oauth.Profile{
		Provider:          "google",
		ProviderAccountID: "g-123",
		Email:             "Ana@Gmail.com",
		EmailVerified:     true,
		Name:              "Ana",
	}
}

func TestOAuth_StartAndCallbackCreatesUser(t *testing.T) {
	ctx := context.Background()
	f := newOAuthFixture(t, googleProfile())

	raw, err := f.svc.Start(ctx, "google")
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	state := u.Query().Get("state")
	require.NotEmpty(t, state)

	res, err := f.svc.Callback(ctx, "google", state, "code")
	require.NoError(t, err)
	require.Nil(t, res.Challenge)
	require.Equal(t, "ana@gmail.com", res.Identity.Email)

	acc, err := f.store.OAuthAccounts().Get(ctx, "google", "g-123")
	require.NoError(t, err)
	require.Equal(t, res.Identity.ID, acc.UserID)
	_, ok := f.store.Profile(res.Identity.ID)
	require.True(t, ok)

	// el state es de un solo uso
	_, err = f.svc.Callback(ctx, "google", state, "code")
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestOAuth_UnknownProvider(t *testing.T) {
	f := newOAuthFixture(t, googleProfile())
	_, err := f.svc.Start(context.Background(), "gitlab")
	require.ErrorIs(t, err, oauth.ErrUnknownProvider)
}

func TestOAuth_MFAChallengeFlow(t *testing.T) {
	ctx := context.Background()
	f := newOAuthFixture(t, googleProfile())
	u := f.idp.add("ana@gmail.com", "")
	secret, _ := setupEnabledMFA(t, f.mfa, u.ID)

	res, err := f.svc.OAuthSignIn(ctx, "google", googleProfile())
	require.NoError(t, err)
	require.Nil(t, res.Identity)
	require.NotNil(t, res.Challenge)
	require.Equal(t, testNow.Add(DefaultChallengeTTL), res.Challenge.ExpiresAt)

	// código incorrecto consume el challenge
	_, err = f.svc.CompleteChallenge(ctx, res.Challenge.Token, wrongCode(t, secret))
	require.ErrorIs(t, err, ErrInvalidMFAToken)
	_, err = f.svc.CompleteChallenge(ctx, res.Challenge.Token, codeAt(t, secret, testNow))
	require.ErrorIs(t, err, ErrChallengeNotFound)

	res, err = f.svc.OAuthSignIn(ctx, "google", googleProfile())
	require.NoError(t, err)
	id, err := f.svc.CompleteChallenge(ctx, res.Challenge.Token, codeAt(t, secret, testNow))
	require.NoError(t, err)
	require.Equal(t, u.ID, id.ID)
}

func TestOAuth_AccountLinkedToAnotherUser(t *testing.T) {
	ctx := context.Background()
	f := newOAuthFixture(t, googleProfile())

	_, err := f.svc.OAuthSignIn(ctx, "google", googleProfile())
	require.NoError(t, err)

	other := googleProfile()
	other.Email = "otra@gmail.com"
	_, err = f.svc.OAuthSignIn(ctx, "google", other)
	require.ErrorIs(t, err, ErrAccountLinked)
}

func TestAccountSetup_CreatesBootstrapsAndLinks(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	idp := newFakeIdentity()
	svc := NewAccountSetupService(AccountSetupDeps{
		Identity:     idp,
		Accounts:     store.OAuthAccounts(),
		Bootstrapper: NewBootstrapper(store.Bootstrap()),
	})
	in := AccountSetupInput{
		Email:             "ana@x.com",
		Password:          "Secreta123",
		Name:              "Ana",
		Provider:          "GitHub",
		ProviderAccountID: "42",
	}

	id, err := svc.Setup(ctx, in)
	require.NoError(t, err)
	require.True(t, id.EmailVerified)
	acc, err := store.OAuthAccounts().Get(ctx, "github", "42")
	require.NoError(t, err)
	require.Equal(t, id.ID, acc.UserID)

	// repetir el setup no falla
	again, err := svc.Setup(ctx, in)
	require.NoError(t, err)
	require.Equal(t, id.ID, again.ID)

	in.ProviderAccountID = ""
	_, err = svc.Setup(ctx, in)
	require.ErrorIs(t, err, ErrMissingFields)
}

func TestPassword_ForgotNeverLeaks(t *testing.T) {
	svc := NewPasswordService(newFakeIdentity())
	require.NoError(t, svc.Forgot(context.Background(), "nadie@x.com"))
	require.ErrorIs(t, svc.Forgot(context.Background(), ""), ErrMissingFields)
	require.ErrorIs(t, svc.VerifyEmail(context.Background(), "t"), ErrNotSupported)
}
