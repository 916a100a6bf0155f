package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/prova/internal/cache"
	"github.com/dropDatabas3/prova/internal/email"
	authctrl "github.com/dropDatabas3/prova/internal/http/controllers/auth"
	healthctrl "github.com/dropDatabas3/prova/internal/http/controllers/health"
	mw "github.com/dropDatabas3/prova/internal/http/middlewares"
	svc "github.com/dropDatabas3/prova/internal/http/services/auth"
	healthsvc "github.com/dropDatabas3/prova/internal/http/services/health"
	"github.com/dropDatabas3/prova/internal/identity"
	"github.com/dropDatabas3/prova/internal/identity/local"
	jwtx "github.com/dropDatabas3/prova/internal/jwt"
	"github.com/dropDatabas3/prova/internal/oauth"
	"github.com/dropDatabas3/prova/internal/rate"
	"github.com/dropDatabas3/prova/internal/security/password"
	"github.com/dropDatabas3/prova/internal/security/totp"
	"github.com/dropDatabas3/prova/internal/store/memory"
)

type testServer struct {
	h     http.Handler
	idp   *local.Provider
	store *memory.Store
}

func newTestServer(t *testing.T, limit int) *testServer {
	t.Helper()
	store := memory.New()
	c := cache.NewMemory("t")
	tpl, err := email.LoadTemplates()
	require.NoError(t, err)
	idp, err := local.New(local.Config{
		BaseURL: "https://prova.test",
		Policy:  password.DefaultPolicy,
		Hash:    password.Params{Memory: 8 * 1024, Time: 1, Parallelism: 1, KeyLen: 32, SaltLen: 16},
	}, local.Deps{Users: store.Users(), Cache: c, Sender: email.LogSender{}, Templates: tpl})
	require.NoError(t, err)

	keys, err := jwtx.NewDevEd25519()
	require.NoError(t, err)
	issuer := jwtx.NewIssuer("https://prova.test", keys, time.Hour)

	services := svc.NewServices(svc.Deps{
		Identity:       idp,
		MFARepo:        store.MFA(),
		BootstrapRepo:  store.Bootstrap(),
		OAuthAccounts:  store.OAuthAccounts(),
		Cache:          c,
		Throttle:       rate.NewMemoryThrottle(rate.DefaultPolicy, nil),
		TOTP:           totp.NewEngine("Prova", 1),
		OAuthProviders: oauth.Registry{},
	})
	h := New(Deps{
		AuthControllers: authctrl.NewControllers(services, issuer),
		Health:          healthctrl.NewHealthController(healthsvc.NewHealthService(healthsvc.Deps{StoreCheck: store.Ping, CacheCheck: c.Ping})),
		JWKS:            healthctrl.NewJWKSController(keys),
		AuthMiddleware:  mw.RequireAuth(issuer),
		RateLimiter:     rate.NewMemoryLimiter(limit, time.Minute),
	})
	return &testServer{h: h, idp: idp, store: store}
}

func (s *testServer) do(t *testing.T, method, path, bearer string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	s.h.ServeHTTP(rec, req)

	out := map[string]any{}
	if rec.Body.Len() > 0 {
		_ = json.Unmarshal(rec.Body.Bytes(), &out)
	}
	return rec, out
}

func (s *testServer) addUser(t *testing.T, email, pwd string) *identity.Identity {
	t.Helper()
	id, err := s.idp.CreateUser(context.Background(), identity.CreateUserInput{Email: email, Password: pwd, EmailConfirmed: true})
	require.NoError(t, err)
	return id
}

func TestSignInAndMFAFlow(t *testing.T) {
	s := newTestServer(t, 100)
	u := s.addUser(t, "ana@x.com", "Secreta123")
	creds := map[string]string{"email": "ana@x.com", "password": "Secreta123"}

	rec, body := s.do(t, http.MethodPost, "/auth/signin", "", creds)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	tok := body["access_token"].(string)

	// settings: sin MFA
	rec, body = s.do(t, http.MethodGet, "/auth/settings", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, false, body["mfaEnabled"])

	// setup para otro usuario
	rec, body = s.do(t, http.MethodPost, "/mfa/setup", tok, map[string]string{"userId": "otro"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "USER_MISMATCH", body["code"])

	rec, body = s.do(t, http.MethodPost, "/mfa/setup", tok, map[string]string{"userId": u.ID})
	require.Equal(t, http.StatusOK, rec.Code)
	secret := body["secret"].(string)
	require.Len(t, body["backupCodes"], 10)

	rec, body = s.do(t, http.MethodPost, "/mfa/enable", tok, map[string]string{"userId": u.ID, "token": "000000x"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "INVALID_MFA_CODE", body["code"])

	rec, body = s.do(t, http.MethodPost, "/mfa/enable", tok, map[string]string{"userId": u.ID})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "MISSING_FIELDS", body["code"])

	code, err := totp.Code(secret, time.Now())
	require.NoError(t, err)
	rec, body = s.do(t, http.MethodPost, "/mfa/enable", tok, map[string]string{"userId": u.ID, "token": code})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, body["success"])

	rec, body = s.do(t, http.MethodPost, "/auth/signin", "", creds)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "MFA_REQUIRED", body["code"])

	code, _ = totp.Code(secret, time.Now())
	rec, _ = s.do(t, http.MethodPost, "/auth/signin", "", map[string]string{"email": "ana@x.com", "password": "Secreta123", "mfaToken": code})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/mfa/disable", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec, body = s.do(t, http.MethodGet, "/auth/settings", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, false, body["mfaEnabled"])
}

func TestSignIn_ThrottleAndErrors(t *testing.T) {
	s := newTestServer(t, 100)
	s.addUser(t, "ana@x.com", "Secreta123")

	rec, body := s.do(t, http.MethodPost, "/auth/signin", "", map[string]string{"email": "ana@x.com"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "MISSING_FIELDS", body["code"])

	for i := 0; i < 5; i++ {
		rec, body = s.do(t, http.MethodPost, "/auth/signin", "", map[string]string{"email": "ana@x.com", "password": "mal"})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "INVALID_CREDENTIALS", body["code"])
	}
	rec, body = s.do(t, http.MethodPost, "/auth/signin", "", map[string]string{"email": "ana@x.com", "password": "Secreta123"})
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "TOO_MANY_ATTEMPTS", body["code"])
}

func TestSignUp_Pending(t *testing.T) {
	s := newTestServer(t, 100)
	rec, body := s.do(t, http.MethodPost, "/auth/signin", "", map[string]string{"email": "n@x.com", "password": "Secreta123", "name": "N"})
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, "VERIFICATION_PENDING", body["code"])
}

func TestMFARoutesRequireBearer(t *testing.T) {
	s := newTestServer(t, 100)
	rec, body := s.do(t, http.MethodPost, "/mfa/setup", "", map[string]string{"userId": "u"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "TOKEN_MISSING", body["code"])
}

func TestRateLimitPerIP(t *testing.T) {
	s := newTestServer(t, 2)
	for i := 0; i < 2; i++ {
		rec, _ := s.do(t, http.MethodPost, "/auth/password/forgot", "", map[string]string{"email": "a@x.com"})
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec, body := s.do(t, http.MethodPost, "/auth/password/forgot", "", map[string]string{"email": "a@x.com"})
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "RATE_LIMIT_EXCEEDED", body["code"])
}

func TestHealthAndNotFound(t *testing.T) {
	s := newTestServer(t, 100)
	rec, _ := s.do(t, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body := s.do(t, http.MethodGet, "/readyz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ready", body["status"])

	rec, body = s.do(t, http.MethodGet, "/.well-known/jwks.json", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, body["keys"])

	rec, body = s.do(t, http.MethodGet, "/nope", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "NOT_FOUND", body["code"])

	rec, _ = s.do(t, http.MethodGet, "/auth/oauth/gitlab/start", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
