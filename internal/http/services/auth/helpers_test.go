package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/prova/internal/identity"
	"github.com/dropDatabas3/prova/internal/security/totp"
	"github.com/dropDatabas3/prova/internal/store/memory"
)

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func testEngine() *totp.Engine {
	return &totp.Engine{Issuer: "Prova", Skew: 1, Now: func() time.Time { return testNow }}
}

func codeAt(t *testing.T, secret string, at time.Time) string {
	t.Helper()
	c, err := totp.Code(secret, at)
	require.NoError(t, err)
	return c
}

// wrongCode devuelve un código de 6 dígitos que no valida en la ventana ±1.
func wrongCode(t *testing.T, secret string) string {
	t.Helper()
	valid := map[string]bool{}
	for _, d := range []time.Duration{-30 * time.Second, 0, 30 * time.Second} {
		valid[codeAt(t, secret, testNow.Add(d))] = true
	}
	for i := 0; ; i++ {
		c := fmt.Sprintf("%06d", i)
		if !valid[c] {
			return c
		}
	}
}

type fakeUser struct {
	id       identity.Identity
	password string
}

// fakeIdentity es un identity.Provider en memoria.
type fakeIdentity struct {
	mu          sync.Mutex
	users       map[string]*fakeUser
	signInCalls int
	signUps     []string
	signInErr   error
	seq         int
}

func newFakeIdentity() *fakeIdentity {
	return &fakeIdentity{users: map[string]*fakeUser{}}
}

func (f *fakeIdentity) add(email, password string) *identity.Identity {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	u := &fakeUser{
		id:       identity.Identity{ID: fmt.Sprintf("user-%d", f.seq), Email: email, EmailVerified: true},
		password: password,
	}
	f.users[email] = u
	return &u.id
}

func (f *fakeIdentity) SignIn(_ context.Context, email, password string) (*identity.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signInCalls++
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	u, ok := f.users[email]
	if !ok || u.password != password {
		return nil, identity.ErrInvalidCredentials
	}
	id := u.id
	return &id, nil
}

func (f *fakeIdentity) SignUp(_ context.Context, email, _ string, _ identity.SignUpAttrs) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[email]; ok {
		return identity.ErrEmailTaken
	}
	f.signUps = append(f.signUps, email)
	return nil
}

func (f *fakeIdentity) FindByEmail(_ context.Context, email string) (*identity.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[email]
	if !ok {
		return nil, identity.ErrUserNotFound
	}
	id := u.id
	return &id, nil
}

func (f *fakeIdentity) CreateUser(_ context.Context, in identity.CreateUserInput) (*identity.Identity, error) {
	if _, err := f.FindByEmail(context.Background(), in.Email); err == nil {
		return nil, identity.ErrEmailTaken
	}
	id := f.add(in.Email, in.Password)
	id.Name, id.AvatarURL, id.EmailVerified = in.Name, in.AvatarURL, in.EmailConfirmed
	return id, nil
}

func (f *fakeIdentity) SendPasswordReset(context.Context, string) error { return nil }

func (f *fakeIdentity) ResetPassword(_ context.Context, token, _ string) error {
	if !strings.HasPrefix(token, "ok") {
		return identity.ErrInvalidToken
	}
	return nil
}

// setupEnabledMFA deja al usuario con MFA habilitado y devuelve secreto y backup codes.
func setupEnabledMFA(t *testing.T, svc MFAService, userID string) (string, []string) {
	t.Helper()
	ctx := context.Background()
	res, err := svc.Setup(ctx, userID, userID+"@x.com")
	require.NoError(t, err)
	ok, err := svc.Enable(ctx, userID, codeAt(t, res.Secret, testNow))
	require.NoError(t, err)
	require.True(t, ok)
	return res.Secret, res.BackupCodes
}

func newMFA(store *memory.Store) MFAService {
	return NewMFAService(MFADeps{Repo: store.MFA(), TOTP: testEngine()})
}
