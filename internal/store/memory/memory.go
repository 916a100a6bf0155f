// Package memory implementa los repositorios en memoria del proceso.
// Se usa con storage.driver=memory (dev) y en tests de services.
// No persiste nada entre reinicios.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/prova/internal/domain/repository"
)

type mfaRow struct {
	secret  string
	codes   []string
	enabled bool
}

// Store guarda todas las tablas detrás de un único mutex: cada operación es
// atómica respecto de las demás, igual que un UPDATE condicional en Postgres.
type Store struct {
	mu       sync.Mutex
	mfa      map[string]*mfaRow
	profiles map[string]repository.UserProfile
	usage    map[string]map[string]int
	chats    map[string][]repository.ChatSession
	oauth    map[string]repository.OAuthAccount
	users    map[string]*repository.User
	now      func() time.Time
}

func New() *Store {
	return &Store{
		mfa:      map[string]*mfaRow{},
		profiles: map[string]repository.UserProfile{},
		usage:    map[string]map[string]int{},
		chats:    map[string][]repository.ChatSession{},
		oauth:    map[string]repository.OAuthAccount{},
		users:    map[string]*repository.User{},
		now:      time.Now,
	}
}

func (s *Store) MFA() repository.MFARepository { return (*mfaRepo)(s) }

func (s *Store) Bootstrap() repository.BootstrapRepository { return (*bootstrapRepo)(s) }

func (s *Store) OAuthAccounts() repository.OAuthAccountRepository { return (*oauthRepo)(s) }

func (s *Store) Users() repository.UserRepository { return (*userRepo)(s) }

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() {}

// UsageCounters devuelve los contadores de un usuario (tests/provactl).
func (s *Store) UsageCounters(userID string) map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]int{}
	for k, v := range s.usage[userID] {
		out[k] = v
	}
	return out
}

// ChatSessions devuelve las sesiones de chat de un usuario (tests).
func (s *Store) ChatSessions(userID string) []repository.ChatSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]repository.ChatSession(nil), s.chats[userID]...)
}

// Profile devuelve el perfil de un usuario (tests).
func (s *Store) Profile(userID string) (repository.UserProfile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	return p, ok
}

// ─── MFA ───

type mfaRepo Store

func (r *mfaRepo) GetMFA(_ context.Context, userID string) (repository.MFAState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.mfa[userID]
	if !ok {
		return repository.MFANotSetUp{}, nil
	}
	codes := append([]string{}, row.codes...)
	switch {
	case row.enabled && row.secret == "":
		return nil, repository.ErrInconsistentMFA
	case row.enabled:
		return repository.MFAEnabled{Secret: row.secret, BackupCodeHashes: codes}, nil
	case row.secret != "":
		return repository.MFAPending{Secret: row.secret, BackupCodeHashes: codes}, nil
	default:
		return repository.MFANotSetUp{}, nil
	}
}

func (r *mfaRepo) SavePending(_ context.Context, userID, secret string, hashes []string) error {
	if userID == "" || secret == "" {
		return repository.ErrInvalidInput
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if row, ok := r.mfa[userID]; ok && row.enabled {
		return repository.ErrConflict
	}
	r.mfa[userID] = &mfaRow{secret: secret, codes: append([]string{}, hashes...)}
	return nil
}

func (r *mfaRepo) Enable(_ context.Context, userID, secret string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.mfa[userID]
	if !ok || row.enabled || row.secret == "" || row.secret != secret {
		return repository.ErrConflict
	}
	row.enabled = true
	return nil
}

func (r *mfaRepo) ConsumeBackupCode(_ context.Context, userID, codeHash string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.mfa[userID]
	if !ok || row.secret == "" {
		return false, nil
	}
	for i, c := range row.codes {
		if c == codeHash {
			row.codes = append(row.codes[:i:i], row.codes[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r *mfaRepo) Disable(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if row, ok := r.mfa[userID]; ok {
		row.enabled = false
		row.secret = ""
		row.codes = nil
	}
	return nil
}

// ─── Bootstrap ───

type bootstrapRepo Store

func (r *bootstrapRepo) HasProfile(_ context.Context, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.profiles[userID]
	return ok, nil
}

func (r *bootstrapRepo) CreateProfile(_ context.Context, userID, role string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.profiles[userID]; ok {
		return nil
	}
	now := r.now()
	r.profiles[userID] = repository.UserProfile{UserID: userID, Role: role, CreatedAt: now, UpdatedAt: now}
	return nil
}

func (r *bootstrapRepo) CreateUsageCounters(_ context.Context, userID string, periods []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.usage[userID]
	if !ok {
		m = map[string]int{}
		r.usage[userID] = m
	}
	for _, p := range periods {
		if _, ok := m[p]; !ok {
			m[p] = 0
		}
	}
	return nil
}

func (r *bootstrapRepo) CreateDefaultChatSession(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.chats[userID]) > 0 {
		return nil
	}
	r.chats[userID] = append(r.chats[userID], repository.ChatSession{
		ID:        uuid.NewString(),
		UserID:    userID,
		Status:    repository.ChatSessionActive,
		Endpoints: []string{},
		CreatedAt: r.now(),
	})
	return nil
}

// ─── OAuth accounts ───

type oauthRepo Store

func oauthKey(provider, id string) string { return provider + "|" + id }

func (r *oauthRepo) Get(_ context.Context, provider, providerAccountID string) (*repository.OAuthAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.oauth[oauthKey(provider, providerAccountID)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (r *oauthRepo) Link(_ context.Context, acc repository.OAuthAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := oauthKey(acc.Provider, acc.ProviderAccountID)
	if existing, ok := r.oauth[k]; ok {
		if existing.UserID != acc.UserID {
			return repository.ErrConflict
		}
		return nil
	}
	acc.CreatedAt = r.now()
	r.oauth[k] = acc
	return nil
}

// ─── Users ───

type userRepo Store

func (r *userRepo) Create(_ context.Context, u *repository.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return repository.ErrConflict
		}
	}
	cp := *u
	cp.CreatedAt, cp.UpdatedAt = r.now(), r.now()
	r.users[u.ID] = &cp
	return nil
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*repository.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepo) GetByID(_ context.Context, id string) (*repository.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *userRepo) SetPasswordHash(_ context.Context, id, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = hash
	u.UpdatedAt = r.now()
	return nil
}

func (r *userRepo) MarkEmailVerified(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.EmailVerified = true
	u.UpdatedAt = r.now()
	return nil
}
