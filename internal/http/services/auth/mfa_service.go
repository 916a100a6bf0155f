package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/dropDatabas3/prova/internal/audit"
	"github.com/dropDatabas3/prova/internal/domain/repository"
	"github.com/dropDatabas3/prova/internal/metrics"
	"github.com/dropDatabas3/prova/internal/observability/logger"
	"github.com/dropDatabas3/prova/internal/security/backupcode"
	"github.com/dropDatabas3/prova/internal/security/secretbox"
	"github.com/dropDatabas3/prova/internal/security/token"
	"github.com/dropDatabas3/prova/internal/security/totp"
)

// MFAService maneja el ciclo de vida TOTP de un usuario:
// NOT_SET_UP → PENDING_VERIFICATION → ENABLED, y ENABLED → NOT_SET_UP al deshabilitar.
type MFAService interface {
	// Setup genera secreto y backup codes nuevos y los deja pendientes.
	Setup(ctx context.Context, userID, accountLabel string) (*MFASetup, error)
	// Enable confirma el setup pendiente con un código TOTP o un backup code.
	Enable(ctx context.Context, userID, code string) (bool, error)
	// Verify es el segundo factor del sign-in. Sólo aplica con MFA habilitado.
	Verify(ctx context.Context, userID, code string) (bool, error)
	Disable(ctx context.Context, userID string) error
	Status(ctx context.Context, userID string) (bool, error)
}

// MFASetup se muestra una sola vez al usuario. Los backup codes van en claro.
type MFASetup struct {
	Secret      string
	BackupCodes []string
	OTPAuthURL  string
}

// MFADeps contiene las dependencias del service MFA.
type MFADeps struct {
	Repo repository.MFARepository
	TOTP *totp.Engine
	// Box cifra el secreto en reposo. nil o sin key = se guarda en claro.
	Box             *secretbox.Box
	BackupCodeCount int
}

type mfaService struct {
	repo      repository.MFARepository
	totp      *totp.Engine
	box       *secretbox.Box
	codeCount int
}

// NewMFAService crea el service MFA.
func NewMFAService(d MFADeps) MFAService {
	box := d.Box
	if box == nil {
		box, _ = secretbox.New("")
	}
	eng := d.TOTP
	if eng == nil {
		eng = totp.NewEngine("Prova", 1)
	}
	return &mfaService{repo: d.Repo, totp: eng, box: box, codeCount: d.BackupCodeCount}
}

func (s *mfaService) Setup(ctx context.Context, userID, accountLabel string) (*MFASetup, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("mfa"), logger.Op("Setup"), logger.UserID(userID))

	// Paso 1: no se re-genera sobre un MFA activo
	st, err := s.repo.GetMFA(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get mfa: %w", err)
	}
	if repository.IsMFAEnabled(st) {
		return nil, ErrMFAAlreadyEnabled
	}

	// Paso 2: secreto + backup codes
	secret, err := s.totp.GenerateSecret()
	if err != nil {
		return nil, fmt.Errorf("generate secret: %w", err)
	}
	codes, err := backupcode.Generate(s.codeCount)
	if err != nil {
		return nil, fmt.Errorf("generate backup codes: %w", err)
	}
	hashes := make([]string, len(codes))
	for i, c := range codes {
		hashes[i] = hashBackupCode(c)
	}
	uri, err := s.totp.ProvisioningURI(accountLabel, secret)
	if err != nil {
		return nil, fmt.Errorf("provisioning uri: %w", err)
	}

	// Paso 3: persistir como pendiente (pisa un setup pendiente anterior)
	sealed, err := s.box.Seal(secret)
	if err != nil {
		return nil, fmt.Errorf("seal secret: %w", err)
	}
	if err := s.repo.SavePending(ctx, userID, sealed, hashes); err != nil {
		if repository.IsConflict(err) {
			// se habilitó entre el GetMFA y el upsert
			return nil, ErrMFAAlreadyEnabled
		}
		return nil, fmt.Errorf("save pending mfa: %w", err)
	}

	log.Info("mfa setup pending", logger.Count(len(codes)))
	return &MFASetup{Secret: secret, BackupCodes: codes, OTPAuthURL: uri}, nil
}

func (s *mfaService) Enable(ctx context.Context, userID, code string) (bool, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("mfa"), logger.Op("Enable"), logger.UserID(userID))

	st, err := s.repo.GetMFA(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("get mfa: %w", err)
	}
	var pending repository.MFAPending
	switch v := st.(type) {
	case repository.MFAEnabled:
		return false, ErrMFAAlreadyEnabled
	case repository.MFAPending:
		pending = v
	default:
		return false, nil
	}

	ok, err := s.checkSecondFactor(ctx, userID, pending.Secret, code)
	if err != nil || !ok {
		metrics.ObserveMFAVerification("enable", ok)
		return false, err
	}

	// Enable es condicional al mismo secreto: un Setup concurrente lo invalida
	if err := s.repo.Enable(ctx, userID, pending.Secret); err != nil {
		if !repository.IsConflict(err) {
			return false, fmt.Errorf("enable mfa: %w", err)
		}
		again, gerr := s.repo.GetMFA(ctx, userID)
		if gerr == nil && repository.IsMFAEnabled(again) {
			return false, ErrMFAAlreadyEnabled
		}
		log.Warn("mfa enable lost race with a new setup")
		return false, nil
	}

	metrics.ObserveMFAVerification("enable", true)
	log.Info("mfa enabled")
	audit.Log(ctx, audit.EventMFAEnabled, logger.UserID(userID))
	return true, nil
}

func (s *mfaService) Verify(ctx context.Context, userID, code string) (bool, error) {
	st, err := s.repo.GetMFA(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("get mfa: %w", err)
	}
	en, ok := st.(repository.MFAEnabled)
	if !ok || en.Secret == "" {
		return false, nil
	}
	ok, err = s.checkSecondFactor(ctx, userID, en.Secret, code)
	metrics.ObserveMFAVerification("signin", ok)
	return ok, err
}

// checkSecondFactor prueba TOTP primero y después un backup code. Un backup
// code válido se consume en el mismo paso.
func (s *mfaService) checkSecondFactor(ctx context.Context, userID, storedSecret, code string) (bool, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return false, nil
	}

	secret, err := s.box.Open(storedSecret)
	if err != nil {
		logger.From(ctx).Error("mfa secret unreadable", logger.UserID(userID), logger.Err(err))
		return false, fmt.Errorf("open mfa secret: %w", err)
	}
	if s.totp.Verify(code, secret) {
		return true, nil
	}

	code = backupcode.Normalize(code)
	if !backupcode.LooksLikeBackupCode(code) {
		return false, nil
	}
	consumed, err := s.repo.ConsumeBackupCode(ctx, userID, hashBackupCode(code))
	if err != nil {
		return false, fmt.Errorf("consume backup code: %w", err)
	}
	if consumed {
		audit.Log(ctx, audit.EventBackupCodeUsed, logger.UserID(userID))
	}
	return consumed, nil
}

func (s *mfaService) Disable(ctx context.Context, userID string) error {
	if err := s.repo.Disable(ctx, userID); err != nil {
		return fmt.Errorf("disable mfa: %w", err)
	}
	audit.Log(ctx, audit.EventMFADisabled, logger.UserID(userID))
	return nil
}

func (s *mfaService) Status(ctx context.Context, userID string) (bool, error) {
	st, err := s.repo.GetMFA(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("get mfa: %w", err)
	}
	return repository.IsMFAEnabled(st), nil
}

func hashBackupCode(code string) string {
	return token.SHA256Hex(backupcode.Normalize(code))
}
