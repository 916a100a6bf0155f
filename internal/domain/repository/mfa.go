package repository

import "context"

// MFAState es el estado MFA de un usuario. Es una variante cerrada:
// MFANotSetUp, MFAPending o MFAEnabled.
type MFAState interface {
	isMFAState()
}

// MFANotSetUp: no hay fila, o la fila fue deshabilitada (secreto limpio).
type MFANotSetUp struct{}

// MFAPending: setup iniciado, secreto generado, todavía sin confirmar.
type MFAPending struct {
	Secret           string
	BackupCodeHashes []string
}

// MFAEnabled: segundo factor activo.
type MFAEnabled struct {
	Secret           string
	BackupCodeHashes []string
}

func (MFANotSetUp) isMFAState() {}
func (MFAPending) isMFAState()  {}
func (MFAEnabled) isMFAState()  {}

// IsMFAEnabled es un helper para el gate de sign-in.
func IsMFAEnabled(s MFAState) bool {
	_, ok := s.(MFAEnabled)
	return ok
}

// MFARepository persiste la fila user_mfa (una por usuario).
//
// El secreto se guarda tal como lo entrega el service (puede venir cifrado).
// Los backup codes se guardan hasheados.
type MFARepository interface {
	// GetMFA nunca retorna ErrNotFound: sin fila es MFANotSetUp.
	// Una fila habilitada sin secreto retorna ErrInconsistentMFA.
	GetMFA(ctx context.Context, userID string) (MFAState, error)

	// SavePending hace upsert de secreto y backup codes con is_enabled=false,
	// pisando un setup pendiente previo. Si la fila está habilitada retorna
	// ErrConflict y no modifica nada.
	SavePending(ctx context.Context, userID, secret string, backupCodeHashes []string) error

	// Enable pasa a is_enabled=true solo si la fila está pendiente con ese mismo
	// secreto. Si no, ErrConflict.
	Enable(ctx context.Context, userID, secret string) error

	// ConsumeBackupCode elimina atómicamente un backup code si está presente.
	// Retorna true solo para el llamador que efectivamente lo removió.
	ConsumeBackupCode(ctx context.Context, userID, codeHash string) (bool, error)

	// Disable limpia secreto y backup codes. Idempotente.
	Disable(ctx context.Context, userID string) error
}
