package repository

import (
	"context"
	"time"
)

// Valores por defecto del primer login.
const (
	DefaultRole        = "free"
	UsagePeriodDaily   = "daily"
	UsagePeriodMonthly = "monthly"
	ChatSessionActive  = "active"
)

// UserProfile es la fila user_profiles.
type UserProfile struct {
	UserID    string
	Role      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ChatSession es la sesión de chat por defecto (no confundir con la sesión de auth).
type ChatSession struct {
	ID        string
	UserID    string
	Status    string
	Endpoints []string
	CreatedAt time.Time
}

// BootstrapRepository crea los registros dependientes del primer login.
// Cada Create* es insert-if-absent: si la fila ya existe no es error.
type BootstrapRepository interface {
	HasProfile(ctx context.Context, userID string) (bool, error)
	CreateProfile(ctx context.Context, userID, role string) error
	// CreateUsageCounters crea un contador en 0 por cada período.
	CreateUsageCounters(ctx context.Context, userID string, periods []string) error
	// CreateDefaultChatSession crea la sesión activa sin endpoints si el usuario no tiene ninguna.
	CreateDefaultChatSession(ctx context.Context, userID string) error
}
