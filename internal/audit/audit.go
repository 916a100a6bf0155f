// Package audit registra eventos de seguridad (MFA, vinculación OAuth,
// acciones de soporte) en un logger dedicado.
package audit

import (
	"context"

	"go.uber.org/zap"

	"github.com/dropDatabas3/prova/internal/observability/logger"
)

// Eventos conocidos.
const (
	EventMFAEnabled       = "mfa.enabled"
	EventMFADisabled      = "mfa.disabled"
	EventBackupCodeUsed   = "mfa.backup_code_used"
	EventOAuthLinked      = "oauth.account_linked"
	EventThrottleReset    = "throttle.reset"
	EventAdminMFADisabled = "admin.mfa_disabled"
)

// Log escribe un evento de auditoría con el logger del contexto (hereda request_id).
func Log(ctx context.Context, event string, fields ...zap.Field) {
	fields = append(fields, zap.String("event", event))
	logger.From(ctx).Named("audit").Info("audit event", fields...)
}
