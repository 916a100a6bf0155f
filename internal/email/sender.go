// Package email envía los correos de verificación y reset del provider local.
package email

import (
	"context"

	"go.uber.org/zap"

	"github.com/dropDatabas3/prova/internal/observability/logger"
)

// Sender envía un email con contenido HTML y texto plano.
// El destinatario recibe ambas versiones como multipart/alternative.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody, textBody string) error
}

// LogSender no envía nada: loguea el destinatario y el asunto. Para dev sin SMTP.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, to, subject, _, textBody string) error {
	logger.From(ctx).Info("email not sent (no smtp configured)",
		logger.Component("email"),
		logger.Email(to),
		zap.String("subject", subject),
		zap.Int("text_len", len(textBody)),
	)
	return nil
}
