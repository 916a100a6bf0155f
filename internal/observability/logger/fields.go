package logger

import (
	"strings"
	"time"

	"go.uber.org/zap"
)

// ===== CAMPOS ESTÁNDAR - HTTP =====

func RequestID(v string) zap.Field       { return zap.String("request_id", v) }
func Method(v string) zap.Field          { return zap.String("method", v) }
func Path(v string) zap.Field            { return zap.String("path", v) }
func Status(v int) zap.Field             { return zap.Int("status", v) }
func Duration(v time.Duration) zap.Field { return zap.Duration("duration", v) }
func ClientIP(v string) zap.Field        { return zap.String("client_ip", v) }
func UserAgent(v string) zap.Field       { return zap.String("user_agent", v) }

// ===== CAMPOS ESTÁNDAR - NEGOCIO =====

func UserID(v string) zap.Field   { return zap.String("user_id", v) }
func Provider(v string) zap.Field { return zap.String("provider", v) }
func Step(v string) zap.Field     { return zap.String("step", v) }
func Outcome(v string) zap.Field  { return zap.String("outcome", v) }

// Email loguea el email enmascarado (j***@example.com). Nunca loguear el email
// completo: es un identificador enumerable.
func Email(v string) zap.Field { return zap.String("email", MaskEmail(v)) }

// MaskEmail deja el primer caracter del local-part y el dominio.
func MaskEmail(v string) string {
	at := strings.LastIndex(v, "@")
	if at <= 0 {
		if v == "" {
			return ""
		}
		return "***"
	}
	return v[:1] + "***" + v[at:]
}

// ===== CAMPOS ESTÁNDAR - ARQUITECTURA =====

// Component: "mfa", "signin", "throttle", "bootstrap".
func Component(v string) zap.Field { return zap.String("component", v) }

// Op: operación en formato "dominio.accion" (ej "mfa.enable").
func Op(v string) zap.Field { return zap.String("op", v) }

// Layer: "controller", "service", "repository", "middleware".
func Layer(v string) zap.Field { return zap.String("layer", v) }

// ===== HELPERS =====

func Err(err error) zap.Field           { return zap.Error(err) }
func Count(v int) zap.Field             { return zap.Int("count", v) }
func String(key, v string) zap.Field    { return zap.String(key, v) }
func Int(key string, v int) zap.Field   { return zap.Int(key, v) }
func Bool(key string, v bool) zap.Field { return zap.Bool(key, v) }
func Any(key string, v any) zap.Field   { return zap.Any(key, v) }
