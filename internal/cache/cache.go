// Package cache provee un key/value con TTL para estado efímero: desafíos MFA
// pendientes, state de OAuth y tokens de verificación/reset.
//
// Soporta:
//   - Memory (in-process, patrickmn/go-cache) para desarrollo y tests
//   - Redis (compartido entre instancias) para producción
package cache

import (
	"context"
	"errors"
	"time"
)

// Client define las operaciones de cache.
type Client interface {
	// Get obtiene un valor. Retorna ErrNotFound si no existe o expiró.
	Get(ctx context.Context, key string) (string, error)

	// Set guarda un valor. ttl 0 = sin expiración.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Take obtiene y elimina el valor en una sola operación atómica.
	// Dos llamadas concurrentes sobre la misma key: solo una recibe el valor.
	Take(ctx context.Context, key string) (string, error)

	Delete(ctx context.Context, key string) error

	Ping(ctx context.Context) error

	Close() error
}

// ErrNotFound: la key no existe o expiró.
var ErrNotFound = errors.New("cache: key not found")

// IsNotFound verifica si el error es porque la key no existe.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
