// Package health contiene el service para health checks.
package health

import (
	"context"
	"time"

	dto "github.com/dropDatabas3/prova/internal/http/dto/health"
	jwtx "github.com/dropDatabas3/prova/internal/jwt"
	"github.com/dropDatabas3/prova/internal/observability/logger"
)

// HealthService define las operaciones de health check.
type HealthService interface {
	Check(ctx context.Context) dto.HealthResponse
}

// Deps contiene las dependencias inyectables para el health service.
// Un check nil se reporta como "disabled".
type Deps struct {
	Version    string
	Issuer     *jwtx.Issuer
	StoreCheck func(ctx context.Context) error
	CacheCheck func(ctx context.Context) error
	Timeout    time.Duration
}

type healthService struct {
	deps Deps
}

// NewHealthService crea un nuevo service de health check.
func NewHealthService(deps Deps) HealthService {
	if deps.Timeout <= 0 {
		deps.Timeout = 2 * time.Second
	}
	return &healthService{deps: deps}
}

func (s *healthService) Check(ctx context.Context) dto.HealthResponse {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("health"), logger.Op("Check"))

	resp := dto.HealthResponse{
		Status:     "ready",
		Components: make(map[string]dto.HealthStatus),
		Version:    s.deps.Version,
		Timestamp:  time.Now().UTC(),
	}
	if s.deps.Issuer != nil && s.deps.Issuer.Keys != nil {
		resp.ActiveKeyID = s.deps.Issuer.Keys.KID
	}

	for name, check := range map[string]func(context.Context) error{
		"store": s.deps.StoreCheck,
		"cache": s.deps.CacheCheck,
	} {
		if check == nil {
			resp.Components[name] = dto.HealthStatus{Status: "disabled"}
			continue
		}
		cctx, cancel := context.WithTimeout(ctx, s.deps.Timeout)
		err := check(cctx)
		cancel()
		if err != nil {
			log.Error("health component unavailable", logger.String("component", name), logger.Err(err))
			resp.Components[name] = dto.HealthStatus{Status: "error", Message: "unavailable"}
			resp.Status = "unavailable"
			continue
		}
		resp.Components[name] = dto.HealthStatus{Status: "ok"}
	}
	return resp
}
