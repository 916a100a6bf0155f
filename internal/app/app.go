// Package app arma la infraestructura (store, cache, throttle, claves) a
// partir de la config. Lo comparten cmd/service y cmd/provactl.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	rdb "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/dropDatabas3/prova/internal/cache"
	"github.com/dropDatabas3/prova/internal/config"
	"github.com/dropDatabas3/prova/internal/domain/repository"
	jwtx "github.com/dropDatabas3/prova/internal/jwt"
	"github.com/dropDatabas3/prova/internal/observability/logger"
	"github.com/dropDatabas3/prova/internal/rate"
	"github.com/dropDatabas3/prova/internal/store/memory"
	"github.com/dropDatabas3/prova/internal/store/pg"
)

// Store es lo que ofrecen memory.Store y pg.Store.
type Store interface {
	MFA() repository.MFARepository
	Bootstrap() repository.BootstrapRepository
	OAuthAccounts() repository.OAuthAccountRepository
	Users() repository.UserRepository
	Ping(ctx context.Context) error
	Close()
}

type Container struct {
	Config   *config.Config
	Store    Store
	Cache    cache.Client
	Redis    *rdb.Client // nil con cache.kind=memory
	Throttle rate.Throttle
	Limiter  rate.Limiter // nil con rate.enabled=false
	Keys     *jwtx.KeySet
	Issuer   *jwtx.Issuer
}

// Open conecta store y cache según cfg. Ante error cierra lo que ya abrió.
func Open(ctx context.Context, cfg *config.Config) (*Container, error) {
	c := &Container{Config: cfg}
	ok := false
	defer func() {
		if !ok {
			c.Close()
		}
	}()

	switch cfg.Storage.Driver {
	case "postgres":
		st, err := pg.New(ctx, cfg.Storage.DSN, pg.Options{
			MaxConns:        int32(cfg.Storage.Postgres.MaxConns),
			MinConns:        int32(cfg.Storage.Postgres.MinConns),
			ConnMaxLifetime: cfg.Storage.Postgres.ConnMaxLifetime,
		})
		if err != nil {
			return nil, err
		}
		c.Store = st
	default:
		logger.L().Warn("using in-memory store; data is lost on restart", logger.Component("app"))
		c.Store = memory.New()
	}

	switch cfg.Cache.Kind {
	case "redis":
		c.Redis = rdb.NewClient(&rdb.Options{
			Addr:     cfg.Cache.Redis.Addr,
			DB:       cfg.Cache.Redis.DB,
			Password: cfg.Cache.Redis.Password,
		})
		if err := c.Redis.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		prefix := cfg.Cache.Redis.Prefix
		c.Cache = cache.NewRedis(c.Redis, prefix)
		c.Throttle = rate.NewRedisThrottle(c.Redis, prefix, throttlePolicy(cfg))
		if cfg.Rate.Enabled {
			c.Limiter = rate.NewRedisLimiter(c.Redis, prefix+"rl:", cfg.Rate.MaxRequests, cfg.Rate.Window)
		}
	default:
		c.Cache = cache.NewMemory("prova")
		c.Throttle = rate.NewMemoryThrottle(throttlePolicy(cfg), nil)
		if cfg.Rate.Enabled {
			c.Limiter = rate.NewMemoryLimiter(cfg.Rate.MaxRequests, cfg.Rate.Window)
		}
	}

	keys, err := loadKeys(cfg)
	if err != nil {
		return nil, err
	}
	c.Keys = keys
	c.Issuer = jwtx.NewIssuer(cfg.JWT.Issuer, keys, cfg.JWT.AccessTTL)

	ok = true
	return c, nil
}

func throttlePolicy(cfg *config.Config) rate.Policy {
	return rate.Policy{MaxFailures: cfg.Throttle.MaxFailures, Window: cfg.Throttle.Window}
}

func loadKeys(cfg *config.Config) (*jwtx.KeySet, error) {
	if cfg.JWT.SigningSeed != "" {
		return jwtx.KeySetFromSeed(cfg.JWT.SigningSeed)
	}
	ks, err := jwtx.NewDevEd25519()
	if err != nil {
		return nil, err
	}
	logger.L().Warn("jwt.signing_seed not set: using an ephemeral signing key",
		logger.Component("app"), zap.String("kid", ks.KID))
	return ks, nil
}

// Pool devuelve el pool pgx si el store es Postgres.
func (c *Container) Pool() *pgxpool.Pool {
	if st, ok := c.Store.(*pg.Store); ok {
		return st.Pool()
	}
	return nil
}

func (c *Container) Close() {
	if c.Store != nil {
		c.Store.Close()
	}
	if c.Cache != nil {
		_ = c.Cache.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}
