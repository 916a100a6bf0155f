package rate

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	rdb "github.com/redis/go-redis/v9"
)

// Throttle cuenta intentos de login fallidos por email.
//
// Política: con MaxFailures fallos, el email queda bloqueado hasta que pasen
// más de Window desde el último intento fallido. Un login exitoso hace Reset.
type Throttle interface {
	// Check retorna false si el email está bloqueado.
	Check(ctx context.Context, email string) (bool, error)
	RecordFailure(ctx context.Context, email string) error
	Reset(ctx context.Context, email string) error
	// Inspect expone el estado actual (provactl).
	Inspect(ctx context.Context, email string) (Attempts, error)
}

// Attempts es el estado de un email.
type Attempts struct {
	Count int64
	// Expires es cuánto falta para que el contador se limpie solo.
	Expires time.Duration
}

type Policy struct {
	MaxFailures int64
	Window      time.Duration
}

// DefaultPolicy: 5 intentos, 15 minutos.
var DefaultPolicy = Policy{MaxFailures: 5, Window: 15 * time.Minute}

func (p Policy) normalized() Policy {
	if p.MaxFailures <= 0 {
		p.MaxFailures = DefaultPolicy.MaxFailures
	}
	if p.Window <= 0 {
		p.Window = DefaultPolicy.Window
	}
	return p
}

// ThrottleKey normaliza el email para que "A@x.com " y "a@x.com" compartan contador.
func ThrottleKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ─── Memory ───

type attempt struct {
	count int64
	last  time.Time
}

// MemoryThrottle guarda el contador en el proceso. En un deploy con varias
// instancias subcuenta intentos; usar RedisThrottle.
type MemoryThrottle struct {
	policy Policy
	now    func() time.Time

	mu sync.Mutex
	c  *gocache.Cache
}

func NewMemoryThrottle(p Policy, now func() time.Time) *MemoryThrottle {
	p = p.normalized()
	if now == nil {
		now = time.Now
	}
	return &MemoryThrottle{policy: p, now: now, c: gocache.New(p.Window, time.Minute)}
}

// load retorna la entrada vigente; una vencida se borra. Requiere mu.
func (t *MemoryThrottle) load(key string) (attempt, bool) {
	v, ok := t.c.Get(key)
	if !ok {
		return attempt{}, false
	}
	a := v.(attempt)
	if t.now().Sub(a.last) > t.policy.Window {
		t.c.Delete(key)
		return attempt{}, false
	}
	return a, true
}

func (t *MemoryThrottle) Check(_ context.Context, email string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	a, ok := t.load(ThrottleKey(email))
	if !ok {
		return true, nil
	}
	return a.count < t.policy.MaxFailures, nil
}

func (t *MemoryThrottle) RecordFailure(_ context.Context, email string) error {
	key := ThrottleKey(email)
	t.mu.Lock()
	defer t.mu.Unlock()
	a, _ := t.load(key)
	a.count++
	a.last = t.now()
	// el TTL de go-cache es solo limpieza; la ventana se evalúa con t.now
	t.c.Set(key, a, t.policy.Window)
	return nil
}

func (t *MemoryThrottle) Reset(_ context.Context, email string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.c.Delete(ThrottleKey(email))
	return nil
}

func (t *MemoryThrottle) Inspect(_ context.Context, email string) (Attempts, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	a, ok := t.load(ThrottleKey(email))
	if !ok {
		return Attempts{}, nil
	}
	return Attempts{Count: a.count, Expires: t.policy.Window - t.now().Sub(a.last)}, nil
}

// ─── Redis ───

// RedisThrottle: INCR + PEXPIRE en la misma transacción. Cada fallo renueva
// el TTL, así la key vence Window después del último intento. El TTL lleva 1ms
// extra: a Window exacto del último fallo sigue bloqueado, igual que en memoria.
type RedisThrottle struct {
	client *rdb.Client
	prefix string
	policy Policy
}

func NewRedisThrottle(client *rdb.Client, prefix string, p Policy) *RedisThrottle {
	return &RedisThrottle{client: client, prefix: prefix + "login:", policy: p.normalized()}
}

func (t *RedisThrottle) key(email string) string { return t.prefix + ThrottleKey(email) }

func (t *RedisThrottle) Check(ctx context.Context, email string) (bool, error) {
	n, err := t.client.Get(ctx, t.key(email)).Int64()
	if errors.Is(err, rdb.Nil) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return n < t.policy.MaxFailures, nil
}

func (t *RedisThrottle) RecordFailure(ctx context.Context, email string) error {
	k := t.key(email)
	pipe := t.client.TxPipeline()
	pipe.Incr(ctx, k)
	pipe.PExpire(ctx, k, t.policy.Window+time.Millisecond)
	_, err := pipe.Exec(ctx)
	return err
}

func (t *RedisThrottle) Reset(ctx context.Context, email string) error {
	return t.client.Del(ctx, t.key(email)).Err()
}

func (t *RedisThrottle) Inspect(ctx context.Context, email string) (Attempts, error) {
	k := t.key(email)
	pipe := t.client.TxPipeline()
	get := pipe.Get(ctx, k)
	ttl := pipe.PTTL(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, rdb.Nil) {
		return Attempts{}, err
	}
	n, err := get.Int64()
	if errors.Is(err, rdb.Nil) {
		return Attempts{}, nil
	}
	if err != nil {
		return Attempts{}, err
	}
	return Attempts{Count: n, Expires: ttl.Val()}, nil
}
