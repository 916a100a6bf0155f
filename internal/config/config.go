package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Bloque app (opcional en YAML). Si no está, queda vacío.
	App struct {
		// dev | staging | prod
		Env      string `yaml:"app_env"`
		LogLevel string `yaml:"log_level"`
		// BaseURL pública del servicio; se usa en links de email y redirects OAuth.
		BaseURL string `yaml:"base_url"`
	} `yaml:"app"`

	Server struct {
		Addr            string        `yaml:"addr"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Storage struct {
		// memory | postgres
		Driver   string `yaml:"driver"`
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxConns        int           `yaml:"max_conns"`
			MinConns        int           `yaml:"min_conns"`
			ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	Cache struct {
		// memory | redis
		Kind  string `yaml:"kind"`
		Redis struct {
			Addr     string `yaml:"addr"`
			DB       int    `yaml:"db"`
			Password string `yaml:"password"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	Identity struct {
		// local | gotrue
		Provider string `yaml:"provider"`
		GoTrue   struct {
			URL         string        `yaml:"url"`
			AnonKey     string        `yaml:"anon_key"`
			ServiceKey  string        `yaml:"service_key"`
			RedirectURL string        `yaml:"redirect_url"`
			Timeout     time.Duration `yaml:"timeout"`
		} `yaml:"gotrue"`
	} `yaml:"identity"`

	JWT struct {
		Issuer    string        `yaml:"issuer"`
		AccessTTL time.Duration `yaml:"access_ttl"`
		// SigningSeed: seed Ed25519 en base64 (32 bytes). Vacío = clave efímera (solo dev).
		SigningSeed string `yaml:"signing_seed"`
	} `yaml:"jwt"`

	MFA struct {
		Issuer       string        `yaml:"issuer"`
		Skew         uint          `yaml:"skew"`
		BackupCodes  int           `yaml:"backup_codes"`
		ChallengeTTL time.Duration `yaml:"challenge_ttl"`
		// SecretKey cifra los secretos TOTP en reposo (base64, 32 bytes).
		SecretKey string `yaml:"secret_key"`
	} `yaml:"mfa"`

	Throttle struct {
		MaxFailures int64         `yaml:"max_failures"`
		Window      time.Duration `yaml:"window"`
	} `yaml:"throttle"`

	Rate struct {
		Enabled     bool          `yaml:"enabled"`
		Window      time.Duration `yaml:"window"`
		MaxRequests int           `yaml:"max_requests"`
	} `yaml:"rate"`

	Auth struct {
		Reset struct {
			TTL time.Duration `yaml:"ttl"`
		} `yaml:"reset"`
		Verify struct {
			TTL time.Duration `yaml:"ttl"`
		} `yaml:"verify"`
		OAuthStateTTL time.Duration `yaml:"oauth_state_ttl"`
	} `yaml:"auth"`

	SMTP struct {
		Host               string `yaml:"host"`
		Port               int    `yaml:"port"`
		Username           string `yaml:"username"`
		Password           string `yaml:"password"`
		From               string `yaml:"from"`
		TLS                string `yaml:"tls"` // auto|starttls|ssl|none
		InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
	} `yaml:"smtp"`

	Security struct {
		PasswordPolicy struct {
			MinLength     int  `yaml:"min_length"`
			RequireUpper  bool `yaml:"require_upper"`
			RequireLower  bool `yaml:"require_lower"`
			RequireDigit  bool `yaml:"require_digit"`
			RequireSymbol bool `yaml:"require_symbol"`
		} `yaml:"password_policy"`
		PasswordBlacklistPath string `yaml:"password_blacklist_path"`
	} `yaml:"security"`

	Providers struct {
		Google OAuthProvider `yaml:"google"`
		GitHub OAuthProvider `yaml:"github"`
	} `yaml:"providers"`
}

type OAuthProvider struct {
	Enabled      bool     `yaml:"enabled"`
	ClientID     string   `yaml:"client_id"`
	ClientSecret string   `yaml:"client_secret"`
	RedirectURL  string   `yaml:"redirect_url"`
	Scopes       []string `yaml:"scopes"`
}

// IsProd indica app_env=prod.
func (c *Config) IsProd() bool { return strings.EqualFold(c.App.Env, "prod") }

// Load lee el YAML (si existe), aplica defaults y overrides por env, y valida.
// Un path inexistente no es error: todo puede venir del entorno.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			if err := yaml.Unmarshal(b, &c); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}

	// Overrides por env antes de los defaults: un env vacío no pisa nada.
	c.applyEnvOverrides()
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, err
	}

	// Normalizar ruta de blacklist (si relativa) respecto al directorio del YAML
	if p := strings.TrimSpace(c.Security.PasswordBlacklistPath); p != "" && path != "" {
		if !filepath.IsAbs(p) {
			c.Security.PasswordBlacklistPath = filepath.Clean(filepath.Join(filepath.Dir(path), p))
		}
	}
	return &c, nil
}

// sane defaults
func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.App.BaseURL == "" {
		c.App.BaseURL = "http://localhost:8080"
	}
	c.App.BaseURL = strings.TrimRight(c.App.BaseURL, "/")
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 15 * time.Second
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Redis.Prefix == "" {
		c.Cache.Redis.Prefix = "prova:"
	}
	if c.Identity.Provider == "" {
		c.Identity.Provider = "local"
	}
	if c.JWT.Issuer == "" {
		c.JWT.Issuer = c.App.BaseURL
	}
	if c.JWT.AccessTTL == 0 {
		c.JWT.AccessTTL = 15 * time.Minute
	}
	// MFA
	if c.MFA.Issuer == "" {
		c.MFA.Issuer = "Prova"
	}
	if c.MFA.Skew == 0 {
		c.MFA.Skew = 1
	}
	if c.MFA.BackupCodes == 0 {
		c.MFA.BackupCodes = 10
	}
	if c.MFA.ChallengeTTL == 0 {
		c.MFA.ChallengeTTL = 5 * time.Minute
	}
	if c.Throttle.MaxFailures == 0 {
		c.Throttle.MaxFailures = 5
	}
	if c.Throttle.Window == 0 {
		c.Throttle.Window = 15 * time.Minute
	}
	if c.Rate.Window == 0 {
		c.Rate.Window = time.Minute
	}
	if c.Rate.MaxRequests == 0 {
		c.Rate.MaxRequests = 30
	}
	// Email flows defaults
	if c.Auth.Reset.TTL == 0 {
		c.Auth.Reset.TTL = 60 * time.Minute
	}
	if c.Auth.Verify.TTL == 0 {
		c.Auth.Verify.TTL = 48 * time.Hour
	}
	if c.Auth.OAuthStateTTL == 0 {
		c.Auth.OAuthStateTTL = 10 * time.Minute
	}
	if c.Security.PasswordPolicy.MinLength == 0 {
		c.Security.PasswordPolicy.MinLength = 8
	}
	if c.SMTP.TLS == "" {
		c.SMTP.TLS = "auto"
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 587
	}

	// Si RedirectURL vacío ⇒ autogenerar desde base_url
	if c.Providers.Google.RedirectURL == "" {
		c.Providers.Google.RedirectURL = c.App.BaseURL + "/auth/oauth/google/callback"
	}
	if c.Providers.GitHub.RedirectURL == "" {
		c.Providers.GitHub.RedirectURL = c.App.BaseURL + "/auth/oauth/github/callback"
	}
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}
func getEnvDur(key string) (time.Duration, bool) {
	if s, ok := getEnvStr(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil {
			return d, true
		}
	}
	return 0, false
}
func getEnvCSV(key string) ([]string, bool) {
	if s, ok := getEnvStr(key); ok {
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				out = append(out, p)
			}
		}
		return out, true
	}
	return nil, false
}

// applyEnvOverrides: pisa config.yaml con variables de entorno.
func (c *Config) applyEnvOverrides() {
	// APP
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(strings.TrimSpace(v))
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.App.LogLevel = v
	}
	if v, ok := getEnvStr("BASE_URL"); ok {
		c.App.BaseURL = v
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvDur("SERVER_SHUTDOWN_TIMEOUT"); ok {
		c.Server.ShutdownTimeout = v
	}

	// STORAGE
	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = strings.ToLower(v)
	}
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	} else if v, ok := getEnvStr("DATABASE_URL"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvInt("POSTGRES_MAX_CONNS"); ok {
		c.Storage.Postgres.MaxConns = v
	}
	if v, ok := getEnvInt("POSTGRES_MIN_CONNS"); ok {
		c.Storage.Postgres.MinConns = v
	}
	if v, ok := getEnvDur("POSTGRES_CONN_MAX_LIFETIME"); ok {
		c.Storage.Postgres.ConnMaxLifetime = v
	}

	// CACHE
	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = strings.ToLower(v)
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Cache.Redis.Password = v
	}
	if v, ok := getEnvStr("REDIS_PREFIX"); ok {
		c.Cache.Redis.Prefix = v
	}

	// IDENTITY
	if v, ok := getEnvStr("IDENTITY_PROVIDER"); ok {
		c.Identity.Provider = strings.ToLower(v)
	}
	if v, ok := getEnvStr("GOTRUE_URL"); ok {
		c.Identity.GoTrue.URL = v
	}
	if v, ok := getEnvStr("GOTRUE_ANON_KEY"); ok {
		c.Identity.GoTrue.AnonKey = v
	}
	if v, ok := getEnvStr("GOTRUE_SERVICE_KEY"); ok {
		c.Identity.GoTrue.ServiceKey = v
	}
	if v, ok := getEnvStr("GOTRUE_REDIRECT_URL"); ok {
		c.Identity.GoTrue.RedirectURL = v
	}
	if v, ok := getEnvDur("GOTRUE_TIMEOUT"); ok {
		c.Identity.GoTrue.Timeout = v
	}

	// JWT
	if v, ok := getEnvStr("JWT_ISSUER"); ok {
		c.JWT.Issuer = v
	}
	if v, ok := getEnvDur("JWT_ACCESS_TTL"); ok {
		c.JWT.AccessTTL = v
	}
	if v, ok := getEnvStr("JWT_SIGNING_SEED"); ok {
		c.JWT.SigningSeed = strings.TrimSpace(v)
	}

	// MFA
	if v, ok := getEnvStr("MFA_ISSUER"); ok {
		c.MFA.Issuer = v
	}
	if v, ok := getEnvInt("MFA_SKEW"); ok && v >= 0 {
		c.MFA.Skew = uint(v)
	}
	if v, ok := getEnvInt("MFA_BACKUP_CODES"); ok {
		c.MFA.BackupCodes = v
	}
	if v, ok := getEnvDur("MFA_CHALLENGE_TTL"); ok {
		c.MFA.ChallengeTTL = v
	}
	if v, ok := getEnvStr("MFA_SECRET_KEY"); ok {
		c.MFA.SecretKey = strings.TrimSpace(v)
	}

	// THROTTLE
	if v, ok := getEnvInt("THROTTLE_MAX_FAILURES"); ok {
		c.Throttle.MaxFailures = int64(v)
	}
	if v, ok := getEnvDur("THROTTLE_WINDOW"); ok {
		c.Throttle.Window = v
	}

	// RATE
	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvDur("RATE_WINDOW"); ok {
		c.Rate.Window = v
	}
	if v, ok := getEnvInt("RATE_MAX_REQUESTS"); ok {
		c.Rate.MaxRequests = v
	}

	// AUTH
	if v, ok := getEnvDur("AUTH_RESET_TTL"); ok {
		c.Auth.Reset.TTL = v
	}
	if v, ok := getEnvDur("AUTH_VERIFY_TTL"); ok {
		c.Auth.Verify.TTL = v
	}
	if v, ok := getEnvDur("AUTH_OAUTH_STATE_TTL"); ok {
		c.Auth.OAuthStateTTL = v
	}

	// SMTP
	if v, ok := getEnvStr("SMTP_HOST"); ok {
		c.SMTP.Host = v
	}
	if v, ok := getEnvInt("SMTP_PORT"); ok {
		c.SMTP.Port = v
	}
	if v, ok := getEnvStr("SMTP_USERNAME"); ok {
		c.SMTP.Username = v
	}
	if v, ok := getEnvStr("SMTP_PASSWORD"); ok {
		c.SMTP.Password = v
	}
	if v, ok := getEnvStr("SMTP_FROM"); ok {
		c.SMTP.From = v
	}
	if v, ok := getEnvStr("SMTP_TLS"); ok {
		c.SMTP.TLS = strings.ToLower(v)
	}
	if v, ok := getEnvBool("SMTP_INSECURE_SKIP_VERIFY"); ok {
		c.SMTP.InsecureSkipVerify = v
	}

	// SECURITY
	if v, ok := getEnvInt("SECURITY_PASSWORD_POLICY_MIN_LENGTH"); ok {
		c.Security.PasswordPolicy.MinLength = v
	}
	if v, ok := getEnvBool("SECURITY_PASSWORD_POLICY_REQUIRE_UPPER"); ok {
		c.Security.PasswordPolicy.RequireUpper = v
	}
	if v, ok := getEnvBool("SECURITY_PASSWORD_POLICY_REQUIRE_LOWER"); ok {
		c.Security.PasswordPolicy.RequireLower = v
	}
	if v, ok := getEnvBool("SECURITY_PASSWORD_POLICY_REQUIRE_DIGIT"); ok {
		c.Security.PasswordPolicy.RequireDigit = v
	}
	if v, ok := getEnvBool("SECURITY_PASSWORD_POLICY_REQUIRE_SYMBOL"); ok {
		c.Security.PasswordPolicy.RequireSymbol = v
	}
	if v, ok := getEnvStr("SECURITY_PASSWORD_BLACKLIST_PATH"); ok {
		c.Security.PasswordBlacklistPath = strings.TrimSpace(v)
	}

	// ───── Providers (OAuth) ─────
	overrideProvider(&c.Providers.Google, "GOOGLE")
	overrideProvider(&c.Providers.GitHub, "GITHUB")
}

func overrideProvider(p *OAuthProvider, prefix string) {
	if v, ok := getEnvBool(prefix + "_ENABLED"); ok {
		p.Enabled = v
	}
	if v, ok := getEnvStr(prefix + "_CLIENT_ID"); ok {
		p.ClientID = v
	}
	if v, ok := getEnvStr(prefix + "_CLIENT_SECRET"); ok {
		p.ClientSecret = v
	}
	if v, ok := getEnvStr(prefix + "_REDIRECT_URL"); ok {
		p.RedirectURL = v
	}
	if v, ok := getEnvCSV(prefix + "_SCOPES"); ok && len(v) > 0 {
		p.Scopes = v
	}
}

// Validate revisa combinaciones inválidas. En prod las claves efímeras no se aceptan.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "memory":
	case "postgres":
		if strings.TrimSpace(c.Storage.DSN) == "" {
			return errors.New("config: storage.dsn is required for driver=postgres")
		}
	default:
		return fmt.Errorf("config: unknown storage.driver %q", c.Storage.Driver)
	}

	switch c.Cache.Kind {
	case "memory":
	case "redis":
		if strings.TrimSpace(c.Cache.Redis.Addr) == "" {
			return errors.New("config: cache.redis.addr is required for kind=redis")
		}
	default:
		return fmt.Errorf("config: unknown cache.kind %q", c.Cache.Kind)
	}

	switch c.Identity.Provider {
	case "local":
	case "gotrue":
		if c.Identity.GoTrue.URL == "" || c.Identity.GoTrue.ServiceKey == "" {
			return errors.New("config: identity.gotrue.url and service_key are required for provider=gotrue")
		}
	default:
		return fmt.Errorf("config: unknown identity.provider %q", c.Identity.Provider)
	}

	if c.MFA.Skew > 3 {
		return fmt.Errorf("config: mfa.skew %d too large (max 3)", c.MFA.Skew)
	}
	if c.MFA.BackupCodes < 0 || c.Throttle.MaxFailures < 0 || c.Rate.MaxRequests < 0 {
		return errors.New("config: negative counts are not allowed")
	}

	for name, p := range map[string]OAuthProvider{"google": c.Providers.Google, "github": c.Providers.GitHub} {
		if p.Enabled && (p.ClientID == "" || p.ClientSecret == "") {
			return fmt.Errorf("config: providers.%s enabled without client_id/client_secret", name)
		}
	}

	if c.IsProd() {
		if c.JWT.SigningSeed == "" {
			return errors.New("config: jwt.signing_seed is required in prod")
		}
		if c.MFA.SecretKey == "" {
			return errors.New("config: mfa.secret_key is required in prod")
		}
	}
	return nil
}
