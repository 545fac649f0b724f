package config

import (
	"fmt"
	"log/slog"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

const (
	StorePostgres = "postgres"
	StoreRedis    = "redis"
	StoreMemory   = "memory"

	minJWTKeyBytes = 32
)

// Config is loaded once at startup and never mutated afterwards. It must not
// be logged directly; LogValue omits every secret.
type Config struct {
	ServerPort              string
	ServerReadHeaderTimeout time.Duration
	ServerWriteTimeout      time.Duration
	ServerIdleTimeout       time.Duration
	RequestTimeout          time.Duration

	JWTKey      string
	JWTIssuer   string
	JWTAudience string

	CredentialStore string
	DatabaseURL     string
	DBMaxConns      int32
	DBMinConns      int32
	RedisURL        string
	RedisPrefix     string
	BcryptCost      int
	DefaultRoles    []string
	AdminUsername   string
	AdminPassword   string

	CORSOrigins      []string
	TrustedProxies   []netip.Prefix
	RateLimitRPM     int
	AuthRateLimitRPM int
	AuditEnabled     bool

	LogLevel  slog.Level
	LogFormat string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	trustedProxies, err := parseTrustedProxies(os.Getenv("TRUSTED_PROXIES"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ServerPort:              getEnv("SERVER_PORT", "8080"),
		ServerReadHeaderTimeout: getDuration("SERVER_READ_HEADER_TIMEOUT", 10*time.Second),
		ServerWriteTimeout:      getDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
		ServerIdleTimeout:       getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		RequestTimeout:          getDuration("REQUEST_TIMEOUT", 15*time.Second),
		JWTKey:                  strings.TrimSpace(os.Getenv("JWT_KEY")),
		JWTIssuer:               strings.TrimSpace(os.Getenv("JWT_ISSUER")),
		JWTAudience:             strings.TrimSpace(os.Getenv("JWT_AUDIENCE")),
		CredentialStore:         strings.ToLower(getEnv("CREDENTIAL_STORE", StorePostgres)),
		DatabaseURL:             strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DBMaxConns:              int32(getInt("DB_MAX_CONNS", 10)),
		DBMinConns:              int32(getInt("DB_MIN_CONNS", 1)),
		RedisURL:                strings.TrimSpace(os.Getenv("REDIS_URL")),
		RedisPrefix:             getEnv("REDIS_PREFIX", "auth"),
		BcryptCost:              getInt("BCRYPT_COST", 12),
		DefaultRoles:            splitCSV(getEnv("DEFAULT_ROLES", "user")),
		AdminUsername:           strings.TrimSpace(os.Getenv("ADMIN_USERNAME")),
		AdminPassword:           os.Getenv("ADMIN_PASSWORD"),
		CORSOrigins:             splitCSV(getEnv("CORS_ORIGINS", "*")),
		TrustedProxies:          trustedProxies,
		RateLimitRPM:            getInt("RATE_LIMIT_RPM", 100),
		AuthRateLimitRPM:        getInt("AUTH_RATE_LIMIT_RPM", 10),
		AuditEnabled:            getBool("AUDIT_ENABLED", true),
		LogLevel:                getLevel("LOG_LEVEL", slog.LevelInfo),
		LogFormat:               strings.ToLower(getEnv("LOG_FORMAT", "pretty")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if len(c.JWTKey) < minJWTKeyBytes {
		return fmt.Errorf("JWT_KEY must be at least %d bytes", minJWTKeyBytes)
	}

	if c.JWTIssuer == "" {
		return fmt.Errorf("JWT_ISSUER is required")
	}

	if c.JWTAudience == "" {
		return fmt.Errorf("JWT_AUDIENCE is required")
	}

	if c.ServerPort == "" {
		return fmt.Errorf("SERVER_PORT cannot be empty")
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}

	switch c.CredentialStore {
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when CREDENTIAL_STORE=postgres")
		}
		if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
			return fmt.Errorf("DB_MIN_CONNS/DB_MAX_CONNS are out of range")
		}
	case StoreRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when CREDENTIAL_STORE=redis")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("CREDENTIAL_STORE must be one of postgres, redis, memory")
	}

	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}

	if (c.AdminUsername == "") != (c.AdminPassword == "") {
		return fmt.Errorf("ADMIN_USERNAME and ADMIN_PASSWORD must be set together")
	}

	if c.LogFormat != "pretty" && c.LogFormat != "json" {
		return fmt.Errorf("LOG_FORMAT must be pretty or json")
	}

	return nil
}

// LogValue implements slog.LogValuer. Keys, passwords and connection strings
// are left out.
func (c *Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("port", c.ServerPort),
		slog.String("issuer", c.JWTIssuer),
		slog.String("audience", c.JWTAudience),
		slog.String("credential_store", c.CredentialStore),
		slog.Any("default_roles", c.DefaultRoles),
		slog.Bool("admin_seed", c.AdminUsername != ""),
		slog.Bool("audit", c.AuditEnabled),
		slog.Int("trusted_proxies", len(c.TrustedProxies)),
		slog.Int("rate_limit_rpm", c.RateLimitRPM),
		slog.Int("auth_rate_limit_rpm", c.AuthRateLimitRPM),
	)
}

// parseTrustedProxies reads a comma separated list of CIDRs or bare
// addresses. Empty means no proxy is trusted.
func parseTrustedProxies(raw string) ([]netip.Prefix, error) {
	entries := splitCSV(raw)
	prefixes := make([]netip.Prefix, 0, len(entries))
	for _, entry := range entries {
		if prefix, err := netip.ParsePrefix(entry); err == nil {
			prefixes = append(prefixes, prefix.Masked())
			continue
		}

		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("TRUSTED_PROXIES: %q is not an address or CIDR", entry)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

func getEnv(key string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}

	return v
}

func getInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getBool(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getLevel(key string, fallback slog.Level) slog.Level {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return fallback
	}

	return level
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}

	return out
}
