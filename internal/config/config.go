package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"go-video-backend/internal/media"
	"go-video-backend/internal/password"
	"go-video-backend/internal/token"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"

	LogFormatPretty = "pretty"
	LogFormatJSON   = "json"
)

type Config struct {
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServerIdleTimeout  time.Duration
	RequestTimeout     time.Duration
	CORSOrigins        []string
	RateLimitRPM       int
	AuthRateLimitRPM   int

	AccessTokenSecret  string
	AccessTokenExpiry  time.Duration
	RefreshTokenSecret string
	RefreshTokenExpiry time.Duration

	StoreDriver string
	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	RedisURL           string
	LoginMaxAttempts   int
	LoginLockoutWindow time.Duration

	PasswordHashAlgorithm  string
	CookieSecure           bool
	CookieSameSite         http.SameSite
	RevokeOnPasswordChange bool

	S3 media.S3Config
	// MediaDir enables the local disk uploader when no bucket is configured.
	MediaDir       string
	MediaPublicURL string

	LogLevel  string
	LogFormat string
}

// Load reads .env (when present) and the process environment. Token
// secrets and expiries have no defaults: a missing or unparsable value is
// a startup error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var errs []error
	required := func(key string) string {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			errs = append(errs, fmt.Errorf("%s is required", key))
		}
		return v
	}
	requiredExpiry := func(key string) time.Duration {
		raw := required(key)
		if raw == "" {
			return 0
		}
		d, err := parseExpiry(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
		return d
	}

	cfg := &Config{
		ServerPort:         getEnv("SERVER_PORT", "8000"),
		ServerReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 15*time.Second),
		ServerWriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
		ServerIdleTimeout:  getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		RequestTimeout:     getDuration("REQUEST_TIMEOUT", 30*time.Second),
		CORSOrigins:        splitCSV(getEnv("CORS_ORIGINS", "*")),
		RateLimitRPM:       getInt("RATE_LIMIT_RPM", 100),
		AuthRateLimitRPM:   getInt("AUTH_RATE_LIMIT_RPM", 10),

		AccessTokenSecret:  required("ACCESS_TOKEN_SECRET"),
		AccessTokenExpiry:  requiredExpiry("ACCESS_TOKEN_EXPIRY"),
		RefreshTokenSecret: required("REFRESH_TOKEN_SECRET"),
		RefreshTokenExpiry: requiredExpiry("REFRESH_TOKEN_EXPIRY"),

		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres)),
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DBMaxConns:  int32(getInt("DB_MAX_CONNS", 10)),
		DBMinConns:  int32(getInt("DB_MIN_CONNS", 2)),

		RedisURL:           strings.TrimSpace(os.Getenv("REDIS_URL")),
		LoginMaxAttempts:   getInt("LOGIN_MAX_ATTEMPTS", 5),
		LoginLockoutWindow: getDuration("LOGIN_LOCKOUT_WINDOW", 15*time.Minute),

		PasswordHashAlgorithm:  strings.ToLower(getEnv("PASSWORD_HASH_ALGORITHM", password.AlgorithmBcrypt)),
		CookieSecure:           getBool("COOKIE_SECURE", true),
		CookieSameSite:         parseSameSite(getEnv("COOKIE_SAMESITE", "lax")),
		RevokeOnPasswordChange: getBool("AUTH_REVOKE_ON_PASSWORD_CHANGE", false),

		S3: media.S3Config{
			Endpoint:  strings.TrimSpace(os.Getenv("S3_ENDPOINT")),
			Region:    getEnv("S3_REGION", "us-east-1"),
			AccessKey: strings.TrimSpace(os.Getenv("S3_ACCESS_KEY")),
			SecretKey: strings.TrimSpace(os.Getenv("S3_SECRET_KEY")),
			Bucket:    strings.TrimSpace(os.Getenv("S3_BUCKET")),
			PublicURL: strings.TrimSpace(os.Getenv("S3_PUBLIC_URL")),
		},
		MediaDir:       strings.TrimSpace(os.Getenv("MEDIA_DIR")),
		MediaPublicURL: getEnv("MEDIA_PUBLIC_URL", "/media"),

		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", LogFormatPretty)),
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	if err := c.TokenConfig().Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.ServerPort == "" {
		errs = append(errs, errors.New("SERVER_PORT cannot be empty"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("REQUEST_TIMEOUT must be positive"))
	}

	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when STORE_DRIVER=postgres"))
		}
	case StoreDriverMemory:
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be %q or %q", StoreDriverPostgres, StoreDriverMemory))
	}

	switch c.PasswordHashAlgorithm {
	case password.AlgorithmBcrypt, password.AlgorithmArgon2id:
	default:
		errs = append(errs, fmt.Errorf("PASSWORD_HASH_ALGORITHM %q is not supported", c.PasswordHashAlgorithm))
	}

	switch c.LogFormat {
	case LogFormatPretty, LogFormatJSON:
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be %q or %q", LogFormatPretty, LogFormatJSON))
	}

	if c.LoginMaxAttempts <= 0 {
		errs = append(errs, errors.New("LOGIN_MAX_ATTEMPTS must be positive"))
	}
	if c.LoginLockoutWindow <= 0 {
		errs = append(errs, errors.New("LOGIN_LOCKOUT_WINDOW must be positive"))
	}

	return errors.Join(errs...)
}

// TokenConfig is the explicit configuration handed to the token manager.
func (c *Config) TokenConfig() token.Config {
	return token.Config{
		AccessSecret:  c.AccessTokenSecret,
		AccessTTL:     c.AccessTokenExpiry,
		RefreshSecret: c.RefreshTokenSecret,
		RefreshTTL:    c.RefreshTokenExpiry,
	}
}

// parseExpiry accepts Go durations ("15m", "36h") and whole days ("10d").
func parseExpiry(raw string) (time.Duration, error) {
	if days, ok := strings.CutSuffix(raw, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid expiry %q", raw)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid expiry %q", raw)
	}
	return d, nil
}

func parseSameSite(raw string) http.SameSite {
	switch strings.ToLower(raw) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
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
