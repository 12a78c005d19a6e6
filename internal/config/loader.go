package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config captures environment driven configuration values for the portal service.
type Config struct {
	HTTPPort        int
	SQLiteDSN       string
	SessionSecret   string
	SessionTTL      time.Duration
	Environment     string
	CookieDomain    string
	AllowedOrigins  []string
	UploadDir       string
	MaxUploadBytes  int64
	StaticDir       string
	AdminUsername   string
	AdminPassword   string
	RequestTimeout  time.Duration
	HashConcurrency int
	LogLevel        string
}

// Production reports whether cookies must be issued for cross-site HTTPS use.
func (c Config) Production() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Load parses configuration values from the current process environment.
//
// A dotenv file named by PORTAL_DOTENV (default ".env") is loaded first when
// present; variables already set in the environment win over the file.
func Load() (Config, error) {
	dotenvPath := strings.TrimSpace(os.Getenv("PORTAL_DOTENV"))
	if dotenvPath == "" {
		dotenvPath = ".env"
	}
	if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load %s: %w", dotenvPath, err)
	}

	cfg := Config{
		HTTPPort:        8080,
		SQLiteDSN:       "portal.db",
		SessionTTL:      2 * time.Hour,
		Environment:     "development",
		AllowedOrigins:  []string{"http://localhost:3000"},
		UploadDir:       "uploads",
		MaxUploadBytes:  10 << 20,
		AdminUsername:   "admin",
		AdminPassword:   "adminpass",
		RequestTimeout:  30 * time.Second,
		HashConcurrency: 4,
		LogLevel:        "info",
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 4)

	if portValue := env("PORTAL_HTTP_PORT"); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, "PORTAL_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := env("PORTAL_SQLITE_DSN"); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if secret := env("PORTAL_SESSION_SECRET"); secret == "" {
		missing = append(missing, "PORTAL_SESSION_SECRET")
	} else {
		cfg.SessionSecret = secret
	}

	if ttlValue := env("PORTAL_SESSION_TTL"); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "PORTAL_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	if environment := env("PORTAL_ENV"); environment != "" {
		cfg.Environment = strings.ToLower(environment)
	}
	cfg.CookieDomain = env("PORTAL_COOKIE_DOMAIN")

	if origins := env("PORTAL_ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = splitList(origins)
	}

	if dir := env("PORTAL_UPLOAD_DIR"); dir != "" {
		cfg.UploadDir = dir
	}

	if sizeValue := env("PORTAL_MAX_UPLOAD_BYTES"); sizeValue != "" {
		size, err := strconv.ParseInt(sizeValue, 10, 64)
		if err != nil || size <= 0 {
			invalid = append(invalid, "PORTAL_MAX_UPLOAD_BYTES")
		} else {
			cfg.MaxUploadBytes = size
		}
	}

	cfg.StaticDir = env("PORTAL_STATIC_DIR")

	if username := env("PORTAL_ADMIN_USERNAME"); username != "" {
		cfg.AdminUsername = username
	}
	if password := env("PORTAL_ADMIN_PASSWORD"); password != "" {
		cfg.AdminPassword = password
	}

	if timeoutValue := env("PORTAL_REQUEST_TIMEOUT"); timeoutValue != "" {
		timeout, err := time.ParseDuration(timeoutValue)
		if err != nil || timeout <= 0 {
			invalid = append(invalid, "PORTAL_REQUEST_TIMEOUT")
		} else {
			cfg.RequestTimeout = timeout
		}
	}

	if concurrencyValue := env("PORTAL_HASH_CONCURRENCY"); concurrencyValue != "" {
		concurrency, err := strconv.Atoi(concurrencyValue)
		if err != nil || concurrency <= 0 {
			invalid = append(invalid, "PORTAL_HASH_CONCURRENCY")
		} else {
			cfg.HashConcurrency = concurrency
		}
	}

	if level := env("PORTAL_LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables are not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("environment variables have invalid values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
