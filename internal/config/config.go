package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Load reads the .env file specified by TENANTGATE_ENV (or .env by default),
// then loads the corresponding .secret file if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("TENANTGATE_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Load main env file (ignore error if file doesn't exist)
	_ = godotenv.Load(envFile)

	// Load secret sidecar if it exists
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 8080
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

// RedisURL enables the tenant directory cache when set.
func RedisURL() string {
	return os.Getenv("REDIS_URL")
}

// TenantCacheTTL defaults to 30s.
func TenantCacheTTL() time.Duration {
	return duration("TENANT_CACHE_TTL", 30*time.Second)
}

// EncryptionKey is the 64-hex-char vault master key. Empty disables the vault.
func EncryptionKey() string {
	return strings.TrimSpace(os.Getenv("ENCRYPTION_KEY"))
}

// VaultKeyMode returns "hkdf" unless VAULT_KEY_MODE says otherwise.
// Valid values: hkdf, static
func VaultKeyMode() string {
	m := os.Getenv("VAULT_KEY_MODE")
	if m == "" {
		return "hkdf"
	}
	return m
}

func SessionSecret() string {
	return os.Getenv("SESSION_SECRET")
}

// SessionTTL defaults to 7 days.
func SessionTTL() time.Duration {
	return duration("SESSION_TTL", 7*24*time.Hour)
}

func SessionCookieName() string {
	name := os.Getenv("SESSION_COOKIE_NAME")
	if name == "" {
		return "tg_session"
	}
	return name
}

// SessionCookieDomain lets one cookie cover every subdomain, e.g.
// ".example.com". Empty scopes the cookie to the exact host.
func SessionCookieDomain() string {
	return os.Getenv("SESSION_COOKIE_DOMAIN")
}

func LoginPath() string {
	return path("LOGIN_PATH", "/login")
}

func DashboardPath() string {
	return path("DASHBOARD_PATH", "/dashboard")
}

// AdminEmails lists the operators allowed to use tenant administration.
func AdminEmails() []string {
	var out []string
	for _, e := range strings.Split(os.Getenv("ADMIN_EMAILS"), ",") {
		if e = strings.TrimSpace(e); e != "" {
			out = append(out, e)
		}
	}
	return out
}

// AppEnv defaults to "production".
func AppEnv() string {
	env := os.Getenv("APP_ENV")
	if env == "" {
		return "production"
	}
	return env
}

func IsDevelopment() bool {
	return AppEnv() == "development"
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}

func duration(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func path(key, def string) string {
	p := os.Getenv(key)
	if p == "" || !strings.HasPrefix(p, "/") {
		return def
	}
	return p
}
