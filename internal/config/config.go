package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT
	JWTSecret string
	JWTExpiry time.Duration

	// Admin
	AdminEmails string

	// Server
	Port        string
	CORSOrigins string
	RateLimit   int
	AuthLimit   int

	// Feed engine
	Store         string
	TrendingTTL   time.Duration
	FollowRetries int

	// Observability
	LogRetentionDays int
	SentryDSN        string
	AppEnv           string

	MigrateOnly bool
}

func Load() *Config {
	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "civix"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTExpiry: parseDuration(getEnv("JWT_EXPIRY", "720h"), 720*time.Hour),

		AdminEmails: getEnv("ADMIN_EMAILS", ""),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
		RateLimit:   parseInt(getEnv("RATE_LIMIT", "120"), 120),
		AuthLimit:   parseInt(getEnv("AUTH_RATE_LIMIT", "10"), 10),

		Store:         getEnv("STORE", StorePostgres),
		TrendingTTL:   parseDuration(getEnv("TRENDING_TTL", "1m"), time.Minute),
		FollowRetries: parseInt(getEnv("FOLLOW_RETRIES", "3"), 3),

		LogRetentionDays: parseInt(getEnv("LOG_RETENTION_DAYS", "30"), 30),
		SentryDSN:        getEnv("SENTRY_DSN", ""),
		AppEnv:           getEnv("APP_ENV", "development"),
	}
}

// BindFlags registers command-line overrides on fs. Flag defaults are the
// values already loaded from the environment.
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.Port, "port", "p", c.Port, "HTTP listen port")
	fs.StringVar(&c.Store, "store", c.Store, "backing store: postgres or memory")
	fs.BoolVar(&c.MigrateOnly, "migrate-only", false, "apply database migrations and exit")
	fs.DurationVar(&c.TrendingTTL, "trending-ttl", c.TrendingTTL, "trending tag cache lifetime (0 disables caching)")
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET environment variable is required")
	}
	switch c.Store {
	case StorePostgres:
		if c.DBPassword == "" {
			return errors.New("DB_PASSWORD environment variable is required")
		}
	case StoreMemory:
		if c.MigrateOnly {
			return errors.New("--migrate-only requires the postgres store")
		}
	default:
		return errors.New("store must be postgres or memory")
	}
	return nil
}

func (c *Config) AdminEmailList() []string {
	if c.AdminEmails == "" {
		return nil
	}
	parts := strings.Split(c.AdminEmails, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.ToLower(strings.TrimSpace(p)); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}
