package app

import (
	"strings"
	"time"

	"github.com/masterdeepak15/SecureNoteAndKeyPassVault/cmd/internal/cleanup"
)

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr  string
	LogLevel  string
	LogFormat string

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	DatabaseURL       string
	DBMaxConns        int32
	DBMinConns        int32
	DBConnectTimeout  time.Duration
	DBMaxConnLifetime time.Duration
	DBMaxConnIdleTime time.Duration

	// If true:
	// - /readyz returns 503 unless DB is configured and reachable.
	ReadinessRequireDB bool

	// MigrateOnStart applies embedded migrations before serving.
	MigrateOnStart bool

	CleanupInterval time.Duration

	CORSAllowedOrigins   []string
	CORSAllowCredentials bool
	CORSMaxAgeSeconds    int
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr:  EnvString("VAULT_HTTP_ADDR", "0.0.0.0:8080"),
		LogLevel:  EnvString("VAULT_LOG_LEVEL", "info"),
		LogFormat: strings.ToLower(EnvString("VAULT_LOG_FORMAT", "json")),

		ReadHeaderTimeout: EnvDuration("VAULT_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("VAULT_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("VAULT_HTTP_WRITE_TIMEOUT", 30*time.Second),
		IdleTimeout:       EnvDuration("VAULT_HTTP_IDLE_TIMEOUT", 60*time.Second),

		MaxHeaderBytes: EnvInt("VAULT_HTTP_MAX_HEADER_BYTES", 1<<20),

		DatabaseURL:       EnvString("VAULT_DATABASE_URL", ""),
		DBMaxConns:        EnvInt32("VAULT_DB_MAX_CONNS", 10),
		DBMinConns:        EnvInt32("VAULT_DB_MIN_CONNS", 0),
		DBConnectTimeout:  EnvDuration("VAULT_DB_CONNECT_TIMEOUT", 3*time.Second),
		DBMaxConnLifetime: EnvDuration("VAULT_DB_MAX_CONN_LIFETIME", time.Hour),
		DBMaxConnIdleTime: EnvDuration("VAULT_DB_MAX_CONN_IDLE_TIME", 30*time.Minute),

		ReadinessRequireDB: EnvBool("VAULT_READINESS_REQUIRE_DB", false),
		MigrateOnStart:     EnvBool("VAULT_MIGRATE_ON_START", false),

		CleanupInterval: EnvDuration("VAULT_CLEANUP_INTERVAL", cleanup.DefaultInterval),

		CORSAllowedOrigins:   EnvCSV("VAULT_CORS_ALLOWED_ORIGINS"),
		CORSAllowCredentials: EnvBool("VAULT_CORS_ALLOW_CREDENTIALS", false),
		CORSMaxAgeSeconds:    EnvInt("VAULT_CORS_MAX_AGE_SECONDS", 600),
	}
}
