package app

import (
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, k := range []string{"VAULT_HTTP_ADDR", "VAULT_LOG_FORMAT", "VAULT_CLEANUP_INTERVAL", "VAULT_CORS_ALLOWED_ORIGINS", "VAULT_DATABASE_URL"} {
		t.Setenv(k, "")
	}

	cfg := LoadConfig()
	if cfg.HTTPAddr != "0.0.0.0:8080" {
		t.Fatalf("HTTPAddr=%q", cfg.HTTPAddr)
	}
	if cfg.LogFormat != "json" {
		t.Fatalf("LogFormat=%q", cfg.LogFormat)
	}
	if cfg.CleanupInterval != 5*time.Minute {
		t.Fatalf("CleanupInterval=%v", cfg.CleanupInterval)
	}
	if cfg.CORSAllowedOrigins != nil {
		t.Fatalf("CORSAllowedOrigins=%v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("VAULT_LOG_FORMAT", "Pretty")
	t.Setenv("VAULT_CLEANUP_INTERVAL", "30s")
	t.Setenv("VAULT_CORS_ALLOWED_ORIGINS", " https://a.example.com, ,http://127.0.0.1:* ")
	t.Setenv("VAULT_MIGRATE_ON_START", "true")
	t.Setenv("VAULT_DB_MAX_CONNS", "-3")

	cfg := LoadConfig()
	if cfg.LogFormat != "pretty" {
		t.Fatalf("LogFormat=%q", cfg.LogFormat)
	}
	if cfg.CleanupInterval != 30*time.Second {
		t.Fatalf("CleanupInterval=%v", cfg.CleanupInterval)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "http://127.0.0.1:*" {
		t.Fatalf("CORSAllowedOrigins=%v", cfg.CORSAllowedOrigins)
	}
	if !cfg.MigrateOnStart {
		t.Fatalf("MigrateOnStart not parsed")
	}
	if cfg.DBMaxConns != 10 {
		t.Fatalf("negative DBMaxConns must fall back to default, got %d", cfg.DBMaxConns)
	}
}
