package authapi

import "testing"

func TestLoadConfigFromEnv_Defaults(t *testing.T) {
	t.Setenv("VAULT_API_TRUST_PROXY", "")
	t.Setenv("VAULT_API_MAX_BODY_BYTES", "")

	cfg := LoadConfigFromEnv()
	if cfg.TrustProxy {
		t.Fatalf("expected TrustProxy=false by default")
	}
	if cfg.MaxBodyBytes != 64<<10 {
		t.Fatalf("expected 64KiB default body limit, got %d", cfg.MaxBodyBytes)
	}
}

func TestLoadConfigFromEnv_InvalidFallsBack(t *testing.T) {
	t.Setenv("VAULT_API_TRUST_PROXY", "maybe")
	t.Setenv("VAULT_API_MAX_BODY_BYTES", "-5")

	cfg := LoadConfigFromEnv()
	if cfg.TrustProxy {
		t.Fatalf("invalid bool must fall back to default")
	}
	if cfg.MaxBodyBytes != 64<<10 {
		t.Fatalf("invalid size must fall back to default, got %d", cfg.MaxBodyBytes)
	}
}

func TestLoadConfigFromEnv_Overrides(t *testing.T) {
	t.Setenv("VAULT_API_TRUST_PROXY", "true")
	t.Setenv("VAULT_API_MAX_BODY_BYTES", "2048")

	cfg := LoadConfigFromEnv()
	if !cfg.TrustProxy || cfg.MaxBodyBytes != 2048 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}
