package session

import (
	"os"
	"time"
)

// Config defines runtime configuration for user sessions and bearer verification.
type Config struct {
	// AbsoluteTTL caps a session's lifetime regardless of activity.
	AbsoluteTTL time.Duration

	// InactivityTimeout invalidates a session that was not touched for this long.
	InactivityTimeout time.Duration

	// Issuer is the expected "iss" claim of bearer tokens.
	Issuer string

	// ClockSkew is tolerated during token validation.
	ClockSkew time.Duration

	// PasetoV4PublicKeyHex verifies bearer tokens (required).
	PasetoV4PublicKeyHex string

	// PasetoV4SecretKeyHex enables re-issuing tokens on heartbeat (optional).
	PasetoV4SecretKeyHex string

	// RenewWithin re-issues a token on heartbeat when it expires within this window.
	RenewWithin time.Duration
}

// DefaultConfig returns the session defaults without keys.
func DefaultConfig() Config {
	return Config{
		AbsoluteTTL:       12 * time.Hour,
		InactivityTimeout: 30 * time.Minute,
		Issuer:            "vault",
		ClockSkew:         30 * time.Second,
		RenewWithin:       10 * time.Minute,
	}
}

// LoadConfigFromEnv loads session configuration from environment variables.
//
// Required:
//   - VAULT_PASETO_V4_PUBLIC_KEY_HEX (derived from the secret key when only that is set)
//
// Optional (durations must be valid Go duration strings):
//   - VAULT_PASETO_V4_SECRET_KEY_HEX
//   - VAULT_AUTH_ISSUER
//   - VAULT_AUTH_CLOCK_SKEW
//   - VAULT_SESSION_ABSOLUTE_TTL
//   - VAULT_SESSION_INACTIVITY
//   - VAULT_SESSION_RENEW_WITHIN
//
// Returns ErrConfig if configuration is invalid.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := os.Getenv("VAULT_AUTH_ISSUER"); v != "" {
		cfg.Issuer = v
	}

	if v := os.Getenv("VAULT_AUTH_CLOCK_SKEW"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return Config{}, ErrConfig
		}
		cfg.ClockSkew = d
	}

	if v := os.Getenv("VAULT_SESSION_ABSOLUTE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.AbsoluteTTL = d
	}

	if v := os.Getenv("VAULT_SESSION_INACTIVITY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.InactivityTimeout = d
	}

	if v := os.Getenv("VAULT_SESSION_RENEW_WITHIN"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return Config{}, ErrConfig
		}
		cfg.RenewWithin = d
	}

	cfg.PasetoV4SecretKeyHex = os.Getenv("VAULT_PASETO_V4_SECRET_KEY_HEX")
	cfg.PasetoV4PublicKeyHex = os.Getenv("VAULT_PASETO_V4_PUBLIC_KEY_HEX")
	if cfg.PasetoV4PublicKeyHex == "" && cfg.PasetoV4SecretKeyHex == "" {
		return Config{}, ErrConfig
	}

	// An inactivity window longer than the absolute cap would never fire.
	if cfg.InactivityTimeout > cfg.AbsoluteTTL {
		return Config{}, ErrConfig
	}

	return cfg, nil
}
