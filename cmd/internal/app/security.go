package app

import (
	"errors"
	"strings"
)

// ValidateSecurityConfig enforces the server's startup security policy.
// A wildcard CORS origin is rejected when credentials are allowed.
func ValidateSecurityConfig(cfg Config) error {
	for _, o := range cfg.CORSAllowedOrigins {
		if strings.TrimSpace(o) == "*" && cfg.CORSAllowCredentials {
			return errors.New("security policy: VAULT_CORS_ALLOWED_ORIGINS=* cannot be combined with VAULT_CORS_ALLOW_CREDENTIALS=true")
		}
	}
	return nil
}
