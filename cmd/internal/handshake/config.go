package handshake

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/masterdeepak15/SecureNoteAndKeyPassVault/cmd/security/rsacrypto"
)

// Config defines runtime configuration for handshake sessions.
type Config struct {
	// TTL is the absolute lifetime of a handshake session.
	TTL time.Duration

	// KeyBits is the RSA modulus size for server key pairs.
	KeyBits int

	// WrapKey is the secret used to wrap server private keys before storage.
	WrapKey []byte

	// InitiateMax and InitiateWindow bound how many sessions a user may initiate per window.
	InitiateMax    int
	InitiateWindow time.Duration
}

// DefaultConfig returns defaults without a wrap key.
func DefaultConfig() Config {
	return Config{
		TTL:            24 * time.Hour,
		KeyBits:        rsacrypto.DefaultKeyBits,
		InitiateMax:    10,
		InitiateWindow: time.Minute,
	}
}

// LoadConfigFromEnv loads handshake configuration from environment variables.
//
// Optional:
//   - VAULT_HANDSHAKE_TTL
//   - VAULT_HANDSHAKE_KEY_BITS (2048, 3072 or 4096)
//   - VAULT_HANDSHAKE_WRAP_KEY (falls back to VAULT_STORAGE_MASTER_KEY)
//   - VAULT_HANDSHAKE_INITIATE_MAX
//   - VAULT_HANDSHAKE_INITIATE_WINDOW
//
// Returns ErrConfig if configuration is invalid or no wrap key is available.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := os.Getenv("VAULT_HANDSHAKE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.TTL = d
	}

	if v := os.Getenv("VAULT_HANDSHAKE_KEY_BITS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, ErrConfig
		}
		switch n {
		case 2048, 3072, 4096:
			cfg.KeyBits = n
		default:
			return Config{}, ErrConfig
		}
	}

	if v := os.Getenv("VAULT_HANDSHAKE_INITIATE_MAX"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, ErrConfig
		}
		cfg.InitiateMax = n
	}

	if v := os.Getenv("VAULT_HANDSHAKE_INITIATE_WINDOW"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.InitiateWindow = d
	}

	key := strings.TrimSpace(os.Getenv("VAULT_HANDSHAKE_WRAP_KEY"))
	if key == "" {
		key = strings.TrimSpace(os.Getenv("VAULT_STORAGE_MASTER_KEY"))
	}
	if len(key) < rsacrypto.MinWrapSecretBytes {
		return Config{}, ErrConfig
	}
	cfg.WrapKey = []byte(key)

	return cfg, nil
}
