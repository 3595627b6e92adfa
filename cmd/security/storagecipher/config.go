package storagecipher

import (
	"fmt"
	"os"
	"strings"
)

const (
	// MasterKeyEnv is the env var holding the storage master secret.
	// #nosec G101 -- not a credential; it's an environment variable name.
	MasterKeyEnv = "VAULT_STORAGE_MASTER_KEY"

	// MinMasterKeyBytes is the shortest master secret accepted.
	MinMasterKeyBytes = 16
)

// Config is the single configuration surface for this package.
type Config struct {
	MasterKey []byte
}

// LoadConfigFromEnv reads the master secret. A missing or short secret is a startup error;
// the service never falls back to a built-in key.
func LoadConfigFromEnv() (Config, error) {
	raw := strings.TrimSpace(os.Getenv(MasterKeyEnv))
	if raw == "" {
		return Config{}, fmt.Errorf("%w: %s is required", ErrConfig, MasterKeyEnv)
	}
	cfg := Config{MasterKey: []byte(raw)}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the master key length.
func (c Config) Validate() error {
	if len(c.MasterKey) < MinMasterKeyBytes {
		return fmt.Errorf("%w: %s must be at least %d bytes", ErrConfig, MasterKeyEnv, MinMasterKeyBytes)
	}
	return nil
}
