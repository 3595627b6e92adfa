package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	paseto "aidanwoods.dev/go-paseto"
	"github.com/spf13/cobra"

	"github.com/masterdeepak15/SecureNoteAndKeyPassVault/cmd/security/storagecipher"
)

const storageKeyBytes = 32

func newKeygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate a PASETO v4 key pair and a storage master key",
		Long: `Prints fresh secrets as environment assignments.

The public key is all the server needs to verify tokens; keep the secret key
only where tokens are issued.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			secret := paseto.NewV4AsymmetricSecretKey()

			master := make([]byte, storageKeyBytes)
			if _, err := rand.Read(master); err != nil {
				return fmt.Errorf("generate storage key: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "VAULT_PASETO_V4_SECRET_KEY_HEX=%s\n", secret.ExportHex())
			fmt.Fprintf(out, "VAULT_PASETO_V4_PUBLIC_KEY_HEX=%s\n", secret.Public().ExportHex())
			fmt.Fprintf(out, "%s=%s\n", storagecipher.MasterKeyEnv, base64.RawURLEncoding.EncodeToString(master))
			return nil
		},
	}
}
