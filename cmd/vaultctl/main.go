// Command vaultctl is the operator CLI for the vault server: key generation, development
// tokens, schema migrations and one-off cleanup sweeps.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "vaultctl",
		Short: "Operate a vault server",
		Long: `vaultctl manages the secure notes vault.

It reads the same VAULT_* environment variables as the server.`,
		SilenceUsage: true,
	}

	root.AddCommand(newKeygenCmd())
	root.AddCommand(newTokenCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newSweepCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
