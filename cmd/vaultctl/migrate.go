package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/masterdeepak15/SecureNoteAndKeyPassVault/cmd/internal/dbmigrate"
)

func databaseURL(flag string) (string, error) {
	dsn := strings.TrimSpace(flag)
	if dsn == "" {
		dsn = strings.TrimSpace(os.Getenv("VAULT_DATABASE_URL"))
	}
	if dsn == "" {
		return "", errors.New("database URL required: pass --database-url or set VAULT_DATABASE_URL")
	}
	return dsn, nil
}

func newMigrateCmd() *cobra.Command {
	var dsn string

	cmd := &cobra.Command{
		Use:       "migrate up|down",
		Short:     "Apply or roll back the vault schema",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(dbmigrate.Up), string(dbmigrate.Down)},
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := dbmigrate.ParseDirection(args[0])
			if err != nil {
				return err
			}
			url, err := databaseURL(dsn)
			if err != nil {
				return err
			}
			if err := dbmigrate.Run(url, dir); err != nil {
				return err
			}

			version, dirty, err := dbmigrate.Version(url)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrate %s: version=%d dirty=%t\n", dir, version, dirty)
			return nil
		},
	}

	cmd.Flags().StringVar(&dsn, "database-url", "", "Postgres URL (defaults to VAULT_DATABASE_URL)")
	return cmd
}
