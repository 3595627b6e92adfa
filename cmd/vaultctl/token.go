package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/masterdeepak15/SecureNoteAndKeyPassVault/cmd/internal/auth/session"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Work with bearer tokens",
	}
	cmd.AddCommand(newTokenIssueCmd())
	return cmd
}

func newTokenIssueCmd() *cobra.Command {
	var (
		userID string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue a development bearer token",
		Long: `Signs a PASETO v4.public token with VAULT_PASETO_V4_SECRET_KEY_HEX.

Every token gets a fresh token ID, so each issued token becomes its own device
session on first use.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID = strings.TrimSpace(userID)
			if userID == "" {
				return errors.New("--user is required")
			}
			if ttl <= 0 {
				return errors.New("--ttl must be positive")
			}

			cfg, err := session.LoadConfigFromEnv()
			if err != nil {
				return fmt.Errorf("load session config: %w", err)
			}
			issuer, err := session.NewPasetoV4(cfg)
			if err != nil {
				return err
			}
			if !issuer.CanIssue() {
				return errors.New("VAULT_PASETO_V4_SECRET_KEY_HEX is required to issue tokens")
			}

			tok, exp, err := issuer.Issue(userID, uuid.NewString(), time.Now().UTC(), ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", exp.Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "user ID carried by the token")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}
