package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/masterdeepak15/SecureNoteAndKeyPassVault/cmd/internal/auth/session"
	"github.com/masterdeepak15/SecureNoteAndKeyPassVault/cmd/internal/cleanup"
	"github.com/masterdeepak15/SecureNoteAndKeyPassVault/cmd/internal/handshake"
	"github.com/masterdeepak15/SecureNoteAndKeyPassVault/cmd/security/rsacrypto"
)

func newSweepCmd() *cobra.Command {
	var (
		dsn     string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run one cleanup pass over expired handshake and user sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			url, err := databaseURL(dsn)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			log := slog.New(slog.NewJSONHandler(os.Stderr, nil))
			sweepers, pool, err := newSweepers(ctx, url, log)
			if err != nil {
				return err
			}
			defer pool.Close()

			var errs []error
			for _, res := range cleanup.NewScheduler(0, log, sweepers).RunOnce(ctx) {
				if res.Err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", res.Name, res.Err))
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: reclaimed %d\n", res.Name, res.Reclaimed)
			}
			return errors.Join(errs...)
		},
	}

	cmd.Flags().StringVar(&dsn, "database-url", "", "Postgres URL (defaults to VAULT_DATABASE_URL)")
	cmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "overall deadline")
	return cmd
}

func newSweepers(ctx context.Context, url string, log *slog.Logger) ([]cleanup.Sweeper, *pgxpool.Pool, error) {
	hsCfg, err := handshake.LoadConfigFromEnv()
	if err != nil {
		return nil, nil, fmt.Errorf("load handshake config: %w", err)
	}
	sessCfg, err := session.LoadConfigFromEnv()
	if err != nil {
		return nil, nil, fmt.Errorf("load session config: %w", err)
	}

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, nil, err
	}

	handshakes, err := handshake.NewManager(hsCfg, handshake.NewPostgresStore(pool), rsacrypto.NewEngine(), log)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	sessions := session.NewManager(sessCfg, session.NewPostgresStore(pool), nil, log)

	return []cleanup.Sweeper{handshakes, sessions}, pool, nil
}
