package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrDBConfig reports VAULT_DB_* settings that cannot describe a usable pool.
var ErrDBConfig = errors.New("invalid database config")

const dbApplicationName = "vault"

// NewDBPool validates the VAULT_DB_* settings, opens a pgxpool and checks connectivity
// within DBConnectTimeout. Migrations are separate: VAULT_MIGRATE_ON_START or vaultctl migrate.
func NewDBPool(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	pcfg, err := dbPoolConfig(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, err
	}

	if err := PingDB(ctx, pool, nonZeroDuration(cfg.DBConnectTimeout, 3*time.Second)); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return pool, nil
}

// dbPoolConfig turns Config into a pgxpool.Config without dialing.
func dbPoolConfig(cfg Config) (*pgxpool.Config, error) {
	dsn := strings.TrimSpace(cfg.DatabaseURL)
	if dsn == "" {
		return nil, fmt.Errorf("%w: VAULT_DATABASE_URL is empty", ErrDBConfig)
	}
	if cfg.DBMaxConns < 0 || cfg.DBMinConns < 0 {
		return nil, fmt.Errorf("%w: VAULT_DB_MAX_CONNS and VAULT_DB_MIN_CONNS must not be negative", ErrDBConfig)
	}

	pcfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: VAULT_DATABASE_URL: %v", ErrDBConfig, err)
	}

	if cfg.DBMaxConns > 0 {
		pcfg.MaxConns = cfg.DBMaxConns
	}
	pcfg.MinConns = cfg.DBMinConns
	if pcfg.MinConns > pcfg.MaxConns {
		return nil, fmt.Errorf("%w: VAULT_DB_MIN_CONNS (%d) exceeds max conns (%d)", ErrDBConfig, pcfg.MinConns, pcfg.MaxConns)
	}
	if cfg.DBMaxConnLifetime > 0 {
		pcfg.MaxConnLifetime = cfg.DBMaxConnLifetime
	}
	if cfg.DBMaxConnIdleTime > 0 {
		pcfg.MaxConnIdleTime = cfg.DBMaxConnIdleTime
	}
	if _, ok := pcfg.ConnConfig.RuntimeParams["application_name"]; !ok {
		pcfg.ConnConfig.RuntimeParams["application_name"] = dbApplicationName
	}
	return pcfg, nil
}

// PingDB round-trips a ping through the pool within timeout.
func PingDB(parent context.Context, pool *pgxpool.Pool, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()
	return pool.Ping(ctx)
}
