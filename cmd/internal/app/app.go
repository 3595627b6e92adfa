// Package app wires the vault server runtime: config, logging, stores, HTTP routes and
// the cleanup scheduler.
package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	authapi "github.com/masterdeepak15/SecureNoteAndKeyPassVault/cmd/internal/auth/api"
	"github.com/masterdeepak15/SecureNoteAndKeyPassVault/cmd/internal/auth/session"
	"github.com/masterdeepak15/SecureNoteAndKeyPassVault/cmd/internal/cleanup"
	"github.com/masterdeepak15/SecureNoteAndKeyPassVault/cmd/internal/dbmigrate"
	"github.com/masterdeepak15/SecureNoteAndKeyPassVault/cmd/internal/handshake"
	"github.com/masterdeepak15/SecureNoteAndKeyPassVault/cmd/internal/vault"
	"github.com/masterdeepak15/SecureNoteAndKeyPassVault/cmd/security/rsacrypto"
	"github.com/masterdeepak15/SecureNoteAndKeyPassVault/cmd/security/storagecipher"
)

// App is the vault server runtime: it owns the HTTP server, the DB pool and the sweeper.
type App struct {
	cfg Config
	log Logger

	dbPool    *pgxpool.Pool
	dbEnabled bool

	api       *authapi.Handler
	scheduler *cleanup.Scheduler
}

// stores groups the persistence backends chosen at startup.
type stores struct {
	handshakes handshake.Store
	sessions   session.Store
	notes      vault.Store
	passwords  vault.PasswordStore
	audit      authapi.AuditSink
}

// New constructs a fully wired App from cfg and the package-level env configs.
func New(cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.LogFormat)
	}
	if err := ValidateSecurityConfig(cfg); err != nil {
		return nil, err
	}

	cipherCfg, err := storagecipher.LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}
	hsCfg, err := handshake.LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}
	sessCfg, err := session.LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}
	apiCfg := authapi.LoadConfigFromEnv()

	cipher, err := storagecipher.New(cipherCfg)
	if err != nil {
		return nil, err
	}
	tokens, err := session.NewPasetoV4(sessCfg)
	if err != nil {
		return nil, err
	}

	if cfg.MigrateOnStart && cfg.DatabaseURL != "" {
		if err := dbmigrate.Run(cfg.DatabaseURL, dbmigrate.Up); err != nil {
			return nil, err
		}
		log.Info("db.migrate.done")
	}

	pool, st, err := newStores(context.Background(), cfg, log)
	if err != nil {
		return nil, err
	}
	closeOnErr := func() {
		if pool != nil {
			pool.Close()
		}
	}

	handshakes, err := handshake.NewManager(hsCfg, st.handshakes, rsacrypto.NewEngine(), log)
	if err != nil {
		closeOnErr()
		return nil, err
	}
	sessions := session.NewManager(sessCfg, st.sessions, nil, log)
	notes, err := vault.NewService(st.notes, cipher)
	if err != nil {
		closeOnErr()
		return nil, err
	}
	passwords, err := vault.NewPasswordService(st.passwords, cipher)
	if err != nil {
		closeOnErr()
		return nil, err
	}

	api, err := authapi.NewHandler(log, apiCfg, authapi.Services{
		Sessions:   sessions,
		Tokens:     tokens,
		Issuer:     tokens,
		Handshakes: handshakes,
		Notes:      notes,
		Passwords:  passwords,
	}, authapi.WithAuditSink(st.audit))
	if err != nil {
		closeOnErr()
		return nil, err
	}

	scheduler := cleanup.NewScheduler(cfg.CleanupInterval, log, []cleanup.Sweeper{handshakes, sessions})

	return &App{
		cfg:       cfg,
		log:       log,
		dbPool:    pool,
		dbEnabled: pool != nil,
		api:       api,
		scheduler: scheduler,
	}, nil
}

// Handler returns the fully wrapped HTTP handler.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()
	registerHTTP(mux, a.log, a.cfg, a.dbPool, a.dbEnabled, a.api)
	return WithRequestLogging(WithCORS(WithSecurityHeaders(mux), a.cfg, a.log), a.log)
}

// Run serves HTTP and runs the cleanup scheduler until ctx is cancelled or either fails.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 30*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr, "url", runtimeBaseURL(a.cfg.HTTPAddr), "db_enabled", a.dbEnabled)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("server.fail", "err", err)
			return err
		}
		return nil
	})

	g.Go(func() error {
		if err := a.scheduler.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.log.Info("server.stop", "reason", "context_done")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.log.Error("server.shutdown.fail", "err", err)
			return err
		}
		return nil
	})

	err := g.Wait()
	if a.dbPool != nil {
		a.dbPool.Close()
	}
	a.log.Info("server.stopped")
	return err
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// runtimeBaseURL turns a listen address into a URL a local client can dial.
func runtimeBaseURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port)
}

// newStores decides between Postgres-backed persistence and the in-memory dev stores.
func newStores(ctx context.Context, cfg Config, log Logger) (*pgxpool.Pool, stores, error) {
	if cfg.DatabaseURL == "" {
		log.Warn("db.disabled.inmemory_store")
		vaultStore := vault.NewInMemoryStore()
		return nil, stores{
			handshakes: handshake.NewInMemoryStore(),
			sessions:   session.NewInMemoryStore(),
			notes:      vaultStore,
			passwords:  vaultStore,
			audit:      authapi.LogAuditSink{Log: log},
		}, nil
	}

	pool, err := NewDBPool(ctx, cfg)
	if err != nil {
		return nil, stores{}, err
	}

	vaultStore, err := vault.NewPostgresStore(pool)
	if err != nil {
		pool.Close()
		return nil, stores{}, err
	}

	log.Info("db.enabled.postgres_store")

	// The app owns the pool; stores never close it.
	return pool, stores{
		handshakes: handshake.NewPostgresStore(pool),
		sessions:   session.NewPostgresStore(pool),
		notes:      vaultStore,
		passwords:  vaultStore,
		audit:      authapi.NewPostgresAuditSink(pool, log),
	}, nil
}
