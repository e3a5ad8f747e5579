package bootstrap

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	accountrepo "github.com/AlibekovAA/sessionauth/internal/account/repository"
	"github.com/AlibekovAA/sessionauth/internal/auth/service"
	"github.com/AlibekovAA/sessionauth/internal/common/clock"
	"github.com/AlibekovAA/sessionauth/internal/common/config"
	"github.com/AlibekovAA/sessionauth/internal/common/constants"
	commoncrypto "github.com/AlibekovAA/sessionauth/internal/common/crypto"
	"github.com/AlibekovAA/sessionauth/internal/common/db"
	"github.com/AlibekovAA/sessionauth/internal/common/logger"
)

type AuthApp struct {
	Log         *logger.Logger
	Config      config.AuthConfig
	Pool        *pgxpool.Pool
	AccountRepo accountrepo.Repository
	AuthService *service.AuthService

	stopMetrics context.CancelFunc
}

func NewAuthApp(ctx context.Context) (*AuthApp, error) {
	cfg, err := config.LoadAuthConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.LogDir, "auth", cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return NewAuthAppWithConfig(ctx, cfg, log)
}

func NewAuthAppWithConfig(ctx context.Context, cfg config.AuthConfig, log *logger.Logger) (*AuthApp, error) {
	app := &AuthApp{
		Log:         log,
		Config:      cfg,
		stopMetrics: func() {},
	}

	switch cfg.StorageDriver {
	case config.StorageDriverMemory:
		log.Warn("using in-memory account storage; data is lost on restart")
		app.AccountRepo = accountrepo.NewMemoryRepository(commoncrypto.NewUUIDGenerator(), clock.NewRealClock())
	default:
		pool, err := db.NewPool(ctx, log, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database pool: %w", err)
		}

		if cfg.RunMigrations {
			if err := db.Migrate(ctx, pool, log); err != nil {
				pool.Close()
				return nil, fmt.Errorf("failed to run migrations: %w", err)
			}
		}

		metricsCtx, cancel := context.WithCancel(context.Background())
		db.StartPoolMetrics(metricsCtx, pool, constants.DBPoolMetricsInterval)

		app.Pool = pool
		app.stopMetrics = cancel
		app.AccountRepo = accountrepo.NewPgRepository(pool, log)
	}

	hasher := commoncrypto.NewBcryptHasher(cfg.BcryptCost, cfg.HashConcurrency)
	app.AuthService = service.NewAuthService(app.AccountRepo, hasher, commoncrypto.GenerateSessionToken, log)

	log.WithFields(ctx, logger.Fields{
		"storage":          cfg.StorageDriver,
		"bcrypt_cost":      cfg.BcryptCost,
		"hash_concurrency": cfg.HashConcurrency,
		"action":           "bootstrap_complete",
	}).Info("auth app initialized")

	return app, nil
}

// Close releases the pool and stops background metrics.
func (a *AuthApp) Close(context.Context) error {
	a.stopMetrics()
	if a.Pool != nil {
		a.Pool.Close()
	}
	return nil
}
