package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"github.com/walletkit-demo/walletpass/internal/config"
	"github.com/walletkit-demo/walletpass/internal/database"
	"github.com/walletkit-demo/walletpass/internal/logger"
	"github.com/walletkit-demo/walletpass/internal/server"
	"github.com/walletkit-demo/walletpass/internal/version"
)

//	@title			walletpass-server
//	@description	walletpass-server issues wallet pass envelopes and receives wallet server callback notifications.
//	@description
//	@description	## Common Error Responses
//	@description	All endpoints may return:
//	@description	- `413` Request body exceeds size limit
//	@description	- `429` Rate limit exceeded
//	@description	- `500` Internal server error
//	@description
//	@description	Individual endpoints document their specific errors.
//	@description
//	@description	## Request Limits
//	@description	All endpoints are protected by:
//	@description	- **Rate limiting**: Configurable requests per second (see env vars) - default 100 rps (set to 0 to disable)
//	@description	- **Request size limits**: Configurable (see env vars) - default 1MB
//	@description
//	@description	Check the X-Max-Request-Size response header for the configured limit.
//	@description
//	@description	## Authentication
//	@description
//	@description	Callback notifications are authenticated by their HMSSign signature; unsigned or badly signed notifications are rejected.
//	@description	The envelope endpoint has no authentication of its own and must only be reachable from the issuer's own backend.
//	@description
//	@license.name	MIT

//	@servers.url			http://localhost:8080
//	@servers.description	Development server

//	@accept		json
//	@produce	json

//	@tag.name			Envelopes
//	@tag.description	Seal passes into envelopes for the save link

//	@tag.name			Callbacks
//	@tag.description	Wallet server callback notifications

//	@tag.name			Common
//	@tag.description	Server API endpoints (jwks, health, readiness, version)

func main() {
	cmd := &cobra.Command{
		Use:   "walletpass-server",
		Short: "Wallet pass envelope and callback server",
		Long:  `walletpass-server issues pass envelopes with their save links and verifies and records wallet server callback notifications`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}

	v := version.Get()
	cmd.Version = fmt.Sprintf("%s (built %s, commit %s)", v.Version, v.BuildDate, v.GitCommit)

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.NewServerConfig()
	if err != nil {
		log.Printf("failed to load configuration: %v", err.Error())
		os.Exit(1)
	}

	appLogger := logger.InitLogger(logger.ParseLogLevel(cfg.LogLevel), cfg.Environment)

	appLogger.Info("Configuration loaded",
		slog.String("ENVIRONMENT", cfg.Environment),
		slog.String("HOST", cfg.Host),
		slog.Int("PORT", cfg.Port),
		slog.String("LOG_LEVEL", cfg.LogLevel),
		slog.Bool("DATABASE", cfg.DatabaseURL != ""),
		slog.String("APP_ID", cfg.AppID),
		slog.String("WALLET_REGION", cfg.WalletRegion),
		slog.String("KEYS_DIR", cfg.KeysDir),
		slog.String("SIGNING_KEY_FILE", cfg.SigningKeyFile),
		slog.String("RECIPIENT_KEY_FILE", cfg.RecipientKeyFile),
		slog.String("CALLBACK_KEY_FILE", cfg.CallbackKeyFile),
		slog.String("CALLBACK_JWKS_URL", cfg.CallbackJWKSURL),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		pool    *pgxpool.Pool
		queries *database.Queries
	)
	if cfg.DatabaseURL != "" {
		pool, err = connectDatabase(ctx, cfg, appLogger)
		if err != nil {
			appLogger.Error("Database setup failed", slog.String("error", err.Error()))
			os.Exit(1)
		}

		// get the sqlc generated database queries
		queries = database.New(pool)
	} else {
		appLogger.Warn("DATABASE_URL is not set: callback events are kept in memory and lost on restart")
	}

	appLogger.Info("Starting server", slog.String("version", version.Get().Version))

	server, err := server.NewServer(
		pool,
		queries,
		cfg,
		appLogger,
		ctx,
	)
	if err != nil {
		appLogger.Error("Failed to create server", slog.String("error", err.Error()))
		if pool != nil {
			pool.Close()
		}
		os.Exit(1)
	}

	defer server.DatabaseShutdown()

	if err := server.Start(ctx); err != nil {
		appLogger.Error("Server error", slog.String("error", err.Error()))
		return err
	}

	appLogger.Info("server shutdown complete")
	return nil
}

// connectDatabase opens the connection pool and applies the migrations when RUN_MIGRATIONS is set
func connectDatabase(ctx context.Context, cfg *config.ServerEnvironment, appLogger *slog.Logger) (*pgxpool.Pool, error) {
	dbCtx, dbCancel := context.WithTimeout(ctx, cfg.DatabasePingTimeout)
	defer dbCancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	poolConfig.MaxConns = cfg.DBMaxConnections
	poolConfig.MinConns = cfg.DBMinConnections
	poolConfig.MaxConnLifetime = cfg.DBMaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.DBMaxConnIdleTime
	poolConfig.ConnConfig.ConnectTimeout = cfg.DBConnectTimeout

	pool, err := pgxpool.NewWithConfig(dbCtx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err = pool.Ping(dbCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("error pinging database via pool: %w", err)
	}

	appLogger.Info("connected to PostgreSQL")

	if cfg.RunMigrations {
		if err := database.Migrate(dbCtx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		appLogger.Info("database migrations applied")
	}

	return pool, nil
}
