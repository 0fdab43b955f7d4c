package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	apihandlers "github.com/walletkit-demo/walletpass/internal/api/handlers"
	"github.com/walletkit-demo/walletpass/internal/config"
	"github.com/walletkit-demo/walletpass/internal/database"
	"github.com/walletkit-demo/walletpass/internal/keymanager"
	"github.com/walletkit-demo/walletpass/internal/logger"
	"github.com/walletkit-demo/walletpass/internal/server/handlers"
	"github.com/walletkit-demo/walletpass/internal/server/middleware"
	"github.com/walletkit-demo/walletpass/internal/services"
)

// ServiceName is reported by the version endpoint
const ServiceName = "walletpass-server"

type Server struct {
	pool       *pgxpool.Pool
	queries    *database.Queries
	config     *config.ServerEnvironment
	logger     *slog.Logger
	router     *chi.Mux
	keyManager *keymanager.KeyManager
	services   *services.Services
}

// NewServer loads the keys, creates the services and registers the routes.
//
// pool and queries are nil when the server runs without a database.
// ctx bounds the lifetime of the background JWKS refresh (when CALLBACK_JWKS_URL is set).
func NewServer(
	pool *pgxpool.Pool,
	queries *database.Queries,
	cfg *config.ServerEnvironment,
	logger *slog.Logger,
	ctx context.Context,
) (*Server, error) {
	server := &Server{
		pool:    pool,
		queries: queries,
		config:  cfg,
		logger:  logger,
		router:  chi.NewRouter(),
	}

	if err := server.initKeyManager(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize KeyManager: %w", err)
	}

	svc, err := services.NewServices(cfg, queries, server.keyManager)
	if err != nil {
		return nil, fmt.Errorf("failed to create services: %w", err)
	}
	server.services = svc

	server.setupMiddleware()
	if err := server.registerRoutes(); err != nil {
		return nil, err
	}

	return server, nil
}

func (s *Server) initKeyManager(ctx context.Context) error {
	keyManager, err := keymanager.NewKeyManager(ctx, &keymanager.Config{
		KeysDir:                    s.config.KeysDir,
		SigningKeyFile:             s.config.SigningKeyFile,
		RecipientKeyFile:           s.config.RecipientKeyFile,
		CallbackKeyFile:            s.config.CallbackKeyFile,
		CallbackJWKSURL:            s.config.CallbackJWKSURL,
		JWKCacheMinRefreshInterval: s.config.JWKCacheMinRefresh,
		JWKCacheMaxRefreshInterval: s.config.JWKCacheMaxRefresh,
		JWKCacheWaitReady:          s.config.JWKCacheWaitReady,
	}, s.logger)
	if err != nil {
		return err
	}

	s.keyManager = keyManager
	s.logger.Info("KeyManager initialized",
		slog.String("signing_kid", keyManager.SigningKeyID()),
		slog.String("keys_dir", s.config.KeysDir))

	return nil
}

func (s *Server) setupMiddleware() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(logger.RequestLogging(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.SecurityHeaders(s.config.Environment))
	s.router.Use(middleware.RateLimit(s.config.RateLimitRPS, s.config.RateLimitBurst))
	s.router.Use(middleware.RequestSizeLimit(s.config.MaxRequestSize))
	s.router.Use(chimiddleware.Timeout(60 * time.Second))
}

func (s *Server) registerRoutes() error {
	jwkSet, err := s.keyManager.PublicJWKSet()
	if err != nil {
		return fmt.Errorf("failed to build JWK set: %w", err)
	}

	envelopeHandler := apihandlers.NewEnvelopeHandler(s.services.Envelopes)
	callbackHandler := apihandlers.NewCallbackHandler(s.services.Callbacks)

	s.router.Get("/health/live", handlers.HandleHealth)
	s.router.Get("/health/ready", handlers.HandleReadiness(s.queries))
	s.router.Get("/version", handlers.HandleVersion(ServiceName))
	s.router.Get("/.well-known/jwks.json", handlers.HandleJWKS(jwkSet))

	s.router.Route("/v1", func(r chi.Router) {
		r.Post("/envelopes", envelopeHandler.HandleIssueEnvelope)
		r.Post("/callbacks", callbackHandler.HandleReceiveCallback)
		r.Get("/callbacks/{eventId}", callbackHandler.HandleGetCallbackEvent)
		r.Get("/passes/{passTypeIdentifier}/{passNumber}/callbacks", callbackHandler.HandleListPassCallbacks)
	})

	return nil
}

// Handler returns the router with all middleware applied
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start(ctx context.Context) error {
	serverAddr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	httpServer := &http.Server{
		Addr:              serverAddr,
		Handler:           s.router,
		ReadTimeout:       s.config.ReadTimeout,
		ReadHeaderTimeout: s.config.ReadTimeout,
		WriteTimeout:      s.config.WriteTimeout,
		IdleTimeout:       s.config.IdleTimeout,
	}

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("service listening",
			slog.String("environment", s.config.Environment),
			slog.String("address", serverAddr),
			slog.Bool("database", s.pool != nil))

		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- fmt.Errorf("server failed to start: %w", err)
		}
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), s.config.ServerShutdownTimeout)
	defer shutdownCancel()

	s.logger.Info("shutting down HTTP server")

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("HTTP server shutdown error",
			slog.String("error", err.Error()))
		return fmt.Errorf("HTTP server shutdown failed: %w", err)
	}

	s.logger.Info("HTTP server shutdown complete")
	return nil
}

func (s *Server) DatabaseShutdown() {
	if s.pool != nil {
		s.pool.Close()
		s.logger.Info("database connection closed")
	}
}
