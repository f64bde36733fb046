package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"escrow-backend/config"
	httpHandler "escrow-backend/internal/adapter/http/handler"
	"escrow-backend/internal/adapter/provider"
	pgStorage "escrow-backend/internal/adapter/storage/postgres"
	redisStorage "escrow-backend/internal/adapter/storage/redis"
	"escrow-backend/internal/core/ports"
	"escrow-backend/internal/service"
	"escrow-backend/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting escrow backend")

	ctx := context.Background()

	// Run schema migrations before opening the pool
	if err := pgStorage.RunMigrations(cfg.Database.DSN(), cfg.Database.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}
	log.Info().Str("path", cfg.Database.MigrationsPath).Msg("Migrations applied")

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, logger.Component(log, "postgres"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, logger.Component(log, "redis"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// Initialize repositories
	registryRepo := pgStorage.NewRegistryRepo(pool)
	snapshotRepo := pgStorage.NewSnapshotRepo(pool)
	eventRepo := pgStorage.NewEventRepo(pool)
	userRepo := pgStorage.NewUserRepo(pool)
	kycRepo := pgStorage.NewKYCRepo(pool)
	projectRepo := pgStorage.NewProjectRepo(pool)
	milestoneRepo := pgStorage.NewMilestoneRepo(pool)
	auditRepo := pgStorage.NewAuditRepository(pool)

	// Redis fast path for idempotency lookups
	idempotencyCache := redisStorage.NewIdempotencyCache(rdb)

	// Provider clients
	providerLog := logger.Component(log, "provider")
	fincra := provider.NewFincraClient(cfg.Providers.Fincra.BaseURL, cfg.Providers.Fincra.APIKey, cfg.Providers.Timeout, providerLog)
	lnbits := provider.NewLNbitsClient(cfg.Providers.LNbits.BaseURL, cfg.Providers.LNbits.AdminKey, cfg.Providers.Timeout, providerLog)

	// Core services
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	auditSvc, err := service.NewAuditService(auditRepo, cfg.Audit.Workers, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize audit service")
	}
	defer auditSvc.Close()

	// Business services
	authSvc := service.NewAuthService(userRepo, hashSvc, tokenSvc, auditSvc, log)
	registrySvc := service.NewRegistryService(registryRepo, idempotencyCache, auditSvc, log)
	balanceSvc := service.NewBalanceService(snapshotRepo, registryRepo,
		[]ports.WalletProvider{fincra, lnbits}, idempotencyCache, auditSvc, log)
	eventSvc := service.NewEventService(eventRepo, auditSvc, log)
	kycSvc := service.NewKYCService(kycRepo, auditSvc, log)
	escrowSvc := service.NewEscrowService(projectRepo, milestoneRepo, registrySvc, eventSvc, auditSvc, log)

	// Health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:        authSvc,
		RegistrySvc:    registrySvc,
		BalanceSvc:     balanceSvc,
		EventSvc:       eventSvc,
		EscrowSvc:      escrowSvc,
		KYCSvc:         kycSvc,
		TokenSvc:       tokenSvc,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		Logger:         logger.Component(log, "http"),
	})

	// HTTP server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
