package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wallet-registry/config"
	httpHandler "wallet-registry/internal/adapter/http/handler"
	"wallet-registry/internal/adapter/http/middleware"
	pgStorage "wallet-registry/internal/adapter/storage/postgres"
	redisStorage "wallet-registry/internal/adapter/storage/redis"
	"wallet-registry/internal/core/ports"
	"wallet-registry/internal/service"
	"wallet-registry/pkg/logger"
)

func main() {
	cfg, err := config.Load(os.Getenv("WRG_CONFIG_FILE"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting Wallet Registry API")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("jwt.secret must be set (WRG_JWT_SECRET)")
	}

	ctx := context.Background()

	if cfg.Database.AutoMigrate {
		if err := pgStorage.Migrate(cfg.Database, log); err != nil {
			log.Fatal().Err(err).Msg("Failed to apply database migrations")
		}
	}

	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Repositories
	roleRepo := pgStorage.NewWalletRoleRepo(pool)
	walletRepo := pgStorage.NewWalletRepo(pool)
	adminRepo := pgStorage.NewAdminRepo(pool)
	auditRepo := pgStorage.NewAuditRepository(pool)

	// Services
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	authSvc := service.NewAuthService(adminRepo, hashSvc, tokenSvc)
	roleSvc := service.NewWalletRoleService(roleRepo, logger.Component(log, "wallet-roles"))
	walletSvc := service.NewWalletService(walletRepo, roleRepo, logger.Component(log, "wallets"))
	auditSvc := service.NewAuditService(auditRepo, logger.Component(log, "audit"))

	if cfg.Admin.Password != "" {
		created, err := authSvc.EnsureAdmin(ctx, cfg.Admin.Username, cfg.Admin.Password)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to bootstrap admin account")
		}
		if created {
			log.Info().Str("username", cfg.Admin.Username).Msg("Admin account created")
		}
	} else {
		log.Warn().Msg("admin.password not set, skipping admin bootstrap")
	}

	var cache ports.ResponseCache
	if cfg.Cache.Enabled {
		cache = redisStorage.NewResponseCache(rdb)
	}

	var limiter ports.RateLimiter
	switch {
	case !cfg.RateLimit.Enabled:
	case cfg.RateLimit.Local:
		limiter = middleware.NewLocalRateLimiter(cfg.RateLimit.LocalRPS, cfg.RateLimit.LocalBurst)
	default:
		limiter = redisStorage.NewRateLimitStore(rdb)
	}

	docs, err := httpHandler.LoadDocsHandler(cfg.Server.OpenAPIPath)
	if err != nil {
		log.Warn().Err(err).Msg("OpenAPI spec not found, Swagger UI will be unavailable")
	}

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:     authSvc,
		RoleSvc:     roleSvc,
		WalletSvc:   walletSvc,
		TokenSvc:    tokenSvc,
		Cache:       cache,
		CacheTTL:    cfg.Cache.TTL,
		RateLimiter: limiter,
		HealthCheckers: []ports.HealthChecker{
			pgStorage.NewHealthCheck(pool),
			redisStorage.NewHealthCheck(rdb),
		},
		AuditSvc: auditSvc,
		Docs:     docs,
		Mode:     cfg.Server.Mode,
		Logger:   log,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
	if err := auditSvc.Drain(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("Audit writes still pending at shutdown")
	}

	log.Info().Msg("Server exited")
}
