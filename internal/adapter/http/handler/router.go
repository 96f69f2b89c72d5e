package handler

import (
	"time"

	"wallet-registry/internal/adapter/http/middleware"
	"wallet-registry/internal/core/ports"
	"wallet-registry/pkg/logger"
	"wallet-registry/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const maxBodyBytes = 1 << 20

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc        ports.AuthService
	RoleSvc        ports.WalletRoleService
	WalletSvc      ports.WalletService
	TokenSvc       ports.TokenService
	Cache          ports.ResponseCache // nil = response caching disabled
	CacheTTL       time.Duration
	RateLimiter    ports.RateLimiter // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	AuditSvc       ports.AuditService // nil = audit logging disabled
	Docs           *DocsHandler
	Mode           string
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
// Reads are public; every mutation requires an admin bearer token.
func SetupRouter(deps RouterDeps) *gin.Engine {
	if deps.Mode != "" {
		gin.SetMode(deps.Mode)
	}
	r := gin.New()

	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.MaxBodySize(maxBodyBytes))
	if deps.AuditSvc != nil {
		r.Use(middleware.AuditLog(deps.AuditSvc))
	}

	r.GET("/health", HealthCheck(deps.HealthCheckers...))
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	swagger := r.Group("/swagger")
	{
		swagger.GET("", deps.Docs.UI)
		swagger.GET("/spec", deps.Docs.Spec)
	}

	rules := middleware.DefaultRateLimitRules()
	rl := func(group string) gin.HandlerFunc {
		rule, ok := rules[group]
		if deps.RateLimiter == nil || !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimiter, group, rule, deps.Logger)
	}

	cacher := NewResponseCacher(deps.Cache, deps.CacheTTL, logger.Component(deps.Logger, "cache"))
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	reads := rl("reads")
	writes := rl("writes")

	v1 := r.Group("/api/v1")

	authHandler := NewAuthHandler(deps.AuthSvc)
	v1.POST("/auth/login", rl("auth_login"), authHandler.Login)

	roleHandler := NewWalletRoleHandler(deps.RoleSvc, cacher)
	roles := v1.Group("/wallet-roles")
	{
		roles.GET("", reads, roleHandler.List)
		roles.GET("/active", reads, roleHandler.ListActive)
		roles.GET("/stats", reads, roleHandler.Stats)
		roles.GET("/:id", reads, roleHandler.Get)
		roles.POST("", jwtAuth, writes, roleHandler.Create)
		roles.PUT("/:id", jwtAuth, writes, roleHandler.Update)
		roles.PATCH("/:id/toggle", jwtAuth, writes, roleHandler.Toggle)
		roles.DELETE("/:id", jwtAuth, writes, roleHandler.Remove)
	}

	walletHandler := NewWalletHandler(deps.WalletSvc, cacher)
	wallets := v1.Group("/wallets")
	{
		wallets.GET("", reads, walletHandler.List)
		wallets.GET("/stats", reads, walletHandler.Stats)
		wallets.GET("/address/:address", reads, walletHandler.GetByAddress)
		wallets.GET("/:id", reads, walletHandler.Get)
		wallets.POST("", jwtAuth, writes, walletHandler.Create)
		wallets.PUT("/:id", jwtAuth, writes, walletHandler.Update)
		wallets.DELETE("/:id", jwtAuth, writes, walletHandler.Remove)
		wallets.POST("/:id/roles", jwtAuth, writes, walletHandler.AddRole)
		wallets.DELETE("/:id/roles/:roleId", jwtAuth, writes, walletHandler.RemoveRole)
		wallets.PATCH("/:id/activity", jwtAuth, writes, walletHandler.TouchActivity)
	}

	cacheHandler := NewCacheHandler(deps.Cache, deps.Logger)
	v1.POST("/cache/reset", jwtAuth, rl("cache_reset"), cacheHandler.Reset)

	return r
}
