package handler

import (
	"escrow-backend/internal/adapter/http/middleware"
	"escrow-backend/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc        ports.AuthService
	RegistrySvc    ports.RegistryService
	BalanceSvc     ports.BalanceService
	EventSvc       ports.EventService
	EscrowSvc      ports.EscrowService
	KYCSvc         ports.KYCService
	TokenSvc       ports.TokenService
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// API v1 routes
	v1 := r.Group("/api/v1")

	// --- Public routes (no auth) ---
	authHandler := NewAuthHandler(deps.AuthSvc)
	auth := v1.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}

	// --- JWT-authenticated routes ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)

	walletHandler := NewWalletHandler(deps.RegistrySvc, deps.BalanceSvc, deps.EventSvc)
	wallets := v1.Group("/wallets", jwtAuth)
	{
		wallets.POST("", walletHandler.Register)
		wallets.GET("/:id", walletHandler.Get)
		wallets.DELETE("/:id", walletHandler.Deactivate)
		wallets.POST("/:id/sync", walletHandler.SyncBalance)
		wallets.GET("/:id/balance", walletHandler.GetBalance)
		wallets.GET("/:id/snapshots", walletHandler.ListSnapshots)
		wallets.POST("/:id/events", walletHandler.IngestEvent)
		wallets.GET("/:id/events", walletHandler.ListEvents)
	}

	escrowHandler := NewEscrowHandler(deps.EscrowSvc)
	projects := v1.Group("/projects", jwtAuth)
	{
		projects.POST("", escrowHandler.CreateProject)
		projects.GET("", escrowHandler.ListProjects)
		projects.GET("/:id", escrowHandler.GetProject)
		projects.POST("/:id/milestones", escrowHandler.AddMilestone)
	}
	milestones := v1.Group("/milestones", jwtAuth)
	{
		milestones.POST("/:id/hold", escrowHandler.HoldMilestone)
		milestones.POST("/:id/release", escrowHandler.ReleaseMilestone)
	}

	kycHandler := NewKYCHandler(deps.KYCSvc)
	kyc := v1.Group("/kyc", jwtAuth)
	{
		kyc.POST("", kycHandler.Submit)
		kyc.GET("", kycHandler.Get)
		kyc.POST("/review", kycHandler.Review)
	}

	return r
}
