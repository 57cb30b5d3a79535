package main

import (
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/boutledger/escrowsettle/internal/config"
	"github.com/boutledger/escrowsettle/internal/handlers"
	"github.com/boutledger/escrowsettle/internal/idempotency"
	appmiddleware "github.com/boutledger/escrowsettle/internal/middleware"
	"github.com/boutledger/escrowsettle/internal/models"
	"github.com/boutledger/escrowsettle/internal/repository"
	"github.com/boutledger/escrowsettle/internal/services"
	"github.com/boutledger/escrowsettle/internal/signing"
	"github.com/boutledger/escrowsettle/pkg/auth"
	"github.com/boutledger/escrowsettle/pkg/database"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on process environment")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	pg, err := database.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pg.Close()

	if cfg.DBAutoMigrateOnStartup {
		migrator, err := database.NewMigrator(pg.DB, "migrations")
		if err != nil {
			log.Fatalf("failed to build migrator: %v", err)
		}
		if err := migrator.Up(); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
		_ = migrator.Close()
	}

	var cache *idempotency.Cache
	redisCache, err := idempotency.NewCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, 10*time.Minute)
	if err != nil {
		log.Printf("idempotency cache unavailable, falling back to Postgres only: %v", err)
	} else {
		cache = redisCache
		defer cache.Close()
	}
	idempotencyStore := idempotency.NewStore(pg.DB, cache)

	var mongoSink *services.AuditMongoSink
	mongoSink, err = services.NewAuditMongoSink(cfg.MongoURL, "escrowsettle")
	if err != nil {
		log.Printf("audit mongo mirror unavailable, continuing without it: %v", err)
		mongoSink = nil
	}

	userRepo := repository.NewUserRepository(pg.DB)
	refreshTokenRepo := repository.NewRefreshTokenRepository(pg.DB)
	fighterProfileRepo := repository.NewFighterProfileRepository(pg.DB)
	boutRepo := repository.NewBoutRepository(pg.DB)
	escrowRepo := repository.NewEscrowRepository(pg.DB)
	auditRepo := repository.NewAuditRepository(pg.DB)

	jwtService := auth.NewJWTService(cfg.JWTSecret, time.Duration(cfg.JWTExpMinutes)*time.Minute, cfg.RefreshTokenTTL)
	signingAdapter := signing.NewAdapter(signing.Mode(cfg.XamanMode), cfg.XamanAPIBaseURL, cfg.XamanAPIKey, cfg.XamanAPISecret, time.Duration(cfg.XamanTimeoutSeconds)*time.Second)

	auditService := services.NewAuditService(auditRepo, mongoSink)
	authService := services.NewAuthService(pg.DB, userRepo, refreshTokenRepo, jwtService, cfg.RefreshTokenTTL)
	boutPlanner := services.NewBoutPlanner(pg.DB, boutRepo, escrowRepo, auditService)
	escrowService := services.NewEscrowService(boutRepo, escrowRepo, auditService, signingAdapter)
	payoutService := services.NewPayoutService(boutRepo, escrowRepo, auditService, signingAdapter)
	reconciliationService := services.NewSigningReconciliationService(escrowRepo, auditService, signingAdapter)

	authHandler := handlers.NewAuthHandler(authService)
	auditHandler := handlers.NewAuditHandler(auditService)
	boutHandler := handlers.NewBoutHandler(pg.DB, boutRepo, escrowRepo, boutPlanner, escrowService, payoutService, reconciliationService, idempotencyStore, auditService)
	fighterProfileHandler := handlers.NewFighterProfileHandler(pg.DB, fighterProfileRepo)

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), appmiddleware.ErrorHandler())

	router.GET("/healthz", handlers.HealthCheck)

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.RefreshToken)
		authGroup.POST("/logout", authHandler.Logout)
	}

	api := router.Group("/")
	api.Use(handlers.AuthMiddleware(authService))
	{
		api.GET("/auth/me", authHandler.Me)

		api.PUT("/fighters/me/profile", fighterProfileHandler.UpsertOwnProfile)
		api.GET("/fighters/:userID/profile", fighterProfileHandler.GetProfile)

		promoterOrAdmin := appmiddleware.RequireRole(models.RolePromoter, models.RoleAdmin)
		promoterOnly := appmiddleware.RequireRole(models.RolePromoter)
		adminOnly := appmiddleware.RequireRole(models.RoleAdmin)

		bouts := api.Group("/bouts")
		{
			bouts.POST("", promoterOnly, boutHandler.CreateBout)
			bouts.GET("/:id", promoterOrAdmin, boutHandler.GetBout)
			bouts.GET("/:id/audit", adminOnly, auditHandler.GetBoutAuditLog)

			bouts.POST("/:id/escrows/prepare", promoterOnly, boutHandler.PrepareEscrows)
			bouts.POST("/:id/escrows/confirm", promoterOnly, appmiddleware.RequireIdempotencyKey(), boutHandler.ConfirmEscrow)
			bouts.POST("/:id/escrows/signing/reconcile", promoterOnly, boutHandler.ReconcileEscrowSigning)

			bouts.POST("/:id/result", adminOnly, boutHandler.EnterResult)
			bouts.POST("/:id/payouts/prepare", promoterOnly, boutHandler.PreparePayouts)
			bouts.POST("/:id/payouts/confirm", promoterOnly, appmiddleware.RequireIdempotencyKey(), boutHandler.ConfirmPayout)
			bouts.POST("/:id/payouts/signing/reconcile", promoterOnly, boutHandler.ReconcilePayoutSigning)
		}
	}

	addr := ":" + getPort()
	log.Printf("escrowsettle api-server listening on %s (env=%s, xaman_mode=%s)", addr, cfg.AppEnv, cfg.XamanMode)
	if err := router.Run(addr); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

func getPort() string {
	if p := os.Getenv("PORT"); p != "" {
		return p
	}
	return "8080"
}
