package router

import (
	"net/http"
	"time"

	"gosembako/config"
	"gosembako/internal/attribution"
	"gosembako/internal/gas"
	"gosembako/internal/handler"
	"gosembako/internal/logging"
	"gosembako/internal/middleware"
	"gosembako/internal/repository"
	"gosembako/internal/service"
	"gosembako/internal/sheetdb"

	"github.com/gin-gonic/gin"
)

// Setup wires repositories, services and routes. The settlement instance is
// injected so the HTTP pipeline and the reconciliation worker share one busy
// guard.
func Setup(cfg *config.Config, store *sheetdb.Client, tracker *attribution.Tracker, settlement *service.Settlement, log logging.Logger) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	// Skip gin.Logger() to reduce log noise; use gin.Default() if you need request logging
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(100, 60*time.Second)))

	// Repositories
	userRepo := repository.NewUserRepository(store)
	referralRepo := repository.NewReferralRepository(store, log)
	orderRepo := repository.NewOrderRepository(store)

	gasClient := gas.New(&cfg.GAS, log)

	// Services
	directory := service.NewDirectory(userRepo, referralRepo, tracker, &cfg.Referral, log)
	detector := service.NewFirstOrderDetector(orderRepo, &cfg.Referral, log)
	processor := service.NewOrderProcessor(directory, detector, settlement, log)
	discountEngine := service.NewDiscountEngine(userRepo, tracker, detector, &cfg.Referral)
	authSvc := service.NewAuthService(cfg, userRepo, directory, log)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc, tracker, log)
	referralHandler := handler.NewReferralHandler(userRepo, referralRepo, gasClient, tracker, &cfg.Referral, log)
	checkoutHandler := handler.NewCheckoutHandler(discountEngine, log)
	orderHandler := handler.NewOrderHandler(orderRepo, userRepo, processor, log)

	authMw := middleware.AuthRequired(&cfg.JWT)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/r/:code", referralHandler.Capture)

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
		}

		api.POST("/checkout/evaluate", checkoutHandler.Evaluate)
		api.POST("/orders", orderHandler.Create)

		me := api.Group("/me")
		me.Use(authMw)
		{
			me.GET("/orders", orderHandler.ListMine)
			me.GET("/referral", referralHandler.GetMyReferral)
			me.GET("/referral/stats", referralHandler.GetMyReferralStats)
			me.GET("/referral/history", referralHandler.GetMyPointsHistory)
		}
	}

	return r
}
