package handlers

import (
	"net/http"
	"time"

	"subscription-shop/internal/auth"
	"subscription-shop/internal/config"
	"subscription-shop/internal/notify"
	"subscription-shop/internal/repository"
	"subscription-shop/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Services bundles what the HTTP layer calls into
type Services struct {
	Users     *services.UserService
	Wallets   *services.WalletService
	Referrals *services.ReferralService
	Deposits  *services.DepositService
	Orders    *services.OrderService
	Links     *services.LinkService
	Admin     *services.AdminService
}

// NewServices builds the service graph over one repository
func NewServices(repo *repository.Repository, cfg *config.Config, dispatcher *notify.Dispatcher, log *zap.Logger) Services {
	links := services.NewLinkService(repo, log)
	referrals := services.NewReferralService(repo, cfg.App.ReferralCommission, cfg.Telegram.BotUsername, dispatcher, log)
	orders := services.NewOrderService(repo, links, cfg.App.Plans, cfg.CivilLocation(), dispatcher, log)

	return Services{
		Users:     services.NewUserService(repo, referrals, log),
		Wallets:   services.NewWalletService(repo),
		Referrals: referrals,
		Deposits:  services.NewDepositService(repo, referrals, dispatcher, log),
		Orders:    orders,
		Links:     links,
		Admin:     services.NewAdminService(repo, dispatcher, log),
	}
}

// NewRouter wires middleware and every route
func NewRouter(cfg *config.Config, svc Services, db *gorm.DB, log *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), Logger(log.With(zap.String("component", "http"))))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With", requestIDHeader},
		ExposeHeaders:    []string{"Content-Length", requestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		status := "ok"
		code := http.StatusOK
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status": status,
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	userHandler := NewUserHandler(svc.Users, svc.Wallets, svc.Referrals, svc.Orders, cfg.App.TransportKey)
	orderHandler := NewOrderHandler(svc.Orders)
	depositHandler := NewDepositHandler(svc.Deposits)
	adminHandler := NewAdminHandler(svc.Admin, svc.Orders)
	linkHandler := NewLinkHandler(svc.Links, svc.Orders)

	// Authentication routes (chat transport)
	router.POST("/auth/contact", userHandler.Contact)

	api := router.Group("/api")
	api.Use(auth.AuthMiddleware())
	{
		api.GET("/plans", orderHandler.GetPlans)
		api.GET("/plans/:months/quote", orderHandler.Quote)
		api.POST("/orders", orderHandler.Purchase)
		api.GET("/orders", orderHandler.GetOrders)
		api.GET("/subscription", userHandler.GetSubscription)

		api.GET("/wallet", userHandler.GetWallet)
		api.POST("/wallet/topup", depositHandler.TopUp)

		api.GET("/referral/stats", userHandler.GetReferralStats)
		api.POST("/referral/apply", userHandler.ApplyReferral)

		api.POST("/support", adminHandler.Support)
	}

	admin := router.Group("/api/admin")
	admin.Use(auth.AuthMiddleware(), auth.AdminMiddleware(cfg.IsAdmin))
	{
		admin.GET("/dashboard", adminHandler.GetDashboard)

		admin.GET("/deposits/pending", depositHandler.ListPending)
		admin.POST("/deposits/:id/approve", depositHandler.Approve)
		admin.POST("/deposits/:id/reject", depositHandler.Reject)

		admin.GET("/orders", adminHandler.ListOrders)
		admin.GET("/orders/pending", adminHandler.PendingOrders)
		admin.GET("/orders/search", adminHandler.SearchOrders)
		admin.GET("/orders/:id", adminHandler.GetOrder)
		admin.POST("/orders/:id/extend", adminHandler.ExtendOrder)
		admin.POST("/orders/:id/message", adminHandler.MessageOrder)

		admin.GET("/links", linkHandler.List)
		admin.GET("/links/available", linkHandler.ListAvailable)
		admin.POST("/links", linkHandler.Add)
		admin.POST("/links/fulfill", linkHandler.Fulfill)
		admin.PUT("/links/:id", linkHandler.Edit)
		admin.DELETE("/links/:id", linkHandler.Delete)
	}

	return router
}
