package router

import (
	"time"

	"sokoni/config"
	"sokoni/internal/handler"
	"sokoni/internal/middleware"
	"sokoni/internal/repository"
	"sokoni/internal/service"
	"sokoni/pkg/gateway"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(cfg *config.Config, db *gorm.DB, verifier gateway.Verifier) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(100, 60*time.Second)))

	// Repositories
	walletRepo := repository.NewWalletRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	cardRepo := repository.NewCardRepository(db)
	payoutRepo := repository.NewPayoutMethodRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// Services
	notifSvc := service.NewNotificationService(notificationRepo)
	walletSvc := service.NewWalletService(db, walletRepo, ledgerRepo, cardRepo, payoutRepo, verifier, notifSvc)
	escrowSvc := service.NewEscrowService(db, walletRepo, ledgerRepo, orderRepo, notifSvc, cfg.Escrow.CommissionRate)

	// Handlers
	walletHandler := handler.NewWalletHandler(walletSvc)
	escrowHandler := handler.NewEscrowHandler(escrowSvc)
	webhookHandler := handler.NewDepositWebhookHandler(walletSvc, walletRepo, &cfg.Gateway)
	notificationHandler := handler.NewNotificationHandler(notificationRepo)

	api := r.Group("/api/v1")

	user := api.Group("")
	user.Use(middleware.AuthRequired(&cfg.JWT))
	{
		user.GET("/wallet", walletHandler.Get)
		user.GET("/wallet/transactions", walletHandler.ListTransactions)
		user.POST("/wallet/deposits", walletHandler.Deposit)
		user.POST("/wallet/deposits/verify", walletHandler.VerifyDeposit)
		user.POST("/wallet/withdrawals", walletHandler.Withdraw)
		user.GET("/wallet/cards", walletHandler.ListCards)
		user.POST("/wallet/cards", walletHandler.AddCard)
		user.GET("/wallet/payout-methods", walletHandler.ListPayoutMethods)
		user.POST("/wallet/payout-methods", walletHandler.AddPayoutMethod)
		user.GET("/notifications", notificationHandler.List)
		user.POST("/notifications/:id/read", notificationHandler.MarkRead)
	}

	internal := api.Group("/escrow")
	internal.Use(middleware.InternalAuth(&cfg.Internal))
	{
		internal.POST("/hold", escrowHandler.Hold)
		internal.POST("/orders/:id/release", escrowHandler.Release)
		internal.POST("/orders/:id/refund", escrowHandler.Refund)
	}

	api.POST("/webhooks/deposit", webhookHandler.Handle)

	return r
}
