package router

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/atelier-backend/internal/config"
	"github.com/ignatzorin/atelier-backend/internal/http/handlers"
	"github.com/ignatzorin/atelier-backend/internal/http/middleware"
	"github.com/ignatzorin/atelier-backend/internal/service"
)

// Handlers - все обработчики API.
type Handlers struct {
	Orders   *handlers.OrderHandler
	Quotes   *handlers.QuoteHandler
	RFQs     *handlers.RFQHandler
	Disputes *handlers.DisputeHandler
	Wallet   *handlers.WalletHandler
	Tailors  *handlers.TailorHandler
	Health   *handlers.HealthHandler
	WS       *handlers.WSHandler
}

func SetupRouter(cfg *config.Config, log logrus.FieldLogger, tokens *service.TokenManager, h Handlers) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.ErrorHandler(log))

	r.GET("/health", h.Health.Health)

	api := r.Group("/api")
	api.Use(middleware.Timeout(cfg.OperationTimeout))
	if h.WS != nil {
		api.GET("/ws", h.WS.Handle)
	}

	// Публичная витрина мастеров.
	public := api.Group("/tailors")
	public.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))
	{
		public.GET("", h.Tailors.Search)
		public.GET("/top", h.Tailors.TopRated)
		public.GET("/verified", h.Tailors.Verified)
		public.GET("/cities", h.Tailors.Cities)
		public.GET("/nearby", h.Tailors.Nearby)
		public.GET("/:id", middleware.UUIDValidator("id"), h.Tailors.GetTailor)
	}

	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokens))
	protected.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))
	{
		protected.POST("/tailors", middleware.RequireRole(service.RoleTailor), h.Tailors.Register)

		protected.POST("/orders", middleware.RequireRole(service.RoleCustomer), h.Orders.CreateOrder)
		protected.GET("/orders", h.Orders.ListOrders)
		protected.GET("/orders/:id", middleware.UUIDValidator("id"), h.Orders.GetOrder)
		protected.PATCH("/orders/:id/status", middleware.UUIDValidator("id"), h.Orders.TransitionStatus)

		protected.GET("/orders/:id/quotes", middleware.UUIDValidator("id"), h.Quotes.ListForDecision)
		protected.POST("/orders/:id/quotes", middleware.UUIDValidator("id"), middleware.RequireRole(service.RoleTailor), h.Quotes.SubmitQuote)
		protected.GET("/quotes", middleware.RequireRole(service.RoleTailor), h.Quotes.ListMine)
		protected.POST("/quotes/:id/accept", middleware.UUIDValidator("id"), h.Quotes.AcceptQuote)
		protected.POST("/quotes/:id/reject", middleware.UUIDValidator("id"), h.Quotes.RejectQuote)
		protected.DELETE("/quotes/:id", middleware.UUIDValidator("id"), h.Quotes.WithdrawQuote)

		protected.POST("/rfqs", middleware.RequireRole(service.RoleCustomer), h.RFQs.CreateRFQ)
		protected.GET("/rfqs", h.RFQs.ListMine)
		protected.POST("/rfqs/:id/bids", middleware.UUIDValidator("id"), middleware.RequireRole(service.RoleTailor), h.RFQs.SubmitBid)
		protected.GET("/rfqs/:id/bids", middleware.UUIDValidator("id"), h.RFQs.ListBids)
		protected.POST("/rfqs/:id/cancel", middleware.UUIDValidator("id"), h.RFQs.CancelRFQ)
		protected.POST("/bids/:id/select", middleware.UUIDValidator("id"), h.RFQs.SelectWinner)

		protected.POST("/orders/:id/disputes", middleware.UUIDValidator("id"), h.Disputes.OpenDispute)
		protected.GET("/orders/:id/disputes", middleware.UUIDValidator("id"), h.Disputes.ListDisputes)

		protected.GET("/wallet", h.Wallet.GetBalance)
		protected.GET("/wallet/statement", h.Wallet.Statement)
		protected.GET("/wallet/payments", h.Wallet.Payments)
		protected.POST("/wallet/deposit", h.Wallet.Deposit)
		protected.POST("/wallet/withdraw", h.Wallet.Withdraw)
		protected.POST("/wallet/transfer", h.Wallet.Transfer)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware(tokens), middleware.RequireRole(service.RoleAdmin))
	{
		admin.POST("/disputes/:id/review", middleware.UUIDValidator("id"), h.Disputes.StartReview)
		admin.POST("/disputes/:id/escalate", middleware.UUIDValidator("id"), h.Disputes.Escalate)
		admin.POST("/disputes/:id/resolve", middleware.UUIDValidator("id"), h.Disputes.Resolve)
		admin.GET("/tailors/pending", h.Tailors.PendingVerification)
		admin.POST("/tailors/:id/verify", middleware.UUIDValidator("id"), h.Tailors.Verify)
	}

	return r
}
