package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"autovalue/internal/domain"
	"autovalue/internal/service"
)

// Handlers agrupa los handlers que monta el router.
type Handlers struct {
	User      *UserHandler
	Reference *ReferenceHandler
	VIN       *VINHandler
	Valuation *ValuationHandler
	Report    *ReportHandler
	Chat      *ChatHandler
	Dealer    *DealerHandler
	Billing   *BillingHandler
	Referral  *ReferralHandler
	Market    *MarketHandler
}

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(logger *zap.Logger, jwtSvc *service.JWTService, h Handlers) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging, recovery y JSON content-type.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), jsonContentTypeMiddleware())

	r.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })

	auth := r.Group("/auth")
	auth.POST("/register", h.User.Register)
	auth.POST("/login", h.User.Login)
	auth.POST("/refresh", h.User.RefreshToken)
	auth.POST("/logout", h.User.Logout)

	ref := r.Group("/reference")
	ref.GET("/makes", h.Reference.ListMakes)
	ref.GET("/makes/:id/models", h.Reference.ListModels)
	ref.GET("/models/:id/years", h.Reference.ListYears)
	ref.GET("/zip/:code", h.Reference.LookupZip)

	r.POST("/vin/decode", OptionalJWTAuth(jwtSvc), h.VIN.Decode)

	r.POST("/webhooks/stripe", h.Billing.StripeWebhook)

	authed := r.Group("", JWTAuthMiddleware(jwtSvc))
	authed.GET("/account", h.User.Account)

	vals := authed.Group("/valuations")
	vals.POST("", h.Valuation.Create)
	vals.GET("", h.Valuation.List)
	vals.GET("/:id", h.Valuation.Get)
	vals.GET("/:id/follow-up", h.Valuation.GetFollowUp)
	vals.PUT("/:id/follow-up", h.Valuation.SaveFollowUp)
	vals.POST("/:id/follow-up/submit", h.Valuation.SubmitFollowUp)
	vals.POST("/:id/premium", h.Valuation.UnlockPremium)
	vals.GET("/:id/offers", h.Valuation.ListOffers)
	vals.GET("/:id/explanation", h.Report.Explanation)
	vals.GET("/:id/market", h.Report.Market)
	vals.GET("/:id/market/chart", h.Report.MarketChart)
	vals.GET("/:id/report.pdf", h.Report.PDF)
	vals.POST("/:id/email", h.Report.Email)

	chat := authed.Group("/chat/sessions")
	chat.POST("", h.Chat.CreateSession)
	chat.GET("/:id/messages", h.Chat.ListMessages)
	chat.POST("/:id/messages", h.Chat.PostMessage)

	authed.POST("/offers/:id/accept", h.Dealer.AcceptOffer)
	authed.POST("/offers/:id/reject", h.Dealer.RejectOffer)

	dealer := authed.Group("/dealer", RequireRole(domain.RoleDealer))
	dealer.POST("/inventory", h.Dealer.CreateItem)
	dealer.GET("/inventory", h.Dealer.ListItems)
	dealer.GET("/inventory/:id", h.Dealer.GetItem)
	dealer.PUT("/inventory/:id", h.Dealer.UpdateItem)
	dealer.DELETE("/inventory/:id", h.Dealer.DeleteItem)
	dealer.POST("/offers", h.Dealer.CreateOffer)

	authed.POST("/referrals", h.Referral.Invite)
	authed.GET("/referrals", h.Referral.List)

	admin := authed.Group("/admin", RequireRole(domain.RoleAdmin))
	admin.POST("/market-listings", h.Market.AddListing)
	admin.POST("/reference/invalidate", h.Reference.InvalidateCache)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
