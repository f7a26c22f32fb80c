package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kishan2613/Sarthi/handlers"
	"github.com/kishan2613/Sarthi/middleware"
	"github.com/kishan2613/Sarthi/utils"
)

// Options carries the cross-cutting settings route registration needs.
type Options struct {
	AllowedOrigins    []string
	MaxRequestsPerMin int
	Tokens            *utils.TokenIssuer
	// TrustedProxies may set X-Forwarded-For. Empty trusts no proxy.
	TrustedProxies []string
}

// RegisterSlotRoutes registers slot inventory and slot booking endpoints.
func RegisterSlotRoutes(r *gin.Engine, hb *handlers.HandlerBundle, admin gin.HandlerFunc) {
	api := r.Group("/api/slots")
	{
		api.GET("", hb.Slots.ListSlotsHandler)
		api.GET("/:id", hb.Slots.GetSlotHandler)
		api.POST("/book", hb.Bookings.BookSlotHandler)

		// Inventory changes require an admin token.
		protected := api.Group("")
		protected.Use(admin)
		protected.POST("", hb.Slots.CreateSlotHandler)
		protected.PATCH("/:id", hb.Slots.UpdateSlotHandler)
	}
}

// RegisterQueueRoutes registers temple queue ticket endpoints.
func RegisterQueueRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/queue")
	{
		api.GET("", hb.Bookings.ListQueueHandler)
		api.POST("/form", hb.Bookings.BookQueueHandler)
	}
}

// RegisterBookingRoutes registers booking listing, lookup and lifecycle
// endpoints.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle, admin gin.HandlerFunc) {
	api := r.Group("/api/bookings")
	{
		api.GET("", admin, hb.Bookings.ListBookingsHandler)
		api.GET("/:reference", hb.Bookings.GetBookingHandler)
		api.PATCH("/:id/status", admin, hb.Bookings.UpdateStatusHandler)
	}
}

// RegisterAdminRoutes sets up endpoints for admin operations.
func RegisterAdminRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	adminGroup := r.Group("/api/admin")
	{
		adminGroup.POST("/login", hb.Admin.LoginHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", hb.HealthHandler)
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle, opts Options) {
	if err := r.SetTrustedProxies(opts.TrustedProxies); err != nil {
		utils.GetLogger().Warn("invalid trusted proxies, trusting none", zap.Strings("proxies", opts.TrustedProxies), zap.Error(err))
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(utils.ErrorHandler())
	r.Use(middleware.RequestLogger(utils.GetLogger()))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     opts.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", utils.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", utils.RequestIDHeader},
		AllowCredentials: !allowsAny(opts.AllowedOrigins),
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.RateLimitMiddleware(opts.MaxRequestsPerMin))

	admin := middleware.JWTAuthAdminMiddleware(opts.Tokens)

	RegisterHealthRoute(r, hb)
	RegisterSlotRoutes(r, hb, admin)
	RegisterQueueRoutes(r, hb)
	RegisterBookingRoutes(r, hb, admin)
	RegisterAdminRoutes(r, hb)
}

// Browsers refuse credentialed responses for a wildcard origin.
func allowsAny(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
