package routes

import (
	"net/http"
	"time"

	"bookline/handlers"
	"bookline/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterWebhookRoutes wires the Meta webhook endpoints. These stay
// outside the IP rate limiter; Meta retries aggressively and the flow
// has its own per-customer limiter.
func RegisterWebhookRoutes(r *gin.Engine, wh *handlers.WebhookHandler) {
	r.GET("/webhook", wh.Verify)
	r.POST("/webhook", wh.Receive)
}

// RegisterOperatorRoutes wires the human side channel.
func RegisterOperatorRoutes(r *gin.Engine, oh *handlers.OperatorHandler) {
	api := r.Group("/api/operator")
	{
		api.POST("/login", middleware.RateLimit(), oh.Login)

		protected := api.Group("")
		protected.Use(middleware.OperatorAuth())
		protected.POST("/send", oh.Send)
		protected.POST("/escalate", oh.Escalate)
		protected.POST("/resolve", oh.Resolve)
		protected.GET("/status", oh.Status)
	}
}

// RegisterAdminRoutes wires tenant configuration management.
func RegisterAdminRoutes(r *gin.Engine, ah *handlers.AdminHandler) {
	api := r.Group("/api/admin")
	{
		api.Use(middleware.OperatorAuth())
		api.GET("/tenant", ah.GetTenant)
		api.PUT("/tenant", ah.UpsertTenant)
		api.DELETE("/tenant/catalog-cache", ah.InvalidateCatalogCache)
		api.DELETE("/conversation", ah.ResetConversation)
	}
}

// RegisterSchedulerRoutes wires the manual scan triggers.
func RegisterSchedulerRoutes(r *gin.Engine, sh *handlers.SchedulerHandler) {
	api := r.Group("/api/scheduler")
	{
		api.Use(middleware.OperatorAuth())
		api.POST("/run-reminders", sh.RunReminders)
		api.POST("/run-confirmations", sh.RunConfirmations)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Hi, I'm Bookline"})
	})
}

// CORSMiddleware allows the operator dashboard origin.
func CORSMiddleware() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	})
}
