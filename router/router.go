package router

import (
	"log"
	"net/http"

	"conecta/config"
	"conecta/controllers"
	"conecta/middleware"

	"github.com/gin-gonic/gin"
)

// Initialize wires all routes and middlewares: public webhook receiver +
// authenticated tenant routes + admin-only catalog routes.
func Initialize(r *gin.Engine, cfg config.Configuration) {
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	api := r.Group("/api")

	// Webhook receiver (providers call this, no auth: signature/token only)
	api.GET("/webhook/:provider", controllers.WebhookVerify)
	api.POST("/webhook/:provider", controllers.WebhookUpdate)

	// Authenticated routes (token required)
	auth := api.Group("")
	auth.Use(controllers.AuthRequired(cfg.Security.JwtSecret))

	auth.GET("/providers", Logger(), controllers.GetProviders)
	auth.GET("/webhooks/:provider", Logger(), controllers.GetWebhookDescriptor)

	auth.POST("/connections", Logger(), controllers.CreateOrUpdateConnection)
	auth.GET("/connections", Logger(), controllers.ListConnections)
	auth.GET("/connections/:id/status", Logger(), controllers.CheckConnectionStatus)
	auth.GET("/connections/:id/qr", Logger(), controllers.GetConnectionQr)
	auth.POST("/connections/:id/primary", Logger(), controllers.SetPrimaryConnection)
	auth.POST("/connections/:id/messages", Logger(), controllers.SendConnectionMessage)
	auth.DELETE("/connections/:id", Logger(), controllers.DeleteConnection)

	// Admin routes (catalog management)
	admin := auth.Group("")
	admin.Use(controllers.Adminizer())
	admin.POST("/providers", Logger(), controllers.UpsertProvider)

	log.Printf("Routes initialized")
}
