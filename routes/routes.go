package routes

import (
	"time"

	"clinicbook/handlers"
	"clinicbook/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// HandlerBundle carries the assembled handlers for route registration.
type HandlerBundle struct {
	Webhook        *handlers.WebhookHandler
	PaymentRequest *handlers.PaymentRequestHandler
	Admin          *handlers.AdminHandler
}

// RegisterRoutes wires all endpoints onto the router.
func RegisterRoutes(r *gin.Engine, hb *HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", handlers.HealthHandler)

	// Provider webhook: rate-limited, authenticated inside the handler.
	payments := r.Group("/api/payments")
	{
		payments.POST("/webhook", middleware.RateLimitMiddleware(), hb.Webhook.HandleProviderWebhook)
	}

	requests := r.Group("/api/payment-requests")
	{
		requests.POST("", hb.PaymentRequest.CreatePaymentRequestHandler)
		requests.POST("/:id/send", hb.PaymentRequest.SendPaymentRequestHandler)
		requests.GET("/:id", hb.PaymentRequest.GetPaymentRequestHandler)
	}

	admin := r.Group("/api/admin/payments")
	admin.Use(middleware.JWTAuthAdminMiddleware())
	{
		admin.POST("/duplicate-scan", hb.Admin.RunDuplicateScanHandler)
		admin.GET("/webhook-log", hb.Admin.ListWebhookLogHandler)
	}
}
