package rest

import (
	"net/http"

	"github.com/collabthon/backend/internal/api/rest/handlers"
	restmiddleware "github.com/collabthon/backend/internal/api/rest/middleware"
	"github.com/collabthon/backend/internal/domain"
	"github.com/collabthon/backend/internal/middleware"
	"github.com/collabthon/backend/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// registerValidators adds the "plan" rule used by payment request bindings.
func registerValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("plan", func(fl validator.FieldLevel) bool {
			return domain.Plan(fl.Field().String()).Valid()
		})
	}
}

// Handlers groups everything the router mounts.
type Handlers struct {
	Auth          *handlers.AuthHandler
	Subscription  *handlers.SubscriptionHandler
	Payment       *handlers.PaymentHandler
	Webhook       *handlers.WebhookHandler
	Profile       *handlers.ProfileHandler
	Project       *handlers.ProjectHandler
	Collaboration *handlers.CollaborationHandler
	Notification  *handlers.NotificationHandler
}

// NewRouter builds the gin engine with all routes mounted.
func NewRouter(h Handlers, authMW *middleware.JWTMiddleware, registry *prometheus.Registry, log *logger.Logger) *gin.Engine {
	registerValidators()

	router := gin.New()
	router.Use(restmiddleware.RequestLogger(log))
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// Webhooks authenticate by signature, not by token.
	router.POST("/webhooks/stripe", h.Webhook.HandleStripeWebhook)

	api := router.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
		}

		api.GET("/subscriptions/plans", h.Subscription.Plans)

		protected := api.Group("")
		protected.Use(authMW.RequireAuth())
		{
			subscriptions := protected.Group("/subscriptions")
			{
				subscriptions.GET("/my", h.Subscription.My)
				subscriptions.POST("/subscribe/:plan", h.Subscription.Subscribe)
				subscriptions.POST("/cancel", h.Subscription.Cancel)
				subscriptions.GET("/check/:user_id/:feature", h.Subscription.CheckFeature)
				subscriptions.GET("/admin/stats", authMW.RequireAdmin(), h.Subscription.Stats)
			}

			payments := protected.Group("/payments")
			{
				payments.POST("/create-checkout-session", h.Payment.CreateCheckout)
				payments.POST("/upgrade-subscription", h.Payment.Upgrade)
				payments.POST("/cancel-subscription", h.Subscription.Cancel)
				payments.GET("/subscription-status", h.Payment.Status)
			}

			profiles := protected.Group("/profiles")
			{
				profiles.GET("/me", h.Profile.Me)
				profiles.PUT("/me", h.Profile.Upsert)
				profiles.GET("/:user_id", h.Profile.Get)
			}

			projects := protected.Group("/projects")
			{
				projects.POST("", h.Project.Create)
				projects.GET("", h.Project.List)
				projects.GET("/:id", h.Project.Get)
				projects.PUT("/:id", h.Project.Update)
				projects.DELETE("/:id", h.Project.Delete)
			}

			collaborations := protected.Group("/collaborations")
			{
				collaborations.POST("", h.Collaboration.Send)
				collaborations.GET("/sent", h.Collaboration.ListSent)
				collaborations.GET("/received", h.Collaboration.ListReceived)
				collaborations.POST("/:id/respond", h.Collaboration.Respond)
			}

			notifications := protected.Group("/notifications")
			{
				notifications.GET("", h.Notification.List)
				notifications.POST("/:id/read", h.Notification.MarkRead)
				notifications.GET("/unread-count", h.Notification.UnreadCount)
			}
		}
	}

	log.Infow("API routes configured")
	return router
}
