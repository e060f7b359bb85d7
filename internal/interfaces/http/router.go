package http

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/abengolea/heartlink-sub000/internal/infrastructure/config"
	"github.com/abengolea/heartlink-sub000/internal/infrastructure/permission"
	"github.com/abengolea/heartlink-sub000/internal/interfaces/http/middleware"
	"github.com/abengolea/heartlink-sub000/internal/shared/logger"

	_ "github.com/abengolea/heartlink-sub000/docs"
)

// Router represents the HTTP router configuration
type Router struct {
	engine    *gin.Engine
	container *Container
	cfg       *config.Config
	logger    logger.Interface
}

// NewRouter creates a new HTTP router over a wired container.
func NewRouter(container *Container, cfg *config.Config, log logger.Interface) *Router {
	return &Router{
		engine:    gin.New(),
		container: container,
		cfg:       cfg,
		logger:    log,
	}
}

// SetupRoutes configures all HTTP routes
func (r *Router) SetupRoutes() {
	c := r.container

	r.engine.Use(middleware.RequestID())
	r.engine.Use(middleware.Logger(r.logger))
	r.engine.Use(middleware.Recovery(r.logger))
	r.engine.Use(middleware.CORS(r.cfg.Server.AllowedOrigins))
	r.engine.Use(middleware.SecurityHeaders())

	r.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.engine.GET("/health", c.healthHandler.Health)
	r.engine.GET("/metrics", gin.WrapH(c.Metrics.Handler()))

	api := r.engine.Group("/api")

	// Called by the payment provider; authenticity comes from the x-signature header.
	api.POST("/webhooks/payments",
		middleware.RateLimit(c.webhookLimiter, "webhook", r.logger),
		c.paymentWebhookHandler.HandleNotification,
	)

	cron := api.Group("/cron")
	cron.Use(middleware.CronAuth(r.cfg.Cron.Secret, r.logger))
	{
		cron.GET("/sweep", c.cronHandler.Sweep)
		cron.POST("/sweep", c.cronHandler.Sweep)
	}

	subscriptions := api.Group("/subscriptions")
	subscriptions.Use(c.authMiddleware.RequireAuth())
	{
		subscriptions.GET("/status/:userId", c.subscriptionHandler.GetStatus)
		subscriptions.POST("", c.subscriptionHandler.CreateSubscription)
		subscriptions.POST("/cancel", c.subscriptionHandler.CancelSubscription)
	}

	admin := api.Group("/admin")
	admin.Use(c.authMiddleware.RequireAuth())
	{
		admin.GET("/subscriptions/:userId",
			c.permissionMiddleware.RequirePermission(permission.ResourceSubscription, permission.ActionRead),
			c.subscriptionHandler.GetStatus,
		)
		admin.POST("/subscriptions/:userId/cancel",
			c.permissionMiddleware.RequirePermission(permission.ResourceSubscription, permission.ActionCancel),
			c.adminSubscriptionHandler.CancelSubscription,
		)
		admin.POST("/subscriptions/:userId/reactivate",
			c.permissionMiddleware.RequirePermission(permission.ResourceSubscription, permission.ActionReactivate),
			c.adminSubscriptionHandler.ReactivateSubscription,
		)
		admin.POST("/sweep",
			c.permissionMiddleware.RequirePermission(permission.ResourceSweep, permission.ActionRun),
			c.cronHandler.Sweep,
		)
	}

	// Every study route is a protected feature behind the subscription gate.
	studies := api.Group("/studies")
	studies.Use(c.authMiddleware.RequireAuth(), c.gateMiddleware.RequireAccess())
	{
		studies.POST("", c.studyHandler.CreateStudy)
		studies.GET("", c.studyHandler.ListStudies)
	}
}

// GetEngine returns the Gin engine
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
