package router

import (
	"time"

	"lumen-chat/backend/pkg/di"
	apperrors "lumen-chat/backend/pkg/errors"
	"lumen-chat/backend/pkg/logger"
	"lumen-chat/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Router assembles the gin engine, middleware chain, and route table
type Router struct {
	Engine    *gin.Engine
	container *di.Container
	logger    *logger.Logger
	startTime time.Time
}

func New(container *di.Container) *Router {
	if container.Config.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := &Router{
		Engine:    gin.New(),
		container: container,
		logger:    container.Logger,
		startTime: time.Now(),
	}

	go container.Hub.Run()

	r.setupMiddleware()
	r.setupRoutes()
	return r
}

func (r *Router) setupMiddleware() {
	cfg := r.container.Config

	r.Engine.Use(middleware.RequestIDMiddleware())
	r.Engine.Use(logger.Middleware(r.logger))
	r.Engine.Use(apperrors.ErrorHandler())
	r.Engine.Use(apperrors.RecoveryWithLogger())
	r.Engine.Use(corsMiddleware())

	options := middleware.DefaultRateLimiterOptions()
	options.Limit = rate.Limit(cfg.Security.RateLimit)
	options.Burst = cfg.Security.RateLimitBurst
	limiter := middleware.NewRateLimiter(r.logger, options)
	r.Engine.Use(limiter.Middleware())
}

func (r *Router) setupRoutes() {
	c := r.container

	r.Engine.GET("/health", r.healthHandler)
	r.Engine.GET("/metrics", c.Metrics.Handler())
	r.Engine.GET("/ws", c.Hub.HandleWS)

	v1 := r.Engine.Group("/api/v1")

	threads := v1.Group("/threads")
	{
		threads.POST("", c.ThreadHandler.Create)
		threads.GET("", c.ThreadHandler.List)
		threads.PUT("/:id/title", c.ThreadHandler.Rename)
		threads.POST("/:id/archive", c.ThreadHandler.Archive)
		threads.DELETE("/:id", c.ThreadHandler.Delete)

		threads.GET("/:id/messages", c.ThreadHandler.Messages)
		threads.POST("/:id/messages", c.MessageHandler.Send)
		threads.PUT("/:id/messages/:messageId", c.MessageHandler.Edit)
		threads.DELETE("/:id/messages/:messageId", c.MessageHandler.DeleteFrom)

		threads.POST("/:id/regenerate", c.MessageHandler.Regenerate)
		threads.POST("/:id/regenerate/:messageId", c.MessageHandler.RegenerateFrom)
	}

	v1.GET("/models", c.ModelHandler.List)
}

// corsMiddleware allows the local desktop shell to call the API from its
// renderer origin.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
