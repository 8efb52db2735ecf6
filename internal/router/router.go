package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/scheduling-api/internal/middleware"
	"github.com/jwalitptl/scheduling-api/pkg/logger"
	"github.com/jwalitptl/scheduling-api/pkg/metrics"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Router struct {
	engine *gin.Engine
}

type RouterConfig struct {
	Mode           string
	RateLimit      rate.Limit
	RateBurst      int
	RequestTimeout time.Duration
	MaxBodySize    int64
}

type Dependencies struct {
	Logger         *logger.Logger
	Metrics        *metrics.Metrics
	MetricsHandler gin.HandlerFunc
	Health         interface{ RegisterRoutes(gin.IRoutes) }
	Handlers       []Handler
}

func NewRouter(deps Dependencies, config RouterConfig) *Router {
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if config.MaxBodySize <= 0 {
		config.MaxBodySize = middleware.DefaultSizeLimitConfig().MaxBodySize
	}

	engine := gin.New()

	engine.Use(
		middleware.RequestID(),
		middleware.Logger(deps.Logger),
		middleware.Metrics(deps.Metrics),
		middleware.Recovery(deps.Logger),
		middleware.ErrorHandler(deps.Logger),
		middleware.Validation(middleware.DefaultValidationConfig()),
		middleware.Timeout(middleware.TimeoutConfig{Duration: config.RequestTimeout}),
		middleware.SizeLimit(middleware.SizeLimitConfig{MaxBodySize: config.MaxBodySize}),
	)

	if config.RateLimit > 0 {
		rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  config.RateLimit,
			Burst: config.RateBurst,
		})
		engine.Use(rateLimiter.RateLimit())
	}

	r := &Router{engine: engine}
	r.setup(deps)
	return r
}

func (r *Router) setup(deps Dependencies) {
	if deps.MetricsHandler != nil {
		r.engine.GET("/metrics", deps.MetricsHandler)
	}

	api := r.engine.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	if deps.Health != nil {
		deps.Health.RegisterRoutes(api)
	}
	for _, h := range deps.Handlers {
		h.RegisterRoutes(api)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
