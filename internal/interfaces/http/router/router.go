// Package router 提供 HTTP 路由配置
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"game-gen-ai-api/internal/config"
	"game-gen-ai-api/internal/interfaces/http/handler"
	"game-gen-ai-api/internal/interfaces/http/middleware"
)

// Handlers 路由依赖的处理器与可选限流器
type Handlers struct {
	Health   *handler.HealthHandler
	Activity *handler.ActivityHandler

	// Limiter 为 nil 时不限流
	Limiter middleware.RateLimiter
	KeyFunc middleware.KeyFunc
}

// Router HTTP 路由器
type Router struct {
	engine *gin.Engine
	cfg    *config.Config
	h      Handlers
}

// New 创建路由器
func New(cfg *config.Config, h Handlers) *Router {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := &Router{
		engine: gin.New(),
		cfg:    cfg,
		h:      h,
	}
	r.setupMiddleware()
	r.setupRoutes()
	return r
}

// Engine 返回 Gin Engine
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func (r *Router) setupMiddleware() {
	r.engine.Use(middleware.Recovery())
	r.engine.Use(middleware.RequestID())

	r.engine.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: r.cfg.Security.CORS.AllowedOrigins,
		AllowedMethods: r.cfg.Security.CORS.AllowedMethods,
		AllowedHeaders: r.cfg.Security.CORS.AllowedHeaders,
	}))

	if r.cfg.Observability.Tracing.Enabled {
		r.engine.Use(middleware.Trace(r.cfg.App.Name, middleware.DefaultSkipPaths...))
		r.engine.Use(middleware.TraceContext())
	}

	if r.cfg.Observability.Metrics.Enabled {
		r.engine.Use(middleware.Metrics())
	}

	r.engine.Use(middleware.AccessLog(middleware.DefaultSkipPaths...))
}

func (r *Router) setupRoutes() {
	if r.h.Health != nil {
		r.engine.GET("/health", r.h.Health.Health)
		r.engine.GET("/ready", r.h.Health.Ready)
		r.engine.GET("/live", r.h.Health.Live)
	}

	if r.cfg.Observability.Metrics.Enabled {
		path := r.cfg.Observability.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		r.engine.GET(path, gin.WrapH(promhttp.Handler()))
	}

	if r.h.Activity == nil {
		return
	}
	limit := middleware.RateLimit(middleware.RateLimitConfig{
		Enabled:           r.cfg.Security.RateLimit.Enabled,
		RequestsPerWindow: r.cfg.Security.RateLimit.RequestsPerWindow,
		Window:            r.cfg.Security.RateLimit.Window,
	}, r.h.Limiter, r.h.KeyFunc)

	RegisterGenerateRoutes(r.engine.Group(""), r.h.Activity, limit)
	RegisterV1Routes(r.engine.Group("/v1"), r.h.Activity)
}
