// Package router assembles the gin engine and mounts the API routes.
package router

import (
	"github.com/facturas/backend/internal/infrastructure/logger"
	"github.com/facturas/backend/internal/interfaces/http/handler"
	"github.com/facturas/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Config holds router assembly options
type Config struct {
	Logger         *zap.Logger
	CORS           middleware.CORSConfig
	MaxBodyBytes   int64
	TracingEnabled bool
	ServiceName    string
}

// Router manages HTTP route registration
type Router struct {
	engine     *gin.Engine
	system     *handler.SystemHandler
	registrars []RouteRegistrar
}

// New builds a gin engine with the standard middleware chain
func New(cfg Config, system *handler.SystemHandler) *Router {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	if len(cfg.CORS.AllowOrigins) == 0 {
		cfg.CORS = middleware.DefaultCORSConfig()
	}

	engine := gin.New()
	engine.Use(
		logger.Recovery(log),
		middleware.RequestID(),
		middleware.Secure(),
		middleware.CORSWithConfig(cfg.CORS),
		middleware.BodyLimit(cfg.MaxBodyBytes),
	)
	if cfg.TracingEnabled {
		engine.Use(otelgin.Middleware(cfg.ServiceName))
	}
	engine.Use(logger.GinMiddleware(log))

	return &Router{
		engine:     engine,
		system:     system,
		registrars: make([]RouteRegistrar, 0),
	}
}

// Register adds a RouteRegistrar to be mounted on Setup
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// Setup registers all routes with the engine
func (r *Router) Setup() {
	if r.system != nil {
		r.engine.GET("/health", r.system.Health)
	}

	api := r.engine.Group("/api/v1")
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
}

// Engine exposes the assembled gin engine
func (r *Router) Engine() *gin.Engine {
	return r.engine
}
