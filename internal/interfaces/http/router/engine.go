package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	_ "github.com/tradecomply/backend/docs"
	"github.com/tradecomply/backend/internal/infrastructure/config"
	"github.com/tradecomply/backend/internal/infrastructure/logger"
	"github.com/tradecomply/backend/internal/interfaces/http/handler"
	"github.com/tradecomply/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// Handlers groups the HTTP handlers mounted by NewEngine
type Handlers struct {
	Bulk        *handler.BulkActionHandler
	ProcessLogs *handler.ProcessLogHandler
	System      *handler.SystemHandler
}

// EngineConfig holds the settings the HTTP surface reads
type EngineConfig struct {
	HTTP        config.HTTPConfig
	ServiceName string
	Tracing     bool
}

// NewEngine builds the gin engine with the middleware chain and every route.
// Middleware order matters: the tracing span must exist before the request
// logger reads trace ids, and request/user ids must be in the context first.
func NewEngine(cfg EngineConfig, h Handlers, log *zap.Logger) *gin.Engine {
	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Warn("Invalid trusted proxies, trusting none", zap.Error(err))
		_ = engine.SetTrustedProxies(nil)
	}

	engine.Use(
		logger.Recovery(log),
		middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.ServiceName,
			Enabled:     cfg.Tracing,
		}),
		middleware.RequestID(),
		middleware.UserIdentity(),
		middleware.SpanAttributes(),
		logger.GinMiddleware(log),
		middleware.CORSWithConfig(corsConfig(cfg.HTTP)),
	)
	if cfg.HTTP.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	}

	engine.GET("/health", h.System.Health)
	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(middleware.SwaggerConfig{
			Enabled:    cfg.HTTP.SwaggerEnabled,
			AllowedIPs: cfg.HTTP.SwaggerAllowedIPs,
		}),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)

	r := NewRouter(engine, WithAPIVersion("v1"))
	r.Register(SystemRoutes(h.System))
	r.Register(BulkRoutes(h.Bulk, h.ProcessLogs))
	r.Setup()

	return engine
}

// SystemRoutes mounts the system endpoints under /system
func SystemRoutes(h *handler.SystemHandler) *DomainGroup {
	return NewDomainGroup("system", "/system").
		GET("/ping", h.Ping).
		GET("/info", h.GetSystemInfo)
}

// BulkRoutes mounts submission and reporting under /bulk
func BulkRoutes(actions *handler.BulkActionHandler, logs *handler.ProcessLogHandler) *DomainGroup {
	return NewDomainGroup("bulk", "/bulk").
		POST("/actions", actions.Submit).
		GET("/action-types", actions.ListActionTypes).
		GET("/process-logs", logs.List).
		GET("/process-logs/:id", logs.Get)
}

func corsConfig(cfg config.HTTPConfig) middleware.CORSConfig {
	c := middleware.DefaultCORSConfig()
	c.AllowOrigins = cfg.CORSAllowOrigins
	if len(cfg.CORSAllowMethods) > 0 {
		c.AllowMethods = cfg.CORSAllowMethods
	}
	if len(cfg.CORSAllowHeaders) > 0 {
		c.AllowHeaders = cfg.CORSAllowHeaders
	}
	return c
}
