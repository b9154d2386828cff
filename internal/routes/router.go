package routes

import (
	"streamwatch/internal/controllers"
	"streamwatch/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RouterConfig holds the middleware settings of the HTTP server.
type RouterConfig struct {
	AllowedOrigins []string
	IPWhitelist    []string
	RateLimit      float64
	RateBurst      int
}

// NewRouter builds the gin engine with middleware and every route.
func NewRouter(ctl *controllers.Controller, cfg RouterConfig, security *middleware.SecurityLogger, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.SecurityHeadersMiddleware())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middleware.IPWhitelistMiddleware(middleware.NewIPWhitelist(cfg.IPWhitelist), security))
	r.Use(middleware.RateLimitMiddleware(middleware.NewRateLimiter(cfg.RateLimit, cfg.RateBurst), security))

	RegisterMonitorRoutes(r, ctl)
	RegisterProcessRoutes(r, ctl)
	RegisterSessionRoutes(r, ctl)
	RegisterAuthRoutes(r, ctl)
	return r
}
