package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/nortvale/matchcore/internal/auth"
)

// NewRouter assembles the gin.Engine serving the REST surface: public
// health/metrics/auth endpoints, and authenticated order/position/stats
// endpoints behind JWT and per-IP rate limiting.
func NewRouter(h *Handlers, authService *auth.Service, requestsPerMinute int, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestID())
	router.Use(CORS())
	router.Use(Gzip())

	security := NewSecurity(authService, requestsPerMinute, logger)
	router.Use(security.RateLimit())

	router.GET("/health", healthHandler)
	router.GET("/ready", readyHandler(h))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/auth/login", authLoginHandler(authService, logger))
	router.POST("/auth/refresh", authRefreshHandler(authService, logger))

	api := router.Group("/")
	api.Use(security.JWTAuth())
	{
		api.POST("/symbols/:symbol/orders", h.SubmitOrder)
		api.GET("/symbols/:symbol/orders/:id", h.GetOrder)
		api.DELETE("/symbols/:symbol/orders/:id", h.CancelOrder)
		api.GET("/symbols/:symbol/depth", h.GetDepth)
		api.GET("/symbols/:symbol/trades", h.GetRecentTrades)
		api.GET("/symbols/:symbol/stats", h.GetStats)
		api.GET("/positions", h.GetPositions)
	}

	return router
}

func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// readyHandler additionally confirms the registry has at least one
// symbol configured, distinguishing "process is up" from "process can
// actually serve orders".
func readyHandler(h *Handlers) gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(h.registry.Symbols()) == 0 {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "reason": "no symbols configured"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}

func authLoginHandler(authService *auth.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req auth.LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		resp, err := authService.Login(c.Request.Context(), &req)
		if err != nil {
			logger.Warn("login failed", zap.Error(err))
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func authRefreshHandler(authService *auth.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req auth.RefreshRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		resp, err := authService.RefreshToken(c.Request.Context(), &req)
		if err != nil {
			logger.Warn("token refresh failed", zap.Error(err))
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}
