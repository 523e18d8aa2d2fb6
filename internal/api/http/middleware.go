// Package http assembles the gin-based REST surface §1 calls an
// "external collaborator": order submission/cancellation, book depth,
// recent trades, positions, and analytics, plus health/ready/metrics
// endpoints. None of it participates in matching itself.
package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzip"
	"github.com/segmentio/ksuid"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	"go.uber.org/zap"

	"github.com/nortvale/matchcore/internal/auth"
)

// Security bundles the cross-cutting gin middleware the router installs:
// CORS, per-IP rate limiting, request IDs, gzip compression, and JWT
// authentication/authorization.
type Security struct {
	auth        *auth.Service
	logger      *zap.Logger
	rateLimiter *limiter.Limiter
}

// NewSecurity builds a Security bundle with a requestsPerMinute per-IP
// limit backed by an in-memory store.
func NewSecurity(authService *auth.Service, requestsPerMinute int, logger *zap.Logger) *Security {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 100
	}
	rate := limiter.Rate{
		Period: time.Minute,
		Limit:  int64(requestsPerMinute),
	}
	store := memory.NewStore()
	return &Security{
		auth:        authService,
		logger:      logger,
		rateLimiter: limiter.New(store, rate),
	}
}

// CORS mirrors the gateway's permissive cross-origin policy.
func CORS() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

// RequestID stamps every request with a k-sortable ksuid, used as a
// correlation ID across log lines and echoed back to the caller.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := ksuid.New().String()
		c.Set("request_id", id)
		c.Writer.Header().Set("X-Request-ID", id)
		c.Next()
	}
}

// RateLimit enforces the per-IP budget, setting the standard
// X-RateLimit-* response headers on every request.
func (s *Security) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		limiterCtx, err := s.rateLimiter.Get(ctx, c.ClientIP())
		if err != nil {
			s.logger.Error("rate limiter lookup failed", zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(limiterCtx.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(limiterCtx.Remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(limiterCtx.Reset, 10))

		if limiterCtx.Reached {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// JWTAuth requires a valid bearer token and attaches its claims to the
// request context for downstream handlers and RoleAuth.
func (s *Security) JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or malformed Authorization header"})
			c.Abort()
			return
		}

		claims, err := s.auth.ValidateToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("role", claims.Role)
		c.Next()
	}
}

// RoleAuth requires the authenticated caller to hold one of roles.
func RoleAuth(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := c.Get("role")
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "role not found in context"})
			c.Abort()
			return
		}
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		c.JSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
		c.Abort()
	}
}

const gzipMinSize = 1024

// gzipWriter adapts klauspost/compress/gzip.Writer to gin.ResponseWriter
// so handlers can keep calling c.JSON/c.Writer.Write unmodified.
type gzipWriter struct {
	gin.ResponseWriter
	writer *gzip.Writer
}

func (w *gzipWriter) Write(data []byte) (int, error) {
	return w.writer.Write(data)
}

func (w *gzipWriter) WriteString(s string) (int, error) {
	return w.writer.Write([]byte(s))
}

// Gzip compresses every response, whatever its size, for clients that
// advertise gzip support, using klauspost/compress's faster gzip
// implementation rather than the standard library's. gzipMinSize is not
// consulted.
func Gzip() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !strings.Contains(c.GetHeader("Accept-Encoding"), "gzip") {
			c.Next()
			return
		}

		gz, err := gzip.NewWriterLevel(c.Writer, gzip.BestSpeed)
		if err != nil {
			c.Next()
			return
		}
		defer gz.Close()

		c.Writer.Header().Set("Content-Encoding", "gzip")
		c.Writer.Header().Del("Content-Length")
		c.Writer = &gzipWriter{ResponseWriter: c.Writer, writer: gz}
		c.Next()
	}
}
