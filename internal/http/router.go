package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hashchat/internal/service"
)

// HealthChecker reporta si las dependencias de almacenamiento responden.
type HealthChecker func(ctx context.Context) error

// RouterDeps agrupa lo que NewRouter monta.
type RouterDeps struct {
	Users     *UserHandler
	Directory *DirectoryHandler
	History   *HistoryHandler
	JWT       *service.JWTService
	WS        http.Handler
	Metrics   http.Handler
	Health    HealthChecker
}

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(logger *zap.Logger, deps RouterDeps) *gin.Engine {
	r := gin.New()

	r.Use(zapLoggerMiddleware(logger), gin.Recovery())

	api := r.Group("/api", jsonContentTypeMiddleware())

	auth := api.Group("/auth")
	auth.POST("/register", deps.Users.Register)
	auth.POST("/login", deps.Users.Login)
	auth.POST("/refresh", deps.Users.RefreshToken)
	auth.POST("/logout", deps.Users.Logout)

	protected := api.Group("", JWTAuthMiddleware(deps.JWT))
	protected.GET("/users/search", deps.Directory.Search)
	protected.GET("/user/username/:username", deps.Directory.GetByUsername)
	protected.GET("/user/:userId", deps.Directory.GetByID)
	protected.GET("/messages/:userId/:otherUserId", deps.History.List)

	if deps.WS != nil {
		r.GET("/ws", gin.WrapH(deps.WS))
	}
	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics))
	}
	r.GET("/healthz", healthHandler(deps.Health))

	return r
}

func healthHandler(check HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if check != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
