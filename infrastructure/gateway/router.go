// Package gateway exposes the chat over HTTP: REST endpoints, a websocket
// for real-time events, Prometheus metrics and a health probe.
package gateway

import (
	"log/slog"
	"net/http"
	"pair-chat/observability"
	"pair-chat/services"
	"time"

	"github.com/gin-gonic/gin"
)

type Options struct {
	ConnectionBufferSize int
	// InflightTimeout bounds each operation issued from a websocket frame.
	InflightTimeout time.Duration
}

type Router struct {
	log        *slog.Logger
	chat       services.IChatService
	profiles   services.IProfileService
	metrics    *observability.Metrics
	monitoring *observability.MonitoringManager
	opts       Options
}

// NewRouter wires the routes. metrics and monitoring may be nil.
func NewRouter(log *slog.Logger, chat services.IChatService, profiles services.IProfileService,
	metrics *observability.Metrics, monitoring *observability.MonitoringManager, opts Options) *gin.Engine {
	if opts.InflightTimeout <= 0 {
		opts.InflightTimeout = 5 * time.Second
	}
	r := &Router{
		log:        log,
		chat:       chat,
		profiles:   profiles,
		metrics:    metrics,
		monitoring: monitoring,
		opts:       opts,
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(log))

	engine.GET("/healthz", r.health)
	if metrics != nil {
		engine.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	v1 := engine.Group("/api/v1", requireIdentity())
	v1.POST("/users/register", r.registerProfile)
	v1.PUT("/users/profile", r.updateProfile)
	v1.GET("/users/profile", r.getProfile)

	v1.POST("/chat/find", r.operation(chat.Find))
	v1.POST("/chat/cancel", r.operation(chat.Cancel))
	v1.POST("/chat/skip", r.operation(chat.Skip))
	v1.POST("/chat/end", r.operation(chat.End))
	v1.POST("/chat/messages", r.sendMessage)
	v1.GET("/chat/history", r.history)
	v1.GET("/chat/state", r.state)
	v1.GET("/chat/ws", r.socket)

	return engine
}

func (r *Router) health(c *gin.Context) {
	if r.monitoring == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "stats": r.monitoring.GetLatest()})
}

// requestLogger logs one line per request, websocket upgrades included.
func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("HTTP request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}
