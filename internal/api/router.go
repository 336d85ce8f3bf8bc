package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
	"go.uber.org/zap"

	"github.com/allbin/protoboard/internal/api/mw"
	"github.com/allbin/protoboard/internal/config"
)

// NewRouter creates and configures a new Gin router. metrics is mounted on
// /metrics when not nil.
func NewRouter(cfg config.HTTPConfig, h *Handler, metrics http.Handler, log *zap.SugaredLogger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), mw.Logger(log))

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimit), cfg.Burst)

	cacheStore := cache.New(cfg.CacheTTL, 10*cfg.CacheTTL)
	caching := mw.Cache(cacheStore, cfg.CacheTTL)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics))
	}

	// The board posts without credentials
	device := r.Group("/api/device")
	device.Use(rateLimiter)
	{
		device.POST("/counter", h.PostCounter)
		device.POST("/leds/:n", h.PostLEDState)
		device.GET("/state", h.GetDeviceState)
		device.GET("/commands", h.GetCommands)
		device.POST("/commands/:id/sent", h.MarkCommandSent)
	}

	api := r.Group("/api")
	api.Use(rateLimiter)
	if cfg.Auth {
		api.Use(mw.BasicAuth(h.store))
	}
	{
		api.POST("/commands", h.PostCommand)
		api.GET("/commands", h.GetCommands)
		api.POST("/commands/:id/sent", h.MarkCommandSent)

		api.GET("/state", caching, h.GetState)
		api.GET("/events", caching, h.GetEvents)
		api.GET("/ws", h.Stream)

		api.GET("/export", h.Export)
		api.GET("/exports", h.GetExports)
		api.GET("/exports/:id", h.GetExport)
	}

	return r
}
