package health

import (
	"time"

	pkgredis "github.com/amorris3925/get-creative/internal/pkg/redis"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handler serves the liveness probe with store and cache status.
type Handler struct {
	db      *gorm.DB
	cache   *pkgredis.Client
	started time.Time
}

func NewHandler(db *gorm.DB, cache *pkgredis.Client) *Handler {
	return &Handler{db: db, cache: cache, started: time.Now()}
}

func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/healthz", h.healthz)
}

func (h *Handler) healthz(c *gin.Context) {
	dbStatus := "ok"
	if h.db == nil {
		dbStatus = "unconfigured"
	} else if sqlDB, err := h.db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		dbStatus = "down"
	}

	cacheStatus := "ok"
	if h.cache == nil {
		cacheStatus = "unconfigured"
	} else if err := h.cache.Raw().Ping(c.Request.Context()).Err(); err != nil {
		cacheStatus = "down"
	}

	c.JSON(200, gin.H{
		"status": "ok",
		"uptime": time.Since(h.started).Round(time.Second).String(),
		"db":     dbStatus,
		"redis":  cacheStatus,
	})
}
