package app

import (
	"net/http"
	"time"

	"github.com/amorris3925/get-creative/internal/middleware"
	"github.com/amorris3925/get-creative/internal/modules/auth"
	"github.com/amorris3925/get-creative/internal/modules/component/backup"
	"github.com/amorris3925/get-creative/internal/modules/content/section"
	"github.com/amorris3925/get-creative/internal/modules/content/styles"
	"github.com/amorris3925/get-creative/internal/modules/health"
	"github.com/amorris3925/get-creative/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const apiPrefix = "/api/v1"

func (a *App) registerRoutes() {
	r := a.router
	db := a.db
	authMW := middleware.Auth(db)

	r.NoRoute(func(c *gin.Context) { response.NotFound(c) })
	r.NoMethod(func(c *gin.Context) { response.MethodNotAllowed(c) })

	var rawRedis *redis.Client
	if a.cache != nil {
		rawRedis = a.cache.Raw()
	}
	r.Use(middleware.RateLimit(rawRedis))
	r.Use(middleware.Idempotence(rawRedis))

	health.NewHandler(db, a.cache).RegisterRoutes(r)

	api := r.Group(apiPrefix)
	api.Use(middleware.HTTPCache(rawRedis, middleware.HTTPCacheOptions{
		TTL:     15 * time.Second,
		Disable: a.cfg.IsDev(),
		SkipPaths: []string{
			apiPrefix + "/admin/session",
			apiPrefix + "/sections/history",
		},
	}))

	api.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"data": "pong"})
	})

	sectionSvc := section.NewService(db, a.cache, a.logger)
	section.NewHandler(sectionSvc).RegisterRoutes(api, authMW)
	styles.NewHandler(styles.NewService(db, sectionSvc)).RegisterRoutes(api, authMW)
	backup.NewHandler(backup.NewService(db, a.logger), a.cfg).RegisterRoutes(api, authMW)
	auth.NewHandler(auth.NewService(db, a.cache, a.cfg, a.logger), a.cfg).RegisterRoutes(api, authMW)

	api.GET("/clean_cache", authMW, func(c *gin.Context) {
		deleted, err := middleware.PurgeHTTPCache(c.Request.Context(), rawRedis)
		if err != nil {
			response.InternalError(c, err)
			return
		}
		if a.cache != nil {
			_ = a.cache.DelPattern(c.Request.Context(), "gc:content:*")
		}
		response.OK(c, gin.H{"ok": true, "deleted": deleted})
	})
}
