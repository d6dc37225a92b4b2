package backup

import (
	"errors"
	"strconv"

	"github.com/amorris3925/get-creative/internal/config"
	"github.com/amorris3925/get-creative/internal/middleware"
	"github.com/amorris3925/get-creative/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

type RollbackDTO struct {
	BackupID string `json:"backupId" binding:"required"`
}

type Handler struct {
	svc *Service
	cfg *config.AppConfig
}

func NewHandler(svc *Service, cfg *config.AppConfig) *Handler {
	return &Handler{svc: svc, cfg: cfg}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/components", authMW)
	g.POST("/backup", h.create)
	g.GET("/list", h.listTracked)
	g.GET("/:name/versions", h.versions)
	g.GET("/:name/production", h.production)
	g.POST("/rollback", h.rollback)
	g.POST("/:id/promote", h.promote)
}

func (h *Handler) create(c *gin.Context) {
	var dto CreateDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if dto.ChangedBy == "" {
		dto.ChangedBy = middleware.CurrentActor(c)
	}

	row, err := h.svc.Create(c.Request.Context(), &dto)
	if err != nil {
		if errors.Is(err, ErrEmptySource) {
			response.BadRequest(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Created(c, row)
}

func (h *Handler) listTracked(c *gin.Context) {
	tracked, err := h.svc.ListTracked(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, tracked)
}

func (h *Handler) versions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	rows, err := h.svc.List(c.Request.Context(), c.Param("name"), limit)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, rows)
}

func (h *Handler) production(c *gin.Context) {
	row, err := h.svc.GetProduction(c.Request.Context(), c.Param("name"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if row == nil {
		response.NotFoundMsg(c, "no production version")
		return
	}
	response.OK(c, row)
}

func (h *Handler) rollback(c *gin.Context) {
	var dto RollbackDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	row, err := h.svc.Rollback(c.Request.Context(), h.cfg.ComponentsDir, dto.BackupID, middleware.CurrentActor(c))
	if err != nil {
		if errors.Is(err, ErrBackupNotFound) {
			response.NotFoundMsg(c, "backup not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, row)
}

func (h *Handler) promote(c *gin.Context) {
	if err := h.svc.MarkAsProduction(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, ErrBackupNotFound) {
			response.NotFoundMsg(c, "backup not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"promoted": true})
}
