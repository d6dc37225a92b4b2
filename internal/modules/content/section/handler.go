package section

import (
	"errors"
	"strconv"

	"github.com/amorris3925/get-creative/internal/middleware"
	"github.com/amorris3925/get-creative/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/sections")
	g.GET("/:page", h.merged)

	a := g.Group("", authMW)
	a.POST("/inline", h.saveInline)
	a.GET("/history", h.history)
	a.POST("/rollback", h.rollback)
	a.PUT("/:page/:key", h.upsert)
	a.DELETE("/:page/:key", h.delete)
}

func (h *Handler) merged(c *gin.Context) {
	views, err := h.svc.Merged(c.Request.Context(), c.Param("page"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if views == nil {
		response.NotFoundMsg(c, "unknown page")
		return
	}
	response.OK(c, views)
}

func (h *Handler) saveInline(c *gin.Context) {
	var dto InlineSaveDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	row, err := h.svc.SaveInline(c.Request.Context(), dto.SectionKey, dto.Changes, middleware.CurrentActor(c))
	if err != nil {
		if errors.Is(err, ErrUnknownSection) {
			response.BadRequest(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, row)
}

func (h *Handler) history(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	entries, err := h.svc.History(c.Request.Context(), limit)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, entries)
}

func (h *Handler) rollback(c *gin.Context) {
	var dto RollbackDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	err := h.svc.Rollback(c.Request.Context(), dto.VersionID, middleware.CurrentActor(c))
	switch {
	case err == nil:
		response.OK(c, gin.H{"ok": true})
	case errors.Is(err, ErrVersionNotFound):
		response.NotFoundMsg(c, err.Error())
	case errors.Is(err, ErrNothingToRollback), errors.Is(err, ErrSectionGone):
		response.BadRequest(c, err.Error())
	default:
		response.InternalError(c, err)
	}
}

func (h *Handler) upsert(c *gin.Context) {
	var dto UpsertSectionDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	row, err := h.svc.Upsert(c.Request.Context(), c.Param("page"), c.Param("key"), &dto, middleware.CurrentActor(c), "")
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, row)
}

func (h *Handler) delete(c *gin.Context) {
	err := h.svc.Delete(c.Request.Context(), c.Param("page"), c.Param("key"), middleware.CurrentActor(c))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c)
			return
		}
		response.InternalError(c, err)
		return
	}
	response.NoContent(c)
}
