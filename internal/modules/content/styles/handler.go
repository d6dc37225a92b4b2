package styles

import (
	"errors"

	"github.com/amorris3925/get-creative/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

type UpsertStyleDTO struct {
	ElementPath string            `json:"elementPath" binding:"required"`
	Breakpoint  string            `json:"breakpoint"  binding:"required"`
	Styles      map[string]string `json:"styles"`
	IsVisible   *bool             `json:"isVisible"`
}

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/styles")
	g.GET("", h.list)
	g.POST("", authMW, h.upsert)
	g.DELETE("", authMW, h.delete)
}

func (h *Handler) upsert(c *gin.Context) {
	var dto UpsertStyleDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	row, err := h.svc.Upsert(c.Request.Context(), dto.ElementPath, dto.Breakpoint, dto.Styles, dto.IsVisible)
	if err != nil {
		if errors.Is(err, ErrInvalidBreakpoint) {
			response.BadRequest(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, row)
}

func (h *Handler) list(c *gin.Context) {
	rows, err := h.svc.List(c.Request.Context(), c.Query("elementPath"), c.Query("breakpoint"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, rows)
}

func (h *Handler) delete(c *gin.Context) {
	elementPath := c.Query("elementPath")
	if elementPath == "" {
		response.BadRequest(c, "elementPath is required")
		return
	}
	if err := h.svc.Delete(c.Request.Context(), elementPath, c.Query("breakpoint")); err != nil {
		response.InternalError(c, err)
		return
	}
	response.NoContent(c)
}
