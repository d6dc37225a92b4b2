package auth

import (
	"errors"
	"net/http"

	"github.com/amorris3925/get-creative/internal/config"
	"github.com/amorris3925/get-creative/internal/middleware"
	"github.com/amorris3925/get-creative/internal/pkg/response"
	sessionpkg "github.com/amorris3925/get-creative/internal/pkg/session"
	"github.com/gin-gonic/gin"
)

type LoginDTO struct {
	Password string `json:"password" binding:"required"`
}

type Handler struct {
	svc *Service
	cfg *config.AppConfig
}

func NewHandler(svc *Service, cfg *config.AppConfig) *Handler {
	return &Handler{svc: svc, cfg: cfg}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/admin")
	g.POST("/login", h.login)
	g.POST("/logout", authMW, h.logout)
	g.GET("/session", authMW, h.session)
}

func (h *Handler) login(c *gin.Context) {
	var dto LoginDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	token, err := h.svc.Login(c.Request.Context(), dto.Password, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		switch {
		case errors.Is(err, ErrBadCredentials):
			response.Unauthorized(c)
		case errors.Is(err, ErrTooManyTries):
			response.TooManyRequests(c, err.Error())
		case errors.Is(err, ErrNotConfigured):
			response.InternalError(c, err)
		default:
			response.InternalError(c, err)
		}
		return
	}

	maxAge := int(sessionpkg.DefaultTTL.Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AdminCookie, token, maxAge, "/", "", h.cfg.CookieSecureEnabled(), true)
	response.OK(c, gin.H{"token": token})
}

func (h *Handler) logout(c *gin.Context) {
	if err := h.svc.Logout(middleware.CurrentSessionID(c)); err != nil {
		response.InternalError(c, err)
		return
	}
	c.SetCookie(middleware.AdminCookie, "", -1, "/", "", h.cfg.CookieSecureEnabled(), true)
	response.OK(c, gin.H{"loggedOut": true})
}

func (h *Handler) session(c *gin.Context) {
	response.OK(c, gin.H{
		"actor":     middleware.CurrentActor(c),
		"sessionId": middleware.CurrentSessionID(c),
	})
}
