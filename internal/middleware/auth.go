package middleware

import (
	"errors"
	"strings"

	"github.com/amorris3925/get-creative/internal/pkg/jwt"
	"github.com/amorris3925/get-creative/internal/pkg/response"
	sessionpkg "github.com/amorris3925/get-creative/internal/pkg/session"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	// AdminCookie carries the session JWT for browser clients.
	AdminCookie = "gc_admin"

	ContextKeySID   = "session_id"
	ContextKeyActor = "actor"

	adminActor = "admin"
)

// Auth returns a middleware that requires a valid admin session, taken from
// the session cookie or a bearer token.
func Auth(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := validateToken(db, extractToken(c))
		if err != nil {
			response.Unauthorized(c)
			return
		}
		c.Set(ContextKeySID, claims.SessionID)
		c.Set(ContextKeyActor, adminActor)
		c.Next()
	}
}

func validateToken(db *gorm.DB, rawToken string) (*jwt.Claims, error) {
	if rawToken == "" {
		return nil, errors.New("token is required")
	}
	claims, err := jwt.Parse(rawToken)
	if err != nil {
		return nil, err
	}
	active, err := sessionpkg.IsActive(db, claims.SessionID)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, errors.New("session expired or revoked")
	}
	return claims, nil
}

// CurrentActor returns the authenticated actor name, or "" when the request
// is unauthenticated.
func CurrentActor(c *gin.Context) string {
	v, _ := c.Get(ContextKeyActor)
	actor, _ := v.(string)
	return actor
}

// CurrentSessionID returns the authenticated session id from context.
func CurrentSessionID(c *gin.Context) string {
	v, _ := c.Get(ContextKeySID)
	id, _ := v.(string)
	return id
}

// IsAuthenticated reports whether the request carries a valid session.
func IsAuthenticated(c *gin.Context) bool {
	return CurrentActor(c) != ""
}

func extractToken(c *gin.Context) string {
	if cookie, err := c.Cookie(AdminCookie); err == nil && cookie != "" {
		return NormalizeToken(cookie)
	}
	return NormalizeToken(c.GetHeader("Authorization"))
}

// NormalizeToken trims spaces and strips an optional Bearer prefix.
func NormalizeToken(raw string) string {
	token := strings.TrimSpace(raw)
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		return strings.TrimSpace(token[7:])
	}
	return token
}
