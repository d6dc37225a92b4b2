package session

import (
	"strings"
	"time"

	"github.com/amorris3925/get-creative/internal/models"
	jwtpkg "github.com/amorris3925/get-creative/internal/pkg/jwt"
	"gorm.io/gorm"
)

const DefaultTTL = 7 * 24 * time.Hour

// Issue creates a DB session row and signs a JWT bound to it.
func Issue(db *gorm.DB, ip, ua string, ttl time.Duration) (string, *models.AdminSession, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	s := &models.AdminSession{
		IP:        strings.TrimSpace(ip),
		UA:        strings.TrimSpace(ua),
		ExpiresAt: time.Now().Add(ttl),
	}
	if err := db.Create(s).Error; err != nil {
		return "", nil, err
	}

	token, err := jwtpkg.Sign(s.ID, ttl)
	if err != nil {
		_ = db.Delete(s).Error
		return "", nil, err
	}
	return token, s, nil
}

// IsActive reports whether a session row is still valid.
func IsActive(db *gorm.DB, sessionID string) (bool, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return false, nil
	}

	var count int64
	err := db.Model(&models.AdminSession{}).
		Where("id = ? AND revoked_at IS NULL AND expires_at > ?", sessionID, time.Now()).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Revoke marks a session revoked. Revoking an unknown session is not an error.
func Revoke(db *gorm.DB, sessionID string) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil
	}
	now := time.Now()
	return db.Model(&models.AdminSession{}).
		Where("id = ? AND revoked_at IS NULL", sessionID).
		Update("revoked_at", &now).Error
}
