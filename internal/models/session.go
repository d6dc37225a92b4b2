package models

import "time"

// AdminSession tracks signed-in admin sessions. The JWT carries the session
// id, so revoking the row invalidates the token before it expires.
type AdminSession struct {
	Base
	IP        string     `json:"ip"`
	UA        string     `json:"ua"         gorm:"type:text"`
	ExpiresAt time.Time  `json:"expires_at" gorm:"index;not null"`
	RevokedAt *time.Time `json:"revoked_at" gorm:"index"`
}

func (AdminSession) TableName() string { return "admin_sessions" }
