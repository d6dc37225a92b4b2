package models

import "time"

// SyncStatusModel remembers the content hash last written by the code sync
// for a section, so the sync CLI can tell "default changed" apart from
// "someone edited this in the CMS since the last sync".
type SyncStatusModel struct {
	Base
	Page         string    `json:"page"         gorm:"uniqueIndex:idx_sync_key;not null"`
	SectionKey   string    `json:"section_key"  gorm:"uniqueIndex:idx_sync_key;not null"`
	ContentHash  string    `json:"content_hash" gorm:"not null"`
	LastSyncedAt time.Time `json:"last_synced_at"`
}

func (SyncStatusModel) TableName() string { return "sync_statuses" }
