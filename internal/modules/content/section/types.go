package section

import (
	"errors"
	"time"
)

var (
	// ErrUnknownSection rejects edits against keys missing from the defaults
	// template, so inline saves cannot pollute the sections table.
	ErrUnknownSection = errors.New("unknown section key")
	// ErrNothingToRollback means the audit entry records a creation.
	ErrNothingToRollback = errors.New("version has no previous content to restore")
	// ErrVersionNotFound means the requested audit entry does not exist.
	ErrVersionNotFound = errors.New("content version not found")
	// ErrSectionGone means the audited row no longer exists.
	ErrSectionGone = errors.New("section row no longer exists")
)

// InlineChange is one field-level edit inside a batched inline save.
type InlineChange struct {
	Path  []string `json:"path"  binding:"required"`
	Value string   `json:"value"`
}

// InlineSaveDTO is the body of POST /sections/inline.
type InlineSaveDTO struct {
	SectionKey string         `json:"sectionKey" binding:"required"`
	Changes    []InlineChange `json:"changes"    binding:"required"`
}

// UpsertSectionDTO is the body of PUT /sections/:page/:key.
type UpsertSectionDTO struct {
	Content    map[string]interface{} `json:"content" binding:"required"`
	IsVisible  *bool                  `json:"is_visible"`
	OrderIndex *int                   `json:"order_index"`
}

// RollbackDTO is the body of POST /sections/rollback.
type RollbackDTO struct {
	VersionID string `json:"versionId" binding:"required"`
}

// View is one merged section as served to the rendered page.
type View struct {
	Page       string                 `json:"page"`
	SectionKey string                 `json:"section_key"`
	Content    map[string]interface{} `json:"content"`
	IsVisible  bool                   `json:"is_visible"`
	OrderIndex int                    `json:"order_index"`
	UpdatedAt  *time.Time             `json:"updated_at,omitempty"`
}

// HistoryEntry is the lossy display shape derived from an audit row. The
// snippets are truncated stringifications, not a structured diff.
type HistoryEntry struct {
	ID            string    `json:"id"`
	SectionKey    string    `json:"sectionKey"`
	Path          string    `json:"path"`
	PreviousValue string    `json:"previousValue"`
	NewValue      string    `json:"newValue"`
	Timestamp     time.Time `json:"timestamp"`
	Source        string    `json:"source"`
	ChangedBy     string    `json:"changedBy"`
}
