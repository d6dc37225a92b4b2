package models

// SectionModel is one named slot of page content. The effective content for a
// key with no row is the code-level default tree; a row only stores overrides
// (or a full replacement written by the section editor).
type SectionModel struct {
	Base
	Page       string                 `json:"page"        gorm:"uniqueIndex:idx_page_section;not null"`
	SectionKey string                 `json:"section_key" gorm:"uniqueIndex:idx_page_section;not null"`
	Content    map[string]interface{} `json:"content"     gorm:"serializer:json;type:longtext"`
	IsVisible  bool                   `json:"is_visible"  gorm:"default:true"`
	OrderIndex int                    `json:"order_index" gorm:"default:0"`
}

func (SectionModel) TableName() string { return "sections" }
