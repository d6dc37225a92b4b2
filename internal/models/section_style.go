package models

// SectionStyleModel stores per-breakpoint CSS property overrides and a
// visibility flag for one rendered element path. Writes to the same
// (section, element path, breakpoint) triple are last-write-wins upserts.
type SectionStyleModel struct {
	Base
	SectionID   string            `json:"section_id"   gorm:"uniqueIndex:idx_style_key;not null"`
	ElementPath string            `json:"element_path" gorm:"uniqueIndex:idx_style_key;not null"`
	Breakpoint  string            `json:"breakpoint"   gorm:"uniqueIndex:idx_style_key;not null"`
	Styles      map[string]string `json:"styles"       gorm:"serializer:json;type:longtext"`
	IsVisible   bool              `json:"is_visible"   gorm:"default:true"`
}

func (SectionStyleModel) TableName() string { return "section_styles" }
