package models

// ChangeSource labels who/what produced a content mutation. Inline and
// rollback routes may also write free-form strings (e.g. "cms-inline").
type ChangeSource string

const (
	ChangeSourceCMS      ChangeSource = "cms"
	ChangeSourceCode     ChangeSource = "code"
	ChangeSourceSeed     ChangeSource = "seed"
	ChangeSourceRollback ChangeSource = "rollback"
)

// ContentVersionModel is an immutable audit record of one content mutation.
// Rows are append-only: nothing in the application updates or deletes them.
// A nil PreviousContent signals "record created".
type ContentVersionModel struct {
	Base
	RefTable        string                 `json:"table_name"       gorm:"column:table_name;index;not null"`
	RecordID        string                 `json:"record_id"        gorm:"index;not null"`
	ChangeSource    string                 `json:"change_source"    gorm:"index;default:cms"`
	ChangedBy       string                 `json:"changed_by"`
	PreviousContent map[string]interface{} `json:"previous_content" gorm:"serializer:json;type:longtext"`
	NewContent      map[string]interface{} `json:"new_content"      gorm:"serializer:json;type:longtext"`
}

func (ContentVersionModel) TableName() string { return "content_versions" }
