package models

import "time"

// BackupSource labels how a component backup came to exist.
type BackupSource string

const (
	BackupSourceManual    BackupSource = "manual"
	BackupSourcePreDeploy BackupSource = "pre-deploy"
	BackupSourceRollback  BackupSource = "rollback"
	BackupSourceAuto      BackupSource = "auto-backup"
)

// ComponentBackupModel is an immutable full-text snapshot of a hand-maintained
// UI source file. VersionNumber is a per-component monotonic sequence assigned
// by the service on insert. At most one row per ComponentName should carry
// IsProduction=true; the flag flip is two statements, so the invariant is
// eventual, not atomic.
type ComponentBackupModel struct {
	Base
	ComponentName string                 `json:"component_name"  gorm:"index;not null"`
	ComponentPath string                 `json:"component_path"  gorm:"not null"`
	VersionNumber int                    `json:"version_number"  gorm:"not null"`
	VersionTag    string                 `json:"version_tag"`
	SourceCode    string                 `json:"source_code"     gorm:"type:longtext"`
	SourceHash    string                 `json:"source_hash"`
	FileSizeBytes int                    `json:"file_size_bytes"`
	LineCount     int                    `json:"line_count"`
	ChangeSummary string                 `json:"change_summary"`
	ChangedBy     string                 `json:"changed_by"`
	ChangeSource  BackupSource           `json:"change_source"   gorm:"default:manual"`
	Dependencies  map[string]interface{} `json:"dependencies"    gorm:"serializer:json"`
	GitCommitHash string                 `json:"git_commit_hash"`
	GitBranch     string                 `json:"git_branch"`
	IsProduction  bool                   `json:"is_production"   gorm:"default:false;index"`
	DeployedAt    *time.Time             `json:"deployed_at"`
}

func (ComponentBackupModel) TableName() string { return "component_backups" }
