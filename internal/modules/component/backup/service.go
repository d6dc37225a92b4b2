package backup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/amorris3925/get-creative/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrBackupNotFound = errors.New("backup not found")
	ErrEmptySource    = errors.New("source code is empty")
)

// hashLen truncates the sha256 hex digest stored alongside each snapshot.
// The hash is a change detector, not a security boundary.
const hashLen = 16

// Service manages immutable full-text snapshots of hand-maintained UI source
// files. Snapshots are append-only; rollback writes a new file on disk and
// flips the production flag, it never mutates existing rows.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewService(db *gorm.DB, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: db, logger: logger}
}

// CreateDTO carries everything needed to snapshot one component.
type CreateDTO struct {
	ComponentName string                 `json:"componentName" binding:"required"`
	ComponentPath string                 `json:"componentPath" binding:"required"`
	SourceCode    string                 `json:"sourceCode"    binding:"required"`
	VersionTag    string                 `json:"versionTag"`
	ChangeSummary string                 `json:"changeSummary"`
	ChangedBy     string                 `json:"changedBy"`
	ChangeSource  string                 `json:"changeSource"`
	Dependencies  map[string]interface{} `json:"dependencies"`
	GitCommitHash string                 `json:"gitCommitHash"`
	GitBranch     string                 `json:"gitBranch"`
	MarkProduction bool                  `json:"markProduction"`
}

// Create inserts a new snapshot with the next version number for the
// component. Size and line metrics are derived from the source, never trusted
// from the caller.
func (s *Service) Create(ctx context.Context, dto *CreateDTO) (*models.ComponentBackupModel, error) {
	if strings.TrimSpace(dto.SourceCode) == "" {
		return nil, ErrEmptySource
	}

	next, err := s.nextVersionNumber(ctx, dto.ComponentName)
	if err != nil {
		return nil, err
	}

	source := models.BackupSourceManual
	if dto.ChangeSource != "" {
		source = models.BackupSource(dto.ChangeSource)
	}

	row := &models.ComponentBackupModel{
		ComponentName: dto.ComponentName,
		ComponentPath: dto.ComponentPath,
		VersionNumber: next,
		VersionTag:    dto.VersionTag,
		SourceCode:    dto.SourceCode,
		SourceHash:    sourceHash(dto.SourceCode),
		FileSizeBytes: len(dto.SourceCode),
		LineCount:     strings.Count(dto.SourceCode, "\n") + 1,
		ChangeSummary: dto.ChangeSummary,
		ChangedBy:     dto.ChangedBy,
		ChangeSource:  source,
		Dependencies:  dto.Dependencies,
		GitCommitHash: dto.GitCommitHash,
		GitBranch:     dto.GitBranch,
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}

	if dto.MarkProduction {
		if err := s.MarkAsProduction(ctx, row.ID); err != nil {
			return nil, err
		}
		row.IsProduction = true
	}

	s.logger.Info("component snapshot created",
		zap.String("component", row.ComponentName),
		zap.Int("version", row.VersionNumber),
	)
	return row, nil
}

// Get returns one snapshot by id.
func (s *Service) Get(ctx context.Context, id string) (*models.ComponentBackupModel, error) {
	var row models.ComponentBackupModel
	err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBackupNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// List returns snapshots for a component, newest version first.
func (s *Service) List(ctx context.Context, componentName string, limit int) ([]models.ComponentBackupModel, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	tx := s.db.WithContext(ctx).
		Model(&models.ComponentBackupModel{}).
		Order("version_number DESC").
		Limit(limit)
	if componentName != "" {
		tx = tx.Where("component_name = ?", componentName)
	} else {
		tx = tx.Order("component_name ASC")
	}
	var rows []models.ComponentBackupModel
	return rows, tx.Find(&rows).Error
}

// GetProduction returns the snapshot currently flagged as production for a
// component, or nil when none is flagged.
func (s *Service) GetProduction(ctx context.Context, componentName string) (*models.ComponentBackupModel, error) {
	var row models.ComponentBackupModel
	err := s.db.WithContext(ctx).
		Where("component_name = ? AND is_production = ?", componentName, true).
		Order("version_number DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// TrackedComponent summarizes one component's backup state.
type TrackedComponent struct {
	ComponentName     string     `json:"componentName"`
	ComponentPath     string     `json:"componentPath"`
	VersionCount      int        `json:"versionCount"`
	LatestVersion     int        `json:"latestVersion"`
	ProductionVersion *int       `json:"productionVersion,omitempty"`
	LastBackupAt      time.Time  `json:"lastBackupAt"`
	LastDeployedAt    *time.Time `json:"lastDeployedAt,omitempty"`
}

// ListTracked aggregates every component that has at least one snapshot.
func (s *Service) ListTracked(ctx context.Context) ([]TrackedComponent, error) {
	var rows []models.ComponentBackupModel
	err := s.db.WithContext(ctx).
		Select("id", "component_name", "component_path", "version_number", "is_production", "deployed_at", "created_at").
		Order("component_name ASC, version_number ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	byName := map[string]*TrackedComponent{}
	for _, row := range rows {
		tc, ok := byName[row.ComponentName]
		if !ok {
			tc = &TrackedComponent{ComponentName: row.ComponentName}
			byName[row.ComponentName] = tc
		}
		tc.ComponentPath = row.ComponentPath
		tc.VersionCount++
		if row.VersionNumber > tc.LatestVersion {
			tc.LatestVersion = row.VersionNumber
			tc.LastBackupAt = row.CreatedAt
		}
		if row.IsProduction {
			v := row.VersionNumber
			tc.ProductionVersion = &v
			tc.LastDeployedAt = row.DeployedAt
		}
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]TrackedComponent, 0, len(names))
	for _, name := range names {
		out = append(out, *byName[name])
	}
	return out, nil
}

// MarkAsProduction flips the production flag to the given snapshot. The clear
// and the set are separate statements; a crash between them leaves the
// component with no flagged version, which rollback treats as "unknown".
func (s *Service) MarkAsProduction(ctx context.Context, id string) error {
	row, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).
		Model(&models.ComponentBackupModel{}).
		Where("component_name = ? AND is_production = ?", row.ComponentName, true).
		Update("is_production", false).Error; err != nil {
		return err
	}

	now := time.Now()
	return s.db.WithContext(ctx).
		Model(&models.ComponentBackupModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_production": true,
			"deployed_at":   now,
		}).Error
}

func (s *Service) nextVersionNumber(ctx context.Context, componentName string) (int, error) {
	var max int
	err := s.db.WithContext(ctx).
		Model(&models.ComponentBackupModel{}).
		Where("component_name = ?", componentName).
		Select("COALESCE(MAX(version_number), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}

func sourceHash(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])[:hashLen]
}
