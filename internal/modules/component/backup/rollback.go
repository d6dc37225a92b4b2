package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/amorris3925/get-creative/internal/models"
	"go.uber.org/zap"
)

// Rollback restores a snapshot to the live component file and flags it as
// production. Before overwriting, the current on-disk source is snapshotted
// best-effort with change source "pre-deploy" so the rollback itself is
// reversible. A cross-referencing audit row lands in content_versions.
func (s *Service) Rollback(ctx context.Context, componentsDir, id, changedBy string) (*models.ComponentBackupModel, error) {
	target, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	livePath := resolveLivePath(componentsDir, target.ComponentPath)

	var preRollback *models.ComponentBackupModel
	current, readErr := os.ReadFile(livePath)
	switch {
	case readErr == nil:
		if sourceHash(string(current)) != target.SourceHash {
			snap, snapErr := s.Create(ctx, &CreateDTO{
				ComponentName: target.ComponentName,
				ComponentPath: target.ComponentPath,
				SourceCode:    string(current),
				ChangeSummary: fmt.Sprintf("auto snapshot before rollback to v%d", target.VersionNumber),
				ChangedBy:     changedBy,
				ChangeSource:  string(models.BackupSourcePreDeploy),
			})
			if snapErr != nil {
				s.logger.Warn("pre-rollback snapshot failed",
					zap.String("component", target.ComponentName),
					zap.Error(snapErr),
				)
			} else {
				preRollback = snap
			}
		}
	case !os.IsNotExist(readErr):
		s.logger.Warn("live component read failed, rolling back without a pre-snapshot",
			zap.String("path", livePath),
			zap.Error(readErr),
		)
	}

	if err := os.MkdirAll(filepath.Dir(livePath), 0o755); err != nil {
		return nil, fmt.Errorf("prepare component dir: %w", err)
	}
	if err := os.WriteFile(livePath, []byte(target.SourceCode), 0o644); err != nil {
		return nil, fmt.Errorf("write component file: %w", err)
	}

	if err := s.MarkAsProduction(ctx, target.ID); err != nil {
		return nil, err
	}
	target.IsProduction = true

	newContent := map[string]interface{}{
		"componentName": target.ComponentName,
		"versionNumber": target.VersionNumber,
		"sourceHash":    target.SourceHash,
	}
	if preRollback != nil {
		newContent["preRollbackBackupId"] = preRollback.ID
		newContent["preRollbackVersion"] = preRollback.VersionNumber
	}
	audit := models.ContentVersionModel{
		RefTable:     target.TableName(),
		RecordID:     target.ID,
		ChangeSource: string(models.ChangeSourceRollback),
		ChangedBy:    changedBy,
		NewContent:   newContent,
	}
	if err := s.db.WithContext(ctx).Create(&audit).Error; err != nil {
		s.logger.Warn("rollback audit write failed", zap.Error(err))
	}

	s.logger.Info("component rolled back",
		zap.String("component", target.ComponentName),
		zap.Int("version", target.VersionNumber),
		zap.String("path", livePath),
	)
	return target, nil
}

// resolveLivePath anchors a stored component path under the configured
// components directory, stripping any leading segments that would escape it.
func resolveLivePath(componentsDir, componentPath string) string {
	clean := filepath.Clean("/" + strings.ReplaceAll(componentPath, "\\", "/"))
	return filepath.Join(componentsDir, clean)
}
