package sync

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/amorris3925/get-creative/internal/models"
	"github.com/amorris3925/get-creative/internal/modules/content/defaults"
	"github.com/amorris3925/get-creative/internal/pkg/jsontree"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Syncer pushes code-level default content into the store, one way. A section
// edited through the CMS since the last sync is never overwritten; it is
// reported as a conflict instead.
type Syncer struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewSyncer(db *gorm.DB, logger *zap.Logger) *Syncer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Syncer{db: db, logger: logger}
}

// Outcome classifies what happened to one section during a sync run.
type Outcome string

const (
	OutcomeCreated   Outcome = "created"
	OutcomeUpdated   Outcome = "updated"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeConflict  Outcome = "conflict"
)

// Result is the per-section record of a sync run.
type Result struct {
	Page       string  `json:"page"`
	SectionKey string  `json:"sectionKey"`
	Outcome    Outcome `json:"outcome"`
}

// Report aggregates a full run.
type Report struct {
	Results   []Result `json:"results"`
	Created   int      `json:"created"`
	Updated   int      `json:"updated"`
	Unchanged int      `json:"unchanged"`
	Conflicts int      `json:"conflicts"`
}

// Run walks every registered default and reconciles it with the store.
// Decision per section:
//   - no store row: create it from the default, record the hash.
//   - store row matches the last synced hash: safe to overwrite with the
//     (possibly changed) default.
//   - store row differs from the last synced hash, or no hash exists for a
//     pre-existing row: manual edit, flag a conflict, leave the row alone.
func (s *Syncer) Run(ctx context.Context) (*Report, error) {
	report := &Report{}

	for _, entry := range defaults.All() {
		outcome, err := s.syncOne(ctx, entry)
		if err != nil {
			return report, err
		}
		report.Results = append(report.Results, Result{
			Page:       entry.Page,
			SectionKey: entry.SectionKey,
			Outcome:    outcome,
		})
		switch outcome {
		case OutcomeCreated:
			report.Created++
		case OutcomeUpdated:
			report.Updated++
		case OutcomeUnchanged:
			report.Unchanged++
		case OutcomeConflict:
			report.Conflicts++
		}
	}
	return report, nil
}

func (s *Syncer) syncOne(ctx context.Context, entry defaults.Entry) (Outcome, error) {
	defaultHash, err := contentHash(entry.Content)
	if err != nil {
		return "", err
	}

	var row models.SectionModel
	rowErr := s.db.WithContext(ctx).
		Where("page = ? AND section_key = ?", entry.Page, entry.SectionKey).
		First(&row).Error

	if errors.Is(rowErr, gorm.ErrRecordNotFound) {
		row = models.SectionModel{
			Page:       entry.Page,
			SectionKey: entry.SectionKey,
			Content:    jsontree.Clone(entry.Content),
			IsVisible:  true,
			OrderIndex: entry.OrderIndex,
		}
		if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
			return "", err
		}
		if err := s.appendAudit(ctx, row.ID, nil, row.Content); err != nil {
			return "", err
		}
		if err := s.recordHash(ctx, entry.Page, entry.SectionKey, defaultHash); err != nil {
			return "", err
		}
		return OutcomeCreated, nil
	}
	if rowErr != nil {
		return "", rowErr
	}

	storedHash, err := contentHash(row.Content)
	if err != nil {
		return "", err
	}
	if storedHash == defaultHash {
		if err := s.recordHash(ctx, entry.Page, entry.SectionKey, defaultHash); err != nil {
			return "", err
		}
		return OutcomeUnchanged, nil
	}

	var status models.SyncStatusModel
	statusErr := s.db.WithContext(ctx).
		Where("page = ? AND section_key = ?", entry.Page, entry.SectionKey).
		First(&status).Error
	if statusErr != nil && !errors.Is(statusErr, gorm.ErrRecordNotFound) {
		return "", statusErr
	}
	if errors.Is(statusErr, gorm.ErrRecordNotFound) || status.ContentHash != storedHash {
		s.logger.Warn("sync conflict: section edited in CMS, skipping",
			zap.String("page", entry.Page),
			zap.String("section", entry.SectionKey),
		)
		return OutcomeConflict, nil
	}

	previous := jsontree.Clone(row.Content)
	next := jsontree.Clone(entry.Content)
	if err := s.db.WithContext(ctx).Model(&row).Updates(map[string]interface{}{
		"content":    next,
		"updated_at": time.Now(),
	}).Error; err != nil {
		return "", err
	}
	if err := s.appendAudit(ctx, row.ID, previous, next); err != nil {
		return "", err
	}
	if err := s.recordHash(ctx, entry.Page, entry.SectionKey, defaultHash); err != nil {
		return "", err
	}
	return OutcomeUpdated, nil
}

func (s *Syncer) appendAudit(ctx context.Context, recordID string, previous, next map[string]interface{}) error {
	v := models.ContentVersionModel{
		RefTable:        (models.SectionModel{}).TableName(),
		RecordID:        recordID,
		ChangeSource:    string(models.ChangeSourceCode),
		ChangedBy:       "sync-content",
		PreviousContent: previous,
		NewContent:      next,
	}
	return s.db.WithContext(ctx).Create(&v).Error
}

func (s *Syncer) recordHash(ctx context.Context, page, sectionKey, hash string) error {
	var status models.SyncStatusModel
	err := s.db.WithContext(ctx).
		Where("page = ? AND section_key = ?", page, sectionKey).
		First(&status).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		status = models.SyncStatusModel{
			Page:         page,
			SectionKey:   sectionKey,
			ContentHash:  hash,
			LastSyncedAt: time.Now(),
		}
		return s.db.WithContext(ctx).Create(&status).Error
	}
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(&status).Updates(map[string]interface{}{
		"content_hash":   hash,
		"last_synced_at": time.Now(),
	}).Error
}

// contentHash produces a stable digest of a content tree. json.Marshal sorts
// map keys, so equal trees hash equal.
func contentHash(content map[string]interface{}) (string, error) {
	raw, err := json.Marshal(content)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
