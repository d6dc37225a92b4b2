package section

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/amorris3925/get-creative/internal/models"
	"github.com/amorris3925/get-creative/internal/modules/content/defaults"
	"github.com/amorris3925/get-creative/internal/pkg/jsontree"
	pkgredis "github.com/amorris3925/get-creative/internal/pkg/redis"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	contentCachePrefix = "gc:content:"
	contentCacheTTL    = 60 * time.Second

	// inlineSource is the free-form change source written by the inline
	// batched save route.
	inlineSource = "cms-inline"
)

// Service is the persistence gateway for section content: it owns every
// read/write against the sections table and appends one audit row per
// mutation.
type Service struct {
	db     *gorm.DB
	cache  *pkgredis.Client
	logger *zap.Logger
}

func NewService(db *gorm.DB, cache *pkgredis.Client, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: db, cache: cache, logger: logger}
}

// Merged returns the effective content for every section of a page:
// code-level defaults deep-merged with store overrides. Arrays in an
// override replace the default wholesale.
func (s *Service) Merged(ctx context.Context, page string) ([]View, error) {
	if cached := s.cacheGet(ctx, page); cached != nil {
		return cached, nil
	}

	entries := defaults.ForPage(page)
	if len(entries) == 0 {
		return nil, nil
	}

	var rows []models.SectionModel
	if err := s.db.WithContext(ctx).Where("page = ?", page).Find(&rows).Error; err != nil {
		return nil, err
	}
	byKey := make(map[string]*models.SectionModel, len(rows))
	for i := range rows {
		byKey[rows[i].SectionKey] = &rows[i]
	}

	views := make([]View, 0, len(entries))
	for _, e := range entries {
		v := View{
			Page:       e.Page,
			SectionKey: e.SectionKey,
			Content:    jsontree.Clone(e.Content),
			IsVisible:  true,
			OrderIndex: e.OrderIndex,
		}
		if row, ok := byKey[e.SectionKey]; ok {
			v.Content = jsontree.Merge(e.Content, row.Content)
			v.IsVisible = row.IsVisible
			v.OrderIndex = row.OrderIndex
			updated := row.UpdatedAt
			v.UpdatedAt = &updated
		}
		views = append(views, v)
	}

	s.cachePut(ctx, page, views)
	return views, nil
}

// SaveInline applies a batch of field-level edits to one section. Unknown
// keys are rejected outright; nothing touches the store in that case. Leaf
// assignment preserves the pre-existing value's type (numeric leaves parse
// the submitted string as a float, 0 on failure). Exactly one audit row is
// appended capturing the full before/after trees.
func (s *Service) SaveInline(ctx context.Context, sectionKey string, changes []InlineChange, changedBy string) (*models.SectionModel, error) {
	entry, ok := defaults.Lookup(sectionKey)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSection, sectionKey)
	}
	if len(changes) == 0 {
		return nil, errors.New("no changes supplied")
	}

	row, err := s.rowByKey(ctx, sectionKey)
	if err != nil {
		return nil, err
	}

	var tree, previous map[string]interface{}
	if row != nil {
		previous = jsontree.Clone(row.Content)
		tree = jsontree.Clone(row.Content)
	} else {
		tree = jsontree.Clone(entry.Content)
	}

	for _, ch := range changes {
		if len(ch.Path) == 0 {
			continue
		}
		existing, found := jsontree.Get(tree, ch.Path)
		if !found {
			existing, _ = jsontree.Get(entry.Content, ch.Path)
		}
		jsontree.Set(tree, ch.Path, jsontree.CoerceLeaf(existing, ch.Value))
	}

	if row != nil {
		if err := s.db.WithContext(ctx).Model(row).Updates(map[string]interface{}{
			"content":    tree,
			"updated_at": time.Now(),
		}).Error; err != nil {
			return nil, err
		}
		row.Content = tree
	} else {
		row = &models.SectionModel{
			Page:       entry.Page,
			SectionKey: sectionKey,
			Content:    tree,
			IsVisible:  true,
			OrderIndex: entry.OrderIndex,
		}
		if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
			return nil, err
		}
	}

	if err := s.appendVersion(ctx, row.ID, inlineSource, changedBy, previous, tree); err != nil {
		return nil, err
	}

	s.cacheInvalidate(ctx, entry.Page)
	return row, nil
}

// Upsert replaces a section's stored content wholesale (structured editor or
// raw-JSON editor flush). No merging happens on this path.
func (s *Service) Upsert(ctx context.Context, page, sectionKey string, dto *UpsertSectionDTO, changedBy string, source string) (*models.SectionModel, error) {
	if source == "" {
		source = string(models.ChangeSourceCMS)
	}

	row, err := s.rowByPageKey(ctx, page, sectionKey)
	if err != nil {
		return nil, err
	}

	var previous map[string]interface{}
	if row != nil {
		previous = jsontree.Clone(row.Content)
		updates := map[string]interface{}{
			"content":    dto.Content,
			"updated_at": time.Now(),
		}
		if dto.IsVisible != nil {
			updates["is_visible"] = *dto.IsVisible
		}
		if dto.OrderIndex != nil {
			updates["order_index"] = *dto.OrderIndex
		}
		if err := s.db.WithContext(ctx).Model(row).Updates(updates).Error; err != nil {
			return nil, err
		}
		row.Content = dto.Content
	} else {
		row = &models.SectionModel{
			Page:       page,
			SectionKey: sectionKey,
			Content:    dto.Content,
			IsVisible:  true,
		}
		if entry, ok := defaults.Lookup(sectionKey); ok {
			row.OrderIndex = entry.OrderIndex
		}
		if dto.IsVisible != nil {
			row.IsVisible = *dto.IsVisible
		}
		if dto.OrderIndex != nil {
			row.OrderIndex = *dto.OrderIndex
		}
		if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
			return nil, err
		}
	}

	if err := s.appendVersion(ctx, row.ID, source, changedBy, previous, dto.Content); err != nil {
		return nil, err
	}

	s.cacheInvalidate(ctx, page)
	return row, nil
}

// Delete tombstones a section: it appends an audit entry recording the final
// content, then removes the row. The two steps are not atomic; a concurrent
// reader may briefly see the row after the tombstone lands.
func (s *Service) Delete(ctx context.Context, page, sectionKey, changedBy string) error {
	row, err := s.rowByPageKey(ctx, page, sectionKey)
	if err != nil {
		return err
	}
	if row == nil {
		return gorm.ErrRecordNotFound
	}

	if err := s.appendVersion(ctx, row.ID, string(models.ChangeSourceCMS), changedBy, jsontree.Clone(row.Content), nil); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(&models.SectionModel{}, "id = ?", row.ID).Error; err != nil {
		return err
	}

	s.cacheInvalidate(ctx, page)
	return nil
}

// Rollback restores an audit entry's previous content into the live section.
// The restore itself is recorded as a new forward-moving audit event tagged
// "rollback"; history is never rewritten.
func (s *Service) Rollback(ctx context.Context, versionID, changedBy string) error {
	var version models.ContentVersionModel
	if err := s.db.WithContext(ctx).First(&version, "id = ?", versionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrVersionNotFound
		}
		return err
	}
	if version.PreviousContent == nil {
		return ErrNothingToRollback
	}
	if version.RefTable != (models.SectionModel{}).TableName() {
		return fmt.Errorf("cannot roll back entries for table %q", version.RefTable)
	}

	var row models.SectionModel
	if err := s.db.WithContext(ctx).First(&row, "id = ?", version.RecordID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSectionGone
		}
		return err
	}

	overwritten := jsontree.Clone(row.Content)
	restored := jsontree.Clone(version.PreviousContent)

	if err := s.db.WithContext(ctx).Model(&row).Updates(map[string]interface{}{
		"content":    restored,
		"updated_at": time.Now(),
	}).Error; err != nil {
		return err
	}

	if err := s.appendVersion(ctx, row.ID, string(models.ChangeSourceRollback), changedBy, overwritten, restored); err != nil {
		return err
	}

	s.cacheInvalidate(ctx, row.Page)
	s.logger.Info("section rolled back",
		zap.String("section", row.SectionKey),
		zap.String("version_id", versionID),
	)
	return nil
}

// EnsureBacking resolves the section row for a key, lazily creating an
// empty-content row when absent. Style overrides hang off a section id, so
// styling an element whose section was never edited needs a backing row.
func (s *Service) EnsureBacking(ctx context.Context, sectionKey string) (*models.SectionModel, error) {
	row, err := s.rowByKey(ctx, sectionKey)
	if err != nil {
		return nil, err
	}
	if row != nil {
		return row, nil
	}

	page := sectionKey
	orderIndex := 0
	content := map[string]interface{}{}
	if entry, ok := defaults.Lookup(sectionKey); ok {
		page = entry.Page
		orderIndex = entry.OrderIndex
	}

	row = &models.SectionModel{
		Page:       page,
		SectionKey: sectionKey,
		Content:    content,
		IsVisible:  true,
		OrderIndex: orderIndex,
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	if err := s.appendVersion(ctx, row.ID, string(models.ChangeSourceSeed), "style-overlay", nil, content); err != nil {
		return nil, err
	}
	s.cacheInvalidate(ctx, page)
	return row, nil
}

func (s *Service) appendVersion(ctx context.Context, recordID, source, changedBy string, previous, next map[string]interface{}) error {
	v := models.ContentVersionModel{
		RefTable:        (models.SectionModel{}).TableName(),
		RecordID:        recordID,
		ChangeSource:    source,
		ChangedBy:       changedBy,
		PreviousContent: previous,
		NewContent:      next,
	}
	return s.db.WithContext(ctx).Create(&v).Error
}

func (s *Service) rowByKey(ctx context.Context, sectionKey string) (*models.SectionModel, error) {
	var row models.SectionModel
	err := s.db.WithContext(ctx).Where("section_key = ?", sectionKey).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *Service) rowByPageKey(ctx context.Context, page, sectionKey string) (*models.SectionModel, error) {
	var row models.SectionModel
	err := s.db.WithContext(ctx).Where("page = ? AND section_key = ?", page, sectionKey).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *Service) cacheGet(ctx context.Context, page string) []View {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, contentCachePrefix+page)
	if err != nil || raw == "" {
		return nil
	}
	var views []View
	if err := json.Unmarshal([]byte(raw), &views); err != nil {
		return nil
	}
	return views
}

func (s *Service) cachePut(ctx context.Context, page string, views []View) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(views)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, contentCachePrefix+page, raw, contentCacheTTL); err != nil {
		s.logger.Debug("content cache write failed", zap.Error(err))
	}
}

func (s *Service) cacheInvalidate(ctx context.Context, page string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Del(ctx, contentCachePrefix+page)
}
