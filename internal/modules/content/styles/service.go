package styles

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/amorris3925/get-creative/internal/models"
	"github.com/amorris3925/get-creative/internal/modules/content/section"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Breakpoints are the fixed viewport buckets style overrides can target.
var Breakpoints = []string{"desktop", "tablet", "mobile"}

var ErrInvalidBreakpoint = errors.New("invalid breakpoint")

// Service persists per-breakpoint style overrides, keyed by the backing
// section plus element path plus breakpoint. Concurrent writers to the same
// key are resolved by the store's upsert-on-conflict semantics: last write
// wins.
type Service struct {
	db       *gorm.DB
	sections *section.Service
}

func NewService(db *gorm.DB, sections *section.Service) *Service {
	return &Service{db: db, sections: sections}
}

// Upsert writes the merged style map and visibility flag for one
// (element path, breakpoint) key, lazily creating the backing section row
// for the path's top-level segment.
func (s *Service) Upsert(ctx context.Context, elementPath, breakpoint string, styleMap map[string]string, visible *bool) (*models.SectionStyleModel, error) {
	elementPath = strings.TrimSpace(elementPath)
	if elementPath == "" {
		return nil, errors.New("element path is required")
	}
	if !validBreakpoint(breakpoint) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBreakpoint, breakpoint)
	}

	sectionKey := elementPath
	if dot := strings.Index(elementPath, "."); dot > 0 {
		sectionKey = elementPath[:dot]
	}
	backing, err := s.sections.EnsureBacking(ctx, sectionKey)
	if err != nil {
		return nil, err
	}

	row := models.SectionStyleModel{
		SectionID:   backing.ID,
		ElementPath: elementPath,
		Breakpoint:  breakpoint,
		Styles:      styleMap,
		IsVisible:   true,
	}
	if visible != nil {
		row.IsVisible = *visible
	}

	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "section_id"}, {Name: "element_path"}, {Name: "breakpoint"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"styles":     row.Styles,
			"is_visible": row.IsVisible,
			"updated_at": time.Now(),
		}),
	}).Create(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// List returns style overrides, optionally filtered by element path and/or
// breakpoint.
func (s *Service) List(ctx context.Context, elementPath, breakpoint string) ([]models.SectionStyleModel, error) {
	tx := s.db.WithContext(ctx).Model(&models.SectionStyleModel{}).Order("element_path ASC, breakpoint ASC")
	if elementPath != "" {
		tx = tx.Where("element_path = ?", elementPath)
	}
	if breakpoint != "" {
		tx = tx.Where("breakpoint = ?", breakpoint)
	}
	var rows []models.SectionStyleModel
	return rows, tx.Find(&rows).Error
}

// Delete removes overrides for an element path; a breakpoint narrows the
// removal to one bucket.
func (s *Service) Delete(ctx context.Context, elementPath, breakpoint string) error {
	if strings.TrimSpace(elementPath) == "" {
		return errors.New("element path is required")
	}
	tx := s.db.WithContext(ctx).Where("element_path = ?", elementPath)
	if breakpoint != "" {
		tx = tx.Where("breakpoint = ?", breakpoint)
	}
	return tx.Delete(&models.SectionStyleModel{}).Error
}

func validBreakpoint(breakpoint string) bool {
	for _, b := range Breakpoints {
		if b == breakpoint {
			return true
		}
	}
	return false
}
