package section

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/amorris3925/get-creative/internal/models"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100

	// snippetMaxLen caps the before/after snippets shown in the history
	// panel. Display-only and lossy; downstream code must not parse these.
	snippetMaxLen = 50
)

// History returns the most recent audit entries for the sections table,
// reduced to a display shape. The section key comes from the live row when
// it still exists, otherwise from the first object key of the stored tree.
func (s *Service) History(ctx context.Context, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	var versions []models.ContentVersionModel
	err := s.db.WithContext(ctx).
		Where("table_name = ?", (models.SectionModel{}).TableName()).
		Order("created_at DESC").
		Limit(limit).
		Find(&versions).Error
	if err != nil {
		return nil, err
	}

	keys, err := s.sectionKeysByID(ctx, versions)
	if err != nil {
		return nil, err
	}

	out := make([]HistoryEntry, 0, len(versions))
	for _, v := range versions {
		key := keys[v.RecordID]
		if key == "" {
			key = firstObjectKey(v.NewContent)
		}
		out = append(out, HistoryEntry{
			ID:            v.ID,
			SectionKey:    key,
			Path:          firstObjectKey(v.NewContent),
			PreviousValue: snippet(v.PreviousContent),
			NewValue:      snippet(v.NewContent),
			Timestamp:     v.CreatedAt,
			Source:        v.ChangeSource,
			ChangedBy:     v.ChangedBy,
		})
	}
	return out, nil
}

func (s *Service) sectionKeysByID(ctx context.Context, versions []models.ContentVersionModel) (map[string]string, error) {
	ids := make([]string, 0, len(versions))
	seen := map[string]bool{}
	for _, v := range versions {
		if !seen[v.RecordID] {
			seen[v.RecordID] = true
			ids = append(ids, v.RecordID)
		}
	}
	if len(ids) == 0 {
		return map[string]string{}, nil
	}

	var rows []models.SectionModel
	if err := s.db.WithContext(ctx).Select("id", "section_key").Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.ID] = r.SectionKey
	}
	return out, nil
}

func firstObjectKey(tree map[string]interface{}) string {
	if len(tree) == 0 {
		return ""
	}
	keys := make([]string, 0, len(tree))
	for k := range tree {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys[0]
}

func snippet(tree map[string]interface{}) string {
	if tree == nil {
		return ""
	}
	raw, err := json.Marshal(tree)
	if err != nil {
		return ""
	}
	// Truncate on runes so a multibyte character is never split.
	runes := []rune(string(raw))
	if len(runes) > snippetMaxLen {
		runes = runes[:snippetMaxLen]
	}
	return string(runes)
}
