package sync

import (
	"context"
	"testing"

	"github.com/amorris3925/get-creative/internal/database"
	"github.com/amorris3925/get-creative/internal/models"
	"github.com/amorris3925/get-creative/internal/modules/content/defaults"
	"github.com/amorris3925/get-creative/internal/modules/content/section"
	"github.com/amorris3925/get-creative/internal/pkg/jsontree"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func outcomeFor(report *Report, sectionKey string) Outcome {
	for _, r := range report.Results {
		if r.SectionKey == sectionKey {
			return r.Outcome
		}
	}
	return ""
}

func TestRun(t *testing.T) {
	ctx := context.Background()

	t.Run("first run seeds every default", func(t *testing.T) {
		db := newTestDB(t)
		report, err := NewSyncer(db, nil).Run(ctx)
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		want := len(defaults.All())
		if report.Created != want {
			t.Errorf("created = %d, want %d", report.Created, want)
		}
		var rows, statuses, audits int64
		db.Model(&models.SectionModel{}).Count(&rows)
		db.Model(&models.SyncStatusModel{}).Count(&statuses)
		db.Model(&models.ContentVersionModel{}).Where("change_source = ?", string(models.ChangeSourceCode)).Count(&audits)
		if rows != int64(want) || statuses != int64(want) || audits != int64(want) {
			t.Errorf("rows/statuses/audits = %d/%d/%d, want %d each", rows, statuses, audits, want)
		}
	})

	t.Run("second run is all unchanged", func(t *testing.T) {
		db := newTestDB(t)
		syncer := NewSyncer(db, nil)
		if _, err := syncer.Run(ctx); err != nil {
			t.Fatal(err)
		}
		report, err := syncer.Run(ctx)
		if err != nil {
			t.Fatalf("second Run: %v", err)
		}
		if report.Unchanged != len(defaults.All()) || report.Conflicts != 0 {
			t.Errorf("report = %+v", report)
		}
	})

	t.Run("manual edit is flagged and never overwritten", func(t *testing.T) {
		db := newTestDB(t)
		syncer := NewSyncer(db, nil)
		if _, err := syncer.Run(ctx); err != nil {
			t.Fatal(err)
		}

		sections := section.NewService(db, nil, nil)
		if _, err := sections.SaveInline(ctx, "home", []section.InlineChange{
			{Path: []string{"hero", "title"}, Value: "Hand-tuned headline"},
		}, "editor"); err != nil {
			t.Fatalf("SaveInline: %v", err)
		}

		report, err := syncer.Run(ctx)
		if err != nil {
			t.Fatalf("Run after edit: %v", err)
		}
		if got := outcomeFor(report, "home"); got != OutcomeConflict {
			t.Errorf("home outcome = %q, want conflict", got)
		}
		if report.Conflicts != 1 {
			t.Errorf("conflicts = %d, want 1", report.Conflicts)
		}

		var row models.SectionModel
		if err := db.Where("section_key = ?", "home").First(&row).Error; err != nil {
			t.Fatal(err)
		}
		title, _ := jsontree.Get(row.Content, []string{"hero", "title"})
		if title != "Hand-tuned headline" {
			t.Errorf("title = %v, manual edit must survive the sync", title)
		}
	})

	t.Run("conflict persists across runs", func(t *testing.T) {
		db := newTestDB(t)
		syncer := NewSyncer(db, nil)
		if _, err := syncer.Run(ctx); err != nil {
			t.Fatal(err)
		}

		sections := section.NewService(db, nil, nil)
		if _, err := sections.SaveInline(ctx, "pricing", []section.InlineChange{
			{Path: []string{"heading"}, Value: "Custom"},
		}, "editor"); err != nil {
			t.Fatal(err)
		}

		for i := 0; i < 2; i++ {
			report, err := syncer.Run(ctx)
			if err != nil {
				t.Fatal(err)
			}
			if got := outcomeFor(report, "pricing"); got != OutcomeConflict {
				t.Errorf("run %d: pricing outcome = %q, want conflict", i, got)
			}
		}
	})
}
