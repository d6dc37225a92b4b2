package styles

import (
	"context"
	"errors"
	"testing"

	"github.com/amorris3925/get-creative/internal/database"
	"github.com/amorris3925/get-creative/internal/models"
	"github.com/amorris3925/get-creative/internal/modules/content/section"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
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
	return NewService(db, section.NewService(db, nil, nil)), db
}

func boolptr(b bool) *bool { return &b }

func TestUpsert(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects unknown breakpoint", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.Upsert(ctx, "home.hero", "widescreen", map[string]string{"color": "red"}, nil)
		if !errors.Is(err, ErrInvalidBreakpoint) {
			t.Errorf("err = %v, want ErrInvalidBreakpoint", err)
		}
	})

	t.Run("creates backing section lazily", func(t *testing.T) {
		svc, db := newTestService(t)
		row, err := svc.Upsert(ctx, "home.hero.title", "desktop", map[string]string{"font-size": "48px"}, nil)
		if err != nil {
			t.Fatalf("Upsert: %v", err)
		}
		if row.SectionID == "" {
			t.Fatal("style row must reference a backing section")
		}
		var backing models.SectionModel
		if err := db.First(&backing, "id = ?", row.SectionID).Error; err != nil {
			t.Fatalf("backing section: %v", err)
		}
		if backing.SectionKey != "home" {
			t.Errorf("backing key = %q, want home", backing.SectionKey)
		}
	})

	t.Run("same key updates in place", func(t *testing.T) {
		svc, db := newTestService(t)
		if _, err := svc.Upsert(ctx, "home.hero", "mobile", map[string]string{"display": "none"}, boolptr(false)); err != nil {
			t.Fatalf("first upsert: %v", err)
		}
		if _, err := svc.Upsert(ctx, "home.hero", "mobile", map[string]string{"display": "block"}, boolptr(true)); err != nil {
			t.Fatalf("second upsert: %v", err)
		}

		var rows []models.SectionStyleModel
		if err := db.Find(&rows).Error; err != nil {
			t.Fatalf("load rows: %v", err)
		}
		if len(rows) != 1 {
			t.Fatalf("rows = %d, want 1 (upsert, not insert)", len(rows))
		}
		if rows[0].Styles["display"] != "block" || !rows[0].IsVisible {
			t.Errorf("row = %+v, want last write to win", rows[0])
		}
	})

	t.Run("breakpoints are independent rows", func(t *testing.T) {
		svc, db := newTestService(t)
		for _, bp := range Breakpoints {
			if _, err := svc.Upsert(ctx, "home.hero", bp, map[string]string{"padding": "8px"}, nil); err != nil {
				t.Fatalf("upsert %s: %v", bp, err)
			}
		}
		var n int64
		db.Model(&models.SectionStyleModel{}).Count(&n)
		if n != 3 {
			t.Errorf("rows = %d, want one per breakpoint", n)
		}
	})
}

func TestListAndDelete(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, _ = svc.Upsert(ctx, "home.hero", "desktop", map[string]string{"color": "red"}, nil)
	_, _ = svc.Upsert(ctx, "home.hero", "mobile", map[string]string{"color": "blue"}, nil)
	_, _ = svc.Upsert(ctx, "pricing.tiers", "desktop", map[string]string{"gap": "1rem"}, nil)

	t.Run("list filters by path and breakpoint", func(t *testing.T) {
		all, err := svc.List(ctx, "", "")
		if err != nil || len(all) != 3 {
			t.Fatalf("List all = %d, %v", len(all), err)
		}
		hero, _ := svc.List(ctx, "home.hero", "")
		if len(hero) != 2 {
			t.Errorf("hero rows = %d, want 2", len(hero))
		}
		mobile, _ := svc.List(ctx, "home.hero", "mobile")
		if len(mobile) != 1 || mobile[0].Styles["color"] != "blue" {
			t.Errorf("mobile rows = %+v", mobile)
		}
	})

	t.Run("delete narrows by breakpoint", func(t *testing.T) {
		if err := svc.Delete(ctx, "home.hero", "mobile"); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		rest, _ := svc.List(ctx, "home.hero", "")
		if len(rest) != 1 || rest[0].Breakpoint != "desktop" {
			t.Errorf("remaining = %+v", rest)
		}
	})
}

func TestOverlay(t *testing.T) {
	t.Run("property writes merge per key", func(t *testing.T) {
		o := NewOverlay()
		o.SetProperty("home.hero", "desktop", "color", "red")
		o.SetProperty("home.hero", "desktop", "font-size", "48px")
		o.SetProperty("home.hero", "mobile", "display", "none")

		if o.PendingCount() != 2 {
			t.Fatalf("PendingCount = %d, want 2", o.PendingCount())
		}
		pending := o.Pending()
		if len(pending[0].Styles) != 2 {
			t.Errorf("desktop styles = %v, want merged pair", pending[0].Styles)
		}
	})

	t.Run("visibility rides the same entry", func(t *testing.T) {
		o := NewOverlay()
		o.SetProperty("home.hero", "mobile", "display", "none")
		o.SetVisibility("home.hero", "mobile", false)

		pending := o.Pending()
		if len(pending) != 1 || pending[0].Visible == nil || *pending[0].Visible {
			t.Errorf("pending = %+v", pending)
		}
	})

	t.Run("flush persists then clears", func(t *testing.T) {
		svc, db := newTestService(t)
		o := NewOverlay()
		o.SetProperty("home.hero", "desktop", "color", "red")
		o.SetVisibility("pricing.tiers", "mobile", false)

		if err := o.Flush(context.Background(), svc); err != nil {
			t.Fatalf("Flush: %v", err)
		}
		if o.PendingCount() != 0 {
			t.Error("overlay should clear after flush")
		}
		var n int64
		db.Model(&models.SectionStyleModel{}).Count(&n)
		if n != 2 {
			t.Errorf("persisted rows = %d, want 2", n)
		}
	})

	t.Run("failed flush keeps pending", func(t *testing.T) {
		svc, _ := newTestService(t)
		o := NewOverlay()
		o.pending["bad@desktop"] = &PendingStyle{ElementPath: "bad", Breakpoint: "widescreen", Styles: map[string]string{}}

		if err := o.Flush(context.Background(), svc); err == nil {
			t.Fatal("expected flush error")
		}
		if o.PendingCount() != 1 {
			t.Error("pending must stay intact on failure")
		}
	})

	t.Run("discard drops everything", func(t *testing.T) {
		o := NewOverlay()
		o.SetProperty("home.hero", "desktop", "color", "red")
		o.Discard()
		if o.PendingCount() != 0 {
			t.Error("discard should clear pending")
		}
	})
}
