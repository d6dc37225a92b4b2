package backup

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/amorris3925/get-creative/internal/database"
	"github.com/amorris3925/get-creative/internal/models"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
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
	return NewService(db, nil), db
}

func mustCreate(t *testing.T, svc *Service, name, source string, production bool) *models.ComponentBackupModel {
	t.Helper()
	row, err := svc.Create(context.Background(), &CreateDTO{
		ComponentName:  name,
		ComponentPath:  "src/components/" + name + ".tsx",
		SourceCode:     source,
		ChangedBy:      "tester",
		MarkProduction: production,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return row
}

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("versions are per-component monotonic", func(t *testing.T) {
		svc, _ := newTestService(t)
		a1 := mustCreate(t, svc, "PricingTable", "export const A = 1\n", false)
		a2 := mustCreate(t, svc, "PricingTable", "export const A = 2\n", false)
		b1 := mustCreate(t, svc, "HeroBanner", "export const B = 1\n", false)

		if a1.VersionNumber != 1 || a2.VersionNumber != 2 {
			t.Errorf("PricingTable versions = %d, %d", a1.VersionNumber, a2.VersionNumber)
		}
		if b1.VersionNumber != 1 {
			t.Errorf("HeroBanner version = %d, want independent sequence", b1.VersionNumber)
		}
	})

	t.Run("derives metrics from source", func(t *testing.T) {
		svc, _ := newTestService(t)
		src := "line one\nline two\nline three"
		row := mustCreate(t, svc, "Nav", src, false)

		if row.FileSizeBytes != len(src) {
			t.Errorf("size = %d, want %d", row.FileSizeBytes, len(src))
		}
		if row.LineCount != 3 {
			t.Errorf("lines = %d, want 3", row.LineCount)
		}
		if len(row.SourceHash) != hashLen {
			t.Errorf("hash length = %d, want %d", len(row.SourceHash), hashLen)
		}
	})

	t.Run("rejects empty source", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.Create(ctx, &CreateDTO{ComponentName: "X", ComponentPath: "x", SourceCode: "   "})
		if !errors.Is(err, ErrEmptySource) {
			t.Errorf("err = %v, want ErrEmptySource", err)
		}
	})
}

func TestProductionFlag(t *testing.T) {
	ctx := context.Background()

	t.Run("at most one production version per component", func(t *testing.T) {
		svc, db := newTestService(t)
		v1 := mustCreate(t, svc, "PricingTable", "v1\n", true)
		v2 := mustCreate(t, svc, "PricingTable", "v2\n", true)

		var n int64
		db.Model(&models.ComponentBackupModel{}).
			Where("component_name = ? AND is_production = ?", "PricingTable", true).
			Count(&n)
		if n != 1 {
			t.Fatalf("production rows = %d, want 1", n)
		}

		prod, err := svc.GetProduction(ctx, "PricingTable")
		if err != nil {
			t.Fatalf("GetProduction: %v", err)
		}
		if prod.ID != v2.ID {
			t.Errorf("production = v%d, want v%d", prod.VersionNumber, v2.VersionNumber)
		}
		if prod.DeployedAt == nil {
			t.Error("promotion should stamp DeployedAt")
		}
		_ = v1
	})

	t.Run("no production version yields nil", func(t *testing.T) {
		svc, _ := newTestService(t)
		mustCreate(t, svc, "Nav", "nav\n", false)
		prod, err := svc.GetProduction(ctx, "Nav")
		if err != nil || prod != nil {
			t.Errorf("GetProduction = %v, %v, want nil, nil", prod, err)
		}
	})

	t.Run("promote unknown id", func(t *testing.T) {
		svc, _ := newTestService(t)
		if err := svc.MarkAsProduction(ctx, "missing"); !errors.Is(err, ErrBackupNotFound) {
			t.Errorf("err = %v, want ErrBackupNotFound", err)
		}
	})
}

func TestListTracked(t *testing.T) {
	svc, _ := newTestService(t)
	mustCreate(t, svc, "PricingTable", "v1\n", false)
	mustCreate(t, svc, "PricingTable", "v2\n", true)
	mustCreate(t, svc, "HeroBanner", "v1\n", false)

	tracked, err := svc.ListTracked(context.Background())
	if err != nil {
		t.Fatalf("ListTracked: %v", err)
	}
	if len(tracked) != 2 {
		t.Fatalf("components = %d, want 2", len(tracked))
	}
	// Sorted by name: HeroBanner first.
	if tracked[0].ComponentName != "HeroBanner" || tracked[0].VersionCount != 1 {
		t.Errorf("tracked[0] = %+v", tracked[0])
	}
	pt := tracked[1]
	if pt.VersionCount != 2 || pt.LatestVersion != 2 {
		t.Errorf("PricingTable summary = %+v", pt)
	}
	if pt.ProductionVersion == nil || *pt.ProductionVersion != 2 {
		t.Errorf("production version = %v, want 2", pt.ProductionVersion)
	}
}

func TestRollback(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown backup id", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.Rollback(ctx, t.TempDir(), "missing", "tester")
		if !errors.Is(err, ErrBackupNotFound) {
			t.Errorf("err = %v, want ErrBackupNotFound", err)
		}
	})

	t.Run("restores snapshot to disk and flags production", func(t *testing.T) {
		svc, db := newTestService(t)
		dir := t.TempDir()

		good := mustCreate(t, svc, "PricingTable", "good version\n", true)
		livePath := filepath.Join(dir, "src/components/PricingTable.tsx")
		if err := os.MkdirAll(filepath.Dir(livePath), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(livePath, []byte("broken version\n"), 0o644); err != nil {
			t.Fatal(err)
		}

		restored, err := svc.Rollback(ctx, dir, good.ID, "tester")
		if err != nil {
			t.Fatalf("Rollback: %v", err)
		}
		if !restored.IsProduction {
			t.Error("restored version should be flagged production")
		}

		onDisk, err := os.ReadFile(livePath)
		if err != nil {
			t.Fatalf("read live file: %v", err)
		}
		if string(onDisk) != "good version\n" {
			t.Errorf("live file = %q", onDisk)
		}

		// The broken on-disk source was snapshotted before the overwrite.
		var pre models.ComponentBackupModel
		err = db.Where("change_source = ?", string(models.BackupSourcePreDeploy)).First(&pre).Error
		if err != nil {
			t.Fatal("expected a pre-deploy snapshot of the overwritten file")
		}
		if pre.SourceCode != "broken version\n" {
			t.Errorf("pre-deploy snapshot = %q", pre.SourceCode)
		}

		var audit models.ContentVersionModel
		err = db.Where("table_name = ? AND record_id = ?", good.TableName(), good.ID).First(&audit).Error
		if err != nil {
			t.Fatal("rollback should write a cross-referencing audit row")
		}
		if got, _ := audit.NewContent["preRollbackBackupId"].(string); got != pre.ID {
			t.Errorf("audit preRollbackBackupId = %q, want the pre-deploy snapshot id %q", got, pre.ID)
		}
		if v, _ := audit.NewContent["versionNumber"].(float64); int(v) != good.VersionNumber {
			t.Errorf("audit versionNumber = %v, want %d", audit.NewContent["versionNumber"], good.VersionNumber)
		}
	})

	t.Run("unreadable live file is logged and tolerated", func(t *testing.T) {
		core, logs := observer.New(zap.WarnLevel)
		_, db := newTestService(t)
		svc := NewService(db, zap.New(core))

		row := mustCreate(t, svc, "Footer", "footer source\n", false)
		dir := t.TempDir()
		// A directory where the live file should be makes the read fail with
		// something other than not-exist.
		if err := os.MkdirAll(filepath.Join(dir, "src/components/Footer.tsx"), 0o755); err != nil {
			t.Fatal(err)
		}

		if _, err := svc.Rollback(ctx, dir, row.ID, "tester"); err == nil {
			t.Fatal("writing over a directory should fail")
		}
		if logs.FilterMessage("live component read failed, rolling back without a pre-snapshot").Len() != 1 {
			t.Error("read failure should be logged before the rollback proceeds")
		}
		var n int64
		db.Model(&models.ComponentBackupModel{}).
			Where("change_source = ?", string(models.BackupSourcePreDeploy)).
			Count(&n)
		if n != 0 {
			t.Errorf("pre-deploy snapshots = %d, want none", n)
		}
	})

	t.Run("missing live file still restores", func(t *testing.T) {
		svc, _ := newTestService(t)
		dir := t.TempDir()
		row := mustCreate(t, svc, "Nav", "nav source\n", false)

		if _, err := svc.Rollback(ctx, dir, row.ID, "tester"); err != nil {
			t.Fatalf("Rollback: %v", err)
		}
		onDisk, err := os.ReadFile(filepath.Join(dir, "src/components/Nav.tsx"))
		if err != nil || string(onDisk) != "nav source\n" {
			t.Errorf("live file = %q, %v", onDisk, err)
		}
	})
}
