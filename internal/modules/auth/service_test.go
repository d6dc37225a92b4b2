package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/amorris3925/get-creative/internal/config"
	"github.com/amorris3925/get-creative/internal/database"
	"github.com/amorris3925/get-creative/internal/models"
	"github.com/amorris3925/get-creative/internal/pkg/jwt"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestService(t *testing.T, password string) (*Service, *gorm.DB) {
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
	cfg := &config.AppConfig{AdminPassword: password}
	return NewService(db, nil, cfg, nil), db
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("issues a session-bound token", func(t *testing.T) {
		svc, db := newTestService(t, "fizzy-secret")
		token, err := svc.Login(ctx, "fizzy-secret", "127.0.0.1", "tests")
		if err != nil {
			t.Fatalf("Login: %v", err)
		}

		claims, err := jwt.Parse(token)
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		var sess models.AdminSession
		if err := db.First(&sess, "id = ?", claims.SessionID).Error; err != nil {
			t.Fatalf("session row: %v", err)
		}
		if sess.IP != "127.0.0.1" {
			t.Errorf("session IP = %q", sess.IP)
		}
	})

	t.Run("rejects a wrong password", func(t *testing.T) {
		svc, _ := newTestService(t, "fizzy-secret")
		if _, err := svc.Login(ctx, "flat-secret", "127.0.0.1", "tests"); !errors.Is(err, ErrBadCredentials) {
			t.Errorf("err = %v, want ErrBadCredentials", err)
		}
	})

	t.Run("accepts a bcrypt-hashed configured password", func(t *testing.T) {
		hash, err := bcrypt.GenerateFromPassword([]byte("fizzy-secret"), bcrypt.MinCost)
		if err != nil {
			t.Fatal(err)
		}
		svc, _ := newTestService(t, string(hash))
		if _, err := svc.Login(ctx, "fizzy-secret", "127.0.0.1", "tests"); err != nil {
			t.Errorf("Login with bcrypt hash: %v", err)
		}
		if _, err := svc.Login(ctx, "wrong", "127.0.0.1", "tests"); !errors.Is(err, ErrBadCredentials) {
			t.Errorf("err = %v, want ErrBadCredentials", err)
		}
	})

	t.Run("unconfigured password is an error", func(t *testing.T) {
		svc, _ := newTestService(t, "")
		if _, err := svc.Login(ctx, "anything", "127.0.0.1", "tests"); !errors.Is(err, ErrNotConfigured) {
			t.Errorf("err = %v, want ErrNotConfigured", err)
		}
	})
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	svc, db := newTestService(t, "fizzy-secret")

	token, err := svc.Login(ctx, "fizzy-secret", "127.0.0.1", "tests")
	if err != nil {
		t.Fatal(err)
	}
	claims, _ := jwt.Parse(token)

	if err := svc.Logout(claims.SessionID); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	var sess models.AdminSession
	if err := db.First(&sess, "id = ?", claims.SessionID).Error; err != nil {
		t.Fatal(err)
	}
	if sess.RevokedAt == nil {
		t.Error("logout must revoke the session row")
	}

	// Unknown sessions revoke as a no-op.
	if err := svc.Logout("missing"); err != nil {
		t.Errorf("Logout of unknown session: %v", err)
	}
}
