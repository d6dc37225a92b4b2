package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/amorris3925/get-creative/internal/config"
	pkgredis "github.com/amorris3925/get-creative/internal/pkg/redis"
	sessionpkg "github.com/amorris3925/get-creative/internal/pkg/session"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrBadCredentials = errors.New("invalid password")
	ErrNotConfigured  = errors.New("admin password is not configured")
	ErrTooManyTries   = errors.New("too many login attempts")
)

const (
	loginAttemptMax    = 10
	loginAttemptWindow = 15 * time.Minute
	loginAttemptPrefix = "gc:login_attempts:"
)

// Service validates the single configured admin password and issues sessions.
type Service struct {
	db     *gorm.DB
	cache  *pkgredis.Client
	cfg    *config.AppConfig
	logger *zap.Logger
}

func NewService(db *gorm.DB, cache *pkgredis.Client, cfg *config.AppConfig, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: db, cache: cache, cfg: cfg, logger: logger}
}

// Login checks the password and, on success, issues a session-bound JWT.
// Attempts per IP are capped at 10 per 15 minutes when redis is configured.
func (s *Service) Login(ctx context.Context, password, ip, ua string) (string, error) {
	if strings.TrimSpace(s.cfg.AdminPassword) == "" {
		return "", ErrNotConfigured
	}
	if err := s.checkAttempts(ctx, ip); err != nil {
		return "", err
	}

	if !passwordMatches(s.cfg.AdminPassword, password) {
		s.recordAttempt(ctx, ip)
		s.logger.Warn("admin login failed", zap.String("ip", ip))
		return "", ErrBadCredentials
	}

	token, sess, err := sessionpkg.Issue(s.db, ip, ua, sessionpkg.DefaultTTL)
	if err != nil {
		return "", err
	}
	s.clearAttempts(ctx, ip)
	s.logger.Info("admin login", zap.String("ip", ip), zap.String("session", sess.ID))
	return token, nil
}

// Logout revokes the session; unknown sessions are a no-op.
func (s *Service) Logout(sessionID string) error {
	return sessionpkg.Revoke(s.db, sessionID)
}

// passwordMatches compares against either a bcrypt hash (values starting with
// "$2") or a plain configured password in constant time.
func passwordMatches(configured, supplied string) bool {
	if strings.HasPrefix(configured, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(configured), []byte(supplied)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(configured), []byte(supplied)) == 1
}

func (s *Service) checkAttempts(ctx context.Context, ip string) error {
	if s.cache == nil || ip == "" {
		return nil
	}
	raw, err := s.cache.Get(ctx, loginAttemptPrefix+ip)
	if err != nil || raw == "" {
		return nil
	}
	count, _ := strconv.Atoi(raw)
	if count >= loginAttemptMax {
		return fmt.Errorf("%w: try again later", ErrTooManyTries)
	}
	return nil
}

func (s *Service) recordAttempt(ctx context.Context, ip string) {
	if s.cache == nil || ip == "" {
		return
	}
	key := loginAttemptPrefix + ip
	count, err := s.cache.Raw().Incr(ctx, key).Result()
	if err != nil {
		return
	}
	if count == 1 {
		s.cache.Raw().Expire(ctx, key, loginAttemptWindow)
	}
}

func (s *Service) clearAttempts(ctx context.Context, ip string) {
	if s.cache == nil || ip == "" {
		return
	}
	_ = s.cache.Del(ctx, loginAttemptPrefix+ip)
}
