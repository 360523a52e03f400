package revocation

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/contentpilot/authcore/config"
	"github.com/contentpilot/authcore/services/logging"
)

var ErrStoreNotConfigured = errors.New("revocation store not configured")

// Service is the revocation registry: a jti blacklist for access/temp
// tokens and per-user minimum-valid-version counters for refresh tokens.
// The two mechanisms are independent; refresh-token records in the database
// remain the final source of truth for refresh validity.
type Service struct {
	config *config.Config
	store  Store
	db     *gorm.DB
	logger *logging.Service

	versionMu sync.RWMutex
	versions  map[uint]int
}

func NewService(cfg *config.Config, store Store, db *gorm.DB, logger *logging.Service) *Service {
	if logger != nil {
		logger.Info("initializing revocation registry",
			zap.String("store_type", cfg.Revocation.Store),
			zap.Bool("version_persistence", db != nil),
			zap.Duration("cleanup_period", cfg.Revocation.CleanupPeriod))
	}

	return &Service{
		config:   cfg,
		store:    store,
		db:       db,
		logger:   logger,
		versions: make(map[uint]int),
	}
}

// BlacklistToken marks a single token id as revoked until its expiry.
func (s *Service) BlacklistToken(jti string, expiresAt time.Time) error {
	if s.store == nil {
		return ErrStoreNotConfigured
	}

	if err := s.store.Add(jti, expiresAt); err != nil {
		if s.logger != nil {
			s.logger.Error("failed to blacklist token", zap.String("jti", jti), zap.Error(err))
		}
		return fmt.Errorf("failed to blacklist token: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("token blacklisted",
			zap.String("jti", jti),
			zap.Time("expires_at", expiresAt))
	}
	return nil
}

func (s *Service) IsTokenRevoked(jti string) (bool, error) {
	if s.store == nil {
		return false, ErrStoreNotConfigured
	}

	revoked, err := s.store.Contains(jti)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("failed to check token blacklist", zap.String("jti", jti), zap.Error(err))
		}
		return false, fmt.Errorf("failed to check token blacklist: %w", err)
	}
	return revoked, nil
}

// BumpUserVersion increments the user's minimum valid version, invalidating
// every refresh token minted before the bump. Already-issued access tokens
// are not version-checked and remain valid until their own expiry, so global
// revocation has at most the access TTL of latency on the access path.
func (s *Service) BumpUserVersion(userID uint) (int, error) {
	s.versionMu.Lock()
	defer s.versionMu.Unlock()

	current, err := s.loadVersionLocked(userID)
	if err != nil {
		return 0, err
	}
	next := current + 1

	if s.db != nil {
		err := s.db.Transaction(func(tx *gorm.DB) error {
			result := tx.Model(&UserTokenVersion{}).
				Where("user_id = ?", userID).
				Update("version", next)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return tx.Create(&UserTokenVersion{UserID: userID, Version: next}).Error
			}
			return nil
		})
		if err != nil {
			if s.logger != nil {
				s.logger.Error("failed to persist token version bump",
					zap.Uint("user_id", userID),
					zap.Error(err))
			}
			return 0, fmt.Errorf("failed to persist token version: %w", err)
		}
	}

	s.versions[userID] = next

	if s.logger != nil {
		s.logger.Info("user token version bumped",
			zap.Uint("user_id", userID),
			zap.Int("version", next))
	}
	return next, nil
}

func (s *Service) MinUserVersion(userID uint) (int, error) {
	s.versionMu.RLock()
	version, cached := s.versions[userID]
	s.versionMu.RUnlock()
	if cached {
		return version, nil
	}

	s.versionMu.Lock()
	defer s.versionMu.Unlock()
	return s.loadVersionLocked(userID)
}

func (s *Service) loadVersionLocked(userID uint) (int, error) {
	if version, cached := s.versions[userID]; cached {
		return version, nil
	}

	if s.db == nil {
		s.versions[userID] = 0
		return 0, nil
	}

	var record UserTokenVersion
	err := s.db.Where("user_id = ?", userID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.versions[userID] = 0
			return 0, nil
		}
		if s.logger != nil {
			s.logger.Error("failed to load token version",
				zap.Uint("user_id", userID),
				zap.Error(err))
		}
		return 0, fmt.Errorf("failed to load token version: %w", err)
	}

	s.versions[userID] = record.Version
	return record.Version, nil
}

func (s *Service) CleanupExpired() error {
	if s.store == nil {
		return ErrStoreNotConfigured
	}
	return s.store.CleanupExpired()
}

func (s *Service) StartCleanupWorker(interval time.Duration) {
	if s.store == nil || interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for range ticker.C {
			if err := s.CleanupExpired(); err != nil && s.logger != nil {
				s.logger.Error("revocation cleanup worker failed", zap.Error(err))
			}
		}
	}()

	if s.logger != nil {
		s.logger.Info("started revocation cleanup worker",
			zap.Duration("interval", interval))
	}
}
