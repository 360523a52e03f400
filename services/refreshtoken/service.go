package refreshtoken

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mileusna/useragent"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/contentpilot/authcore/services/logging"
)

var ErrTokenNotFound = errors.New("refresh token not found")

const (
	ReasonRotated         = "rotated"
	ReasonLogout          = "logout"
	ReasonPasswordChanged = "password_changed"
	ReasonAdminRevoked    = "admin_revoked"
)

// Service persists refresh-token records and drives rotation. Revocation of
// a single token happens here with a conditional update so two concurrent
// redemptions of the same token cannot both win.
type Service struct {
	db     *gorm.DB
	logger *logging.Service
}

func NewService(db *gorm.DB, logger *logging.Service) *Service {
	return &Service{
		db:     db,
		logger: logger,
	}
}

// HashToken derives the storage key for a raw signed token.
func HashToken(rawToken string) string {
	sum := sha256.Sum256([]byte(rawToken))
	return hex.EncodeToString(sum[:])
}

func (s *Service) Store(rawToken string, userID uint, expiresAt time.Time, session SessionInfo) (*RefreshToken, error) {
	record := &RefreshToken{
		UserID:     userID,
		TokenHash:  HashToken(rawToken),
		ExpiresAt:  expiresAt,
		IPAddress:  session.IPAddress,
		DeviceInfo: summarizeDevice(session.UserAgent),
	}

	if err := s.db.Create(record).Error; err != nil {
		if s.logger != nil {
			s.logger.Error("failed to store refresh token",
				zap.Uint("user_id", userID),
				zap.Error(err))
		}
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("refresh token stored",
			zap.Uint("user_id", userID),
			zap.String("device_info", record.DeviceInfo),
			zap.Time("expires_at", expiresAt))
	}
	return record, nil
}

func (s *Service) GetByToken(rawToken string) (*RefreshToken, error) {
	var record RefreshToken
	err := s.db.Where("token_hash = ?", HashToken(rawToken)).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to look up refresh token: %w", err)
	}
	return &record, nil
}

// RevokeIfActive atomically flips the record from active to revoked and
// reports whether this caller performed the flip. A false return with no
// error means someone else already revoked it, or it never existed.
func (s *Service) RevokeIfActive(rawToken string, reason string) (bool, error) {
	result := s.db.Model(&RefreshToken{}).
		Where("token_hash = ? AND revoked = ?", HashToken(rawToken), false).
		Updates(map[string]any{
			"revoked":        true,
			"revoked_reason": reason,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to revoke refresh token: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Revoke marks the token revoked regardless of current state.
func (s *Service) Revoke(rawToken string, reason string) error {
	result := s.db.Model(&RefreshToken{}).
		Where("token_hash = ?", HashToken(rawToken)).
		Updates(map[string]any{
			"revoked":        true,
			"revoked_reason": reason,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrTokenNotFound
	}
	return nil
}

func (s *Service) RevokeAllForUser(userID uint, reason string) (int64, error) {
	result := s.db.Model(&RefreshToken{}).
		Where("user_id = ? AND revoked = ?", userID, false).
		Updates(map[string]any{
			"revoked":        true,
			"revoked_reason": reason,
		})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to revoke user refresh tokens: %w", result.Error)
	}

	if s.logger != nil && result.RowsAffected > 0 {
		s.logger.Info("revoked all refresh tokens for user",
			zap.Uint("user_id", userID),
			zap.String("reason", reason),
			zap.Int64("count", result.RowsAffected))
	}
	return result.RowsAffected, nil
}

// ListActiveForUser returns the user's live sessions, newest first.
func (s *Service) ListActiveForUser(userID uint) ([]RefreshToken, error) {
	var records []RefreshToken
	err := s.db.
		Where("user_id = ? AND revoked = ? AND expires_at > ?", userID, false, time.Now()).
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list refresh tokens: %w", err)
	}
	return records, nil
}

// CleanupExpired deletes records that are expired or were revoked; revoked
// rows are kept until expiry so audits can still see them.
func (s *Service) CleanupExpired() (int64, error) {
	result := s.db.
		Where("expires_at < ?", time.Now()).
		Delete(&RefreshToken{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to clean up refresh tokens: %w", result.Error)
	}

	if s.logger != nil && result.RowsAffected > 0 {
		s.logger.Info("cleaned up expired refresh tokens",
			zap.Int64("count", result.RowsAffected))
	}
	return result.RowsAffected, nil
}

func (s *Service) StartCleanupWorker(interval time.Duration) {
	if interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for range ticker.C {
			if _, err := s.CleanupExpired(); err != nil && s.logger != nil {
				s.logger.Error("refresh token cleanup worker failed", zap.Error(err))
			}
		}
	}()

	if s.logger != nil {
		s.logger.Info("started refresh token cleanup worker",
			zap.Duration("interval", interval))
	}
}

func summarizeDevice(userAgent string) string {
	if userAgent == "" {
		return "unknown"
	}

	ua := useragent.Parse(userAgent)

	parts := make([]string, 0, 2)
	if ua.Name != "" {
		name := ua.Name
		if ua.Version != "" {
			name += " " + ua.Version
		}
		parts = append(parts, name)
	}
	if ua.OS != "" {
		parts = append(parts, ua.OS)
	}

	if len(parts) == 0 {
		return "unknown"
	}
	return strings.Join(parts, " on ")
}
