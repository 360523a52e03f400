package auth

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// UserStore abstracts user persistence so the orchestrator can be tested
// against sqlite and embedded into hosts with their own user tables.
type UserStore interface {
	GetByID(id uint) (*User, error)
	GetByUsername(username string) (*User, error)
	GetByEmail(email string) (*User, error)
	Create(user *User) error
	UpdatePasswordHash(userID uint, hash string) error
	UpdateMFA(userID uint, secret string, enabled bool, backupCodes string) error
	UpdateRole(userID uint, role string) error
}

type gormUserStore struct {
	db *gorm.DB
}

func NewGormUserStore(db *gorm.DB) UserStore {
	return &gormUserStore{db: db}
}

func (s *gormUserStore) GetByID(id uint) (*User, error) {
	var user User
	if err := s.db.First(&user, id).Error; err != nil {
		return nil, mapUserError(err)
	}
	return &user, nil
}

func (s *gormUserStore) GetByUsername(username string) (*User, error) {
	var user User
	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, mapUserError(err)
	}
	return &user, nil
}

func (s *gormUserStore) GetByEmail(email string) (*User, error) {
	var user User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, mapUserError(err)
	}
	return &user, nil
}

func (s *gormUserStore) Create(user *User) error {
	if err := s.db.Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *gormUserStore) UpdatePasswordHash(userID uint, hash string) error {
	result := s.db.Model(&User{}).Where("id = ?", userID).Update("password_hash", hash)
	if result.Error != nil {
		return fmt.Errorf("failed to update password hash: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *gormUserStore) UpdateMFA(userID uint, secret string, enabled bool, backupCodes string) error {
	result := s.db.Model(&User{}).Where("id = ?", userID).Updates(map[string]any{
		"mfa_secret":   secret,
		"mfa_enabled":  enabled,
		"backup_codes": backupCodes,
	})
	if result.Error != nil {
		return fmt.Errorf("failed to update mfa settings: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *gormUserStore) UpdateRole(userID uint, role string) error {
	result := s.db.Model(&User{}).Where("id = ?", userID).Update("role", role)
	if result.Error != nil {
		return fmt.Errorf("failed to update role: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func mapUserError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	return fmt.Errorf("failed to query user: %w", err)
}
