package auth

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User is the account record. Email is optional and stored as NULL when
// absent, so the unique index only constrains real addresses. MFASecret may
// hold a pending secret while MFAEnabled is still false; login only honours
// the secret once enrollment has been confirmed. BackupCodes holds a JSON
// array of bcrypt hashes.
type User struct {
	ID           uint    `gorm:"primarykey"`
	Username     string  `gorm:"not null;uniqueIndex"`
	Email        *string `gorm:"uniqueIndex"`
	PasswordHash string  `gorm:"not null"`
	MFASecret    string
	MFAEnabled   bool   `gorm:"not null;default:false"`
	BackupCodes  string `gorm:"not null;default:''"`
	Role         string `gorm:"not null;default:'user'"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (User) TableName() string {
	return "users"
}

// BackupCodeHashes decodes the stored backup-code hash list. An empty
// column means no codes remain.
func (u *User) BackupCodeHashes() ([]string, error) {
	if u.BackupCodes == "" {
		return nil, nil
	}

	var hashes []string
	if err := json.Unmarshal([]byte(u.BackupCodes), &hashes); err != nil {
		return nil, fmt.Errorf("failed to decode backup codes: %w", err)
	}
	return hashes, nil
}

func encodeBackupCodes(hashes []string) (string, error) {
	if len(hashes) == 0 {
		return "", nil
	}

	encoded, err := json.Marshal(hashes)
	if err != nil {
		return "", fmt.Errorf("failed to encode backup codes: %w", err)
	}
	return string(encoded), nil
}

// PublicUser is the safe projection returned to callers.
type PublicUser struct {
	ID         uint      `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	MFAEnabled bool      `json:"mfa_enabled"`
	CreatedAt  time.Time `json:"created_at"`
}

func (u *User) Public() *PublicUser {
	email := ""
	if u.Email != nil {
		email = *u.Email
	}

	return &PublicUser{
		ID:         u.ID,
		Username:   u.Username,
		Email:      email,
		Role:       u.Role,
		MFAEnabled: u.MFAEnabled,
		CreatedAt:  u.CreatedAt,
	}
}
