package testutils

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/contentpilot/authcore/config"
)

func GetTestConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name: "Test App",
			URL:  "http://localhost:8080",
		},
		Log: config.LogConfig{
			Level:  "error",
			Format: "json",
			Output: "stdout",
		},
		Database: config.DatabaseConfig{
			Driver:      "sqlite",
			DSN:         ":memory:",
			AutoMigrate: true,
		},
		Auth: config.AuthConfig{
			MinLength:            8,
			RequireUpper:         true,
			RequireLower:         true,
			RequireNumber:        true,
			RequireSpecial:       false,
			BcryptCost:           bcrypt.MinCost,
			PasswordHistoryLimit: 5,
		},
		JWT: config.JWTConfig{
			SecretKey:     "test-secret-key-32-chars-long!!!",
			Algorithm:     "HS256",
			Issuer:        "test-issuer",
			Audience:      "test-audience",
			AccessExpiry:  15 * time.Minute,
			RefreshExpiry: 168 * time.Hour,
			TempExpiry:    5 * time.Minute,
		},
		RefreshToken: config.RefreshTokenConfig{
			CleanupInterval: 0,
		},
		TOTP: config.TOTPConfig{
			Enabled:          true,
			Issuer:           "Test App",
			Window:           2,
			BackupCodeCount:  10,
			BackupCodeLength: 8,
		},
		Revocation: config.RevocationConfig{
			Store:         "memory",
			KeyPrefix:     "authcore:revoked:",
			CleanupPeriod: 0,
		},
		Audit: config.AuditConfig{
			Enabled:    true,
			BufferSize: 16,
		},
	}
}

var TestPasswords = struct {
	Valid    string
	Strong   string
	TooShort string
	NoUpper  string
	NoNumber string
	Common   string
}{
	Valid:    "Kestrel7Marble",
	Strong:   "Kestrel7!Marble9@Fjord",
	TooShort: "Kp7x",
	NoUpper:  "kestrel7marble",
	NoNumber: "KestrelMarble",
	Common:   "password123",
}
