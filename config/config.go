package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	App          AppConfig          `envPrefix:"APP_"`
	Log          LogConfig          `envPrefix:"LOG_"`
	Database     DatabaseConfig     `envPrefix:"DATABASE_"`
	Auth         AuthConfig         `envPrefix:"AUTH_"`
	JWT          JWTConfig          `envPrefix:"JWT_"`
	RefreshToken RefreshTokenConfig `envPrefix:"REFRESH_TOKEN_"`
	TOTP         TOTPConfig         `envPrefix:"TOTP_"`
	Revocation   RevocationConfig   `envPrefix:"REVOCATION_"`
	Mail         MailConfig         `envPrefix:"MAIL_"`
	Audit        AuditConfig        `envPrefix:"AUDIT_"`
}

type AppConfig struct {
	Name string `env:"NAME" envDefault:"contentpilot"`
	URL  string `env:"URL" envDefault:"http://localhost:8080"`
}

type LogConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
	Output string `env:"OUTPUT" envDefault:"stdout"`
}

type DatabaseConfig struct {
	Driver      string `env:"DRIVER" envDefault:"sqlite"`
	DSN         string `env:"DSN" envDefault:"authcore.db"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"true"`
}

type AuthConfig struct {
	MinLength            int      `env:"MIN_LENGTH" envDefault:"8"`
	RequireUpper         bool     `env:"REQUIRE_UPPER" envDefault:"true"`
	RequireLower         bool     `env:"REQUIRE_LOWER" envDefault:"true"`
	RequireNumber        bool     `env:"REQUIRE_NUMBER" envDefault:"true"`
	RequireSpecial       bool     `env:"REQUIRE_SPECIAL" envDefault:"false"`
	BcryptCost           int      `env:"BCRYPT_COST" envDefault:"10"`
	PasswordHistoryLimit int      `env:"PASSWORD_HISTORY_LIMIT" envDefault:"5"`
	ExtraCommonPasswords []string `env:"EXTRA_COMMON_PASSWORDS" envSeparator:","`
}

type JWTConfig struct {
	SecretKey     string        `env:"SECRET_KEY"`
	Algorithm     string        `env:"ALGORITHM" envDefault:"HS256"`
	Issuer        string        `env:"ISSUER" envDefault:"authcore"`
	Audience      string        `env:"AUDIENCE" envDefault:"authcore"`
	AccessExpiry  time.Duration `env:"ACCESS_EXPIRY" envDefault:"15m"`
	RefreshExpiry time.Duration `env:"REFRESH_EXPIRY" envDefault:"168h"`
	TempExpiry    time.Duration `env:"TEMP_EXPIRY" envDefault:"5m"`
}

type RefreshTokenConfig struct {
	CleanupInterval time.Duration `env:"CLEANUP_INTERVAL" envDefault:"1h"`
}

type TOTPConfig struct {
	Enabled          bool   `env:"ENABLED" envDefault:"true"`
	Issuer           string `env:"ISSUER" envDefault:"contentpilot"`
	Window           uint   `env:"WINDOW" envDefault:"2"`
	BackupCodeCount  int    `env:"BACKUP_CODE_COUNT" envDefault:"10"`
	BackupCodeLength int    `env:"BACKUP_CODE_LENGTH" envDefault:"8"`
}

type RevocationConfig struct {
	Store         string        `env:"STORE" envDefault:"memory"`
	RedisAddr     string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	KeyPrefix     string        `env:"KEY_PREFIX" envDefault:"authcore:revoked:"`
	CleanupPeriod time.Duration `env:"CLEANUP_PERIOD" envDefault:"5m"`
}

type MailConfig struct {
	Enabled     bool   `env:"ENABLED" envDefault:"false"`
	Host        string `env:"HOST" envDefault:"localhost"`
	Port        int    `env:"PORT" envDefault:"587"`
	Username    string `env:"USERNAME"`
	Password    string `env:"PASSWORD"`
	Encryption  string `env:"ENCRYPTION" envDefault:"starttls"`
	FromAddress string `env:"FROM_ADDRESS"`
	FromName    string `env:"FROM_NAME" envDefault:"contentpilot"`
}

type AuditConfig struct {
	Enabled    bool `env:"ENABLED" envDefault:"true"`
	BufferSize int  `env:"BUFFER_SIZE" envDefault:"256"`
}

func LoadConfig(cfg any) error {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	if err := env.Parse(cfg); err != nil {
		return err
	}

	if c, ok := cfg.(*Config); ok {
		return c.Validate()
	}

	return nil
}

func (c *Config) Validate() error {
	if err := validateJWTConfig(&c.JWT); err != nil {
		return err
	}
	if err := validateAuthConfig(&c.Auth); err != nil {
		return err
	}
	if err := validateRefreshTokenConfig(&c.RefreshToken); err != nil {
		return err
	}
	if err := validateTOTPConfig(&c.TOTP); err != nil {
		return err
	}
	return validateRevocationConfig(&c.Revocation)
}

func validateJWTConfig(cfg *JWTConfig) error {
	if len(cfg.SecretKey) < 32 {
		return fmt.Errorf("JWT secret key must be at least 32 characters long")
	}
	if cfg.Algorithm != "HS256" {
		return fmt.Errorf("unsupported JWT algorithm: %s (supported: HS256)", cfg.Algorithm)
	}
	if cfg.Issuer == "" {
		return fmt.Errorf("JWT issuer is required")
	}
	if cfg.Audience == "" {
		return fmt.Errorf("JWT audience is required")
	}
	if cfg.AccessExpiry <= 0 {
		return fmt.Errorf("JWT access expiry must be positive")
	}
	if cfg.RefreshExpiry <= 0 {
		return fmt.Errorf("JWT refresh expiry must be positive")
	}
	if cfg.TempExpiry <= 0 {
		return fmt.Errorf("JWT temp expiry must be positive")
	}
	if cfg.RefreshExpiry <= cfg.AccessExpiry {
		return fmt.Errorf("JWT refresh expiry must be longer than access expiry")
	}
	return nil
}

func validateAuthConfig(cfg *AuthConfig) error {
	if cfg.MinLength < 1 {
		return fmt.Errorf("minimum password length must be at least 1")
	}
	if cfg.PasswordHistoryLimit < 0 {
		return fmt.Errorf("password history limit cannot be negative")
	}
	return nil
}

func validateRefreshTokenConfig(cfg *RefreshTokenConfig) error {
	if cfg.CleanupInterval < 0 {
		return fmt.Errorf("refresh token cleanup interval cannot be negative")
	}
	return nil
}

func validateTOTPConfig(cfg *TOTPConfig) error {
	if !cfg.Enabled {
		return nil
	}
	if cfg.Window < 1 {
		return fmt.Errorf("TOTP window must be at least 1 step")
	}
	if cfg.BackupCodeCount < 1 {
		return fmt.Errorf("TOTP backup code count must be at least 1")
	}
	if cfg.BackupCodeLength < 6 {
		return fmt.Errorf("TOTP backup code length must be at least 6")
	}
	return nil
}

func validateRevocationConfig(cfg *RevocationConfig) error {
	switch strings.ToLower(cfg.Store) {
	case "memory", "redis":
	default:
		return fmt.Errorf("unsupported revocation store type: %s (supported: memory, redis)", cfg.Store)
	}
	if cfg.CleanupPeriod < 0 {
		return fmt.Errorf("revocation cleanup period cannot be negative")
	}
	return nil
}
