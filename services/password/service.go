package password

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/contentpilot/authcore/config"
	"github.com/contentpilot/authcore/services/logging"
)

var (
	ErrHashingFailed   = errors.New("failed to hash password")
	ErrPasswordTooLong = errors.New("password exceeds maximum length")
)

// Service enforces the password policy: adaptive hashing, strength scoring
// and random generation. It holds no mutable state and is safe for
// concurrent use.
type Service struct {
	config *config.Config
	logger *logging.Service
}

func NewService(cfg *config.Config, logger *logging.Service) *Service {
	if cfg.Auth.BcryptCost < bcrypt.MinCost || cfg.Auth.BcryptCost > bcrypt.MaxCost {
		cfg.Auth.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		config: cfg,
		logger: logger,
	}
}

func (s *Service) HashPassword(password string) (string, error) {
	if len(password) > 72 {
		// bcrypt truncates beyond 72 bytes
		return "", ErrPasswordTooLong
	}

	if s.logger != nil {
		s.logger.Debug("generating password hash", zap.Int("bcrypt_cost", s.config.Auth.BcryptCost))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.config.Auth.BcryptCost)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("password hashing failed", zap.Error(err))
		}
		return "", ErrHashingFailed
	}

	return string(hash), nil
}

// VerifyPassword reports whether password matches the stored hash. bcrypt's
// comparison is constant-time over the derived key.
func (s *Service) VerifyPassword(hashedPassword, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	if err != nil {
		if s.logger != nil {
			s.logger.Debug("password verification failed", zap.Error(err))
		}
		return false
	}
	return true
}

// ValidatePassword is the hard policy gate: minimum length plus the required
// character classes. Strength scoring is a separate, softer signal.
func (s *Service) ValidatePassword(password string) error {
	if len(password) < s.config.Auth.MinLength {
		if s.logger != nil {
			s.logger.Warn("password validation failed: insufficient length",
				zap.Int("length", len(password)),
				zap.Int("min_required", s.config.Auth.MinLength))
		}
		return fmt.Errorf("password must be at least %d characters", s.config.Auth.MinLength)
	}

	classes := classifyCharacters(password)
	var missing []string

	if s.config.Auth.RequireUpper && !classes.upper {
		missing = append(missing, "one uppercase letter")
	}
	if s.config.Auth.RequireLower && !classes.lower {
		missing = append(missing, "one lowercase letter")
	}
	if s.config.Auth.RequireNumber && !classes.number {
		missing = append(missing, "one number")
	}
	if s.config.Auth.RequireSpecial && !classes.special {
		missing = append(missing, "one special character")
	}

	if len(missing) > 0 {
		if s.logger != nil {
			s.logger.Warn("password validation failed: missing requirements",
				zap.Strings("missing_requirements", missing))
		}
		return fmt.Errorf("password must contain at least %s", strings.Join(missing, ", "))
	}

	return nil
}

type characterClasses struct {
	upper   bool
	lower   bool
	number  bool
	special bool
}

func (c characterClasses) count() int {
	n := 0
	for _, present := range []bool{c.upper, c.lower, c.number, c.special} {
		if present {
			n++
		}
	}
	return n
}

func classifyCharacters(password string) characterClasses {
	var classes characterClasses
	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			classes.upper = true
		case unicode.IsLower(char):
			classes.lower = true
		case unicode.IsNumber(char):
			classes.number = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			classes.special = true
		}
	}
	return classes
}
