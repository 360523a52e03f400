package mfa

import (
	"errors"
	"fmt"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"go.uber.org/zap"

	"github.com/contentpilot/authcore/config"
	"github.com/contentpilot/authcore/services/logging"
)

var (
	ErrMFADisabled   = errors.New("mfa is disabled")
	ErrInvalidCode   = errors.New("invalid mfa code")
	ErrInvalidSecret = errors.New("invalid mfa secret")
)

// Enrollment is everything handed to a user starting TOTP setup. The secret
// stays pending until one valid code proves the authenticator works.
type Enrollment struct {
	Secret          string
	ProvisioningURI string
	BackupCodes     []string
}

type Service struct {
	config *config.Config
	logger *logging.Service
}

func NewService(cfg *config.Config, logger *logging.Service) *Service {
	return &Service{
		config: cfg,
		logger: logger,
	}
}

func (s *Service) Enabled() bool {
	return s.config.TOTP.Enabled
}

// Setup generates a fresh TOTP secret and backup codes for accountName.
// Nothing is persisted here; the caller stores the pending secret and the
// hashed backup codes.
func (s *Service) Setup(accountName string) (*Enrollment, error) {
	if !s.config.TOTP.Enabled {
		return nil, ErrMFADisabled
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.config.TOTP.Issuer,
		AccountName: accountName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate totp secret: %w", err)
	}

	codes, err := s.GenerateBackupCodes()
	if err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("generated mfa enrollment",
			zap.String("account", accountName),
			zap.Int("backup_codes", len(codes)))
	}

	return &Enrollment{
		Secret:          key.Secret(),
		ProvisioningURI: key.URL(),
		BackupCodes:     codes,
	}, nil
}

// VerifyCode checks a 6-digit TOTP code against the secret, accepting the
// configured number of 30-second periods of clock skew in both directions.
func (s *Service) VerifyCode(secret string, code string) (bool, error) {
	if !s.config.TOTP.Enabled {
		return false, ErrMFADisabled
	}
	if secret == "" {
		return false, ErrInvalidSecret
	}

	valid, err := totp.ValidateCustom(code, secret, time.Now(), totp.ValidateOpts{
		Period:    30,
		Skew:      uint(s.config.TOTP.Window),
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return false, fmt.Errorf("failed to validate totp code: %w", err)
	}
	return valid, nil
}
