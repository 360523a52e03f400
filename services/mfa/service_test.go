package mfa

import (
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contentpilot/authcore/services/logging"
	"github.com/contentpilot/authcore/testutils"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(testutils.GetTestConfig(), logging.NewNop())
}

func codeAt(t *testing.T, secret string, at time.Time) string {
	t.Helper()
	code, err := totp.GenerateCodeCustom(secret, at, totp.ValidateOpts{
		Period:    30,
		Skew:      0,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	require.NoError(t, err)
	return code
}

func TestService_Setup(t *testing.T) {
	service := newTestService(t)

	t.Run("produces a complete enrollment", func(t *testing.T) {
		enrollment, err := service.Setup("alice@example.com")
		require.NoError(t, err)

		assert.NotEmpty(t, enrollment.Secret)
		assert.Contains(t, enrollment.ProvisioningURI, "otpauth://totp/")
		assert.Contains(t, enrollment.ProvisioningURI, "issuer=Test+App")
		assert.Len(t, enrollment.BackupCodes, 10)
	})

	t.Run("secrets are unique per enrollment", func(t *testing.T) {
		first, err := service.Setup("alice@example.com")
		require.NoError(t, err)
		second, err := service.Setup("alice@example.com")
		require.NoError(t, err)

		assert.NotEqual(t, first.Secret, second.Secret)
	})

	t.Run("fails when mfa is disabled", func(t *testing.T) {
		cfg := testutils.GetTestConfig()
		cfg.TOTP.Enabled = false
		disabled := NewService(cfg, logging.NewNop())

		_, err := disabled.Setup("alice@example.com")
		assert.ErrorIs(t, err, ErrMFADisabled)
	})
}

func TestService_VerifyCode(t *testing.T) {
	service := newTestService(t)

	enrollment, err := service.Setup("alice@example.com")
	require.NoError(t, err)
	secret := enrollment.Secret

	t.Run("accepts current code", func(t *testing.T) {
		valid, err := service.VerifyCode(secret, codeAt(t, secret, time.Now()))
		require.NoError(t, err)
		assert.True(t, valid)
	})

	t.Run("accepts codes within the skew window", func(t *testing.T) {
		valid, err := service.VerifyCode(secret, codeAt(t, secret, time.Now().Add(-60*time.Second)))
		require.NoError(t, err)
		assert.True(t, valid)

		valid, err = service.VerifyCode(secret, codeAt(t, secret, time.Now().Add(60*time.Second)))
		require.NoError(t, err)
		assert.True(t, valid)
	})

	t.Run("rejects codes outside the skew window", func(t *testing.T) {
		valid, err := service.VerifyCode(secret, codeAt(t, secret, time.Now().Add(-10*time.Minute)))
		require.NoError(t, err)
		assert.False(t, valid)
	})

	t.Run("rejects garbage input", func(t *testing.T) {
		for _, code := range []string{"", "000000", "abcdef", "12345", "1234567"} {
			valid, err := service.VerifyCode(secret, code)
			require.NoError(t, err)
			assert.False(t, valid, "code %q should not verify", code)
		}
	})

	t.Run("empty secret returns error", func(t *testing.T) {
		_, err := service.VerifyCode("", "123456")
		assert.ErrorIs(t, err, ErrInvalidSecret)
	})

	t.Run("fails when mfa is disabled", func(t *testing.T) {
		cfg := testutils.GetTestConfig()
		cfg.TOTP.Enabled = false
		disabled := NewService(cfg, logging.NewNop())

		_, err := disabled.VerifyCode(secret, "123456")
		assert.ErrorIs(t, err, ErrMFADisabled)
	})
}

func TestService_BackupCodes(t *testing.T) {
	service := newTestService(t)

	t.Run("generates formatted unique codes", func(t *testing.T) {
		codes, err := service.GenerateBackupCodes()
		require.NoError(t, err)
		require.Len(t, codes, 10)

		seen := make(map[string]bool)
		for _, code := range codes {
			assert.Len(t, code, 9)
			assert.Equal(t, byte('-'), code[4])
			assert.False(t, seen[code], "duplicate backup code %q", code)
			seen[code] = true

			for _, r := range strings.ReplaceAll(code, "-", "") {
				assert.Contains(t, backupCodeCharset, string(r))
			}
		}
	})

	t.Run("verify consumes the matched code", func(t *testing.T) {
		codes, err := service.GenerateBackupCodes()
		require.NoError(t, err)
		hashes, err := service.HashBackupCodes(codes)
		require.NoError(t, err)

		ok, remaining := service.VerifyBackupCode(hashes, codes[3])
		assert.True(t, ok)
		assert.Len(t, remaining, 9)

		ok, remaining = service.VerifyBackupCode(remaining, codes[3])
		assert.False(t, ok)
		assert.Len(t, remaining, 9)
	})

	t.Run("verify tolerates formatting differences", func(t *testing.T) {
		codes, err := service.GenerateBackupCodes()
		require.NoError(t, err)
		hashes, err := service.HashBackupCodes(codes)
		require.NoError(t, err)

		stripped := strings.ToLower(strings.ReplaceAll(codes[0], "-", ""))
		ok, remaining := service.VerifyBackupCode(hashes, stripped)
		assert.True(t, ok)
		assert.Len(t, remaining, 9)
	})

	t.Run("verify rejects unknown codes", func(t *testing.T) {
		codes, err := service.GenerateBackupCodes()
		require.NoError(t, err)
		hashes, err := service.HashBackupCodes(codes)
		require.NoError(t, err)

		ok, remaining := service.VerifyBackupCode(hashes, "ZZZZ-ZZZZ")
		assert.False(t, ok)
		assert.Len(t, remaining, 10)
	})

	t.Run("verify rejects empty input", func(t *testing.T) {
		ok, _ := service.VerifyBackupCode([]string{"$2a$04$notarealhash"}, "   ")
		assert.False(t, ok)
	})
}
