package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/contentpilot/authcore/testutils"
)

func TestNewService_ClampsBcryptCost(t *testing.T) {
	cfg := testutils.GetTestConfig()
	cfg.Auth.BcryptCost = 99

	service := NewService(cfg, nil)

	assert.Equal(t, bcrypt.DefaultCost, service.config.Auth.BcryptCost)
}

func TestService_HashPassword(t *testing.T) {
	cfg := testutils.GetTestConfig()
	service := NewService(cfg, nil)

	t.Run("hashes and verifies", func(t *testing.T) {
		hash, err := service.HashPassword(testutils.TestPasswords.Valid)

		require.NoError(t, err)
		assert.NotEmpty(t, hash)
		assert.NotEqual(t, testutils.TestPasswords.Valid, hash)
		assert.True(t, service.VerifyPassword(hash, testutils.TestPasswords.Valid))
	})

	t.Run("unique salt per hash", func(t *testing.T) {
		hash1, err := service.HashPassword(testutils.TestPasswords.Valid)
		require.NoError(t, err)
		hash2, err := service.HashPassword(testutils.TestPasswords.Valid)
		require.NoError(t, err)

		assert.NotEqual(t, hash1, hash2)
	})

	t.Run("rejects over-length password", func(t *testing.T) {
		_, err := service.HashPassword(strings.Repeat("a", 73))

		testutils.AssertErrorType(t, ErrPasswordTooLong, err)
	})
}

func TestService_VerifyPassword(t *testing.T) {
	cfg := testutils.GetTestConfig()
	service := NewService(cfg, nil)

	hash, err := service.HashPassword(testutils.TestPasswords.Valid)
	require.NoError(t, err)

	assert.True(t, service.VerifyPassword(hash, testutils.TestPasswords.Valid))
	assert.False(t, service.VerifyPassword(hash, "wrong-password"))
	assert.False(t, service.VerifyPassword("not-a-hash", testutils.TestPasswords.Valid))
}

func TestService_ValidatePassword(t *testing.T) {
	cfg := testutils.GetTestConfig()
	service := NewService(cfg, nil)

	tests := []struct {
		name     string
		password string
		wantErr  string
	}{
		{"valid password", testutils.TestPasswords.Valid, ""},
		{"too short", testutils.TestPasswords.TooShort, "at least 8 characters"},
		{"missing uppercase", testutils.TestPasswords.NoUpper, "one uppercase letter"},
		{"missing number", testutils.TestPasswords.NoNumber, "one number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := service.ValidatePassword(tt.password)
			if tt.wantErr == "" {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}

	t.Run("special required when configured", func(t *testing.T) {
		cfg := testutils.GetTestConfig()
		cfg.Auth.RequireSpecial = true
		service := NewService(cfg, nil)

		err := service.ValidatePassword(testutils.TestPasswords.Valid)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "one special character")

		require.NoError(t, service.ValidatePassword(testutils.TestPasswords.Strong))
	})
}

func TestService_Generate(t *testing.T) {
	cfg := testutils.GetTestConfig()
	service := NewService(cfg, nil)

	t.Run("contains all enabled classes", func(t *testing.T) {
		generated, err := service.Generate(16, DefaultCharsetOptions())

		require.NoError(t, err)
		assert.Len(t, generated, 16)

		classes := classifyCharacters(generated)
		assert.True(t, classes.upper)
		assert.True(t, classes.lower)
		assert.True(t, classes.number)
		assert.True(t, classes.special)
	})

	t.Run("respects charset selection", func(t *testing.T) {
		generated, err := service.Generate(20, CharsetOptions{Lower: true, Numbers: true})

		require.NoError(t, err)
		classes := classifyCharacters(generated)
		assert.True(t, classes.lower)
		assert.True(t, classes.number)
		assert.False(t, classes.upper)
		assert.False(t, classes.special)
	})

	t.Run("length below class count is raised", func(t *testing.T) {
		generated, err := service.Generate(2, DefaultCharsetOptions())

		require.NoError(t, err)
		assert.Len(t, generated, 4)
	})

	t.Run("no charset selected", func(t *testing.T) {
		_, err := service.Generate(16, CharsetOptions{})

		testutils.AssertErrorType(t, ErrNoCharsetSelected, err)
	})

	t.Run("successive passwords differ", func(t *testing.T) {
		first, err := service.Generate(16, DefaultCharsetOptions())
		require.NoError(t, err)
		second, err := service.Generate(16, DefaultCharsetOptions())
		require.NoError(t, err)

		assert.NotEqual(t, first, second)
	})
}
