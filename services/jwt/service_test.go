package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contentpilot/authcore/testutils"
)

func testSubject() Subject {
	return Subject{ID: 42, Username: "alice", Role: "user"}
}

func decodeClaims(t *testing.T, service *Service, tokenString string) *Claims {
	t.Helper()
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		return []byte(service.config.JWT.SecretKey), nil
	})
	require.NoError(t, err)
	claims, ok := token.Claims.(*Claims)
	require.True(t, ok)
	return claims
}

func TestService_GenerateAccessToken(t *testing.T) {
	cfg := testutils.GetTestConfig()
	service := NewService(cfg, nil)

	t.Run("claims and expiry", func(t *testing.T) {
		before := time.Now()
		tokenString, err := service.GenerateAccessToken(testSubject())
		require.NoError(t, err)

		claims := decodeClaims(t, service, tokenString)
		assert.Equal(t, uint(42), claims.UserID)
		assert.Equal(t, "alice", claims.Username)
		assert.Equal(t, "user", claims.Role)
		assert.Equal(t, TokenTypeAccess, claims.TokenType)
		assert.Equal(t, cfg.JWT.Issuer, claims.Issuer)
		assert.Equal(t, jwt.ClaimStrings{cfg.JWT.Audience}, claims.Audience)
		assert.NotEmpty(t, claims.JTI)
		assert.Equal(t, claims.JTI, claims.ID)

		// expiry equals issue time plus the configured access TTL
		ttl := claims.ExpiresAt.Unix() - claims.IssuedAt.Unix()
		assert.Equal(t, int64(cfg.JWT.AccessExpiry.Seconds()), ttl)
		assert.GreaterOrEqual(t, claims.IssuedAt.Unix(), before.Add(-time.Second).Unix())
	})

	t.Run("unique jti per token", func(t *testing.T) {
		first, err := service.GenerateAccessToken(testSubject())
		require.NoError(t, err)
		second, err := service.GenerateAccessToken(testSubject())
		require.NoError(t, err)

		assert.NotEqual(t, decodeClaims(t, service, first).JTI, decodeClaims(t, service, second).JTI)
	})
}

func TestService_GenerateRefreshToken(t *testing.T) {
	cfg := testutils.GetTestConfig()
	service := NewService(cfg, nil)

	tokenString, err := service.GenerateRefreshToken(testSubject(), 3)
	require.NoError(t, err)

	claims := decodeClaims(t, service, tokenString)
	assert.Equal(t, TokenTypeRefresh, claims.TokenType)
	assert.Equal(t, 3, claims.Version)

	ttl := claims.ExpiresAt.Unix() - claims.IssuedAt.Unix()
	assert.Equal(t, int64(cfg.JWT.RefreshExpiry.Seconds()), ttl)
}

func TestService_GenerateTempToken(t *testing.T) {
	cfg := testutils.GetTestConfig()
	service := NewService(cfg, nil)

	tokenString, err := service.GenerateTempToken(42, PurposeMFAVerification)
	require.NoError(t, err)

	claims := decodeClaims(t, service, tokenString)
	assert.Equal(t, TokenTypeTemp, claims.TokenType)
	assert.Equal(t, PurposeMFAVerification, claims.Purpose)
	assert.Empty(t, claims.Username)

	ttl := claims.ExpiresAt.Unix() - claims.IssuedAt.Unix()
	assert.Equal(t, int64(cfg.JWT.TempExpiry.Seconds()), ttl)
}

func TestService_ValidateAccessToken(t *testing.T) {
	cfg := testutils.GetTestConfig()
	service := NewService(cfg, nil)

	t.Run("valid token", func(t *testing.T) {
		tokenString, err := service.GenerateAccessToken(testSubject())
		require.NoError(t, err)

		claims, err := service.ValidateAccessToken(tokenString)

		require.NoError(t, err)
		assert.Equal(t, uint(42), claims.UserID)
		assert.Equal(t, "user", claims.Role)
	})

	t.Run("malformed token", func(t *testing.T) {
		claims, err := service.ValidateAccessToken("invalid.token.string")

		assert.Nil(t, claims)
		testutils.AssertErrorType(t, ErrMalformedToken, err)
	})

	t.Run("expired token", func(t *testing.T) {
		now := time.Now()
		expired := Claims{
			UserID:    42,
			TokenType: TokenTypeAccess,
			JTI:       "expired-jti",
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        "expired-jti",
				Issuer:    cfg.JWT.Issuer,
				Audience:  jwt.ClaimStrings{cfg.JWT.Audience},
				ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour)),
				IssuedAt:  jwt.NewNumericDate(now.Add(-2 * time.Hour)),
			},
		}
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, expired)
		tokenString, err := token.SignedString([]byte(cfg.JWT.SecretKey))
		require.NoError(t, err)

		claims, err := service.ValidateAccessToken(tokenString)

		assert.Nil(t, claims)
		testutils.AssertErrorType(t, ErrExpiredToken, err)
	})

	t.Run("invalid signature", func(t *testing.T) {
		otherCfg := testutils.GetTestConfig()
		otherCfg.JWT.SecretKey = "different-secret-key-32-chars!!!"
		other := NewService(otherCfg, nil)

		tokenString, err := other.GenerateAccessToken(testSubject())
		require.NoError(t, err)

		claims, err := service.ValidateAccessToken(tokenString)

		assert.Nil(t, claims)
		testutils.AssertErrorType(t, ErrInvalidSignature, err)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		otherCfg := testutils.GetTestConfig()
		otherCfg.JWT.Issuer = "someone-else"
		other := NewService(otherCfg, nil)

		tokenString, err := other.GenerateAccessToken(testSubject())
		require.NoError(t, err)

		claims, err := service.ValidateAccessToken(tokenString)

		assert.Nil(t, claims)
		testutils.AssertErrorType(t, ErrInvalidToken, err)
	})

	t.Run("wrong audience", func(t *testing.T) {
		otherCfg := testutils.GetTestConfig()
		otherCfg.JWT.Audience = "someone-else"
		other := NewService(otherCfg, nil)

		tokenString, err := other.GenerateAccessToken(testSubject())
		require.NoError(t, err)

		claims, err := service.ValidateAccessToken(tokenString)

		assert.Nil(t, claims)
		testutils.AssertErrorType(t, ErrInvalidToken, err)
	})

	t.Run("none algorithm rejected", func(t *testing.T) {
		claims := Claims{
			UserID:    42,
			TokenType: TokenTypeAccess,
			JTI:       "none-jti",
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    cfg.JWT.Issuer,
				Audience:  jwt.ClaimStrings{cfg.JWT.Audience},
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		token := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
		tokenString, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		result, err := service.ValidateAccessToken(tokenString)

		assert.Nil(t, result)
		testutils.AssertErrorType(t, ErrInvalidToken, err)
	})

	t.Run("refresh token rejected as access", func(t *testing.T) {
		tokenString, err := service.GenerateRefreshToken(testSubject(), 0)
		require.NoError(t, err)

		claims, err := service.ValidateAccessToken(tokenString)

		assert.Nil(t, claims)
		testutils.AssertErrorType(t, ErrWrongTokenType, err)
	})
}

func TestService_ValidateAccessToken_WithRegistry(t *testing.T) {
	cfg := testutils.GetTestConfig()
	service := NewService(cfg, nil)
	registry := &testutils.MockRegistry{}
	service.SetRegistry(registry)

	tokenString, err := service.GenerateAccessToken(testSubject())
	require.NoError(t, err)
	jti := decodeClaims(t, service, tokenString).JTI

	t.Run("not blacklisted", func(t *testing.T) {
		registry.On("IsTokenRevoked", jti).Return(false, nil).Once()

		claims, err := service.ValidateAccessToken(tokenString)

		require.NoError(t, err)
		assert.NotNil(t, claims)
		registry.AssertExpectations(t)
	})

	t.Run("blacklisted", func(t *testing.T) {
		registry.On("IsTokenRevoked", jti).Return(true, nil).Once()

		claims, err := service.ValidateAccessToken(tokenString)

		assert.Nil(t, claims)
		testutils.AssertErrorType(t, ErrTokenRevoked, err)
		registry.AssertExpectations(t)
	})

	t.Run("registry failure fails closed", func(t *testing.T) {
		registry.On("IsTokenRevoked", jti).Return(false, assert.AnError).Once()

		claims, err := service.ValidateAccessToken(tokenString)

		assert.Nil(t, claims)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to check token revocation status")
		registry.AssertExpectations(t)
	})
}

func TestService_ValidateRefreshToken_VersionCheck(t *testing.T) {
	cfg := testutils.GetTestConfig()
	service := NewService(cfg, nil)
	registry := &testutils.MockRegistry{}
	service.SetRegistry(registry)

	tokenString, err := service.GenerateRefreshToken(testSubject(), 1)
	require.NoError(t, err)

	t.Run("version at minimum passes", func(t *testing.T) {
		registry.On("MinUserVersion", uint(42)).Return(1, nil).Once()

		claims, err := service.ValidateRefreshToken(tokenString)

		require.NoError(t, err)
		assert.Equal(t, 1, claims.Version)
		registry.AssertExpectations(t)
	})

	t.Run("version below minimum is revoked", func(t *testing.T) {
		registry.On("MinUserVersion", uint(42)).Return(2, nil).Once()

		claims, err := service.ValidateRefreshToken(tokenString)

		assert.Nil(t, claims)
		testutils.AssertErrorType(t, ErrTokenRevoked, err)
		registry.AssertExpectations(t)
	})

	t.Run("access token still passes after bump", func(t *testing.T) {
		// access tokens are not version-checked; they remain valid until
		// natural expiry even after a bump
		accessToken, err := service.GenerateAccessToken(testSubject())
		require.NoError(t, err)
		accessJTI := decodeClaims(t, service, accessToken).JTI
		registry.On("IsTokenRevoked", accessJTI).Return(false, nil).Once()

		claims, err := service.ValidateAccessToken(accessToken)

		require.NoError(t, err)
		assert.NotNil(t, claims)
		registry.AssertExpectations(t)
	})
}

func TestService_ValidateTempToken(t *testing.T) {
	cfg := testutils.GetTestConfig()
	service := NewService(cfg, nil)

	t.Run("valid purpose", func(t *testing.T) {
		tokenString, err := service.GenerateTempToken(42, PurposePasswordReset)
		require.NoError(t, err)

		claims, err := service.ValidateTempToken(tokenString, PurposePasswordReset)

		require.NoError(t, err)
		assert.Equal(t, uint(42), claims.UserID)
	})

	t.Run("wrong purpose", func(t *testing.T) {
		tokenString, err := service.GenerateTempToken(42, PurposeMFAVerification)
		require.NoError(t, err)

		claims, err := service.ValidateTempToken(tokenString, PurposePasswordReset)

		assert.Nil(t, claims)
		testutils.AssertErrorType(t, ErrWrongTokenType, err)
	})

	t.Run("access token rejected as temp", func(t *testing.T) {
		tokenString, err := service.GenerateAccessToken(testSubject())
		require.NoError(t, err)

		claims, err := service.ValidateTempToken(tokenString, PurposePasswordReset)

		assert.Nil(t, claims)
		testutils.AssertErrorType(t, ErrWrongTokenType, err)
	})
}

func TestService_ExpiryAccessors(t *testing.T) {
	cfg := testutils.GetTestConfig()
	cfg.JWT.AccessExpiry = 15 * time.Minute
	cfg.JWT.RefreshExpiry = 7 * 24 * time.Hour
	service := NewService(cfg, nil)

	assert.Equal(t, 900, service.AccessExpirySeconds())
	assert.Equal(t, 604800, service.RefreshExpirySeconds())
	assert.Equal(t, 300, service.TempExpirySeconds())
}
