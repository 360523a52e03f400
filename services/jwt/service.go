package jwt

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/contentpilot/authcore/config"
	"github.com/contentpilot/authcore/services/logging"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrMalformedToken   = errors.New("malformed token")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrWrongTokenType   = errors.New("wrong token type")
	ErrTokenRevoked     = errors.New("token has been revoked")
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
	TokenTypeTemp    = "temp"
)

const (
	PurposeMFAVerification = "mfa-verification"
	PurposePasswordReset   = "password-reset"
)

type Claims struct {
	UserID    uint   `json:"user_id"`
	Username  string `json:"username,omitempty"`
	Role      string `json:"role,omitempty"`
	TokenType string `json:"token_type"`
	Purpose   string `json:"purpose,omitempty"`
	Version   int    `json:"version,omitempty"`
	JTI       string `json:"jti"`
	jwt.RegisteredClaims
}

// Subject is the minimal identity embedded in access and refresh tokens.
type Subject struct {
	ID       uint
	Username string
	Role     string
}

// Registry is consulted during verification: individually revoked token ids
// for access/temp tokens, per-user minimum valid versions for refresh tokens.
type Registry interface {
	IsTokenRevoked(jti string) (bool, error)
	MinUserVersion(userID uint) (int, error)
}

type Service struct {
	config   *config.Config
	logger   *logging.Service
	registry Registry
}

func NewService(cfg *config.Config, logger *logging.Service) *Service {
	return &Service{
		config: cfg,
		logger: logger,
	}
}

func (s *Service) SetRegistry(registry Registry) {
	s.registry = registry
}

func (s *Service) AccessExpirySeconds() int {
	return int(s.config.JWT.AccessExpiry.Seconds())
}

func (s *Service) RefreshExpirySeconds() int {
	return int(s.config.JWT.RefreshExpiry.Seconds())
}

func (s *Service) TempExpirySeconds() int {
	return int(s.config.JWT.TempExpiry.Seconds())
}

func (s *Service) GenerateAccessToken(subject Subject) (string, error) {
	claims := s.newClaims(subject.ID, s.config.JWT.AccessExpiry)
	claims.Username = subject.Username
	claims.Role = subject.Role
	claims.TokenType = TokenTypeAccess

	return s.sign(claims)
}

// GenerateRefreshToken embeds the user's current version counter; a later
// version bump invalidates the token on its next use.
func (s *Service) GenerateRefreshToken(subject Subject, version int) (string, error) {
	claims := s.newClaims(subject.ID, s.config.JWT.RefreshExpiry)
	claims.Username = subject.Username
	claims.Role = subject.Role
	claims.TokenType = TokenTypeRefresh
	claims.Version = version

	return s.sign(claims)
}

func (s *Service) GenerateTempToken(userID uint, purpose string) (string, error) {
	claims := s.newClaims(userID, s.config.JWT.TempExpiry)
	claims.TokenType = TokenTypeTemp
	claims.Purpose = purpose

	return s.sign(claims)
}

func (s *Service) newClaims(userID uint, expiry time.Duration) Claims {
	now := time.Now()
	jti := uuid.New().String()
	return Claims{
		UserID: userID,
		JTI:    jti,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    s.config.JWT.Issuer,
			Subject:   strconv.FormatUint(uint64(userID), 10),
			Audience:  jwt.ClaimStrings{s.config.JWT.Audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
}

func (s *Service) sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.config.JWT.SecretKey))
	if err != nil {
		if s.logger != nil {
			s.logger.Error("failed to sign token",
				zap.String("token_type", claims.TokenType),
				zap.Error(err))
		}
		return "", fmt.Errorf("failed to sign %s token: %w", claims.TokenType, err)
	}
	return tokenString, nil
}

func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	claims, err := s.parse(tokenString, TokenTypeAccess)
	if err != nil {
		return nil, err
	}

	if err := s.checkBlacklist(claims); err != nil {
		return nil, err
	}

	return claims, nil
}

func (s *Service) ValidateRefreshToken(tokenString string) (*Claims, error) {
	claims, err := s.parse(tokenString, TokenTypeRefresh)
	if err != nil {
		return nil, err
	}

	if s.registry != nil {
		minVersion, err := s.registry.MinUserVersion(claims.UserID)
		if err != nil {
			if s.logger != nil {
				s.logger.Error("failed to check minimum token version",
					zap.Uint("user_id", claims.UserID),
					zap.Error(err))
			}
			return nil, fmt.Errorf("failed to check token version: %w", err)
		}
		if claims.Version < minVersion {
			if s.logger != nil {
				s.logger.Warn("refresh token rejected - version below minimum",
					zap.Uint("user_id", claims.UserID),
					zap.Int("token_version", claims.Version),
					zap.Int("min_version", minVersion))
			}
			return nil, ErrTokenRevoked
		}
	}

	return claims, nil
}

func (s *Service) ValidateTempToken(tokenString, purpose string) (*Claims, error) {
	claims, err := s.parse(tokenString, TokenTypeTemp)
	if err != nil {
		return nil, err
	}

	if claims.Purpose != purpose {
		if s.logger != nil {
			s.logger.Warn("temp token rejected - wrong purpose",
				zap.String("expected", purpose),
				zap.String("got", claims.Purpose))
		}
		return nil, ErrWrongTokenType
	}

	if err := s.checkBlacklist(claims); err != nil {
		return nil, err
	}

	return claims, nil
}

func (s *Service) checkBlacklist(claims *Claims) error {
	if s.registry == nil {
		return nil
	}

	revoked, err := s.registry.IsTokenRevoked(claims.JTI)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("failed to check token revocation status", zap.Error(err))
		}
		return fmt.Errorf("failed to check token revocation status: %w", err)
	}
	if revoked {
		if s.logger != nil {
			s.logger.Warn("token rejected - jti blacklisted", zap.String("jti", claims.JTI))
		}
		return ErrTokenRevoked
	}

	return nil
}

func (s *Service) parse(tokenString, wantType string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() == "none" {
			return nil, errors.New("'none' algorithm is not allowed")
		}

		if token.Method.Alg() != s.config.JWT.Algorithm {
			return nil, fmt.Errorf("unexpected algorithm: expected %s, got %s", s.config.JWT.Algorithm, token.Method.Alg())
		}

		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("invalid algorithm family: %v", token.Header["alg"])
		}

		return []byte(s.config.JWT.SecretKey), nil
	},
		jwt.WithIssuer(s.config.JWT.Issuer),
		jwt.WithAudience(s.config.JWT.Audience),
		jwt.WithExpirationRequired(),
	)

	if err != nil {
		if s.logger != nil {
			s.logger.Debug("token validation failed", zap.Error(err))
		}

		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrMalformedToken
		case errors.Is(err, jwt.ErrSignatureInvalid):
			return nil, ErrInvalidSignature
		default:
			return nil, ErrInvalidToken
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.TokenType != wantType {
		if s.logger != nil {
			s.logger.Warn("token rejected - wrong token type",
				zap.String("expected", wantType),
				zap.String("got", claims.TokenType))
		}
		return nil, ErrWrongTokenType
	}

	return claims, nil
}
