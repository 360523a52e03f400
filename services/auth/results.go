package auth

import (
	"errors"
	"time"
)

var (
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrInvalidMFACode       = errors.New("invalid mfa code")
	ErrWeakPassword         = errors.New("password does not meet strength requirements")
	ErrPasswordMismatch     = errors.New("password confirmation does not match")
	ErrUserExists           = errors.New("username is already taken")
	ErrUserNotFound         = errors.New("user not found")
	ErrRegistrationDisabled = errors.New("registration is disabled")
	ErrSystemNotInitialized = errors.New("system is not initialized")
	ErrMFAAlreadyEnabled    = errors.New("mfa is already enabled")
	ErrMFANotEnrolled       = errors.New("no pending mfa enrollment")
	ErrInvalidRole          = errors.New("invalid role")
)

// TokenPair is a freshly minted access + refresh token set.
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshToken     string    `json:"refresh_token"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// LoginResult is either a token pair or an MFA challenge; MFARequired and
// Pair are mutually exclusive.
type LoginResult struct {
	MFARequired bool        `json:"mfa_required"`
	TempToken   string      `json:"temp_token,omitempty"`
	Pair        *TokenPair  `json:"tokens,omitempty"`
	User        *PublicUser `json:"user,omitempty"`
}
