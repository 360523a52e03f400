package auth

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/contentpilot/authcore/config"
	"github.com/contentpilot/authcore/services/audit"
	jwtservice "github.com/contentpilot/authcore/services/jwt"
	"github.com/contentpilot/authcore/services/logging"
	"github.com/contentpilot/authcore/services/mfa"
	"github.com/contentpilot/authcore/services/password"
	"github.com/contentpilot/authcore/services/refreshtoken"
	"github.com/contentpilot/authcore/services/revocation"
)

// SettingsProvider is implemented by the host application; the orchestrator
// only consumes it to gate registration.
type SettingsProvider interface {
	IsSystemInitialized() (bool, error)
	IsNewRegistrationAllowed() (bool, error)
}

// Mailer delivers password reset links. Optional; resets still complete the
// token flow when no mailer is wired.
type Mailer interface {
	SendPasswordReset(to string, resetURL string, expiry time.Duration) error
}

// Service orchestrates the full session lifecycle over the token, password,
// MFA, revocation and refresh-token services.
type Service struct {
	config        *config.Config
	logger        *logging.Service
	users         UserStore
	passwords     *password.Service
	tokens        *jwtservice.Service
	revocations   *revocation.Service
	refreshTokens *refreshtoken.Service
	mfa           *mfa.Service
	audit         *audit.Service
	mailer        Mailer
	settings      SettingsProvider

	dummyHash string
}

func NewService(
	cfg *config.Config,
	logger *logging.Service,
	users UserStore,
	passwords *password.Service,
	tokens *jwtservice.Service,
	revocations *revocation.Service,
	refreshTokens *refreshtoken.Service,
	mfaSvc *mfa.Service,
	auditSvc *audit.Service,
	mailer Mailer,
	settings SettingsProvider,
) *Service {
	// Pre-computed hash keeps the unknown-user path doing the same bcrypt
	// work as a real password check.
	dummyHash, err := passwords.HashPassword("authcore.Dummy7Password")
	if err != nil && logger != nil {
		logger.Error("failed to precompute dummy hash", zap.Error(err))
	}

	return &Service{
		config:        cfg,
		logger:        logger,
		users:         users,
		passwords:     passwords,
		tokens:        tokens,
		revocations:   revocations,
		refreshTokens: refreshTokens,
		mfa:           mfaSvc,
		audit:         auditSvc,
		mailer:        mailer,
		settings:      settings,
		dummyHash:     dummyHash,
	}
}

// Login checks credentials and either issues a token pair or, for
// MFA-enabled accounts, an MFA challenge with a short-lived temp token.
// Unknown usernames and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(username, passwordInput string, session refreshtoken.SessionInfo) (*LoginResult, error) {
	user, err := s.users.GetByUsername(username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.passwords.VerifyPassword(s.dummyHash, passwordInput)
			s.emit(audit.EventLogin, nil, session, false, ErrInvalidCredentials)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.passwords.VerifyPassword(user.PasswordHash, passwordInput) {
		s.emit(audit.EventLogin, user, session, false, ErrInvalidCredentials)
		return nil, ErrInvalidCredentials
	}

	// Pending enrollments (secret set, flag off) do not challenge.
	if user.MFAEnabled {
		tempToken, err := s.tokens.GenerateTempToken(user.ID, jwtservice.PurposeMFAVerification)
		if err != nil {
			return nil, err
		}

		s.emit(audit.EventLoginMFAPending, user, session, true, nil)
		return &LoginResult{
			MFARequired: true,
			TempToken:   tempToken,
			User:        user.Public(),
		}, nil
	}

	pair, err := s.issueTokens(user, session)
	if err != nil {
		return nil, err
	}

	s.emit(audit.EventLogin, user, session, true, nil)
	return &LoginResult{Pair: pair, User: user.Public()}, nil
}

// VerifyMFAAndIssue completes an MFA challenge. The temp token is good for
// exactly one attempt that succeeds; failed codes leave it usable. A backup
// code is consumed and persisted before any tokens are minted.
func (s *Service) VerifyMFAAndIssue(tempToken, code string, session refreshtoken.SessionInfo) (*LoginResult, error) {
	claims, err := s.tokens.ValidateTempToken(tempToken, jwtservice.PurposeMFAVerification)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(claims.UserID)
	if err != nil {
		return nil, err
	}
	if !user.MFAEnabled {
		return nil, ErrInvalidMFACode
	}

	usedBackupCode := false
	valid, err := s.mfa.VerifyCode(user.MFASecret, code)
	if err != nil {
		if !errors.Is(err, mfa.ErrMFADisabled) {
			return nil, err
		}
		valid = false
	}

	if !valid {
		hashes, err := user.BackupCodeHashes()
		if err != nil {
			return nil, err
		}

		matched, remaining := s.mfa.VerifyBackupCode(hashes, code)
		if !matched {
			s.emit(audit.EventMFAVerified, user, session, false, ErrInvalidMFACode)
			return nil, ErrInvalidMFACode
		}

		encoded, err := encodeBackupCodes(remaining)
		if err != nil {
			return nil, err
		}
		if err := s.users.UpdateMFA(user.ID, user.MFASecret, user.MFAEnabled, encoded); err != nil {
			return nil, err
		}
		usedBackupCode = true
	}

	if err := s.revocations.BlacklistToken(claims.JTI, claims.ExpiresAt.Time); err != nil {
		return nil, err
	}

	pair, err := s.issueTokens(user, session)
	if err != nil {
		return nil, err
	}

	if usedBackupCode {
		s.emit(audit.EventBackupCodeUsed, user, session, true, nil)
	}
	s.emit(audit.EventMFAVerified, user, session, true, nil)
	return &LoginResult{Pair: pair, User: user.Public()}, nil
}

// Refresh rotates a refresh token. The old record is revoked with a
// conditional update before anything is minted, so of two concurrent
// redemptions exactly one receives a new pair; the other gets
// jwt.ErrTokenRevoked.
func (s *Service) Refresh(rawToken string, session refreshtoken.SessionInfo) (*LoginResult, error) {
	claims, err := s.tokens.ValidateRefreshToken(rawToken)
	if err != nil {
		return nil, err
	}

	won, err := s.refreshTokens.RevokeIfActive(rawToken, refreshtoken.ReasonRotated)
	if err != nil {
		return nil, err
	}
	if !won {
		if s.logger != nil {
			s.logger.Warn("refresh token replay detected",
				zap.Uint("user_id", claims.UserID))
		}
		s.emit(audit.EventRefreshReplay, &User{ID: claims.UserID, Username: claims.Username}, session, false, jwtservice.ErrTokenRevoked)
		return nil, jwtservice.ErrTokenRevoked
	}

	user, err := s.users.GetByID(claims.UserID)
	if err != nil {
		return nil, err
	}

	pair, err := s.issueTokens(user, session)
	if err != nil {
		return nil, err
	}

	s.emit(audit.EventRefresh, user, session, true, nil)
	return &LoginResult{Pair: pair, User: user.Public()}, nil
}

// Logout revokes the presented refresh token. Unknown or already revoked
// tokens are not an error.
func (s *Service) Logout(rawToken string) error {
	err := s.refreshTokens.Revoke(rawToken, refreshtoken.ReasonLogout)
	if err != nil && !errors.Is(err, refreshtoken.ErrTokenNotFound) {
		return err
	}

	s.emit(audit.EventLogout, nil, refreshtoken.SessionInfo{}, true, nil)
	return nil
}

// Register creates an account and logs it straight in. Gates are checked in
// a fixed order: system state, registration toggle, confirmation match,
// username availability, password strength. A host that wires no
// SettingsProvider has registration closed.
func (s *Service) Register(username, email, passwordInput, confirm string, session refreshtoken.SessionInfo) (*LoginResult, error) {
	if s.settings == nil {
		return nil, ErrSystemNotInitialized
	}

	initialized, err := s.settings.IsSystemInitialized()
	if err != nil {
		return nil, err
	}
	if !initialized {
		return nil, ErrSystemNotInitialized
	}

	allowed, err := s.settings.IsNewRegistrationAllowed()
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrRegistrationDisabled
	}

	if passwordInput != confirm {
		return nil, ErrPasswordMismatch
	}

	if _, err := s.users.GetByUsername(username); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	if err := s.checkPasswordStrength(passwordInput, nil); err != nil {
		return nil, err
	}

	hash, err := s.passwords.HashPassword(passwordInput)
	if err != nil {
		return nil, err
	}

	user := &User{
		Username:     username,
		PasswordHash: hash,
		Role:         RoleUser,
	}
	if email != "" {
		user.Email = &email
	}
	if err := s.users.Create(user); err != nil {
		return nil, err
	}

	pair, err := s.issueTokens(user, session)
	if err != nil {
		return nil, err
	}

	s.emit(audit.EventRegister, user, session, true, nil)
	return &LoginResult{Pair: pair, User: user.Public()}, nil
}

// ChangePassword requires proof of the current password, then invalidates
// every outstanding refresh token for the user.
func (s *Service) ChangePassword(userID uint, current, newPassword, confirm string) error {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return err
	}

	if !s.passwords.VerifyPassword(user.PasswordHash, current) {
		s.emit(audit.EventPasswordChanged, user, refreshtoken.SessionInfo{}, false, ErrInvalidCredentials)
		return ErrInvalidCredentials
	}

	if newPassword != confirm {
		return ErrPasswordMismatch
	}

	if err := s.checkPasswordStrength(newPassword, []string{user.PasswordHash}); err != nil {
		return err
	}

	hash, err := s.passwords.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePasswordHash(userID, hash); err != nil {
		return err
	}

	if err := s.invalidateSessions(userID); err != nil {
		return err
	}

	s.emit(audit.EventPasswordChanged, user, refreshtoken.SessionInfo{}, true, nil)
	return nil
}

// RequestPasswordReset issues a reset link for a known account. Unknown
// usernames and addresses return nil so callers cannot probe for accounts.
func (s *Service) RequestPasswordReset(usernameOrEmail string) error {
	user, err := s.users.GetByUsername(usernameOrEmail)
	if errors.Is(err, ErrUserNotFound) {
		user, err = s.users.GetByEmail(usernameOrEmail)
	}
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil
		}
		return err
	}

	tempToken, err := s.tokens.GenerateTempToken(user.ID, jwtservice.PurposePasswordReset)
	if err != nil {
		return err
	}

	resetURL := fmt.Sprintf("%s/reset-password?token=%s", s.config.App.URL, url.QueryEscape(tempToken))

	if s.mailer == nil {
		if s.logger != nil {
			s.logger.Warn("no mailer configured, password reset link not delivered",
				zap.Uint("user_id", user.ID))
		}
		return nil
	}

	if user.Email == nil {
		if s.logger != nil {
			s.logger.Warn("account has no email address, password reset link not delivered",
				zap.Uint("user_id", user.ID))
		}
		return nil
	}

	if err := s.mailer.SendPasswordReset(*user.Email, resetURL, s.config.JWT.TempExpiry); err != nil {
		if s.logger != nil {
			s.logger.Error("failed to send password reset email",
				zap.Uint("user_id", user.ID),
				zap.Error(err))
		}
		return fmt.Errorf("failed to send password reset email: %w", err)
	}

	return nil
}

// ResetPassword redeems a single-use reset token and sets a new password,
// then invalidates every outstanding refresh token for the user.
func (s *Service) ResetPassword(tempToken, newPassword, confirm string) error {
	claims, err := s.tokens.ValidateTempToken(tempToken, jwtservice.PurposePasswordReset)
	if err != nil {
		return err
	}

	if newPassword != confirm {
		return ErrPasswordMismatch
	}

	user, err := s.users.GetByID(claims.UserID)
	if err != nil {
		return err
	}

	if err := s.checkPasswordStrength(newPassword, []string{user.PasswordHash}); err != nil {
		return err
	}

	if err := s.revocations.BlacklistToken(claims.JTI, claims.ExpiresAt.Time); err != nil {
		return err
	}

	hash, err := s.passwords.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePasswordHash(user.ID, hash); err != nil {
		return err
	}

	if err := s.invalidateSessions(user.ID); err != nil {
		return err
	}

	s.emit(audit.EventPasswordReset, user, refreshtoken.SessionInfo{}, true, nil)
	return nil
}

// BeginMFAEnrollment stores a pending TOTP secret and backup codes. The
// account keeps logging in without MFA until one code is confirmed.
func (s *Service) BeginMFAEnrollment(userID uint) (*mfa.Enrollment, error) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user.MFAEnabled {
		return nil, ErrMFAAlreadyEnabled
	}

	enrollment, err := s.mfa.Setup(user.Username)
	if err != nil {
		return nil, err
	}

	hashes, err := s.mfa.HashBackupCodes(enrollment.BackupCodes)
	if err != nil {
		return nil, err
	}
	encoded, err := encodeBackupCodes(hashes)
	if err != nil {
		return nil, err
	}

	if err := s.users.UpdateMFA(userID, enrollment.Secret, false, encoded); err != nil {
		return nil, err
	}

	return enrollment, nil
}

// ConfirmMFAEnrollment flips MFA on once a code from the pending secret
// proves the authenticator was provisioned.
func (s *Service) ConfirmMFAEnrollment(userID uint, code string) error {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return err
	}
	if user.MFAEnabled {
		return ErrMFAAlreadyEnabled
	}
	if user.MFASecret == "" {
		return ErrMFANotEnrolled
	}

	valid, err := s.mfa.VerifyCode(user.MFASecret, code)
	if err != nil {
		return err
	}
	if !valid {
		return ErrInvalidMFACode
	}

	if err := s.users.UpdateMFA(userID, user.MFASecret, true, user.BackupCodes); err != nil {
		return err
	}

	s.emit(audit.EventMFAEnabled, user, refreshtoken.SessionInfo{}, true, nil)
	return nil
}

// DisableMFA clears the secret, the enabled flag and any remaining backup
// codes.
func (s *Service) DisableMFA(userID uint) error {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return err
	}

	if err := s.users.UpdateMFA(userID, "", false, ""); err != nil {
		return err
	}

	s.emit(audit.EventMFADisabled, user, refreshtoken.SessionInfo{}, true, nil)
	return nil
}

// SetRole updates the user's role tag. Access tokens minted before the
// change keep the old role until their next refresh.
func (s *Service) SetRole(userID uint, role string) error {
	if role != RoleAdmin && role != RoleUser {
		return ErrInvalidRole
	}
	if _, err := s.users.GetByID(userID); err != nil {
		return err
	}
	return s.users.UpdateRole(userID, role)
}

// issueTokens mints a pair and persists the refresh record. The pair is
// only handed out once the record write succeeded.
func (s *Service) issueTokens(user *User, session refreshtoken.SessionInfo) (*TokenPair, error) {
	version, err := s.revocations.MinUserVersion(user.ID)
	if err != nil {
		return nil, err
	}

	subject := jwtservice.Subject{
		ID:       user.ID,
		Username: user.Username,
		Role:     user.Role,
	}

	accessToken, err := s.tokens.GenerateAccessToken(subject)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.tokens.GenerateRefreshToken(subject, version)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	refreshExpiresAt := now.Add(s.config.JWT.RefreshExpiry)

	if _, err := s.refreshTokens.Store(refreshToken, user.ID, refreshExpiresAt, session); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:      accessToken,
		AccessExpiresAt:  now.Add(s.config.JWT.AccessExpiry),
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExpiresAt,
	}, nil
}

// invalidateSessions is the "log out everywhere" primitive: bump the
// version counter and revoke all stored refresh tokens.
func (s *Service) invalidateSessions(userID uint) error {
	if _, err := s.revocations.BumpUserVersion(userID); err != nil {
		return err
	}
	if _, err := s.refreshTokens.RevokeAllForUser(userID, refreshtoken.ReasonPasswordChanged); err != nil {
		return err
	}
	return nil
}

func (s *Service) checkPasswordStrength(passwordInput string, history []string) error {
	if err := s.passwords.ValidatePassword(passwordInput); err != nil {
		return fmt.Errorf("%w: %s", ErrWeakPassword, err.Error())
	}

	result := s.passwords.Score(passwordInput, history)
	if result.Level == password.LevelWeak {
		return ErrWeakPassword
	}
	return nil
}

func (s *Service) emit(eventType string, user *User, session refreshtoken.SessionInfo, success bool, failure error) {
	if s.audit == nil {
		return
	}

	event := audit.Event{
		EventType: eventType,
		IP:        session.IPAddress,
		Success:   success,
	}
	if user != nil {
		event.UserID = user.ID
		event.Username = user.Username
	}
	if failure != nil {
		event.Error = failure.Error()
	}

	s.audit.Emit(event)
}
