package testutils

import (
	"time"

	"github.com/stretchr/testify/mock"
)

type MockRegistry struct {
	mock.Mock
}

func (m *MockRegistry) IsTokenRevoked(jti string) (bool, error) {
	args := m.Called(jti)
	return args.Bool(0), args.Error(1)
}

func (m *MockRegistry) MinUserVersion(userID uint) (int, error) {
	args := m.Called(userID)
	return args.Int(0), args.Error(1)
}

type MockSettingsProvider struct {
	mock.Mock
}

func (m *MockSettingsProvider) IsSystemInitialized() (bool, error) {
	args := m.Called()
	return args.Bool(0), args.Error(1)
}

func (m *MockSettingsProvider) IsNewRegistrationAllowed() (bool, error) {
	args := m.Called()
	return args.Bool(0), args.Error(1)
}

// StaticSettings is a plain SettingsProvider for tests that do not care
// about call counts.
type StaticSettings struct {
	Initialized         bool
	RegistrationAllowed bool
}

func (s StaticSettings) IsSystemInitialized() (bool, error) {
	return s.Initialized, nil
}

func (s StaticSettings) IsNewRegistrationAllowed() (bool, error) {
	return s.RegistrationAllowed, nil
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendPasswordReset(to, resetURL string, expiry time.Duration) error {
	args := m.Called(to, resetURL, expiry)
	return args.Error(0)
}
