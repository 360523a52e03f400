package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contentpilot/authcore/services/refreshtoken"
	"github.com/contentpilot/authcore/testutils"
)

func TestBuild(t *testing.T) {
	t.Run("assembles the full engine", func(t *testing.T) {
		cfg := testutils.GetTestConfig()
		cfg.Database.DSN = ":memory:"

		application, err := NewApp().
			WithConfig(cfg).
			WithSettings(testutils.StaticSettings{Initialized: true, RegistrationAllowed: true}).
			Build()
		require.NoError(t, err)
		defer application.Stop()

		require.NoError(t, application.Start())

		assert.NotNil(t, application.Auth())
		assert.NotNil(t, application.Tokens())
		assert.NotNil(t, application.DB())
		assert.NotNil(t, application.Logger())
		assert.Equal(t, cfg, application.Config())
	})

	t.Run("login flow works end to end", func(t *testing.T) {
		cfg := testutils.GetTestConfig()
		cfg.Database.DSN = ":memory:"

		application, err := NewApp().
			WithConfig(cfg).
			WithSettings(testutils.StaticSettings{Initialized: true, RegistrationAllowed: true}).
			WithAudit().
			Build()
		require.NoError(t, err)
		defer application.Stop()

		require.NoError(t, application.Start())

		session := refreshtoken.SessionInfo{IPAddress: "203.0.113.9"}
		_, err = application.Auth().Register("alice", "alice@example.com", testutils.TestPasswords.Valid, testutils.TestPasswords.Valid, session)
		require.NoError(t, err)

		result, err := application.Auth().Login("alice", testutils.TestPasswords.Valid, session)
		require.NoError(t, err)
		require.NotNil(t, result.Pair)

		claims, err := application.Tokens().ValidateAccessToken(result.Pair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "alice", claims.Username)
	})

	t.Run("nil config is a builder error", func(t *testing.T) {
		_, err := NewApp().WithConfig(nil).Build()
		assert.Error(t, err)
	})

	t.Run("invalid config fails validation", func(t *testing.T) {
		cfg := testutils.GetTestConfig()
		cfg.JWT.SecretKey = "short"

		_, err := NewApp().WithConfig(cfg).Build()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "secret key")
	})
}
