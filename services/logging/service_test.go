package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/contentpilot/authcore/config"
)

func TestNewService(t *testing.T) {
	t.Run("json format", func(t *testing.T) {
		svc, err := NewService(config.LogConfig{Level: "info", Format: "json"})
		require.NoError(t, err)
		require.NotNil(t, svc)
		assert.NotNil(t, svc.Logger())
		assert.NotNil(t, svc.Sugar())
	})

	t.Run("console format", func(t *testing.T) {
		svc, err := NewService(config.LogConfig{Level: "debug", Format: "console"})
		require.NoError(t, err)
		require.NotNil(t, svc)
	})

	t.Run("unknown level falls back to info", func(t *testing.T) {
		svc, err := NewService(config.LogConfig{Level: "verbose", Format: "json"})
		require.NoError(t, err)
		assert.True(t, svc.Logger().Core().Enabled(zapcore.InfoLevel))
		assert.False(t, svc.Logger().Core().Enabled(zapcore.DebugLevel))
	})
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
		{"trace", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run("level "+tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.input))
		})
	}
}

func TestNilServiceIsSafe(t *testing.T) {
	var svc *Service

	assert.NotPanics(t, func() {
		svc.Debug("debug")
		svc.Info("info")
		svc.Warn("warn")
		svc.Error("error")
		svc.Infof("formatted %d", 1)
		svc.Errorf("formatted %s", "error")
	})

	assert.Nil(t, svc.Logger())
	assert.Nil(t, svc.Sugar())
	assert.NoError(t, svc.Sync())
}

func TestNewNop(t *testing.T) {
	svc := NewNop()
	require.NotNil(t, svc)

	assert.NotPanics(t, func() {
		svc.Info("discarded")
		svc.Errorf("discarded %d", 2)
	})
	assert.NoError(t, svc.Sync())
}
