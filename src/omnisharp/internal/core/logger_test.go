package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/config"
	"go.uber.org/zap/zapcore"
)

func staticLoggingProvider(t *testing.T, logging map[string]interface{}) config.Provider {
	t.Helper()
	provider, err := config.NewStaticProvider(map[string]interface{}{
		"logging": logging,
	})
	require.NoError(t, err)
	return provider
}

func TestNewSugaredLogger(t *testing.T) {
	tests := []struct {
		name    string
		logging map[string]interface{}
		wantErr bool
	}{
		{
			name: "production json",
			logging: map[string]interface{}{
				"level":    "info",
				"encoding": "json",
			},
		},
		{
			name: "development console",
			logging: map[string]interface{}{
				"level":       "debug",
				"development": true,
				"encoding":    "console",
			},
		},
		{
			name: "invalid level",
			logging: map[string]interface{}{
				"level": "verbose",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewSugaredLogger(staticLoggingProvider(t, tt.logging))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, logger)
			logger.Infow("logger configured", "encoding", tt.logging["encoding"])
		})
	}
}

func TestNewLogger(t *testing.T) {
	sugar, err := NewSugaredLogger(staticLoggingProvider(t, map[string]interface{}{
		"level": "warn",
	}))
	require.NoError(t, err)

	logger := NewLogger(sugar)
	require.NotNil(t, logger)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
}
