// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/pdiddy/philquery/pkg/types"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     types.LogConfig
		enabled zapcore.Level
		off     zapcore.Level
	}{
		{"defaults", types.LogConfig{}, zapcore.InfoLevel, zapcore.DebugLevel},
		{"debug console", types.LogConfig{Level: "debug", Format: "console"}, zapcore.DebugLevel, zapcore.DebugLevel - 1},
		{"warn json", types.LogConfig{Level: "WARN", Format: "json"}, zapcore.WarnLevel, zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			require.NoError(t, err)
			assert.True(t, logger.Core().Enabled(tt.enabled))
			assert.False(t, logger.Core().Enabled(tt.off))
		})
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := New(types.LogConfig{Level: "loud"})
	assert.Error(t, err)

	_, err = New(types.LogConfig{Format: "xml"})
	assert.Error(t, err)
}
