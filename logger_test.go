package osmfilter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		format, level string
		enabled       zapcore.Level
	}{
		{"text", "debug", zap.DebugLevel},
		{"json", "info", zap.InfoLevel},
		{"", "", zap.WarnLevel},
		{"text", "error", zap.ErrorLevel},
	}
	for _, tt := range tests {
		t.Run(tt.format+"/"+tt.level, func(t *testing.T) {
			l, err := NewLogger(tt.format, tt.level)
			require.NoError(t, err)
			assert.True(t, l.Core().Enabled(tt.enabled))
			assert.False(t, l.Core().Enabled(tt.enabled-1))
		})
	}
}

func TestNewLoggerNone(t *testing.T) {
	l, err := NewLogger("json", "none")
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zap.ErrorLevel))
}

func TestNewLoggerRejectsUnknownSettings(t *testing.T) {
	_, err := NewLogger("text", "verbose")
	assert.ErrorContains(t, err, "unknown log level: verbose")

	_, err = NewLogger("xml", "info")
	assert.ErrorContains(t, err, "unknown log format: xml")
}
