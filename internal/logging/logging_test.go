package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/sandrolain/gocalc/internal/config"
)

func TestNew(t *testing.T) {
	logger, level, err := New(config.LoggingConfig{Level: "warn"}, false)
	require.NoError(t, err)
	defer logger.Sync() //nolint:errcheck
	assert.Equal(t, zapcore.WarnLevel, level.Level())

	level.SetLevel(zapcore.ErrorLevel)
	assert.False(t, logger.Core().Enabled(zapcore.WarnLevel))
}

func TestNewVerbose(t *testing.T) {
	logger, level, err := New(config.LoggingConfig{Level: "error", Development: true}, true)
	require.NoError(t, err)
	defer logger.Sync() //nolint:errcheck
	assert.Equal(t, zapcore.DebugLevel, level.Level())
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, zapcore.InfoLevel, l)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}
