package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestDefaultLoggerReportsErrors(t *testing.T) {
	core := L().Core()
	assert.True(t, core.Enabled(zapcore.ErrorLevel))
	assert.True(t, core.Enabled(zapcore.FatalLevel))
	assert.False(t, core.Enabled(zapcore.InfoLevel))
}

func TestInit(t *testing.T) {
	prev := L()
	t.Cleanup(func() { Set(prev) })

	require.NoError(t, Init("debug", false))
	assert.True(t, L().Core().Enabled(zapcore.DebugLevel))

	assert.Error(t, Init("loud", false))
	assert.True(t, L().Core().Enabled(zap.DebugLevel))
}
