package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger_Levels(t *testing.T) {
	log, err := NewLogger("warn", "console", "haoshi-console")
	require.NoError(t, err)
	require.False(t, log.Core().Enabled(zapcore.InfoLevel))
	require.True(t, log.Core().Enabled(zapcore.WarnLevel))

	log, err = NewLogger("bogus", "json", "")
	require.NoError(t, err)
	require.True(t, log.Core().Enabled(zapcore.InfoLevel))
	require.False(t, log.Core().Enabled(zapcore.DebugLevel))
}
