package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLevelFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	require.Equal(t, zapcore.DebugLevel, levelFromEnv())

	t.Setenv("LOG_LEVEL", "loud")
	require.Equal(t, zapcore.InfoLevel, levelFromEnv())

	t.Setenv("LOG_LEVEL", "")
	require.Equal(t, zapcore.InfoLevel, levelFromEnv())
}

func TestNewReleaseWritesFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("GIN_MODE", "release")
	t.Setenv("LOG_DIR", dir)
	t.Setenv("LOG_LEVEL", "warn")

	logger, err := New()
	require.NoError(t, err)
	require.False(t, logger.Core().Enabled(zapcore.InfoLevel))

	logger.Warn("store corrupt")
	_ = logger.Sync()

	data, err := os.ReadFile(filepath.Join(dir, logFileName))
	require.NoError(t, err)
	require.Contains(t, string(data), `"service":"worry-solver"`)
	require.Contains(t, string(data), "store corrupt")
}

func TestNewDevelopment(t *testing.T) {
	t.Setenv("GIN_MODE", "")
	t.Setenv("LOG_LEVEL", "")
	logger, err := New()
	require.NoError(t, err)
	require.True(t, logger.Core().Enabled(zapcore.InfoLevel))
	require.False(t, logger.Core().Enabled(zapcore.DebugLevel))
}
