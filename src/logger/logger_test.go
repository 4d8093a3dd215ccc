package logger

import (
	"os"
	"path/filepath"
	"testing"

	"market-sync/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("WARNING"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("ERROR"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel(""))
}

func TestLoggerWritesRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "market-sync.log")
	l := NewLogger(&models.MConfig{LogLevel: "INFO", LogFile: path}, "test")

	l.Info("relay ready on %s", "server1")
	l.Debug("hidden at info level")
	l.Named("child").Warning("child warning")
	_ = l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "relay ready on server1")
	assert.NotContains(t, string(data), "hidden at info level")
	assert.Contains(t, string(data), "child warning")
}

func TestCriticalExits(t *testing.T) {
	l := NewNopLogger()
	code := -1
	l.exit = func(c int) { code = c }

	l.Critical("fatal %d", 1)
	assert.Equal(t, 1, code)
}
