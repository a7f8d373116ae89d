package logger

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/alkime/captions/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFor(t *testing.T) {
	tests := []struct {
		name  string
		env   string
		level string
		want  slog.Level
	}{
		{name: "production info", env: config.EnvProduction, level: "info", want: slog.LevelInfo},
		{name: "development forces debug", env: config.EnvDevelopment, level: "info", want: slog.LevelDebug},
		{name: "explicit debug", env: config.EnvProduction, level: "debug", want: slog.LevelDebug},
		{name: "warn", env: config.EnvProduction, level: "warn", want: slog.LevelWarn},
		{name: "error", env: config.EnvProduction, level: "error", want: slog.LevelError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, levelFor(tt.env, tt.level))
		})
	}
}

func TestSetupFileLogger(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	path := filepath.Join(t.TempDir(), "captions.log")

	logger, closer := SetupFileLogger(FileOptions{Path: path, Level: "info"})
	logger.Info("caption generated", "missing", 2)
	logger.Debug("not written at info level")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"caption generated"`)
	assert.Contains(t, string(data), `"missing":2`)
	assert.NotContains(t, string(data), "not written")
}
