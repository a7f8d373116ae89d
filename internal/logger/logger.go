package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/alkime/captions/internal/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

// SetupLogger configures structured logging based on environment.
func SetupLogger(cfg *config.Config) *slog.Logger {
	logger := slog.New(newJSONHandler(os.Stdout, levelFor(cfg.Env, cfg.LogLevel)))

	// Set as default logger
	slog.SetDefault(logger)

	return logger
}

// FileOptions configures the rotating log file used while the terminal UI
// owns stdout.
type FileOptions struct {
	Path       string
	Level      string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// SetupFileLogger points the default logger at a size-rotated JSON log file.
// The returned closer flushes and closes the file.
func SetupFileLogger(opts FileOptions) (*slog.Logger, io.Closer) {
	if opts.MaxSizeMB == 0 {
		opts.MaxSizeMB = 10
	}
	if opts.MaxBackups == 0 {
		opts.MaxBackups = 3
	}
	if opts.MaxAgeDays == 0 {
		opts.MaxAgeDays = 28
	}

	//nolint:exhaustruct // LocalTime and Compress keep their defaults
	rotator := &lumberjack.Logger{
		Filename:   opts.Path,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
	}

	logger := slog.New(newJSONHandler(rotator, levelFor("", opts.Level)))
	slog.SetDefault(logger)

	return logger, rotator
}

func levelFor(env, level string) slog.Level {
	logLevel := slog.LevelInfo
	if env == config.EnvDevelopment {
		logLevel = slog.LevelDebug
	}

	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	return logLevel
}

func newJSONHandler(w io.Writer, level slog.Level) slog.Handler {
	//nolint:exhaustruct // Using default values for other HandlerOptions fields
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
}
