package app

import (
	"io"
	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"
)

// newLogger creates and configures a new slog.Logger instance. It does not
// set the global logger, allowing for isolated logger instances. When
// logFile is set, records are also written to a rotating file; the returned
// closer releases it.
func newLogger(levelStr, formatStr string, outW io.Writer, logFile string) (*slog.Logger, io.Closer) {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var closer io.Closer = nopCloser{}
	if logFile != "" {
		rotating := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    15, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		}
		outW = io.MultiWriter(outW, rotating)
		closer = rotating
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler

	if formatStr == "json" {
		handler = slog.NewJSONHandler(outW, handlerOpts)
	} else {
		handler = slog.NewTextHandler(outW, handlerOpts)
	}

	return slog.New(handler), closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
