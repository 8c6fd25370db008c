// Package logger is the daemon's structured leveled logging facade,
// wrapping hashicorp/go-hclog. internal/applog is a separate concern: it
// emits the decision/exec/mutation log's fixed wire format straight to an
// io.Writer and never goes through hclog's own formatting.
package logger

import (
	"time"

	"github.com/hashicorp/go-hclog"
)

// Logger is the leveled logging interface used everywhere in this module
// instead of a bare hclog.Logger, so call sites don't depend on hclog
// directly and tests can substitute a double.
type Logger interface {
	Trace(msg string, args ...interface{})
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})

	// With returns a derived logger that always includes args.
	With(args ...interface{}) Logger

	SetLevel(level hclog.Level)

	// GetHCLogger exposes the underlying hclog.Logger for callers that
	// need to hand it to a library expecting one directly (e.g. the
	// worker pool, grpc's hclog-compatible logging hooks).
	GetHCLogger() hclog.Logger
}

// AppLogger is the Logger implementation backing the whole daemon.
type AppLogger struct {
	logger hclog.Logger
}

// NewLogger creates a logger writing to hclog.DefaultOutput (stderr),
// the right default for a process under a supervisor that already
// captures and rotates its own stdout/stderr.
func NewLogger(name string, level hclog.Level) Logger {
	return &AppLogger{
		logger: hclog.New(&hclog.LoggerOptions{
			Name:   name,
			Level:  level,
			Output: hclog.DefaultOutput,
		}),
	}
}

// NewRotatingLogger creates a logger that writes through a size-rotated
// file (see rotation.go) instead of stderr, for deployments that want the
// daemon's own diagnostics on disk rather than left to a supervisor.
func NewRotatingLogger(name string, level hclog.Level, path string, maxSizeBytes int64, maxBackups int, maxAge time.Duration) Logger {
	return &AppLogger{
		logger: hclog.New(&hclog.LoggerOptions{
			Name:   name,
			Level:  level,
			Output: NewRotator(path, maxSizeBytes, maxBackups, maxAge),
		}),
	}
}

func (l *AppLogger) Trace(msg string, args ...interface{}) { l.logger.Trace(msg, args...) }
func (l *AppLogger) Debug(msg string, args ...interface{}) { l.logger.Debug(msg, args...) }
func (l *AppLogger) Info(msg string, args ...interface{})  { l.logger.Info(msg, args...) }
func (l *AppLogger) Warn(msg string, args ...interface{})  { l.logger.Warn(msg, args...) }
func (l *AppLogger) Error(msg string, args ...interface{}) { l.logger.Error(msg, args...) }

func (l *AppLogger) With(args ...interface{}) Logger {
	return &AppLogger{logger: l.logger.With(args...)}
}

func (l *AppLogger) SetLevel(level hclog.Level) { l.logger.SetLevel(level) }

func (l *AppLogger) GetHCLogger() hclog.Logger { return l.logger }

// GetLogLevel parses a level name from config/flags into an hclog.Level,
// defaulting to Info for anything unrecognized.
func GetLogLevel(level string) hclog.Level {
	switch level {
	case "trace":
		return hclog.Trace
	case "debug":
		return hclog.Debug
	case "info":
		return hclog.Info
	case "warn":
		return hclog.Warn
	case "error":
		return hclog.Error
	default:
		return hclog.Info
	}
}
