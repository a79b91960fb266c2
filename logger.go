package safefs

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Logger is the append-only logging sink used by FS. It writes one JSON
// line per record to a process-wide log file, creating the containing
// directory if absent. Logging is strictly best-effort: every failure of
// the sink itself (open, mkdir, write) is swallowed, never propagated,
// so logging can never break a file operation.
//
// A nil *Logger is valid and discards everything.
type Logger struct {
	mu     sync.Mutex
	logger *slog.Logger
	file   *os.File
}

// NewLogger opens (or creates) an append-only log file at path. The
// minimum level is one of DEBUG, INFO, WARN, ERROR; unknown values mean
// INFO. If the file cannot be opened the returned Logger discards all
// records rather than reporting an error.
func NewLogger(path, level string) *Logger {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &Logger{}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return &Logger{}
	}

	handler := slog.NewJSONHandler(f, &slog.HandlerOptions{Level: parseLevel(level)})
	return &Logger{
		logger: slog.New(handler),
		file:   f,
	}
}

func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Debug logs a debug-level record with alternating key/value args.
func (l *Logger) Debug(msg string, args ...any) { l.log(slog.LevelDebug, msg, args...) }

// Info logs an info-level record with alternating key/value args.
func (l *Logger) Info(msg string, args ...any) { l.log(slog.LevelInfo, msg, args...) }

// Warn logs a warn-level record with alternating key/value args.
func (l *Logger) Warn(msg string, args ...any) { l.log(slog.LevelWarn, msg, args...) }

// Error logs an error-level record with alternating key/value args.
func (l *Logger) Error(msg string, args ...any) { l.log(slog.LevelError, msg, args...) }

func (l *Logger) log(level slog.Level, msg string, args ...any) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.logger == nil {
		return
	}
	switch level {
	case slog.LevelDebug:
		l.logger.Debug(msg, args...)
	case slog.LevelWarn:
		l.logger.Warn(msg, args...)
	case slog.LevelError:
		l.logger.Error(msg, args...)
	default:
		l.logger.Info(msg, args...)
	}
}

// Close releases the underlying log file. Safe on a nil or discarding
// Logger.
func (l *Logger) Close() {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		l.file.Close()
		l.file = nil
		l.logger = nil
	}
}
