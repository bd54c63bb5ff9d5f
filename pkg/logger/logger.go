package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// LogLevel represents the available log levels
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Slog maps the level name onto slog; unknown names map to info.
func (l LogLevel) Slog() slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Logger provides a structured logger instance configured for the application
type Logger struct {
	*slog.Logger
}

// NewLogger creates a logger that prints to stderr and appends to the log file.
// stdout is reserved for tool protocol traffic.
func NewLogger(level LogLevel) *Logger {
	return NewLoggerWithConsoleWriter(level, os.Stderr)
}

// NewLoggerWithConsoleWriter builds a logger that writes console output to the given writer
func NewLoggerWithConsoleWriter(level LogLevel, consoleWriter io.Writer) *Logger {
	slogLevel := level.Slog()

	if consoleWriter == nil {
		consoleWriter = os.Stderr
	}
	consoleHandler := newPlainHandler(consoleWriter, slogLevel)
	fileHandler := newFileTextHandler(slogLevel)

	return &Logger{Logger: slog.New(newMultiHandler(consoleHandler, fileHandler))}
}

// NewDefaultLogger creates a logger with INFO level for general use
func NewDefaultLogger() *Logger {
	return NewLogger(LogLevelInfo)
}

// WithComponent creates a logger with a component context for better tracing
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		Logger: l.With("component", component),
	}
}

// WithCall tags every line with a tool call id.
func (l *Logger) WithCall(callID string) *Logger {
	return &Logger{
		Logger: l.With("call_id", callID),
	}
}

// LogWithIntention logs a message at the provided level with an intention tag.
func (l *Logger) LogWithIntention(level slog.Level, intention Intention, msg string, args ...any) {
	kv := append([]any{"intention", string(intention)}, args...)
	l.Log(context.Background(), level, msg, kv...)
}

func (l *Logger) InfoWithIntention(intention Intention, msg string, args ...any) {
	l.LogWithIntention(slog.LevelInfo, intention, msg, args...)
}

// Warnings and errors do not carry intentions; intention is only for info/debug
func (l *Logger) WarnWithIntention(_ Intention, msg string, args ...any) {
	l.Warn(msg, args...)
}

func (l *Logger) ErrorWithIntention(_ Intention, msg string, args ...any) {
	l.Error(msg, args...)
}

func (l *Logger) DebugWithIntention(intention Intention, msg string, args ...any) {
	l.LogWithIntention(slog.LevelDebug, intention, msg, args...)
}

// Default logger instance - single instance for the entire application
var Default = NewDefaultLogger()

// SetGlobalLogLevel updates the global default logger with a new log level
// This affects all component loggers created after this call
func SetGlobalLogLevel(level LogLevel) {
	Default = NewLogger(level)
}

// NewComponentLogger creates a new logger for a specific component
func NewComponentLogger(component string) *Logger {
	return Default.WithComponent(component)
}

// SetGlobalLoggerWithConsoleWriter replaces the global Default logger using the provided console writer
func SetGlobalLoggerWithConsoleWriter(level LogLevel, consoleWriter io.Writer) {
	Default = NewLoggerWithConsoleWriter(level, consoleWriter)
}

// LogDir returns the directory holding codeassist.log. CODEASSIST_LOG_DIR
// overrides the default ~/.codeassist/logs.
func LogDir() string {
	if dir := os.Getenv("CODEASSIST_LOG_DIR"); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".codeassist", "logs")
}

// newFileTextHandler opens codeassist.log for append and returns a slog text handler
func newFileTextHandler(level slog.Level) slog.Handler {
	base := LogDir()
	_ = os.MkdirAll(base, 0o755)
	path := filepath.Join(base, "codeassist.log")

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		// Fallback to stderr if file cannot be opened
		return slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}

	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{Key: "time", Value: slog.StringValue(a.Value.Time().Format("2006-01-02T15:04:05.000"))}
			}
			return a
		},
	}
	return slog.NewTextHandler(f, opts)
}
