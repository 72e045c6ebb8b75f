package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// LogLevel is a thin enum for user friendly level configuration decoupled from slog.
type LogLevel int

const (
	// LogLevelDebug is the debug logging level.
	LogLevelDebug LogLevel = iota
	// LogLevelInfo is the informational logging level.
	LogLevelInfo
	// LogLevelWarn is the warning logging level.
	LogLevelWarn
	// LogLevelError is the error logging level.
	LogLevelError
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a level name (debug, info, warn/warning, error) into a LogLevel.
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LogLevelDebug, nil
	case "", "info":
		return LogLevelInfo, nil
	case "warn", "warning":
		return LogLevelWarn, nil
	case "error":
		return LogLevelError, nil
	default:
		return LogLevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// Logger defines the minimal logging interface. Args are slog style
// alternating key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SlogAdapter wraps *slog.Logger to implement the Logger interface.
type SlogAdapter struct {
	*slog.Logger
}

// NewSlogAdapter creates a Logger from *slog.Logger.
func NewSlogAdapter(logger *slog.Logger) Logger {
	return &SlogAdapter{Logger: logger}
}

// NewDefaultSlogLogger creates a Logger using slog.Default().
func NewDefaultSlogLogger() Logger {
	return NewSlogAdapter(slog.Default())
}

// RouterLogger wraps slog.Logger adding contextual cloning helpers and
// domain convenience methods. With* methods return copies.
type RouterLogger struct {
	logger    *slog.Logger
	component string
	sessionID string
	turnID    string
}

// LoggerConfig configures construction of a RouterLogger.
type LoggerConfig struct {
	Level     LogLevel
	Format    string // json or text
	Output    io.Writer
	AddSource bool
	Component string
}

// DefaultLoggerConfig returns a baseline JSON info level configuration.
func DefaultLoggerConfig() *LoggerConfig {
	return &LoggerConfig{Level: LogLevelInfo, Format: "json", Output: os.Stderr}
}

// NewLogger builds a RouterLogger from a config (or defaults if nil).
func NewLogger(cfg *LoggerConfig) *RouterLogger {
	if cfg == nil {
		cfg = DefaultLoggerConfig()
	}
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: slogLevel(cfg.Level), AddSource: cfg.AddSource}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}
	return &RouterLogger{logger: slog.New(handler), component: cfg.Component}
}

// NewSlogLogger creates a RouterLogger with the given level and format.
func NewSlogLogger(level LogLevel, format string, addSource bool) *RouterLogger {
	cfg := DefaultLoggerConfig()
	cfg.Level = level
	if format != "" {
		cfg.Format = format
	}
	cfg.AddSource = addSource
	return NewLogger(cfg)
}

func slogLevel(l LogLevel) slog.Level {
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

// WithComponent sets the logical component (router, dispatcher, server, ...).
func (l *RouterLogger) WithComponent(c string) *RouterLogger {
	nl := *l
	nl.component = c
	return &nl
}

// WithSession attaches session and turn identifiers.
func (l *RouterLogger) WithSession(sessionID, turnID string) *RouterLogger {
	nl := *l
	nl.sessionID = sessionID
	nl.turnID = turnID
	return &nl
}

func (l *RouterLogger) attrs(extra ...slog.Attr) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(extra)+3)
	if l.component != "" {
		attrs = append(attrs, slog.String("component", l.component))
	}
	if l.sessionID != "" {
		attrs = append(attrs, slog.String("session_id", l.sessionID))
	}
	if l.turnID != "" {
		attrs = append(attrs, slog.String("turn_id", l.turnID))
	}
	return append(attrs, extra...)
}

func (l *RouterLogger) log(level slog.Level, msg string, args ...any) {
	ctx := context.Background()
	if !l.logger.Enabled(ctx, level) {
		return
	}
	r := slog.NewRecord(time.Now(), level, msg, 0)
	r.AddAttrs(l.attrs()...)
	r.Add(args...)
	_ = l.logger.Handler().Handle(ctx, r)
}

// Debug logs at debug level.
func (l *RouterLogger) Debug(msg string, args ...any) { l.log(slog.LevelDebug, msg, args...) }

// Info logs at info level.
func (l *RouterLogger) Info(msg string, args ...any) { l.log(slog.LevelInfo, msg, args...) }

// Warn logs at warn level.
func (l *RouterLogger) Warn(msg string, args ...any) { l.log(slog.LevelWarn, msg, args...) }

// Error logs at error level.
func (l *RouterLogger) Error(msg string, args ...any) { l.log(slog.LevelError, msg, args...) }

// LogLLMCall records provider call latency and outcome.
func (l *RouterLogger) LogLLMCall(model string, stream bool, fragments int, dur time.Duration, err error) {
	attrs := l.attrs(
		slog.String("model", model),
		slog.Bool("stream", stream),
		slog.Int("fragments", fragments),
		slog.Duration("duration", dur),
		slog.Bool("success", err == nil),
	)
	level, msg := slog.LevelInfo, "LLM call completed"
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		level, msg = slog.LevelError, "LLM call failed"
	}
	l.logger.LogAttrs(context.Background(), level, msg, attrs...)
}

// LogTurn records the terminal outcome of a turn.
func (l *RouterLogger) LogTurn(agent string, confidence float64, status string, dur time.Duration) {
	l.logger.LogAttrs(context.Background(), slog.LevelInfo, "Turn finished", l.attrs(
		slog.String("agent", agent),
		slog.Float64("confidence", confidence),
		slog.String("status", status),
		slog.Duration("duration", dur),
	)...)
}

// StartTimer returns a closure that logs the elapsed duration when invoked.
func (l *RouterLogger) StartTimer(op string) func() {
	start := time.Now()
	return func() { l.Info("Operation completed", "operation", op, "duration", time.Since(start)) }
}

// NoOpLogger discards all log messages. Useful for testing or when logging is disabled.
type NoOpLogger struct{}

// Debug logs a debug message.
func (NoOpLogger) Debug(string, ...any) {}

// Info logs an informational message.
func (NoOpLogger) Info(string, ...any) {}

// Warn logs a warning message.
func (NoOpLogger) Warn(string, ...any) {}

// Error logs an error message.
func (NoOpLogger) Error(string, ...any) {}

// OrNoOp returns l or a NoOpLogger when l is nil.
func OrNoOp(l Logger) Logger {
	if l == nil {
		return NoOpLogger{}
	}
	return l
}
