// Package logger provides structured logging for Lumina.
// It keeps a small field-based API and delegates encoding and output to zap.
package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level represents the severity of a log message.
type Level int

const (
	// LevelDebug is for detailed debugging information.
	LevelDebug Level = iota
	// LevelInfo is for general operational information.
	LevelInfo
	// LevelWarn is for warning messages.
	LevelWarn
	// LevelError is for error messages.
	LevelError
	// LevelFatal is for fatal errors that require program termination.
	LevelFatal
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

func (l Level) zap() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	case LevelFatal:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// ParseLevel parses a string into a Level. Unknown values map to LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "INFO":
		return LevelInfo
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	case "FATAL":
		return LevelFatal
	default:
		return LevelInfo
	}
}

// Field represents a key-value pair for structured logging.
type Field struct {
	Key   string
	Value any
}

// F creates a new Field with the given key and value.
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Common field constructors for convenience.
func String(key, value string) Field          { return Field{Key: key, Value: value} }
func Int(key string, value int) Field         { return Field{Key: key, Value: value} }
func Int64(key string, value int64) Field     { return Field{Key: key, Value: value} }
func Float64(key string, value float64) Field { return Field{Key: key, Value: value} }
func Bool(key string, value bool) Field       { return Field{Key: key, Value: value} }
func Any(key string, value any) Field         { return Field{Key: key, Value: value} }

// Err creates an error field.
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Duration creates a duration field.
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

// Time creates a time field.
func Time(key string, value time.Time) Field {
	return Field{Key: key, Value: value.Format(time.RFC3339)}
}

// Output formats.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Options configures the logger.
type Options struct {
	Output     io.Writer
	Level      Level
	Format     string
	AddCaller  bool
	CallerSkip int
}

// DefaultOptions returns sensible defaults for the logger.
func DefaultOptions() Options {
	return Options{
		Output:    os.Stderr,
		Level:     LevelInfo,
		Format:    FormatJSON,
		AddCaller: true,
	}
}

// Logger is a structured logger backed by zap.
type Logger struct {
	z *zap.Logger
}

// New creates a new Logger with the given options.
func New(opts Options) *Logger {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.MessageKey = "message"
	encCfg.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	var enc zapcore.Encoder
	if strings.EqualFold(opts.Format, FormatConsole) {
		enc = zapcore.NewConsoleEncoder(encCfg)
	} else {
		enc = zapcore.NewJSONEncoder(encCfg)
	}

	core := zapcore.NewCore(enc, zapcore.AddSync(opts.Output), opts.Level.zap())

	zopts := []zap.Option{zap.AddCallerSkip(1 + opts.CallerSkip)}
	if opts.AddCaller {
		zopts = append(zopts, zap.AddCaller())
	}

	return &Logger{z: zap.New(core, zopts...)}
}

// Default creates a logger with default options.
func Default() *Logger {
	return New(DefaultOptions())
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{z: zap.NewNop()}
}

// With returns a new Logger with the given fields added.
func (l *Logger) With(fields ...Field) *Logger {
	return &Logger{z: l.z.With(toZap(fields)...)}
}

// Sync flushes any buffered log entries.
func (l *Logger) Sync() error {
	return l.z.Sync()
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, fields ...Field) {
	l.z.Debug(msg, toZap(fields)...)
}

// Info logs an info message.
func (l *Logger) Info(msg string, fields ...Field) {
	l.z.Info(msg, toZap(fields)...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, fields ...Field) {
	l.z.Warn(msg, toZap(fields)...)
}

// Error logs an error message.
func (l *Logger) Error(msg string, fields ...Field) {
	l.z.Error(msg, toZap(fields)...)
}

// Fatal logs a fatal message and exits the program.
func (l *Logger) Fatal(msg string, fields ...Field) {
	l.z.Fatal(msg, toZap(fields)...)
}

func toZap(fields []Field) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		out = append(out, zap.Any(f.Key, f.Value))
	}
	return out
}

// Context key for logger.
type ctxKey struct{}

// WithContext returns a new context with the logger attached.
func WithContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext retrieves the logger from context, or returns a default logger.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(ctxKey{}).(*Logger); ok {
		return l
	}
	return Default()
}

// SessionIDKey is the field key used to tag every entry of one engine session.
const SessionIDKey = "session_id"

// WithSessionID returns a logger with the session ID field added.
func (l *Logger) WithSessionID(id string) *Logger {
	return l.With(String(SessionIDKey, id))
}

// Progress-related logging helpers.
func LessonPath(path string) Field    { return String("lesson_path", path) }
func Course(name string) Field        { return String("course", name) }
func Day(key string) Field            { return String("day", key) }
func AchievementID(id string) Field   { return String("achievement_id", id) }
func Streak(days int) Field           { return Int("streak", days) }
func Component(name string) Field     { return String("component", name) }
func Operation(name string) Field     { return String("operation", name) }
func Latency(d time.Duration) Field   { return Duration("latency", d) }
func StateKey(key string) Field       { return String("state_key", key) }
