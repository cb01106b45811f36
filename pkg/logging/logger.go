package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// LogLevel represents the severity of a log entry
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// Logger wraps logrus.Logger with the pipeline's structured-field conventions.
type Logger struct {
	logger *logrus.Logger
	fields logrus.Fields
	ctx    context.Context
}

// New creates a new structured logger. Output goes to stderr, matching the
// MCP stdio transport's use of stdout for protocol frames.
func New(level LogLevel) *Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	switch level {
	case LevelDebug:
		logger.SetLevel(logrus.DebugLevel)
	case LevelInfo:
		logger.SetLevel(logrus.InfoLevel)
	case LevelWarn:
		logger.SetLevel(logrus.WarnLevel)
	case LevelError:
		logger.SetLevel(logrus.ErrorLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}

	return &Logger{
		logger: logger,
		fields: logrus.Fields{},
		ctx:    context.Background(),
	}
}

// NewFromEnv builds a Logger from the RECOMMEND_LOG_LEVEL environment
// variable, defaulting to info when unset or unrecognized.
func NewFromEnv() *Logger {
	switch os.Getenv("RECOMMEND_LOG_LEVEL") {
	case "debug":
		return New(LevelDebug)
	case "warn":
		return New(LevelWarn)
	case "error":
		return New(LevelError)
	default:
		return New(LevelInfo)
	}
}

// WithContext returns a logger with additional context
func (l *Logger) WithContext(ctx context.Context) *Logger {
	return &Logger{logger: l.logger, fields: l.fields, ctx: ctx}
}

// WithFields returns a logger with additional fields merged into every
// subsequent entry.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	merged := make(logrus.Fields, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &Logger{logger: l.logger, fields: merged, ctx: l.ctx}
}

// WithStage returns a logger scoped to a single pipeline stage (mapping,
// moodmatrix, feature, querygen, embedding, filter, scoring, recommend).
func (l *Logger) WithStage(stage string) *Logger {
	return l.WithFields(map[string]interface{}{"stage": stage})
}

func (l *Logger) toFields(keyvals []interface{}) logrus.Fields {
	entry := make(logrus.Fields, len(l.fields)+len(keyvals)/2)
	for k, v := range l.fields {
		entry[k] = v
	}
	for i := 0; i+1 < len(keyvals); i += 2 {
		key, ok := keyvals[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", keyvals[i])
		}
		entry[key] = keyvals[i+1]
	}
	return entry
}

// Debug logs a debug message with optional key/value pairs
func (l *Logger) Debug(msg string, fields ...interface{}) {
	l.logger.WithFields(l.toFields(fields)).Debug(msg)
}

// Info logs an info message with optional key/value pairs
func (l *Logger) Info(msg string, fields ...interface{}) {
	l.logger.WithFields(l.toFields(fields)).Info(msg)
}

// Warn logs a warning message with optional key/value pairs
func (l *Logger) Warn(msg string, fields ...interface{}) {
	l.logger.WithFields(l.toFields(fields)).Warn(msg)
}

// Error logs an error message with optional key/value pairs
func (l *Logger) Error(msg string, fields ...interface{}) {
	l.logger.WithFields(l.toFields(fields)).Error(msg)
}

// LogPipelineStage logs the completion of a single recommendation pipeline
// stage (feature extraction, query synthesis, embedding search, tiered
// filtering, scoring), recording how many
// candidates it handed to the next stage.
func (l *Logger) LogPipelineStage(stage string, inCount, outCount int, duration time.Duration) {
	l.Info("pipeline_stage",
		"stage", stage,
		"in_count", inCount,
		"out_count", outCount,
		"duration_ms", duration.Milliseconds(),
	)
}

// LogError logs an error with additional context
func (l *Logger) LogError(err error, context string, fields ...interface{}) {
	allFields := append([]interface{}{
		"error", err.Error(),
		"context", context,
	}, fields...)
	l.Error("error_occurred", allFields...)
}

// LogServerStart logs server startup
func (l *Logger) LogServerStart(version string, config map[string]interface{}) {
	l.Info("server_start",
		"version", version,
		"config", config,
		"component", "mcp_server",
	)
}

// LogServerShutdown logs server shutdown
func (l *Logger) LogServerShutdown(reason string) {
	l.Info("server_shutdown",
		"reason", reason,
		"component", "mcp_server",
	)
}

// LogPerformanceMetric logs a single metric sample with tags
func (l *Logger) LogPerformanceMetric(metric string, value float64, unit string, tags map[string]string) {
	fields := []interface{}{
		"metric", metric,
		"value", value,
		"unit", unit,
		"component", "metrics",
	}

	for key, val := range tags {
		fields = append(fields, key, val)
	}

	l.Info("performance_metric", fields...)
}

// LogHealthCheck logs health check results
func (l *Logger) LogHealthCheck(component string, status string, duration time.Duration, details map[string]interface{}) {
	fields := []interface{}{
		"component", component,
		"status", status,
		"duration_ms", duration.Milliseconds(),
		"check_type", "health_check",
	}

	if details != nil {
		detailsJSON, _ := json.Marshal(details)
		fields = append(fields, "details", string(detailsJSON))
	}

	if status == "healthy" {
		l.Info("health_check", fields...)
	} else {
		l.Warn("health_check", fields...)
	}
}

// ContextKey is used for logger context keys
type ContextKey string

const (
	LoggerContextKey ContextKey = "logger"
	RequestIDKey     ContextKey = "request_id"
)

// FromContext extracts logger from context
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	return New(LevelInfo)
}

// ToContext adds logger to context
func ToContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, LoggerContextKey, logger)
}

// GetRequestID extracts request ID from context
func GetRequestID(ctx context.Context) interface{} {
	if id := ctx.Value(RequestIDKey); id != nil {
		return id
	}
	return "unknown"
}

// WithRequestID adds request ID to context
func WithRequestID(ctx context.Context, requestID interface{}) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// FormatDuration formats a duration for compact, human-readable logging.
func FormatDuration(d time.Duration) string {
	if d < time.Microsecond {
		return fmt.Sprintf("%.2fns", float64(d.Nanoseconds()))
	} else if d < time.Millisecond {
		return fmt.Sprintf("%.2fμs", float64(d.Nanoseconds())/1000)
	} else if d < time.Second {
		return fmt.Sprintf("%.2fms", float64(d.Nanoseconds())/1000000)
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}
