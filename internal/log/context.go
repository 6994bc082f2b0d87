package log

import (
	"context"
	"log/slog"
	"net/http"
)

type ContextKey string

const LoggerContextKey ContextKey = "logger"

// NewContext returns a copy of ctx carrying logger.
func NewContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, LoggerContextKey, logger)
}

// FromContext extracts a logger from the request context, falling back to
// the process default.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	return &Logger{Logger: slog.Default(), component: "unknown"}
}

// StructuredLogger provides domain-level log helpers.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

// LogHTTPEnd logs the completion of an HTTP request. 4xx is logged at warn
// and 5xx at error.
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64, clientIP string) {
	level := slog.LevelInfo
	if statusCode >= 500 {
		level = slog.LevelError
	} else if statusCode >= 400 {
		level = slog.LevelWarn
	}

	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent")).
		WithHTTPResponse(statusCode, durationMs).
		WithClientIP(clientIP).
		WithComponent(ComponentHTTP)

	sl.logger.Logger.Log(ctx, level, "HTTP request completed", fields.ToSlice()...)
}

// LogCompanyAdded logs a successful company add.
func (sl *StructuredLogger) LogCompanyAdded(ctx context.Context, session string, id int64, name string) {
	fields := NewFields().
		WithSession(session).
		WithCompany(id, name).
		WithOperation(OpCreate).
		WithComponent(ComponentLedger)
	sl.logger.Logger.InfoContext(ctx, "Company added", fields.ToSlice()...)
}

// LogTaskAdded logs a successful task add.
func (sl *StructuredLogger) LogTaskAdded(ctx context.Context, session string, id int64, code string, amountCents int64, status string) {
	fields := NewFields().
		WithSession(session).
		WithTask(id, code, amountCents, status).
		WithOperation(OpCreate).
		WithComponent(ComponentLedger)
	sl.logger.Logger.InfoContext(ctx, "Task added", fields.ToSlice()...)
}

// LogRejected logs a suppressed or refused form submission at debug level.
func (sl *StructuredLogger) LogRejected(ctx context.Context, session, form, reason string) {
	fields := NewFields().
		WithSession(session).
		WithRejection(form, reason).
		WithOperation(OpValidate).
		WithComponent(ComponentHTTP)
	sl.logger.Logger.DebugContext(ctx, "Submission rejected", fields.ToSlice()...)
}

// LogError logs an error with structured context
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, component, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	all := fields.WithError(err).WithOperation(operation).WithComponent(component)
	sl.logger.Logger.ErrorContext(ctx, msg, all.ToSlice()...)
}
