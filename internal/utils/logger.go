package utils

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

const (
	loggerKey    = "logger"
	requestIDKey = "request_id"
	userIDKey    = "user_id"
)

// Logger is the logging surface shared by handlers and middleware.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)

	With(args ...any) Logger

	// LogRequest records one served HTTP request.
	LogRequest(ctx context.Context, r RequestLog)
	LogError(err error, msg string, args ...any)

	// Slog exposes the underlying logger to services and jobs.
	Slog() *slog.Logger
}

// RequestLog describes a served request.
type RequestLog struct {
	Method    string
	Path      string
	Status    int
	Latency   time.Duration
	Size      int
	ClientIP  string
	UserID    string
	UserAgent string
}

type slogLogger struct {
	logger *slog.Logger
}

func NewSlogLogger(logger *slog.Logger) Logger {
	return &slogLogger{logger: logger}
}

// NewLogger writes JSON at info level in production and text at debug level
// otherwise.
func NewLogger(production bool, w io.Writer) Logger {
	if production {
		return NewSlogLogger(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})))
	}
	return NewSlogLogger(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})))
}

func (l *slogLogger) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }
func (l *slogLogger) Info(msg string, args ...any)  { l.logger.Info(msg, args...) }
func (l *slogLogger) Warn(msg string, args ...any)  { l.logger.Warn(msg, args...) }
func (l *slogLogger) Error(msg string, args ...any) { l.logger.Error(msg, args...) }

func (l *slogLogger) With(args ...any) Logger {
	return &slogLogger{logger: l.logger.With(args...)}
}

func (l *slogLogger) Slog() *slog.Logger { return l.logger }

// LogRequest logs at warn for 4xx and error for 5xx answers.
func (l *slogLogger) LogRequest(ctx context.Context, r RequestLog) {
	level := slog.LevelInfo
	switch {
	case r.Status >= 500:
		level = slog.LevelError
	case r.Status >= 400:
		level = slog.LevelWarn
	}

	attrs := []slog.Attr{
		slog.String("method", r.Method),
		slog.String("path", r.Path),
		slog.Int("status_code", r.Status),
		slog.Duration("latency", r.Latency),
		slog.Int("size", r.Size),
		slog.String("client_ip", r.ClientIP),
		slog.String("user_agent", r.UserAgent),
	}
	if r.UserID != "" {
		attrs = append(attrs, slog.String("user_id", r.UserID))
	}
	l.logger.LogAttrs(ctx, level, "HTTP request", attrs...)
}

func (l *slogLogger) LogError(err error, msg string, args ...any) {
	l.logger.Error(msg, append([]any{"error", err}, args...)...)
}

// ContextLogger assigns the request id, reusing the caller's X-Request-ID when
// present, echoes it on the response and stores a logger carrying it.
func ContextLogger(logger Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(RequestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Set(loggerKey, logger.With("request_id", id))
		c.Next()
	}
}

// LoggerMiddleware logs every request after it has been served. It reads the
// user id left by the authentication middleware.
func LoggerMiddleware(logger Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		c.Next()

		FromContext(c, logger).LogRequest(c.Request.Context(), RequestLog{
			Method:    c.Request.Method,
			Path:      path,
			Status:    c.Writer.Status(),
			Latency:   time.Since(start),
			Size:      c.Writer.Size(),
			ClientIP:  c.ClientIP(),
			UserID:    c.GetString(userIDKey),
			UserAgent: c.Request.UserAgent(),
		})
	}
}

// FromContext returns the request logger set by ContextLogger, or fallback.
func FromContext(c *gin.Context, fallback Logger) Logger {
	if v, ok := c.Get(loggerKey); ok {
		if l, ok := v.(Logger); ok {
			return l
		}
	}
	return fallback
}

// RequestID returns the id assigned by ContextLogger.
func RequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
