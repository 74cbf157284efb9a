package logger

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yukikurage/company-task-api/internal/config"
	"github.com/yukikurage/company-task-api/internal/constants"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a zap logger. Production uses JSON output, everything else the
// colored console encoder.
func New(cfg *config.Config) (*zap.Logger, error) {
	var logConfig zap.Config
	if cfg.IsProduction() {
		logConfig = zap.NewProductionConfig()
	} else {
		logConfig = zap.NewDevelopmentConfig()
		logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = zapcore.InfoLevel
	}
	logConfig.Level.SetLevel(level)

	return logConfig.Build()
}

// Middleware tags each request with an id and logs it once the handler chain
// has finished.
func Middleware(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := incomingRequestID(c.GetHeader(constants.HeaderRequestID))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(constants.HeaderRequestID, requestID)
		c.Set(constants.ContextKeyRequestID, requestID)

		reqLogger := base.With(zap.String("request_id", requestID))
		c.Set(constants.ContextKeyLogger, reqLogger)

		c.Next()

		fields := []zapcore.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			reqLogger.Error("HTTP request failed", fields...)
		case status >= 400:
			reqLogger.Warn("HTTP request rejected", fields...)
		default:
			reqLogger.Info("HTTP request completed", fields...)
		}
	}
}

// incomingRequestID keeps a client supplied id only when it is a UUID, in its
// canonical form.
func incomingRequestID(header string) string {
	if header == "" {
		return ""
	}
	id, err := uuid.Parse(header)
	if err != nil {
		return ""
	}
	return id.String()
}

// FromContext returns the request-scoped logger, or a no-op logger outside a
// request.
func FromContext(c *gin.Context) *zap.Logger {
	if l, ok := c.Get(constants.ContextKeyLogger); ok {
		if zl, ok := l.(*zap.Logger); ok {
			return zl
		}
	}
	return zap.NewNop()
}
