package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RequestLogger logs every request with latency and status. Credentials never
// reach the log: authorization and cookie headers are redacted from the
// debug-level header dump.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if log.Core().Enabled(zapcore.DebugLevel) {
			hdr := make(map[string]string, len(c.Request.Header))
			for k, v := range c.Request.Header {
				if sensitiveHeader(k) {
					hdr[k] = "[redacted]"
				} else {
					hdr[k] = strings.Join(v, ",")
				}
			}
			log.Debug("incoming request",
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Any("hdr", hdr),
			)
		}

		ts := time.Now()
		c.Next()

		latency := time.Since(ts)
		status := c.Writer.Status()

		fields := []zap.Field{
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("client_ip", c.ClientIP()),
		}

		for _, e := range c.Errors {
			log.Error("handler error", append(fields, zap.Error(e))...)
		}

		switch {
		case status >= 500:
			log.Error("completed", fields...)
		case c.IsAborted() || status >= 400:
			log.Warn("completed", fields...)
		default:
			log.Info("completed", fields...)
		}
	}
}

func sensitiveHeader(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "authorization") || strings.Contains(lower, "cookie")
}
