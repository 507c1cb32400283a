package router

import (
	"strconv"
	"time"

	"corretor/logging"
	"corretor/metrics"
	"corretor/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Logger logs method, path, status and latency, and feeds the request histogram.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := c.Writer.Status()
		metrics.RequestDuration.WithLabelValues(path, c.Request.Method, strconv.Itoa(status)).Observe(duration.Seconds())

		fields := []zap.Field{
			zap.String("request_id", c.GetString(middleware.RequestIDKey)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", duration),
			zap.String("ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		if status >= 500 {
			logging.L().Error("request", fields...)
		} else {
			logging.L().Info("request", fields...)
		}
	}
}
