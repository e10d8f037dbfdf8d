package logger

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// FromContext returns the request-scoped logger seeded by the request ID
// middleware. When a handler runs outside that middleware it falls back to
// the global logger, tagging it with whatever request ID can be recovered.
func FromContext(c echo.Context) *zap.Logger {
	if lg, ok := c.Get("logger").(*zap.Logger); ok {
		return lg
	}

	requestID, _ := c.Get("request_id").(string)
	if requestID == "" {
		requestID = c.Request().Header.Get("X-Request-ID")
	}
	if requestID == "" {
		requestID = "unknown"
	}
	return GetLogger().With(zap.String("request_id", requestID))
}
