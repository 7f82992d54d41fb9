package middleware

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// GetLoggerFromContext retrieves the trace-aware logger injected by
// TraceLoggerMiddleware, falling back to a nop logger.
func GetLoggerFromContext(c *fiber.Ctx) *zap.Logger {
	loggerIf := c.Locals("logger")
	if loggerIf != nil {
		if logger, ok := loggerIf.(*zap.Logger); ok {
			return logger
		}
	}

	return zap.NewNop()
}
