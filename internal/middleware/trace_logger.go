package middleware

import (
	"github.com/ferdian3456/rolehub/internal/observability"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// TraceLoggerMiddleware stores a logger carrying trace_id/span_id in the
// request locals so handler logs can be correlated with traces.
func TraceLoggerMiddleware(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("logger", observability.WithContext(c.UserContext(), logger))

		return c.Next()
	}
}
