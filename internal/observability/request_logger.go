package observability

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// RequestLogger logs every request and records its metrics under the route template,
// so /tickets/:id is one series rather than one per ticket.
func RequestLogger(logger *zap.Logger, metrics *Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		elapsed := time.Since(start)

		status := c.Response().StatusCode()
		path := RouteLabel(c)
		metrics.RecordRequest(path, c.Method(), status, elapsed)

		logger.Info("request",
			zap.String("method", c.Method()),
			zap.String("path", c.OriginalURL()),
			zap.Int("status", status),
			zap.Duration("latency", elapsed),
			zap.String("ip", c.IP()),
		)
		return err
	}
}

// UnmatchedRoute labels requests that never reached a route handler.
const UnmatchedRoute = "unmatched"

// methodUse mirrors fiber's unexported method name for routes registered via Use/Mount.
const methodUse = "USE"

// RouteLabel returns the registered route template of the request. Raw paths are never used
// as label values: they carry ids and point into the pooled request buffer.
func RouteLabel(c *fiber.Ctx) string {
	if route := c.Route(); route != nil && route.Path != "" && route.Method != methodUse {
		return route.Path
	}
	return UnmatchedRoute
}
