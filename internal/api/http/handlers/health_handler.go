package handlers

import (
	"context"
	"time"

	"github.com/alexliesenfeld/health"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"go.uber.org/zap"
)

// Dependency is a backing service probed by the readiness check.
type Dependency struct {
	Name string
	Ping func(context.Context) error
}

// HealthHandler responds to liveness and readiness probes.
type HealthHandler struct {
	serviceName string
	version     string
	ready       fiber.Handler
}

// NewHealthHandler returns a new handler instance. Readiness reports 503 while any
// dependency fails its ping.
func NewHealthHandler(serviceName, version string, logger *zap.Logger, deps ...Dependency) *HealthHandler {
	opts := []health.CheckerOption{
		health.WithCacheDuration(time.Second),
		health.WithTimeout(2 * time.Second),
		health.WithInfo(map[string]any{"service": serviceName, "version": version}),
	}
	for _, dep := range deps {
		opts = append(opts, health.WithCheck(health.Check{
			Name:  dep.Name,
			Check: dep.Ping,
			StatusListener: func(_ context.Context, name string, state health.CheckState) {
				logger.Info("dependency health changed",
					zap.String("name", name),
					zap.String("state", string(state.Status)))
			},
		}))
	}
	checker := health.NewChecker(opts...)

	return &HealthHandler{
		serviceName: serviceName,
		version:     version,
		ready:       adaptor.HTTPHandler(health.NewHandler(checker)),
	}
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
	})
}

// Ready reports service readiness by checking dependencies.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	return h.ready(c)
}
