package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/soltixdb/dbstats/internal/models"
)

// Health reports the service and its registry and queue. A failing registry
// answers 503 so load balancers stop routing dataset requests here.
func (h *Handler) Health(c *fiber.Ctx) error {
	components, ok := h.svc.Health(c.UserContext())

	status, code := "healthy", fiber.StatusOK
	if !ok {
		status, code = "degraded", fiber.StatusServiceUnavailable
		h.logger.Warn("Health check degraded", "components", components)
	}

	return c.Status(code).JSON(models.HealthResponse{
		Status:     status,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Version:    Version,
		Components: components,
	})
}

// NotFound answers unknown routes with the standard error body
func (h *Handler) NotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    "NOT_FOUND",
			Message: "no route for " + c.Method() + " " + c.Path(),
			Path:    c.Path(),
		},
	})
}
