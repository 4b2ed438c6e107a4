package httpapi

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/mywx-push/internal/status"
)

// RegisterRoutes wires the status handlers into the Fiber app. A push older
// than staleAfter marks the service unhealthy.
func RegisterRoutes(app *fiber.App, tracker *status.Tracker, staleAfter time.Duration) {
	app.Get("/health", func(c *fiber.Ctx) error {
		if !tracker.Healthy(staleAfter) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status":  "stale",
				"service": "mywx-push",
			})
		}
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "mywx-push",
		})
	})

	v1 := app.Group("/api/v1")

	v1.Get("/status", func(c *fiber.Ctx) error {
		return c.JSON(tracker.Snapshot())
	})
}
