package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/proofboard/proofboard/internal/pkg/env"
)

// RenderDashboard serves the social-proof dashboard page. All data is
// fetched client-side from /api/payments on a 5 second poll.
func RenderDashboard(c *fiber.Ctx) error {
	return c.Render("index", fiber.Map{
		"Title":        "Social Proof Dashboard",
		"PollInterval": 5000,
		"IsDev":        env.IsDev(),
	})
}
