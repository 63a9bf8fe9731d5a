package applicationRoutes

import (
	"github.com/gofiber/fiber/v2"

	applicationController "placement/controllers/application"
	"placement/middleware"
	"placement/models"
	"placement/session"
	applicationValidator "placement/validators/application"
)

func SetupApplicationRoutes(app *fiber.App, ctrl *applicationController.Controller, sessions *session.Manager) {
	appGroup := app.Group("/applications", middleware.RequireSession(sessions))

	appGroup.Post("/", middleware.RequireRole(models.RoleStudent), applicationValidator.Apply(), ctrl.Apply)
	appGroup.Get("/my", middleware.RequireRole(models.RoleStudent), ctrl.Mine)
	appGroup.Patch("/:id/status", middleware.RequireRole(models.RoleAdmin), applicationValidator.UpdateStatus(), ctrl.UpdateStatus)
}
