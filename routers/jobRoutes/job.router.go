package jobRoutes

import (
	"github.com/gofiber/fiber/v2"

	applicationController "placement/controllers/application"
	jobController "placement/controllers/job"
	"placement/middleware"
	"placement/models"
	"placement/session"
	jobValidator "placement/validators/job"
)

func SetupJobRoutes(app *fiber.App, jobs *jobController.Controller, apps *applicationController.Controller, sessions *session.Manager) {
	jobGroup := app.Group("/jobs")
	admin := func(handlers ...fiber.Handler) []fiber.Handler {
		return append([]fiber.Handler{middleware.RequireSession(sessions), middleware.RequireRole(models.RoleAdmin)}, handlers...)
	}

	jobGroup.Get("/", jobs.List)
	jobGroup.Post("/", admin(jobValidator.CreateJob(), jobs.Create)...)
	// registered before /:id so "mine" is not taken as an id
	jobGroup.Get("/mine", admin(jobs.Mine)...)
	jobGroup.Get("/:id", jobs.Get)
	jobGroup.Get("/:jobId/applications", admin(apps.ForJob)...)
}
