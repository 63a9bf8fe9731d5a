package applicationController

import (
	"github.com/gofiber/fiber/v2"

	"placement/middleware"
	"placement/models"
	"placement/services"
	"placement/validators"
	applicationValidator "placement/validators/application"
)

type Controller struct {
	apps *services.ApplicationService
}

func New(apps *services.ApplicationService) *Controller {
	return &Controller{apps: apps}
}

// Apply files an application for the logged-in student.
func (ct *Controller) Apply(c *fiber.Ctx) error {
	req := validators.Request[applicationValidator.ApplyRequest](c)

	app, err := ct.apps.Apply(c.UserContext(), middleware.UserID(c), req.JobID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, app)
}

// Mine lists the logged-in student's applications with job details.
func (ct *Controller) Mine(c *fiber.Ctx) error {
	apps, err := ct.apps.ListForStudent(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, apps)
}

// ForJob lists applicants for a job owned by the logged-in admin.
func (ct *Controller) ForJob(c *fiber.Ctx) error {
	apps, err := ct.apps.ListForJob(c.UserContext(), middleware.UserID(c), c.Params("jobId"))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, apps)
}

// UpdateStatus accepts or declines a pending application.
func (ct *Controller) UpdateStatus(c *fiber.Ctx) error {
	req := validators.Request[applicationValidator.StatusRequest](c)

	app, err := ct.apps.SetStatus(c.UserContext(), middleware.UserID(c), c.Params("id"), models.ApplicationStatus(req.Status))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, app)
}
