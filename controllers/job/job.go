package jobController

import (
	"github.com/gofiber/fiber/v2"

	"placement/middleware"
	"placement/services"
	"placement/validators"
	jobValidator "placement/validators/job"
)

type Controller struct {
	jobs *services.JobService
}

func New(jobs *services.JobService) *Controller {
	return &Controller{jobs: jobs}
}

func (ct *Controller) Create(c *fiber.Ctx) error {
	req := validators.Request[jobValidator.CreateJobRequest](c)

	job, err := ct.jobs.Create(c.UserContext(), middleware.UserID(c), services.JobInput{
		Title:        req.Title,
		Company:      req.Company,
		Location:     req.Location,
		Description:  req.Description,
		Requirements: req.Requirements,
		Deadline:     req.Deadline,
	})
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, job)
}

func (ct *Controller) List(c *fiber.Ctx) error {
	jobs, err := ct.jobs.List(c.UserContext())
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, jobs)
}

// Mine lists the jobs the logged-in admin has posted.
func (ct *Controller) Mine(c *fiber.Ctx) error {
	jobs, err := ct.jobs.ListMine(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, jobs)
}

func (ct *Controller) Get(c *fiber.Ctx) error {
	job, err := ct.jobs.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, job)
}
