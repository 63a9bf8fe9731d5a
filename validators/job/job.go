package jobValidator

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"placement/validators"
)

type CreateJobRequest struct {
	Title        string `json:"title" validate:"required,max=200"`
	Company      string `json:"company" validate:"required,max=200"`
	Location     string `json:"location" validate:"required,max=200"`
	Description  string `json:"description" validate:"required"`
	Requirements string `json:"requirements" validate:"required"`
	Deadline     string `json:"deadline" validate:"required"`
}

func (r *CreateJobRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Company = strings.TrimSpace(r.Company)
	r.Location = strings.TrimSpace(r.Location)
	r.Deadline = strings.TrimSpace(r.Deadline)
}

// CreateJob validates a new job posting. Deadline format is checked by the
// job service.
func CreateJob() fiber.Handler {
	return validators.Body[CreateJobRequest]()
}
