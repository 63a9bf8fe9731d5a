package applicationValidator

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"placement/validators"
)

type ApplyRequest struct {
	JobID string `json:"jobId" validate:"required"`
}

func (r *ApplyRequest) Normalize() {
	r.JobID = strings.TrimSpace(r.JobID)
}

type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=accepted declined"`
}

func (r *StatusRequest) Normalize() {
	r.Status = strings.ToLower(strings.TrimSpace(r.Status))
}

func Apply() fiber.Handler {
	return validators.Body[ApplyRequest]()
}

func UpdateStatus() fiber.Handler {
	return validators.Body[StatusRequest]()
}
