package authValidator

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"placement/models"
	"placement/validators"
)

type SendOTPRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
	Name  string `json:"name" validate:"required,max=120"`
	Role  string `json:"role" validate:"required,oneof=student admin"`
}

func (r *SendOTPRequest) Normalize() {
	r.Email = models.NormalizeEmail(r.Email)
	r.Name = strings.TrimSpace(r.Name)
}

type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
	Name  string `json:"name" validate:"required,max=120"`
	Role  string `json:"role" validate:"required,oneof=student admin"`
}

func (r *VerifyOTPRequest) Normalize() {
	r.Email = models.NormalizeEmail(r.Email)
	r.Code = strings.TrimSpace(r.Code)
	r.Name = strings.TrimSpace(r.Name)
}

// SendOTP validates the code request body.
func SendOTP() fiber.Handler {
	return validators.Body[SendOTPRequest]()
}

// VerifyOTP validates the code verification body.
func VerifyOTP() fiber.Handler {
	return validators.Body[VerifyOTPRequest]()
}
