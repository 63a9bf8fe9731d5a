package authController

import (
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"placement/middleware"
	"placement/models"
	"placement/services"
	"placement/session"
	"placement/validators"
	authValidator "placement/validators/auth"
)

type Controller struct {
	auth     *services.AuthService
	sessions *session.Manager
}

func New(auth *services.AuthService, sessions *session.Manager) *Controller {
	return &Controller{auth: auth, sessions: sessions}
}

// SendOTP issues a login code for the email in the body.
func (ct *Controller) SendOTP(c *fiber.Ctx) error {
	req := validators.Request[authValidator.SendOTPRequest](c)

	issued, err := ct.auth.RequestCode(c.UserContext(), services.CodeRequest{
		Email: req.Email,
		Name:  req.Name,
		Role:  models.Role(req.Role),
	})
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	resp := fiber.Map{
		"success":   true,
		"message":   "OTP sent to email",
		"emailSent": issued.EmailSent,
	}
	if !issued.EmailSent {
		resp["message"] = "OTP generated, but the email could not be delivered"
	}
	if issued.DevCode != "" {
		resp["devOtp"] = issued.DevCode
	}
	return middleware.JsonResponse(c, fiber.StatusOK, resp)
}

// VerifyOTP consumes the code and starts a session for the user.
func (ct *Controller) VerifyOTP(c *fiber.Ctx) error {
	req := validators.Request[authValidator.VerifyOTPRequest](c)

	user, err := ct.auth.VerifyCode(c.UserContext(), services.VerifyRequest{
		Email: req.Email,
		Code:  req.Code,
		Name:  req.Name,
		Role:  models.Role(req.Role),
	})
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	if _, err := ct.sessions.Establish(c, user.ID, user.Role); err != nil {
		log.WithError(err).Error("establish session")
		return middleware.ErrorMessage(c, fiber.StatusInternalServerError, "Failed to start session")
	}

	return middleware.JsonResponse(c, fiber.StatusOK, fiber.Map{
		"success": true,
		"user":    user.Profile(),
	})
}

// Me returns the profile of the logged-in user.
func (ct *Controller) Me(c *fiber.Ctx) error {
	user, err := ct.auth.CurrentUser(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, user.Profile())
}

// Logout ends the session. Logging out twice is fine.
func (ct *Controller) Logout(c *fiber.Ctx) error {
	if err := ct.sessions.Destroy(c); err != nil {
		log.WithError(err).Error("destroy session")
		return middleware.ErrorMessage(c, fiber.StatusInternalServerError, "Logout failed")
	}
	return middleware.JsonResponse(c, fiber.StatusOK, fiber.Map{"success": true})
}
