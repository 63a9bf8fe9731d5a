package authRoutes

import (
	"github.com/gofiber/fiber/v2"

	authController "placement/controllers/auth"
	"placement/middleware"
	"placement/session"
	authValidator "placement/validators/auth"
)

// SetupAuthRoutes registers the login flow. otpLimiter throttles code
// requests; pass nil to disable it.
func SetupAuthRoutes(app *fiber.App, ctrl *authController.Controller, sessions *session.Manager, otpLimiter fiber.Handler) {
	authGroup := app.Group("/auth")

	sendOTP := []fiber.Handler{authValidator.SendOTP(), ctrl.SendOTP}
	if otpLimiter != nil {
		sendOTP = append([]fiber.Handler{otpLimiter}, sendOTP...)
	}
	authGroup.Post("/send-otp", sendOTP...)
	authGroup.Post("/verify-otp", authValidator.VerifyOTP(), ctrl.VerifyOTP)
	authGroup.Get("/me", middleware.RequireSession(sessions), ctrl.Me)
	authGroup.Post("/logout", ctrl.Logout)
}
