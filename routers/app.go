package routers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"placement/config"
	applicationController "placement/controllers/application"
	authController "placement/controllers/auth"
	jobController "placement/controllers/job"
	"placement/metrics"
	"placement/middleware"
	"placement/routers/applicationRoutes"
	"placement/routers/authRoutes"
	"placement/routers/jobRoutes"
	"placement/services"
	"placement/session"
	"placement/storage"
)

// Deps is everything the HTTP layer needs. main builds it once.
type Deps struct {
	Config       *config.Config
	Store        storage.Storage
	Sessions     *session.Manager
	Auth         *services.AuthService
	Jobs         *services.JobService
	Applications *services.ApplicationService
	// AccessLog enables fiber's request logger.
	AccessLog bool
}

func NewApp(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "placement",
		ErrorHandler: middleware.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     d.Config.AllowOrigins,
		AllowMethods:     "GET,POST,PATCH,DELETE",
		AllowHeaders:     "Content-Type",
		AllowCredentials: d.Config.AllowOrigins != "*",
	}))
	if d.AccessLog {
		app.Use(logger.New(logger.Config{
			Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
		}))
	}
	app.Use(metrics.Middleware())

	app.Get("/health", health(d.Store))
	app.Get("/metrics", metrics.Handler())

	apps := applicationController.New(d.Applications)
	authRoutes.SetupAuthRoutes(app, authController.New(d.Auth, d.Sessions), d.Sessions, otpLimiter(d.Config))
	jobRoutes.SetupJobRoutes(app, jobController.New(d.Jobs), apps, d.Sessions)
	applicationRoutes.SetupApplicationRoutes(app, apps, d.Sessions)

	return app
}

func otpLimiter(cfg *config.Config) fiber.Handler {
	if cfg.OTPRateLimit <= 0 {
		return nil
	}
	return limiter.New(limiter.Config{
		Max:        cfg.OTPRateLimit,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return middleware.ErrorMessage(c, fiber.StatusTooManyRequests, "Too many OTP requests, please wait a minute")
		},
	})
}

func health(store storage.Storage) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := store.Ping(c.UserContext()); err != nil {
			return middleware.JsonResponse(c, fiber.StatusServiceUnavailable, fiber.Map{"status": "unavailable"})
		}
		return middleware.JsonResponse(c, fiber.StatusOK, fiber.Map{"status": "ok"})
	}
}
