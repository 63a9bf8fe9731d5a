package middleware

import (
	"github.com/gofiber/fiber/v2"

	"placement/models"
	"placement/session"
)

const sessionLocal = "session"

// RequireSession resolves the session cookie and stores the session,
// userId and role in c.Locals. Requests without a live session get 401.
func RequireSession(m *session.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, ok := m.Resolve(c)
		if !ok {
			return ErrorMessage(c, fiber.StatusUnauthorized, "Not authenticated")
		}
		c.Locals(sessionLocal, s)
		c.Locals("userId", s.UserID)
		c.Locals("role", s.Role)
		return c.Next()
	}
}

// RequireRole must run after RequireSession. The role always comes from
// the server-side session, never from the request body.
func RequireRole(role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s := CurrentSession(c)
		if s == nil {
			return ErrorMessage(c, fiber.StatusUnauthorized, "Not authenticated")
		}
		if s.Role != role {
			return ErrorMessage(c, fiber.StatusForbidden, "You do not have permission to access this resource!")
		}
		return c.Next()
	}
}

func CurrentSession(c *fiber.Ctx) *session.Session {
	s, _ := c.Locals(sessionLocal).(*session.Session)
	return s
}

// UserID is the authenticated user's id, empty outside RequireSession.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals("userId").(string)
	return id
}
