package handlers

import (
	"github.com/gofiber/fiber/v2"

	"minimarket/internal/domain"
	applog "minimarket/internal/log"
	"minimarket/internal/services"
)

// Attach resolves the sid cookie to a user and stores it in Locals as
// "user" and "uid". Guests pass through untouched.
func Attach(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if sid := c.Cookies("sid"); sid != "" {
			u, err := auth.CurrentUser(c.UserContext(), sid)
			if err != nil {
				applog.Error(c, "session.resolve.fail", err, nil)
			} else if u != nil {
				c.Locals("user", u)
				c.Locals("uid", u.ID)
			}
		}
		return c.Next()
	}
}

func currentUser(c *fiber.Ctx) *domain.User {
	u, _ := c.Locals("user").(*domain.User)
	return u
}

// session returns the caller's cart session, issuing a sid when missing.
func session(c *fiber.Ctx) services.Session {
	s := services.Session{ID: ensureSID(c)}
	if u := currentUser(c); u != nil {
		s.UserID = u.ID
	}
	return s
}

// RequireUser rejects guests with 401.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if currentUser(c) == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "sign in required"})
		}
		return c.Next()
	}
}

// RequireAdmin rejects guests with 401 and customers with 403.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		u := currentUser(c)
		if u == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "sign in required"})
		}
		if !u.IsAdmin() {
			applog.Security(c, "access.denied.admin", map[string]any{"user_id": u.ID})
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden"})
		}
		return c.Next()
	}
}
