package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"minimarket/internal/log"
	"minimarket/internal/services"
	"minimarket/internal/validate"
)

type AuthHandler struct {
	Auth *services.AuthService
}

func ensureSID(c *fiber.Ctx) string {
	sid := c.Cookies("sid")
	if sid == "" {
		if v, ok := c.Locals("sid").(string); ok {
			return v
		}
		sid = uuid.NewString()
		c.Cookie(&fiber.Cookie{
			Name:     "sid",
			Value:    sid,
			Path:     "/",
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
			Secure:   false,
		})
		c.Locals("sid", sid)
	}
	return sid
}

type credentials struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
	Name     string `json:"name" form:"name"`
	Phone    string `json:"phone" form:"phone"`
	Address  string `json:"address" form:"address"`
}

// POST /api/v1/auth/signup
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var in credentials
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body")
	}
	email, ok := validate.Email(in.Email)
	if !ok {
		return badRequest(c, "email")
	}
	if !validate.Password(in.Password) {
		return badRequest(c, "password")
	}
	name, ok := validate.Name(in.Name)
	if !ok && in.Name != "" {
		return badRequest(c, "name")
	}
	u, err := h.Auth.SignUp(c.UserContext(), services.SignUpInput{
		Email: email, Password: in.Password, Name: name, Phone: in.Phone, Address: in.Address,
	})
	if err != nil {
		return fail(c, "auth.signup.fail", err)
	}
	log.Audit(c, "auth.signup", map[string]any{"user_id": u.ID})
	return c.Status(fiber.StatusCreated).JSON(u.Public())
}

// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	sid := ensureSID(c)
	var in credentials
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body")
	}
	email, ok := validate.Email(in.Email)
	if !ok || !validate.Password(in.Password) {
		log.Security(c, "auth.login.fail", map[string]any{"email": in.Email, "reason": "bad_format"})
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid email or password"})
	}
	u, err := h.Auth.SignIn(c.UserContext(), sid, email, in.Password)
	if err != nil {
		return fail(c, "auth.login.fail", err)
	}
	c.Locals("uid", u.ID)
	log.Audit(c, "auth.login.success", map[string]any{"email": email})
	return c.JSON(u.Public())
}

// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sid := c.Cookies("sid")
	if sid != "" {
		if err := h.Auth.SignOut(c.UserContext(), sid); err != nil {
			return fail(c, "auth.logout.fail", err)
		}
	}
	c.Cookie(&fiber.Cookie{
		Name:     "sid",
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Now().Add(-1 * time.Hour),
	})
	log.Audit(c, "auth.logout", nil)
	return c.SendStatus(fiber.StatusNoContent)
}

// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	u := currentUser(c)
	if u == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "sign in required"})
	}
	return c.JSON(u.Public())
}
