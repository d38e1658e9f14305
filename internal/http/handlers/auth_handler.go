package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"encore/internal/log"
	"encore/internal/services"
	"encore/internal/validate"
)

type AuthHandler struct {
	Auth *services.AuthService
}

func (h *AuthHandler) LoginForm(c *fiber.Ctx) error {
	return render(c, "login", fiber.Map{"Err": ""})
}

func (h *AuthHandler) fail(c *fiber.Ctx, fields map[string]any) error {
	log.Security(c, "auth.login.fail", fields)
	return c.Status(fiber.StatusUnauthorized).Render("login", fiber.Map{
		"Err": "Invalid email or password", "CSRFToken": c.Cookies("csrf_"),
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	sid := ensureSID(c)
	email := c.FormValue("email")
	pass := c.FormValue("password")
	if _, ok := validate.Email(email); !ok {
		return h.fail(c, map[string]any{"email": email, "reason": "bad_format"})
	}
	if !validate.Password(pass) {
		return h.fail(c, map[string]any{"email": email, "reason": "bad_password_format"})
	}
	m, err := h.Auth.Login(sid, email, pass)
	if err != nil {
		return h.fail(c, map[string]any{"email": email})
	}

	log.Audit(c, "auth.login.success", map[string]any{"email": email, "tier": string(m.Tier)})
	return c.Redirect("/")
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sid := ensureSID(c)
	_ = h.Auth.Logout(sid)
	c.Cookie(sidCookie("", time.Now().Add(-1*time.Hour)))
	log.Audit(c, "auth.logout", map[string]any{"sid": sid})
	return c.Redirect("/")
}
