package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"

	"mobileplanet/internal/apperr"
	applog "mobileplanet/internal/log"
	"mobileplanet/internal/services"
	"mobileplanet/internal/validate"
)

type AuthHandler struct {
	Users *services.UserService
}

// GET /jwt?email=
func (h *AuthHandler) Token(c *fiber.Ctx) error {
	email, ok := validate.Email(c.Query("email"))
	if !ok {
		applog.Security(c, "auth.jwt.bad_email", nil)
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"accessToken": ""})
	}
	tok, err := h.Users.IssueToken(c.UserContext(), email)
	if errors.Is(err, apperr.Forbidden) {
		applog.Security(c, "auth.jwt.unknown_user", map[string]any{"email": email})
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"accessToken": ""})
	}
	if err != nil {
		return err
	}
	applog.Audit(c, "auth.jwt.issue", map[string]any{"email": email})
	return c.JSON(fiber.Map{"accessToken": tok})
}

// POST /users
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var in services.RegisterInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	u, created, err := h.Users.Register(c.UserContext(), in)
	if err != nil {
		return err
	}
	if !created {
		return c.JSON(fiber.Map{"created": false, "user": u})
	}
	c.Status(fiber.StatusCreated)
	applog.Audit(c, "users.register", map[string]any{"user_id": u.ID, "role": u.Role})
	return c.JSON(fiber.Map{"created": true, "user": u})
}

// HasRole answers GET /users/<role>/:email as {<key>: bool}.
func (h *AuthHandler) HasRole(role, key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		email, ok := validate.Email(c.Params("email"))
		if !ok {
			return apperr.InvalidInput.With("email is invalid")
		}
		yes, err := h.Users.HasRole(c.UserContext(), email, role)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{key: yes})
	}
}
