package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"

	"mobileplanet/internal/apperr"
	"mobileplanet/internal/auth"
	"mobileplanet/internal/domain"
	applog "mobileplanet/internal/log"
	"mobileplanet/internal/services"
)

const (
	localEmail = "email"
	localUser  = "user"
)

func bearerToken(c *fiber.Ctx) string {
	scheme, tok, ok := strings.Cut(c.Get(fiber.HeaderAuthorization), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(tok)
}

// RequireAuthenticated verifies the bearer token and stores the caller's email in Locals.
func RequireAuthenticated(tokens *auth.TokenService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tok := bearerToken(c)
		if tok == "" {
			applog.Security(c, "auth.token.missing", nil)
			return apperr.MissingCredential
		}
		email, err := tokens.Verify(tok)
		if err != nil {
			applog.Security(c, "auth.token.invalid", nil)
			return apperr.InvalidCredential
		}
		c.Locals(localEmail, email)
		return c.Next()
	}
}

// RequireRole must run after RequireAuthenticated. The role is read from the store on every
// request, so a demotion takes effect on the caller's next call.
func RequireRole(users *services.UserService, roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		email := callerEmail(c)
		if email == "" {
			return apperr.MissingCredential
		}
		u, err := users.ByEmail(c.UserContext(), email)
		if errors.Is(err, apperr.NotFound) {
			applog.Security(c, "access.denied.unknown_user", nil)
			return apperr.Forbidden
		}
		if err != nil {
			return err
		}
		if !u.HasRole(roles...) {
			applog.Security(c, "access.denied.role", map[string]any{"role": u.Role, "need": roles})
			return apperr.Forbidden
		}
		c.Locals(localUser, u)
		return c.Next()
	}
}

func RequireAdmin(users *services.UserService) fiber.Handler {
	return RequireRole(users, domain.RoleAdmin)
}

func RequireSeller(users *services.UserService) fiber.Handler {
	return RequireRole(users, domain.RoleSeller)
}

func callerEmail(c *fiber.Ctx) string {
	email, _ := c.Locals(localEmail).(string)
	return email
}

func callerUser(c *fiber.Ctx) *domain.User {
	u, _ := c.Locals(localUser).(*domain.User)
	return u
}
