package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"

	"mobileplanet/internal/apperr"
	applog "mobileplanet/internal/log"
	"mobileplanet/internal/validate"
)

// statusCodes names the framework-level errors that never pass through apperr.
var statusCodes = map[int]string{
	fiber.StatusBadRequest:            apperr.InvalidInput.Code,
	fiber.StatusNotFound:              apperr.NotFound.Code,
	fiber.StatusMethodNotAllowed:      "METHOD_NOT_ALLOWED",
	fiber.StatusRequestEntityTooLarge: "PAYLOAD_TOO_LARGE",
	fiber.StatusTooManyRequests:       "RATE_LIMITED",
	fiber.StatusUnprocessableEntity:   apperr.InvalidInput.Code,
}

func errorBody(message, code string) fiber.Map {
	return fiber.Map{"error": message, "code": code}
}

// ErrorHandler renders every error as {"error", "code"}. Causes of 5xx responses are logged,
// never returned.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code, ok := statusCodes[fe.Code]
		if !ok {
			code = "HTTP_" + strconv.Itoa(fe.Code)
		}
		if fe.Code >= fiber.StatusInternalServerError {
			applog.Error(c, "server.error", err, nil)
		}
		return c.Status(fe.Code).JSON(errorBody(fe.Message, code))
	}

	ae := apperr.From(err)
	if ae.Status >= fiber.StatusInternalServerError {
		applog.Error(c, "server.error", err, map[string]any{"code": ae.Code})
	}
	return c.Status(ae.Status).JSON(errorBody(ae.Message, ae.Code))
}

// bindJSON decodes the request body into out and runs its validate tags.
func bindJSON(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperr.InvalidInput.With("malformed request body")
	}
	if msg, ok := validate.Struct(out); !ok {
		return apperr.InvalidInput.With(msg)
	}
	return nil
}

func idParam(c *fiber.Ctx, name string) (string, error) {
	id, ok := validate.ID(c.Params(name))
	if !ok {
		return "", apperr.InvalidInput.With(name + " is invalid")
	}
	return id, nil
}

func idQuery(c *fiber.Ctx, name string) (string, error) {
	id, ok := validate.ID(c.Query(name))
	if !ok {
		return "", apperr.InvalidInput.With(name + " is invalid")
	}
	return id, nil
}

// ownEmail resolves the "email" query parameter, which may only name the caller.
func ownEmail(c *fiber.Ctx) (string, error) {
	caller := callerEmail(c)
	q := c.Query("email")
	if q == "" {
		return caller, nil
	}
	email, ok := validate.Email(q)
	if !ok {
		return "", apperr.InvalidInput.With("email is invalid")
	}
	if email != caller {
		applog.Security(c, "access.denied.email_mismatch", map[string]any{"requested": email})
		return "", apperr.Forbidden
	}
	return email, nil
}

// idempotencyKey reads the optional Idempotency-Key header.
func idempotencyKey(c *fiber.Ctx) (string, error) {
	raw := c.Get("Idempotency-Key")
	if raw == "" {
		return "", nil
	}
	key, ok := validate.Key(raw)
	if !ok {
		return "", apperr.InvalidInput.With("Idempotency-Key is invalid")
	}
	return key, nil
}
