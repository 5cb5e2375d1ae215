package handlers

import (
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"mobileplanet/internal/apperr"
	"mobileplanet/internal/config"
	applog "mobileplanet/internal/log"
)

// NewApp builds the API server with its middleware, the policy table and a JSON 404 fallback.
// The access log goes to accessLog.
func NewApp(cfg config.Config, d *Deps, accessLog io.Writer) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "mobileplanet",
		BodyLimit:    cfg.BodyLimit,
		ErrorHandler: ErrorHandler,
		UnescapePath: true,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
		Output: accessLog,
	}))
	app.Use(helmet.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, Idempotency-Key",
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        cfg.RateLimit,
		Expiration: cfg.RateWindow,
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/healthz"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.api.hit", nil)
			return fiber.NewError(fiber.StatusTooManyRequests, "rate limit exceeded, retry soon")
		},
	}))
	// tighter budget for token issuance
	app.Use("/jwt", limiter.New(limiter.Config{
		Max:        cfg.TokenRateLimit,
		Expiration: cfg.RateWindow,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|jwt"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.jwt.hit", nil)
			return fiber.NewError(fiber.StatusTooManyRequests, "too many attempts, please try again later")
		},
	}))

	Register(app, d)

	app.Use(func(c *fiber.Ctx) error {
		return apperr.NotFound.With("route not found")
	})
	return app
}
