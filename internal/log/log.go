package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"

	"github.com/gofiber/fiber/v2"
)

var logger atomic.Pointer[slog.Logger]

func init() {
	logger.Store(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
}

// Setup replaces the process logger. level is one of debug|info|warn|error.
func Setup(w io.Writer, level string) {
	logger.Store(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: parseLevel(level)})))
}

// Logger exposes the underlying slog logger for libraries that take one.
func Logger() *slog.Logger { return logger.Load() }

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func write(level slog.Level, kind string, c *fiber.Ctx, action string, err error, fields map[string]any) {
	attrs := []slog.Attr{slog.String("kind", kind), slog.String("action", action)}
	if c != nil {
		attrs = append(attrs,
			slog.String("ip", c.IP()),
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Int("status", c.Response().StatusCode()),
		)
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			attrs = append(attrs, slog.String("req_id", rid))
		}
		if email, ok := c.Locals("email").(string); ok && email != "" {
			attrs = append(attrs, slog.String("user", email))
		}
	}
	if err != nil {
		attrs = append(attrs, slog.String("err", err.Error()))
	}
	if len(fields) > 0 {
		fa := make([]any, 0, len(fields))
		for k, v := range fields {
			fa = append(fa, slog.Any(k, v))
		}
		attrs = append(attrs, slog.Group("fields", fa...))
	}
	ctx := context.Background()
	if c != nil {
		ctx = c.UserContext()
	}
	logger.Load().LogAttrs(ctx, level, action, attrs...)
}

func Info(c *fiber.Ctx, action string, fields map[string]any) {
	write(slog.LevelInfo, "info", c, action, nil, fields)
}
func Audit(c *fiber.Ctx, action string, fields map[string]any) {
	write(slog.LevelInfo, "audit", c, action, nil, fields)
}
func Security(c *fiber.Ctx, action string, fields map[string]any) {
	write(slog.LevelWarn, "security", c, action, nil, fields)
}
func Error(c *fiber.Ctx, action string, err error, fields map[string]any) {
	write(slog.LevelError, "error", c, action, err, fields)
}
