// Package log пишет структурированные JSON-записи аудита, по строке на событие.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/gofiber/fiber/v3"
)

var logger atomic.Pointer[slog.Logger]

func init() {
	SetOutput(os.Stderr)
}

// SetOutput перенаправляет записи аудита
func SetOutput(w io.Writer) {
	logger.Store(slog.New(slog.NewJSONHandler(w, nil)))
}

func write(level slog.Level, kind string, c fiber.Ctx, action string, err error, fields map[string]any) {
	attrs := []slog.Attr{slog.String("kind", kind)}
	if c != nil {
		request := []any{
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("ip", c.IP()),
			slog.Int("status", c.Response().StatusCode()),
		}
		if uid, ok := c.Locals("userID").(string); ok {
			request = append(request, slog.String("user_id", uid))
		}
		attrs = append(attrs, slog.Group("request", request...))
	}
	if err != nil {
		attrs = append(attrs, slog.String("err", err.Error()))
	}
	if len(fields) > 0 {
		attrs = append(attrs, slog.Any("fields", fields))
	}
	logger.Load().LogAttrs(context.Background(), level, action, attrs...)
}

// Audit фиксирует успешное изменение данных
func Audit(c fiber.Ctx, action string, fields map[string]any) {
	write(slog.LevelInfo, "audit", c, action, nil, fields)
}

// Security фиксирует отказ в доступе
func Security(c fiber.Ctx, action string, fields map[string]any) {
	write(slog.LevelWarn, "security", c, action, nil, fields)
}

func Error(c fiber.Ctx, action string, err error, fields map[string]any) {
	write(slog.LevelError, "error", c, action, err, fields)
}
