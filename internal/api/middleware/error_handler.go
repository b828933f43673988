package middleware

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/spotlight/internal/domain"
)

// ErrorHandler renders every failure as {"error": message}. It is the only
// place a failed request is logged at error level.
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		// Check if it's a Fiber error
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			if fiberErr.Code >= fiber.StatusInternalServerError {
				logError(logger, c, "http error", slog.String("error", fiberErr.Message))
			}
			return c.Status(fiberErr.Code).JSON(fiber.Map{
				"error": fiberErr.Message,
			})
		}

		// Check if it's our AppError
		var appErr *domain.AppError
		if errors.As(err, &appErr) {
			// Log internal errors
			if appErr.StatusCode >= fiber.StatusInternalServerError {
				logError(logger, c, "internal error",
					slog.String("code", appErr.Code),
					slog.String("message", appErr.Message),
					slog.Any("error", appErr.Err),
				)
			}

			return c.Status(appErr.StatusCode).JSON(fiber.Map{
				"error": appErr.Message,
			})
		}

		// Unknown error - log and return its text
		logError(logger, c, "unhandled error", slog.Any("error", err))

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
}

func logError(logger *slog.Logger, c *fiber.Ctx, msg string, attrs ...any) {
	attrs = append(attrs,
		slog.String("path", c.Path()),
		slog.String("method", c.Method()),
		slog.String("request_id", requestID(c)),
	)
	logger.Error(msg, attrs...)
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return ""
}
