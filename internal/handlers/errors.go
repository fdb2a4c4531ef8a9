package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"alfredoptarigan/interview-coach/internal/services"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		return fiber.StatusNotFound
	}
	return fiber.StatusInternalServerError
}

// respondError maps a service error to its status and public message.
func respondError(c *fiber.Ctx, log *zap.Logger, err error) error {
	code := statusFor(err)
	if code == fiber.StatusInternalServerError {
		log.Error("❌ Request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
	}

	return c.Status(code).JSON(fiber.Map{
		"error": services.PublicMessage(err),
	})
}

// respondWriteError is respondError for write endpoints, which report
// storage failures as {success: false, error: "DB Error"}.
func respondWriteError(c *fiber.Ctx, log *zap.Logger, err error) error {
	if !errors.Is(err, services.ErrPersistence) {
		return respondError(c, log, err)
	}

	log.Error("❌ Write failed", zap.String("path", c.Path()), zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"error":   "DB Error",
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": message,
	})
}
