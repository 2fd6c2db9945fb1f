package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/mansoorceksport/skinsight/internal/domain"
)

// errorResponse maps domain errors onto HTTP statuses. Anything unknown is a 500
// with fallback as the message.
func errorResponse(c *fiber.Ctx, err error, fallback string) error {
	status := fiber.StatusInternalServerError
	message := fallback

	switch {
	case errors.Is(err, domain.ErrNotFound):
		status, message = fiber.StatusNotFound, err.Error()
	case errors.Is(err, domain.ErrPaymentRequired):
		status, message = fiber.StatusPaymentRequired, err.Error()
	case errors.Is(err, domain.ErrInvalidSignature), errors.Is(err, domain.ErrInvalidToken):
		status, message = fiber.StatusUnauthorized, err.Error()
	case errors.Is(err, domain.ErrUnsupportedChannel), errors.Is(err, domain.ErrInvalidRecipient),
		errors.Is(err, domain.ErrInvalidPayload):
		status, message = fiber.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrAlreadyPaid), errors.Is(err, domain.ErrAmountMismatch):
		status, message = fiber.StatusConflict, err.Error()
	}

	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}

// isClientError reports whether err maps to a 4xx
func isClientError(err error) bool {
	for _, target := range []error{
		domain.ErrNotFound,
		domain.ErrPaymentRequired,
		domain.ErrInvalidSignature,
		domain.ErrInvalidToken,
		domain.ErrUnsupportedChannel,
		domain.ErrInvalidRecipient,
		domain.ErrAlreadyPaid,
		domain.ErrAmountMismatch,
		domain.ErrInvalidPayload,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
