package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/mansoorceksport/skinsight/internal/domain"
	"github.com/mansoorceksport/skinsight/internal/infrastructure/paystack"
	"github.com/mansoorceksport/skinsight/internal/logger"
	"github.com/mansoorceksport/skinsight/internal/telemetry"
)

// WebhookHandler handles external payment webhooks
type WebhookHandler struct {
	service domain.PaymentService
	logger  *zap.Logger
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(service domain.PaymentService, log *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		service: service,
		logger:  logger.OrNop(log),
	}
}

// PaystackWebhook handles POST /v1/payments/webhook/paystack
// This is a public endpoint authenticated by the X-Paystack-Signature HMAC
func (h *WebhookHandler) PaystackWebhook(c *fiber.Ctx) error {
	// Copy: fasthttp reuses the request buffer
	body := append([]byte(nil), c.Body()...)

	message, err := h.service.HandleWebhook(c.UserContext(), body, c.Get(paystack.SignatureHeader))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidSignature):
			h.logger.Warn("webhook signature verification failed", zap.String("ip", c.IP()))
		case isClientError(err):
			h.logger.Warn("webhook rejected", zap.Error(err))
		default:
			h.logger.Error("webhook processing failed", zap.Error(err))
		}
		return errorResponse(c, err, "failed to process webhook")
	}
	telemetry.AddSpanEvent(c, "paystack.webhook", attribute.String("outcome", message))

	return c.JSON(fiber.Map{
		"success": true,
		"message": message,
	})
}
