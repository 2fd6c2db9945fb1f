package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/mansoorceksport/skinsight/internal/domain"
	"github.com/mansoorceksport/skinsight/internal/logger"
)

// PaymentHandler handles payment-related API endpoints
type PaymentHandler struct {
	service domain.PaymentService
	logger  *zap.Logger
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(service domain.PaymentService, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		logger:  logger.OrNop(log),
	}
}

// CheckoutRequest represents the request body for checkout
type CheckoutRequest struct {
	SessionID string `json:"session_id"`
	Email     string `json:"email"` // optional, defaults to the email captured with the analysis
}

// CheckoutResponse represents the checkout response with invoice details
type CheckoutResponse struct {
	Reference        string `json:"reference"`
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Amount           int64  `json:"amount"`
	Currency         string `json:"currency"`
	Status           string `json:"status"`
}

func toCheckoutResponse(invoice *domain.Invoice) CheckoutResponse {
	return CheckoutResponse{
		Reference:        invoice.Reference,
		AuthorizationURL: invoice.AuthorizationURL,
		AccessCode:       invoice.AccessCode,
		Amount:           invoice.Amount,
		Currency:         invoice.Currency,
		Status:           invoice.Status,
	}
}

// Checkout handles POST /v1/payments/checkout
// Creates or returns the existing pending invoice for a session
func (h *PaymentHandler) Checkout(c *fiber.Ctx) error {
	var req CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.SessionID == "" {
		return badRequest(c, "session_id is required")
	}

	invoice, err := h.service.Checkout(c.UserContext(), req.SessionID, req.Email)
	if err != nil {
		if !isClientError(err) {
			h.logger.Error("checkout failed", zap.String("session_id", req.SessionID), zap.Error(err))
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"success": false,
				"error":   "payment service unavailable, please try again later",
			})
		}
		return errorResponse(c, err, "")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    toCheckoutResponse(invoice),
	})
}

// Verify handles GET /v1/payments/verify/:reference
// Called when the customer returns from the hosted checkout page
func (h *PaymentHandler) Verify(c *fiber.Ctx) error {
	reference := c.Params("reference")
	if reference == "" {
		return badRequest(c, "reference is required")
	}

	invoice, err := h.service.Verify(c.UserContext(), reference)
	if err != nil {
		if !isClientError(err) {
			h.logger.Error("verify failed", zap.String("reference", reference), zap.Error(err))
		}
		return errorResponse(c, err, "failed to verify payment")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    toCheckoutResponse(invoice),
	})
}
