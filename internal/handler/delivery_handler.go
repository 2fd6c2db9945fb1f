package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/mansoorceksport/skinsight/internal/domain"
	"github.com/mansoorceksport/skinsight/internal/logger"
	"github.com/mansoorceksport/skinsight/internal/telemetry"
)

// DeliveryHandler sends reports and serves signed report links
type DeliveryHandler struct {
	service domain.DeliveryService
	logger  *zap.Logger
}

// NewDeliveryHandler creates a new DeliveryHandler
func NewDeliveryHandler(service domain.DeliveryService, log *zap.Logger) *DeliveryHandler {
	return &DeliveryHandler{
		service: service,
		logger:  logger.OrNop(log),
	}
}

// Deliver handles POST /v1/analyses/:id/deliver
func (h *DeliveryHandler) Deliver(c *fiber.Ctx) error {
	var req domain.DeliveryRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	req.SessionID = c.Params("id")

	result, err := h.service.Deliver(c.UserContext(), req)
	if err != nil {
		if !isClientError(err) {
			h.logger.Error("report delivery failed",
				zap.String("session_id", req.SessionID),
				zap.String("channel", string(req.Channel)),
				zap.Error(err),
			)
		}
		return errorResponse(c, err, "failed to deliver report")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    result,
	})
}

// GetReport handles GET /v1/reports/:token
func (h *DeliveryHandler) GetReport(c *fiber.Ctx) error {
	session, err := h.service.ResolveReportToken(c.UserContext(), c.Params("token"))
	if err != nil {
		return errorResponse(c, err, "failed to load report")
	}
	telemetry.SetSessionID(c, session.ID)

	return c.JSON(fiber.Map{
		"success": true,
		"data":    session,
	})
}
