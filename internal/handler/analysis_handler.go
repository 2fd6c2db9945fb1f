package handler

import (
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/mansoorceksport/skinsight/internal/domain"
	"github.com/mansoorceksport/skinsight/internal/logger"
	"github.com/mansoorceksport/skinsight/internal/telemetry"
)

// AnalysisHandler handles HTTP requests for skin analyses
type AnalysisHandler struct {
	service     domain.AnalysisService
	maxUploadMB int64
	logger      *zap.Logger
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(service domain.AnalysisService, maxUploadMB int64, log *zap.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		service:     service,
		maxUploadMB: maxUploadMB,
		logger:      logger.OrNop(log),
	}
}

// CreateAnalysis handles POST /v1/analyses
func (h *AnalysisHandler) CreateAnalysis(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return badRequest(c, "invalid multipart form: "+err.Error())
	}

	files := form.File["image"]
	if len(files) == 0 {
		return badRequest(c, "missing 'image' field in form data")
	}
	imageFile := files[0]

	maxBytes := h.maxUploadMB * 1024 * 1024
	if imageFile.Size > maxBytes {
		return badRequest(c, fmt.Sprintf("file size exceeds maximum of %dMB", h.maxUploadMB))
	}
	if imageFile.Size == 0 {
		return badRequest(c, "uploaded image is empty")
	}

	if !isValidImageType(imageFile) {
		return badRequest(c, "invalid file type, only JPEG, PNG, WebP, GIF and BMP images are allowed")
	}

	imageData, err := readFile(imageFile)
	if err != nil {
		h.logger.Error("failed to read upload", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "failed to read uploaded file",
		})
	}

	sessionID := strings.TrimSpace(formValue(form, "session_id"))
	if sessionID != "" && !domain.ValidSessionID(sessionID) {
		return badRequest(c, fmt.Sprintf("session_id must be at most %d letters, digits, '-' or '_'", domain.MaxSessionIDLength))
	}

	session, err := h.service.ProcessAnalysis(c.UserContext(), domain.AnalysisRequest{
		SessionID: sessionID,
		ImageData: imageData,
		UserInfo: domain.UserInfo{
			Name:     formValue(form, "name"),
			Email:    formValue(form, "email"),
			Phone:    formValue(form, "phone"),
			Gender:   formValue(form, "gender"),
			AgeRange: formValue(form, "age_range"),
		},
	})
	if err != nil {
		h.logger.Error("failed to process analysis", zap.Error(err))
		return errorResponse(c, err, "failed to process analysis")
	}
	telemetry.SetSessionID(c, session.ID)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    session,
	})
}

// GetAnalysis handles GET /v1/analyses/:id
func (h *AnalysisHandler) GetAnalysis(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "analysis id is required")
	}

	session, err := h.service.GetSession(c.UserContext(), id)
	if err != nil {
		if !isClientError(err) {
			h.logger.Error("failed to get analysis", zap.String("id", id), zap.Error(err))
		}
		return errorResponse(c, err, "failed to retrieve analysis")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    session,
	})
}

// RecommendRequest is the body of POST /v1/recommendations
type RecommendRequest struct {
	Scores []domain.OutputScore `json:"scores"`
}

// Recommend handles POST /v1/recommendations
func (h *AnalysisHandler) Recommend(c *fiber.Ctx) error {
	var req RecommendRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	for _, s := range req.Scores {
		if s.Name == "" || s.Value < 0 || s.Value > 100 {
			return badRequest(c, "every score needs a name and a value between 0 and 100")
		}
	}

	recs := h.service.Recommend(req.Scores)
	if recs == nil {
		recs = []domain.ProductRecommendation{}
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    recs,
	})
}

// ListProducts handles GET /v1/products?issue=
func (h *AnalysisHandler) ListProducts(c *fiber.Ctx) error {
	products := h.service.Products(c.Query("issue"))
	if products == nil {
		products = []domain.EnhancedProduct{}
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    products,
	})
}

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
	"image/bmp":  true,
}

var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".gif":  true,
	".bmp":  true,
}

// isValidImageType checks the declared content type, then the file extension
func isValidImageType(file *multipart.FileHeader) bool {
	if allowedImageTypes[strings.ToLower(file.Header.Get("Content-Type"))] {
		return true
	}
	return allowedImageExts[strings.ToLower(filepath.Ext(file.Filename))]
}

func readFile(file *multipart.FileHeader) ([]byte, error) {
	f, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func formValue(form *multipart.Form, key string) string {
	if v := form.Value[key]; len(v) > 0 {
		return strings.TrimSpace(v[0])
	}
	return ""
}
