package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/mansoorceksport/skinsight/internal/analysis"
	"github.com/mansoorceksport/skinsight/internal/config"
	"github.com/mansoorceksport/skinsight/internal/domain"
	"github.com/mansoorceksport/skinsight/internal/handler"
	"github.com/mansoorceksport/skinsight/internal/infrastructure/ses"
	"github.com/mansoorceksport/skinsight/internal/logger"
	"github.com/mansoorceksport/skinsight/internal/matcher"
	"github.com/mansoorceksport/skinsight/internal/middleware"
	"github.com/mansoorceksport/skinsight/internal/repository"
	"github.com/mansoorceksport/skinsight/internal/service"
	"github.com/mansoorceksport/skinsight/internal/telemetry"
)

const (
	idempotencyTTL = 24 * time.Hour
	// room for multipart boundaries and form fields on top of the image
	multipartOverhead = 1024 * 1024
)

// AppDependencies holds the dependencies required to start the application
type AppDependencies struct {
	Config      *config.Config
	MongoDB     *mongo.Database
	RedisClient *redis.Client
	Catalog     *matcher.Catalog // nil uses the embedded catalog

	// Optional; nil keeps photos inline on the session
	FileRepository domain.FileRepository

	// Optional; nil logs emails instead of sending them
	EmailSender domain.EmailSender

	Logger *zap.Logger
}

// NewApp creates and configures the Fiber application with the given dependencies
func NewApp(deps AppDependencies) (*fiber.App, error) {
	log := logger.OrNop(deps.Logger)
	cfg := deps.Config

	catalog := deps.Catalog
	if catalog == nil {
		var err error
		if catalog, err = matcher.DefaultCatalog(); err != nil {
			return nil, fmt.Errorf("failed to load product catalog: %w", err)
		}
	}

	emailSender := deps.EmailSender
	if emailSender == nil {
		emailSender = ses.NewLogSender(log)
	}

	// Initialize repositories
	sessionRepo := repository.NewMongoSessionRepository(deps.MongoDB)
	invoiceRepo := repository.NewMongoInvoiceRepository(deps.MongoDB)
	cacheRepo := repository.NewRedisCacheRepository(deps.RedisClient)

	// Initialize services
	thresholds := analysis.DefaultThresholds()
	thresholds.Resolution = cfg.Analysis.Resolution
	thresholds.SampleStep = cfg.Analysis.SampleStep
	engine := analysis.NewEngine(thresholds, log.Named("analysis"))

	analysisService := service.NewSkinAnalysisService(
		engine,
		matcher.New(catalog, log.Named("matcher")),
		sessionRepo,
		cacheRepo,
		deps.FileRepository,
		cfg.Redis.SessionTTL,
		log.Named("analysis_service"),
	)

	paymentService := service.NewPaymentService(
		service.NewPaymentProvider(cfg.Paystack, log.Named("paystack")),
		invoiceRepo,
		sessionRepo,
		cacheRepo,
		cfg.Paystack,
		log.Named("payment"),
	)

	deliveryService := service.NewReportDeliveryService(
		analysisService,
		service.NewReportTokenService(cfg.Report.LinkSecret, cfg.Report.LinkTTL),
		emailSender,
		service.DeliveryConfig{
			ReportBaseURL:      cfg.Report.BaseURL,
			RequirePayment:     cfg.Report.RequirePayment,
			DefaultCountryCode: cfg.WhatsApp.DefaultCountryCode,
		},
		log.Named("delivery"),
	)

	// Initialize handlers
	analysisHandler := handler.NewAnalysisHandler(analysisService, cfg.Server.MaxUploadSizeMB, log)
	paymentHandler := handler.NewPaymentHandler(paymentService, log)
	webhookHandler := handler.NewWebhookHandler(paymentService, log)
	deliveryHandler := handler.NewDeliveryHandler(deliveryService, log)

	app := fiber.New(fiber.Config{
		AppName:      "Skinsight API",
		BodyLimit:    int(cfg.Server.MaxUploadSizeMB*1024*1024) + multipartOverhead,
		ErrorHandler: customErrorHandler(log),
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(telemetry.FiberMiddleware())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Correlation-ID",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": "skinsight",
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API v1 routes
	v1 := app.Group("/v1")
	v1.Use(middleware.IdempotencyMiddleware(cacheRepo, idempotencyTTL, log))

	analyses := v1.Group("/analyses")
	analyses.Post("/", analysisHandler.CreateAnalysis)
	analyses.Get("/:id", analysisHandler.GetAnalysis)
	analyses.Post("/:id/deliver", deliveryHandler.Deliver)

	v1.Post("/recommendations", analysisHandler.Recommend)
	v1.Get("/products", analysisHandler.ListProducts)
	v1.Get("/reports/:token", deliveryHandler.GetReport)

	payments := v1.Group("/payments")
	payments.Post("/checkout", paymentHandler.Checkout)
	payments.Get("/verify/:reference", paymentHandler.Verify)
	payments.Post("/webhook/paystack", webhookHandler.PaystackWebhook)

	return app, nil
}

// LoadCatalog returns the embedded catalog with its products replaced by the
// products collection when that collection is not empty
func LoadCatalog(ctx context.Context, products domain.ProductRepository, log *zap.Logger) (*matcher.Catalog, error) {
	catalog, err := matcher.DefaultCatalog()
	if err != nil {
		return nil, err
	}

	stored, err := products.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	if len(stored) == 0 {
		return catalog, nil
	}

	override := catalog.WithProducts(stored)
	if err := override.Validate(); err != nil {
		return nil, fmt.Errorf("stored products are invalid: %w", err)
	}
	logger.OrNop(log).Info("using stored product catalog", zap.Int("products", len(stored)))
	return override, nil
}

func customErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var e *fiber.Error
		if errors.As(err, &e) {
			code = e.Code
		}
		if code >= fiber.StatusInternalServerError {
			log.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
		}
		return c.Status(code).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}
}
