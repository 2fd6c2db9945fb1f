package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"
	"go.uber.org/zap"

	"github.com/mansoorceksport/skinsight/internal/config"
	"github.com/mansoorceksport/skinsight/internal/domain"
	"github.com/mansoorceksport/skinsight/internal/infrastructure/ses"
	"github.com/mansoorceksport/skinsight/internal/logger"
	"github.com/mansoorceksport/skinsight/internal/repository"
	"github.com/mansoorceksport/skinsight/internal/server"
	"github.com/mansoorceksport/skinsight/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// the logger is configured from cfg, so fall back to a default one
		logger.New("info", "json").Fatal("failed to load config", zap.Error(err))
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	defer func() { _ = log.Sync() }()

	log.Info("starting Skinsight service", zap.String("version", cfg.OTEL.ServiceVersion))

	ctx := context.Background()

	otelProvider, err := telemetry.Initialize(ctx, telemetry.FromConfig(cfg.OTEL), log)
	if err != nil {
		log.Warn("failed to initialize OpenTelemetry", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = otelProvider.Shutdown(shutdownCtx)
	}()

	// Connect to MongoDB with OpenTelemetry instrumentation
	ctxMongo, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	mongoOpts := options.Client().ApplyURI(cfg.MongoDB.URI)
	if cfg.OTEL.Enabled {
		mongoOpts.SetMonitor(otelmongo.NewMonitor())
	}

	mongoClient, err := mongo.Connect(ctxMongo, mongoOpts)
	if err != nil {
		log.Fatal("failed to connect to MongoDB", zap.Error(err))
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Error("error disconnecting from MongoDB", zap.Error(err))
		}
	}()

	if err := mongoClient.Ping(ctxMongo, nil); err != nil {
		log.Fatal("failed to ping MongoDB", zap.Error(err))
	}
	log.Info("MongoDB connected", zap.String("database", cfg.MongoDB.Database))

	mongoDB := mongoClient.Database(cfg.MongoDB.Database)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       0,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("failed to connect to Redis", zap.Error(err))
	}
	log.Info("Redis connected")

	catalog, err := server.LoadCatalog(ctxMongo, repository.NewMongoProductRepository(mongoDB), log)
	if err != nil {
		log.Fatal("failed to load product catalog", zap.Error(err))
	}

	// Photo storage is optional
	var fileRepo domain.FileRepository
	if cfg.S3.Enabled() {
		s3Repo, err := repository.NewSeaweedS3Repository(ctx, cfg.S3)
		if err != nil {
			log.Warn("failed to initialize S3 repository, keeping photos inline", zap.Error(err))
		} else {
			fileRepo = s3Repo
			log.Info("S3 photo storage enabled", zap.String("bucket", cfg.S3.Bucket))
		}
	}

	var emailSender domain.EmailSender
	if cfg.Email.Region != "" && cfg.Email.From != "" {
		sender, err := ses.NewSender(ctx, cfg.Email.Region, cfg.Email.From, log.Named("ses"))
		if err != nil {
			log.Warn("failed to initialize SES, emails will be logged", zap.Error(err))
		} else {
			emailSender = sender
		}
	}

	app, err := server.NewApp(server.AppDependencies{
		Config:         cfg,
		MongoDB:        mongoDB,
		RedisClient:    redisClient,
		Catalog:        catalog,
		FileRepository: fileRepo,
		EmailSender:    emailSender,
		Logger:         log,
	})
	if err != nil {
		log.Fatal("failed to build app", zap.Error(err))
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		log.Info("shutting down gracefully")
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	log.Info("server starting", zap.String("port", cfg.Server.Port))
	if err := app.Listen(":" + cfg.Server.Port); err != nil {
		log.Fatal("failed to start server", zap.Error(err))
	}
}
