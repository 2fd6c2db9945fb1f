package main

import (
	"context"
	"flag"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mansoorceksport/skinsight/internal/config"
	"github.com/mansoorceksport/skinsight/internal/logger"
	"github.com/mansoorceksport/skinsight/internal/matcher"
	"github.com/mansoorceksport/skinsight/internal/repository"
)

// Seeds the products collection from the embedded catalog, or from a catalog YAML file.
func main() {
	file := flag.String("file", "", "catalog YAML to seed instead of the embedded one")
	flag.Parse()

	log := logger.New("info", "console")
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config", zap.Error(err))
	}

	catalog, err := loadCatalog(*file)
	if err != nil {
		log.Fatal("failed to load catalog", zap.String("file", *file), zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoDB.URI))
	if err != nil {
		log.Fatal("failed to connect to Mongo", zap.Error(err))
	}
	defer client.Disconnect(ctx)

	repo := repository.NewMongoProductRepository(client.Database(cfg.MongoDB.Database))
	if err := repo.UpsertMany(ctx, catalog.Products); err != nil {
		log.Fatal("failed to seed products", zap.Error(err))
	}

	log.Info("products seeded",
		zap.Int("count", len(catalog.Products)),
		zap.String("database", cfg.MongoDB.Database),
	)
}

func loadCatalog(path string) (*matcher.Catalog, error) {
	if path == "" {
		return matcher.DefaultCatalog()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return matcher.ParseCatalog(data)
}
