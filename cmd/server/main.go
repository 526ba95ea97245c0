package main

import (
	"context"
	"strings"

	"anoa.com/warbler/internal/bootstrap"
	"anoa.com/warbler/internal/config"
	searchService "anoa.com/warbler/internal/modules/search/service"
	"anoa.com/warbler/internal/server"
	"anoa.com/warbler/pkg/credential"
	"anoa.com/warbler/pkg/database"
	"anoa.com/warbler/pkg/logger"
	"anoa.com/warbler/pkg/storage"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}
	logger.Init(cfg.AppEnv, cfg.LogLevel)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logrus.Fatalf("database: %v", err)
	}
	if err := bootstrap.Migrate(db); err != nil {
		logrus.Fatalf("migration failed: %v", err)
	}

	if cfg.AppEnv == "development" {
		if err := bootstrap.SeedDemoData(context.Background(), db, credential.NewHasher(cfg.BcryptCost)); err != nil {
			logrus.Fatalf("failed to seed demo data: %v", err)
		}
	}

	srv := server.NewServer(server.Dependencies{
		Config:       cfg,
		DB:           db,
		RedisClient:  connectRedis(cfg.RedisURL),
		Search:       connectSearch(cfg.MeiliSearchHost, cfg.MeiliMasterKey),
		ImageStorage: connectStorage(cfg),
	})

	logrus.WithField("port", cfg.Port).Info("starting server")
	if err := srv.Run(":" + cfg.Port); err != nil {
		logrus.Fatalf("server exited with error: %v", err)
	}
}

// connectRedis returns nil when Redis is not configured or unreachable; rate
// limiting, count caching and live notifications are then switched off.
func connectRedis(redisURL string) *redis.Client {
	if redisURL == "" {
		logrus.Info("REDIS_URL not set, running without redis")
		return nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		logrus.WithError(err).Warn("invalid REDIS_URL, running without redis")
		return nil
	}

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		logrus.WithError(err).Warn("redis unreachable, running without redis")
		_ = client.Close()
		return nil
	}

	logrus.Info("connected to redis")
	return client
}

func connectSearch(host, apiKey string) searchService.SearchService {
	if host == "" {
		logrus.Info("MEILISEARCH_HOST not set, user search uses the database")
		return nil
	}
	if !strings.HasPrefix(host, "http") {
		host = "http://" + host + ":7700"
	}

	client := meilisearch.New(host, meilisearch.WithAPIKey(apiKey))
	if !client.IsHealthy() {
		logrus.WithField("host", host).Warn("meilisearch unhealthy, user search uses the database")
		return nil
	}
	return searchService.NewMeiliSearchService(client)
}

func connectStorage(cfg *config.Config) storage.ImageStorage {
	if cfg.CloudinaryURL == "" {
		logrus.Info("CLOUDINARY_URL not set, image uploads disabled")
		return nil
	}

	imageStorage, err := storage.NewCloudinaryStorage(cfg.CloudinaryURL, cfg.CloudinaryUploadFolder)
	if err != nil {
		logrus.WithError(err).Warn("cloudinary unavailable, image uploads disabled")
		return nil
	}
	return imageStorage
}
