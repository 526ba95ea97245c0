package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	Port           string
	AllowedOrigins string
	LogLevel       string

	DatabaseURL string
	RedisURL    string

	MeiliSearchHost string
	MeiliMasterKey  string

	CloudinaryURL          string
	CloudinaryUploadFolder string

	SecretKey   string
	SessionName string
	CSRFTTL     time.Duration
	BcryptCost  int

	RateLimitMessage time.Duration
}

func Load() (*Config, error) {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),

		MeiliSearchHost: os.Getenv("MEILISEARCH_HOST"),
		MeiliMasterKey:  os.Getenv("MEILI_MASTER_KEY"),

		CloudinaryURL:          os.Getenv("CLOUDINARY_URL"),
		CloudinaryUploadFolder: getEnv("CLOUDINARY_UPLOAD_FOLDER", "warbler"),

		SecretKey:   os.Getenv("SECRET_KEY"),
		SessionName: getEnv("SESSION_NAME", "warbler_session"),
	}

	if cfg.SecretKey == "" {
		if cfg.AppEnv == "production" {
			return nil, fmt.Errorf("SECRET_KEY must be set in production")
		}
		cfg.SecretKey = "development-secret-key-change-me"
	}

	var err error
	cfg.CSRFTTL, err = time.ParseDuration(getEnv("CSRF_TTL", "12h"))
	if err != nil {
		return nil, fmt.Errorf("invalid CSRF_TTL: %w", err)
	}
	cfg.RateLimitMessage, err = time.ParseDuration(getEnv("RATE_LIMIT_MESSAGE", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_MESSAGE: %w", err)
	}
	cfg.BcryptCost, err = strconv.Atoi(getEnv("BCRYPT_COST", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid BCRYPT_COST: %w", err)
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
