package config

import (
	"fmt"
	"os"
)

type Config struct {
	Port         string
	DatabaseFile string
	LogLevel     string

	// S3 archive for raw XML payloads
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3BucketName      string
	S3UseSSL          bool

	// Tax-authority catalog API
	CatalogBaseURL string

	// Upload limits
	MaxFileSize   int64
	MaxBatchFiles int
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		DatabaseFile:      getEnv("DATABASE_FILE", "data/edocs.db"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		S3Endpoint:        getEnv("S3_ENDPOINT", "localhost:9000"),
		S3AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", "minioadmin"),
		S3SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", "minioadmin"),
		S3BucketName:      getEnv("S3_BUCKET_NAME", "edocs"),
		S3UseSSL:          getEnv("S3_USE_SSL", "false") == "true",
		CatalogBaseURL:    getEnv("CATALOG_BASE_URL", ""),
		MaxFileSize:       2 * 1024 * 1024,
		MaxBatchFiles:     200,
	}

	if cfg.CatalogBaseURL == "" {
		return nil, fmt.Errorf("CATALOG_BASE_URL is required")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
