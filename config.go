package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cast"

	aws_pkg "github.com/EhsanMalik360/productsmappingapp-sub002/pkg/aws"
)

// Config holds all configuration for the import service.
type Config struct {
	Env  string
	Port string

	MongoURL string
	MongoDB  string
	RedisURL string

	// UploadDir receives files posted through the HTTP upload endpoints.
	UploadDir string

	// S3Bucket is the direct-upload bucket. Empty disables presigned
	// uploads; s3:// file paths then fail at open time.
	S3Bucket string

	// SQSQueueURL receives S3 upload notifications. Empty disables the
	// queue intake loop.
	SQSQueueURL string

	// CompletionTopicARN, when set, gets an SNS notification per finished
	// job.
	CompletionTopicARN string

	// HistoryTable is the DynamoDB audit table.
	HistoryTable string

	// Pipeline tuning. Zero values let the pipeline pick its own defaults.
	WorkerConcurrency int
	ChunkSize         int
	TransformWorkers  int
	MemoryHighWaterMB int
	MemoryLowWaterMB  int
}

// LoadConfig reads configuration from environment variables with optional
// Secrets Manager override.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Env:                getEnv("ENV", "development"),
		Port:               getEnv("PORT", "8080"),
		MongoURL:           os.Getenv("MONGO_URL"),
		MongoDB:            getEnv("MONGO_DB", "productsmapping"),
		RedisURL:           getEnv("REDIS_URL", "redis://redis:6379"),
		UploadDir:          getEnv("UPLOAD_DIR", "uploads"),
		S3Bucket:           os.Getenv("AWS_S3_BUCKET"),
		SQSQueueURL:        os.Getenv("IMPORT_SQS_QUEUE_URL"),
		CompletionTopicARN: os.Getenv("IMPORT_EVENTS_TOPIC_ARN"),
		HistoryTable:       getEnv("IMPORT_HISTORY_TABLE", "ImportHistory"),
		WorkerConcurrency:  getEnvInt("IMPORT_WORKERS", 2),
		ChunkSize:          getEnvInt("IMPORT_CHUNK_SIZE", 0),
		TransformWorkers:   getEnvInt("IMPORT_TRANSFORM_WORKERS", 0),
		MemoryHighWaterMB:  getEnvInt("IMPORT_MEMORY_HIGH_MB", 0),
		MemoryLowWaterMB:   getEnvInt("IMPORT_MEMORY_LOW_MB", 0),
	}

	// Override the Mongo connection string from Secrets Manager when
	// running on AWS
	if os.Getenv("AWS_USE_SECRETS") == "true" {
		if awsCfg, err := aws_pkg.LoadAWSConfig(context.Background()); err == nil {
			sm := aws_pkg.NewSecretsClient(awsCfg)
			if v, err := sm.GetSecret(context.Background(), "import/MONGO_URL"); err == nil && v != "" {
				cfg.MongoURL = v
			}
		}
	}

	// Validate required fields
	if cfg.MongoURL == "" {
		return nil, fmt.Errorf("MONGO_URL is required")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	n, err := cast.ToIntE(val)
	if err != nil {
		return fallback
	}
	return n
}
