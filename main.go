package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/EhsanMalik360/productsmappingapp-sub002/common/logger"
	"github.com/EhsanMalik360/productsmappingapp-sub002/common/middleware"
	"github.com/EhsanMalik360/productsmappingapp-sub002/controllers"
	"github.com/EhsanMalik360/productsmappingapp-sub002/database"
	aws_pkg "github.com/EhsanMalik360/productsmappingapp-sub002/pkg/aws"
	dynamodb_pkg "github.com/EhsanMalik360/productsmappingapp-sub002/pkg/dynamodb"
	"github.com/EhsanMalik360/productsmappingapp-sub002/repository"
	"github.com/EhsanMalik360/productsmappingapp-sub002/routes"
	"github.com/EhsanMalik360/productsmappingapp-sub002/services"
)

const serviceName = "import-service"

func main() {
	// Load .env file (optional, falls back to system env)
	_ = godotenv.Load()

	// Initialize structured logger, tee'd to CloudWatch Logs when enabled
	var cloudWatchWriter io.Writer
	if cw, err := aws_pkg.NewCloudWatchLogsClient(context.Background(), serviceName); err == nil && cw.IsEnabled() {
		cloudWatchWriter = cw
	}
	logger.InitializeWithWriter(os.Getenv("ENV"), cloudWatchWriter)
	defer logger.Log.Sync()        // Flushes buffer, if any
	zap.ReplaceGlobals(logger.Log) // Set the global logger

	// Load configuration from environment variables
	cfg, err := LoadConfig()
	if err != nil {
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	// --- 1. Initialization ---

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		zap.L().Warn("Failed to parse REDIS_URL, falling back to default", zap.Error(err))
		redisOpts = &redis.Options{Addr: "redis:6379", DB: 0}
	}
	redisClient := redis.NewClient(redisOpts)

	if err := database.Connect(context.Background(), cfg.MongoURL, cfg.MongoDB); err != nil {
		zap.L().Fatal("Failed to connect to MongoDB", zap.Error(err))
	}

	// AWS config; pkg/aws points every client at LocalStack when
	// AWS_ENDPOINT is set
	awsCfg, err := aws_pkg.LoadAWSConfig(context.Background())
	if err != nil {
		zap.L().Fatal("Failed to load AWS config", zap.Error(err))
	}
	ddbClient := dynamodb_pkg.NewClientFromConfig(awsCfg)

	// --- 2. Dependency Injection (Wiring the layers together) ---

	jobStore := repository.NewRedisJobStore(redisClient)
	productRepo := repository.NewProductRepository(database.DB)
	supplierRepo := repository.NewSupplierRepository(database.DB)
	attributeRepo := repository.NewAttributeRepository(database.DB)
	historyRepo := repository.NewDynamoHistoryRepo(ddbClient, cfg.HistoryTable)

	if err := productRepo.EnsureIndexes(context.Background()); err != nil {
		zap.L().Warn("Failed to ensure product indexes", zap.Error(err))
	}
	if err := supplierRepo.EnsureIndexes(context.Background()); err != nil {
		zap.L().Warn("Failed to ensure supplier indexes", zap.Error(err))
	}
	if err := dynamodb_pkg.EnsureTable(context.Background(), ddbClient, cfg.HistoryTable, "job_id", "created_at"); err != nil {
		zap.L().Warn("Failed to ensure history table", zap.Error(err))
	}

	attributeCache := services.NewAttributeCache(redisClient, attributeRepo)
	fileSource := services.NewFileSource(aws_pkg.NewS3Store(awsCfg), cfg.S3Bucket, cfg.UploadDir, logger.Log)

	var publisher services.CompletionPublisher
	if cfg.CompletionTopicARN != "" {
		publisher = aws_pkg.NewSNSClient(awsCfg)
	}

	importService := services.NewImportService(
		jobStore,
		productRepo,
		supplierRepo,
		historyRepo,
		attributeCache,
		fileSource,
		publisher,
		services.ImportConfig{
			ChunkSize:        cfg.ChunkSize,
			HighWaterBytes:   uint64(cfg.MemoryHighWaterMB) << 20,
			LowWaterBytes:    uint64(cfg.MemoryLowWaterMB) << 20,
			TransformWorkers: cfg.TransformWorkers,
			CompletionTopic:  cfg.CompletionTopicARN,
		},
		logger.Log,
	)

	validator := controllers.NewRequestValidator()
	importController := controllers.NewImportController(importService, historyRepo, validator, cfg.UploadDir)
	attributeController := controllers.NewAttributeController(attributeCache, validator)
	presignHandler := controllers.NewPresignedURLHandler(awsCfg, cfg.S3Bucket, validator)

	// Background worker consumes the job queue; the optional SQS intake
	// turns S3 upload notifications into queued jobs
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	worker := services.NewImportWorker(jobStore, importService, cfg.WorkerConcurrency, logger.Log)
	worker.Start(workerCtx)

	if cfg.SQSQueueURL != "" {
		consumer := aws_pkg.NewSQSConsumer(awsCfg, cfg.SQSQueueURL)
		intake := services.NewSQSIntake(importService, logger.Log)
		go func() {
			if err := consumer.StartPolling(workerCtx, intake.HandleMessage); err != nil && workerCtx.Err() == nil {
				zap.L().Error("SQS intake stopped", zap.Error(err))
			}
		}()
	}

	// --- 3. HTTP Server & Middleware ---

	metricsClient, err := aws_pkg.NewMetricsClient(context.Background())
	if err != nil {
		zap.L().Warn("Failed to initialize CloudWatch metrics", zap.Error(err))
	}

	r := gin.New()
	r.Use(gin.Recovery()) // Recover from panics

	// Add request timeout middleware
	r.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})

	r.Use(middleware.RequestLogger(logger.Log))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.MetricsMiddleware(metricsClient, serviceName))

	// CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.Use(middleware.RateLimitMiddleware())

	// --- 4. Route Registration ---

	routes.RegisterImportRoutes(r, importController, presignHandler)
	routes.RegisterAttributeRoutes(r, attributeController)
	routes.RegisterHealthRoute(r)

	// --- 5. Graceful Shutdown ---

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		zap.L().Info("Import Service starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.L().Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for an interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zap.L().Info("Shutting down Import Service...")

	// Create a context with a timeout to allow for cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("Server forced to shutdown", zap.Error(err))
	}

	// Stop the queue loops; an in-flight job aborts at its next
	// cancellation check
	stopWorkers()
	worker.Wait()

	// Close datastore connections
	if err := redisClient.Close(); err != nil {
		zap.L().Error("Failed to close Redis", zap.Error(err))
	}
	if err := database.Close(); err != nil {
		zap.L().Error("Failed to close MongoDB", zap.Error(err))
	}

	zap.L().Info("Import Service stopped gracefully")
}

// allowedOrigins reads the CORS allowlist from ALLOWED_ORIGINS
// (comma-separated), defaulting to the local dashboard dev servers.
func allowedOrigins() []string {
	env := os.Getenv("ALLOWED_ORIGINS")
	if env == "" {
		return []string{"http://localhost:3000", "http://localhost:5173"}
	}
	parts := strings.Split(env, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
