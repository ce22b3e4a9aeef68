package main

import (
	"log"
	"time"

	"github.com/fachrudin/misteri-backend/config"
	"github.com/fachrudin/misteri-backend/database"
	"github.com/fachrudin/misteri-backend/handlers"
	"github.com/fachrudin/misteri-backend/jobs"
	"github.com/fachrudin/misteri-backend/services"
	"github.com/fachrudin/misteri-backend/shared"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load config
	cfg := config.LoadConfig()

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	}

	// Connect to database
	if err := database.Connect(cfg.DatabaseURL); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	// Run migrations
	if err := database.Migrate("database/schema.sql"); err != nil {
		log.Printf("Migration warning: %v", err)
	}

	// Initialize services
	httpFactory := shared.NewHTTPClientFactory(cfg.GetGeminiTimeout())
	defer httpFactory.CleanupAllClients()

	metrics := shared.NewResolverMetrics()

	geminiService := services.NewGeminiService(cfg, httpFactory)
	readingStore := services.NewPostgresReadingStore(database.DB)
	resolver := services.NewResolver(readingStore, geminiService, metrics)

	dreamStore := services.NewPostgresDreamStore(database.DB)
	dreamService := services.NewDreamService(dreamStore, geminiService, metrics)

	commentService := services.NewCommentService(database.DB)

	// Initialize jobs
	retentionJob := jobs.NewCacheRetentionJob(database.DB, cfg.GetCacheRetention())

	// Initialize handlers
	readingHandler := handlers.NewReadingHandler(resolver, readingStore)
	dreamHandler := handlers.NewDreamHandler(dreamService)
	commentHandler := handlers.NewCommentHandler(commentService)
	generateHandler := handlers.NewGenerateHandler(geminiService)
	metricsHandler := handlers.NewMetricsHandler(metrics)

	// Start background jobs
	go func() {
		retentionTicker := time.NewTicker(24 * time.Hour)
		for range retentionTicker.C {
			retentionJob.Run()
		}
	}()

	// Setup Fiber
	app := fiber.New()

	// Middleware
	app.Use(logger.New())
	app.Use(cors.New())

	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		status := "ok"
		if err := database.HealthCheck(); err != nil {
			status = "degraded"
		}
		return c.JSON(fiber.Map{
			"status":    status,
			"timestamp": time.Now().Unix(),
		})
	})

	// Routes
	api := app.Group("/api/v1")

	// Reading Routes
	api.Get("/readings/:type", readingHandler.GetReading)
	api.Get("/cache/:type", readingHandler.GetCached)
	api.Post("/cache/:type", readingHandler.SaveCached)

	// Dream Routes
	api.Get("/search", dreamHandler.Search)
	api.Get("/mimpi/trending", dreamHandler.Trending)
	api.Post("/mimpi/resolve", dreamHandler.Resolve)
	api.Post("/save-mimpi", dreamHandler.Save)

	// Comment Routes
	api.Get("/comments", commentHandler.GetComments)
	api.Post("/comments", commentHandler.SaveComment)

	// Generation Route
	api.Post("/generate", generateHandler.Generate)

	// Metrics Route
	api.Get("/metrics", metricsHandler.GetMetrics)

	// Start server
	log.Printf("Server starting on port %s", cfg.ServerPort)
	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
