package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"alfredoptarigan/interview-coach/internal/config"
	"alfredoptarigan/interview-coach/internal/handlers"
	"alfredoptarigan/interview-coach/internal/logger"
	"alfredoptarigan/interview-coach/internal/repositories"
	"alfredoptarigan/interview-coach/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()

	zl, err := logger.New(cfg.Log.JSON, cfg.Log.Debug)
	if err != nil {
		log.Fatalf("❌ Failed to initialize logger: %v", err)
	}
	defer zl.Sync()

	if err := cfg.Validate(); err != nil {
		zl.Fatal("❌ Invalid configuration", zap.Error(err))
	}
	zl.Info("✅ Config loaded successfully")

	ctx := context.Background()

	// Initialize store
	store, closeStore, err := config.OpenStore(cfg, zl)
	if err != nil {
		zl.Fatal("❌ Failed to initialize store", zap.Error(err))
	}
	defer closeStore()

	analyses := repositories.NewAnalysisRepository(store)
	interviews := repositories.NewInterviewRepository(store)
	zl.Info("✅ Repositories initialized successfully")

	// Initialize Gemini AI
	gemini, err := services.NewGeminiService(ctx, cfg.Gemini.APIKey, services.GeminiOptions{
		Model:      cfg.Gemini.Model,
		EmbedModel: cfg.Gemini.EmbedModel,
		MaxRetries: cfg.Gemini.MaxRetries,
	}, zl)
	if err != nil {
		zl.Fatal("❌ Failed to initialize Gemini AI", zap.Error(err))
	}
	zl.Info("✅ Gemini AI initialized successfully", zap.String("model", gemini.Model()))

	// Qdrant is optional; without it answer comparison embeds stored answers.
	var answerIndex services.AnswerIndex
	if cfg.Qdrant.URL != "" {
		index, err := services.NewQdrantAnswerIndex(cfg.Qdrant.URL, cfg.Qdrant.APIKey, cfg.Qdrant.Collection, cfg.Qdrant.VectorSize, zl)
		if err != nil {
			zl.Fatal("❌ Failed to initialize Qdrant", zap.Error(err))
		}
		if err := index.InitCollection(ctx); err != nil {
			zl.Fatal("❌ Failed to initialize Qdrant collection", zap.Error(err))
		}
		answerIndex = index
		zl.Info("✅ Qdrant initialized successfully")
	}

	objects, err := services.NewFileStore(cfg.Storage.UploadPath)
	if err != nil {
		zl.Fatal("❌ Failed to create upload directory", zap.Error(err))
	}

	var structured services.StructuredGenerator
	if cfg.Gemini.StructuredOutput {
		structured = gemini
	}

	analyticsPolicy := services.MissingScorePolicy(cfg.Analytics.MissingScores)
	analyticsService, err := services.NewAnalyticsService(analyses, analyticsPolicy, cfg.Analytics.Limit, zl)
	if err != nil {
		zl.Fatal("❌ Failed to initialize analytics", zap.Error(err))
	}

	similarity := services.NewSimilarityScorer(gemini)
	feedbackService := services.NewFeedbackService(gemini, similarity, analyses, zl)
	questionService := services.NewQuestionService(gemini, analyses, interviews, zl)
	coach := services.NewAnswerCoach(gemini, structured, zl)
	interviewService := services.NewInterviewService(interviews, analyses, questionService, coach, zl)
	idealAnswerService := services.NewIdealAnswerService(gemini, gemini, answerIndex, interviewService, interviews, analyses, zl)
	resumeService := services.NewResumeService(objects, services.NewPDFParserService(), cfg.Storage.MaxFileSize, zl)
	speechClient := services.NewSpeechClient(cfg.Speech.URL, cfg.Speech.Timeout, zl)
	zl.Info("✅ Services initialized successfully")

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "AI Interview Coach API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		BodyLimit:    int(cfg.Storage.MaxFileSize) + 1<<20,
		ErrorHandler: customErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, " + handlers.HeaderUserID + ", " + handlers.HeaderUserEmail + ", " + handlers.HeaderGatewayToken,
	}))

	// Routes
	handlers.Register(app.Group("/api/v1"), handlers.Handlers{
		Auth:      handlers.NewGatewayAuthenticator(cfg.Auth.GatewayToken),
		Feedback:  handlers.NewFeedbackHandler(feedbackService, analyticsService, zl),
		Question:  handlers.NewQuestionHandler(questionService, idealAnswerService, zl),
		Interview: handlers.NewInterviewHandler(interviewService, zl),
		Result:    handlers.NewResultHandler(interviewService, zl),
		Upload:    handlers.NewUploadHandler(resumeService, speechClient, cfg.Storage.MaxFileSize, zl),
	})

	// Root route
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "AI Interview Coach API",
			"version": "1.0.0",
			"endpoints": []string{
				"POST /api/v1/upload-resume",
				"POST /api/v1/feedback",
				"GET /api/v1/feedback-history",
				"GET /api/v1/analytics",
				"GET /api/v1/questions",
				"POST /api/v1/interview-config",
				"GET /api/v1/interviews",
				"GET /api/v1/interview-questions",
				"POST /api/v1/interview-status",
				"POST /api/v1/interview-answer",
				"POST /api/v1/interview-feedback",
				"GET /api/v1/interview-results",
				"GET /api/v1/ideal-answers",
				"POST /api/v1/answer-comparison",
				"POST /api/v1/speech-to-text",
			},
		})
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		zl.Info("🛑 Shutting down server...")
		if err := app.Shutdown(); err != nil {
			zl.Error("❌ Server forced to shutdown", zap.Error(err))
		}
	}()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	zl.Info("🚀 Server starting", zap.String("addr", addr))

	if err := app.Listen(addr); err != nil {
		zl.Error("❌ Failed to start server", zap.Error(err))
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	message := "Internal server error"
	if code != fiber.StatusInternalServerError {
		message = err.Error()
	}

	return c.Status(code).JSON(fiber.Map{
		"error": message,
		"code":  code,
	})
}
