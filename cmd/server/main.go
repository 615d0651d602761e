package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lumilearn/tutor-backend/internal/config"
	"github.com/lumilearn/tutor-backend/internal/curriculum"
	"github.com/lumilearn/tutor-backend/internal/database"
	"github.com/lumilearn/tutor-backend/internal/handler"
	"github.com/lumilearn/tutor-backend/internal/llm"
	"github.com/lumilearn/tutor-backend/internal/logger"
	"github.com/lumilearn/tutor-backend/internal/oracle"
	"github.com/lumilearn/tutor-backend/internal/repository"
	"github.com/lumilearn/tutor-backend/internal/router"
	"github.com/lumilearn/tutor-backend/internal/service"
	"github.com/lumilearn/tutor-backend/internal/validator"
	"github.com/lumilearn/tutor-backend/internal/worker"
)

func main() {
	cfg := config.Load()

	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting LumiLearn Tutor Backend")

	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Curriculum loads before anything network-facing: a bad topic file
	// must stop the boot, not surface mid-lesson.
	library, err := curriculum.LoadDir(cfg.CurriculumDir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", cfg.CurriculumDir).Msg("Failed to load curriculum")
	}
	log.Info().Strs("topics", library.Topics()).Msg("Curriculum loaded")

	if cfg.GeminiAPIKey == "" {
		log.Fatal().Msg("GEMINI_API_KEY is required; there is no offline evaluation fallback")
	}
	provider, err := llm.NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Gemini provider")
	}
	log.Info().Str("model", provider.ModelID()).Msg("Evaluation provider ready")
	judge := oracle.New(provider)

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	studentRepo := repository.NewStudentRepository(pool)
	progressRepo := repository.NewProgressRepository(pool)
	turnRepo := repository.NewTurnRepository(pool)

	authService := service.NewAuthService(cfg, rdb)
	studentService := service.NewStudentService(studentRepo, authService)
	tutorService := service.NewTutorService(
		library, judge, judge, cfg.MaxSectionAttempts,
		pool, rdb, progressRepo, turnRepo, log,
	)
	progressService := service.NewProgressService(library, progressRepo)

	handlers := &router.Handlers{
		Auth:     handler.NewAuthHandler(authService, studentService),
		Tutor:    handler.NewTutorHandler(tutorService),
		Content:  handler.NewContentHandler(tutorService),
		Progress: handler.NewProgressHandler(progressService),
	}

	// Single persist consumer keeps each student's outcomes ordered.
	workerCtx, workerCancel := context.WithCancel(context.Background())
	turnWorker := worker.NewTurnWorker(pool, rdb, progressRepo, turnRepo, log)
	go turnWorker.Start(workerCtx)

	r := router.SetupRouter(authService, handlers, cfg)

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop the worker and wait for the queue to drain.
	workerCancel()
	time.Sleep(2 * time.Second)

	log.Info().Msg("Shutdown complete")
}
