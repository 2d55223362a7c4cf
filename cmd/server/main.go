package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/edulita/tryout-backend/internal/cache"
	"github.com/edulita/tryout-backend/internal/config"
	"github.com/edulita/tryout-backend/internal/database"
	"github.com/edulita/tryout-backend/internal/handler"
	"github.com/edulita/tryout-backend/internal/logger"
	"github.com/edulita/tryout-backend/internal/repository"
	"github.com/edulita/tryout-backend/internal/router"
	"github.com/edulita/tryout-backend/internal/service"
	"github.com/edulita/tryout-backend/internal/validator"
	"github.com/edulita/tryout-backend/internal/worker"
	"github.com/rs/zerolog"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting Tryout Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	userRepo := repository.NewUserRepository(pool)
	testRepo := repository.NewTestRepository(pool)
	attemptRepo := repository.NewAttemptRepository(pool)
	categoryRepo := repository.NewCategoryRepository(pool)
	answerRepo := repository.NewAnswerRepository(pool)
	historyRepo := repository.NewHistoryRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	invalidator := cache.NewInvalidator(rdb, log)

	authService := service.NewAuthService(cfg, rdb)
	sessionService := service.NewSessionService(pool, rdb, testRepo, attemptRepo, categoryRepo, answerRepo, invalidator, log)
	answerService := service.NewAnswerService(pool, attemptRepo, answerRepo, testRepo, sessionService, invalidator, log)
	historyService := service.NewHistoryService(cfg, rdb, historyRepo, categoryRepo, answerRepo, log)
	monitorService := service.NewMonitorService(testRepo, attemptRepo, historyRepo, sessionService, log)
	testService := service.NewTestService(testRepo, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:        handler.NewAuthHandler(authService, userRepo),
		Participant: handler.NewParticipantHandler(sessionService, answerService),
		History:     handler.NewHistoryHandler(historyService, answerService),
		Test:        handler.NewTestHandler(testService),
		Monitor:     handler.NewMonitorHandler(monitorService),
		WS:          handler.NewWSHandler(rdb, monitorService, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	invalidationWorker := worker.NewInvalidationWorker(rdb, log)
	leaderboardWorker := worker.NewLeaderboardWorker(cfg, rdb, log)

	go invalidationWorker.Start(workerCtx)
	go leaderboardWorker.Start(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
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

	// 2. Stop background workers and wait for queues to drain.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow workers to drain.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
