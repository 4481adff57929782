package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DeviNivedithaD/ExamProtoringSystem/internal/config"
	"github.com/DeviNivedithaD/ExamProtoringSystem/internal/database"
	"github.com/DeviNivedithaD/ExamProtoringSystem/internal/handler"
	"github.com/DeviNivedithaD/ExamProtoringSystem/internal/hub"
	"github.com/DeviNivedithaD/ExamProtoringSystem/internal/logger"
	"github.com/DeviNivedithaD/ExamProtoringSystem/internal/repository"
	"github.com/DeviNivedithaD/ExamProtoringSystem/internal/router"
	"github.com/DeviNivedithaD/ExamProtoringSystem/internal/service"
	"github.com/DeviNivedithaD/ExamProtoringSystem/internal/validator"
	"github.com/DeviNivedithaD/ExamProtoringSystem/internal/worker"
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
		Msg("Starting Exam Proctoring Backend")

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
	studentRepo := repository.NewStudentRepository(pool)
	examRepo := repository.NewExamSessionRepository(pool)
	sessionRepo := repository.NewStudentSessionRepository(pool)
	violationRepo := repository.NewViolationRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	studentService := service.NewStudentService(studentRepo, log)
	examService := service.NewExamSessionService(examRepo, log)
	sessionService := service.NewSessionService(sessionRepo, studentRepo, examRepo, log)
	violationService := service.NewViolationService(violationRepo, sessionService, rdb, log)

	// ─── Start Broadcast Hub ──────────────────────────────────────────
	hubCtx, hubCancel := context.WithCancel(context.Background())
	broadcastHub := hub.New(cfg.PingInterval, log)
	go broadcastHub.Run(hubCtx)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:           handler.NewAuthHandler(),
		Student:        handler.NewStudentHandler(studentService, log),
		ExamSession:    handler.NewExamSessionHandler(examService, log),
		StudentSession: handler.NewStudentSessionHandler(sessionService, log),
		Violation:      handler.NewViolationHandler(violationService, broadcastHub, log),
		WS:             handler.NewWSHandler(broadcastHub, log, cfg.AllowedOrigins),
		Monitor:        handler.NewMonitorHandler(rdb, examService, sessionService, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	expiryWorker := worker.NewExamExpiryWorker(pool, log)
	go expiryWorker.Start(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(handlers, cfg)

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

	// 2. Close socket connections, then stop the expiry worker.
	hubCancel()
	workerCancel()
	time.Sleep(time.Second)

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
