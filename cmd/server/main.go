package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/superALLEY/EduConnect-sub001/internal/app"
	"github.com/superALLEY/EduConnect-sub001/internal/config"
	"github.com/superALLEY/EduConnect-sub001/internal/controller/httpapi"
	"github.com/superALLEY/EduConnect-sub001/internal/render"
	"github.com/superALLEY/EduConnect-sub001/internal/repository"
	"github.com/superALLEY/EduConnect-sub001/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.GetDBDSN())
	if err != nil {
		logger.Fatal("Failed to create database pool", zap.Error(err))
	}
	defer pool.Close()

	migrator, err := app.NewMigrator(pool, cfg.MigrationsPath)
	if err != nil {
		logger.Fatal("Failed to create migrator", zap.Error(err))
	}
	if err := migrator.Run(ctx); err != nil {
		logger.Fatal("Failed to apply migrations", zap.Error(err))
	}
	version, _ := migrator.Version(ctx)
	migrator.Close()
	logger.Info("Migrations applied", zap.Int64("version", version))

	sessionRepo := repository.NewSessionRepository(pool, logger)
	userRepo := repository.NewUserRepository(pool)
	groupRepo := repository.NewGroupRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)
	entryRepo := repository.NewScheduleEntryRepository(pool)

	notifier := service.NewNotificationService(notificationRepo, logger)
	sessionSvc := service.NewSessionService(sessionRepo, userRepo, groupRepo, notifier, logger)
	enrollSvc := service.NewEnrollmentService(sessionRepo, userRepo, notifier, logger)
	scheduleSvc := service.NewScheduleService(sessionRepo, entryRepo, logger)

	renderer := render.NewWeekImage(cfg.FontPath)

	server := httpapi.NewServer(sessionSvc, enrollSvc, scheduleSvc, notifier, userRepo, renderer, logger)

	go func() {
		if err := server.Start(cfg.HTTPAddr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	logger.Info("Scheduling service started",
		zap.String("environment", cfg.Environment),
		zap.String("addr", cfg.HTTPAddr),
	)

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown failed", zap.Error(err))
		os.Exit(1)
	}
}
