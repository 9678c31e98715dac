package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	api "medbs-backend/cmd/api"
	adherenceRepo "medbs-backend/internal/adherence/repository"
	"medbs-backend/internal/adherence/scheduler"
	adherenceUsecase "medbs-backend/internal/adherence/usecase"
	authRepo "medbs-backend/internal/auth/repository"
	authUsecase "medbs-backend/internal/auth/usecase"
	medicineRepo "medbs-backend/internal/medicine/repository"
	"medbs-backend/internal/notification"
	"medbs-backend/pkg/config"
	"medbs-backend/pkg/database"
	"medbs-backend/pkg/fcm"
	"medbs-backend/pkg/logger"
	"medbs-backend/pkg/mailer"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg := config.Load()

	zlog, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatal("Failed to build logger:", err)
	}
	defer func() { _ = zlog.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		zlog.Fatal("connect database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		zlog.Fatal("migrate database", zap.Error(err))
	}

	// Initialize repositories (dependency injection)
	userRepo := authRepo.NewUserRepository(db)
	fcmTokenRepo := authRepo.NewFCMTokenRepository(db)
	medicineRepository := medicineRepo.NewMedicineRepository(db)
	occurrenceRepo := adherenceRepo.NewGormOccurrenceRepository(db)

	// Push is optional; the dispatcher skips reminders without a sender.
	var push notification.PushSender
	if cfg.FirebaseCredentials != "" {
		fcmClient, err := fcm.NewClient(ctx, cfg.FirebaseCredentials, zlog)
		if err != nil {
			zlog.Warn("push notifications disabled", zap.Error(err))
		} else {
			push = fcmClient
		}
	} else {
		zlog.Warn("FIREBASE_CREDENTIALS not set, push notifications disabled")
	}

	smtpMailer := mailer.New(mailer.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})
	if !smtpMailer.Configured() {
		zlog.Warn("SMTP not configured, caregiver alerts disabled")
	}

	loc := cfg.Location()

	dispatcher := notification.NewDispatcher(userRepo, fcmTokenRepo, push, smtpMailer, zlog, notification.Options{
		Workers:   cfg.NotifyWorkers,
		QueueSize: cfg.NotifyQueueSize,
		Timeout:   cfg.NotifyTimeout,
	})
	dispatcher.Start()

	engine := scheduler.NewEngine(medicineRepository, occurrenceRepo, dispatcher, zlog, scheduler.Options{
		MatchInterval:         cfg.MatchInterval,
		SweepInterval:         cfg.SweepInterval,
		GracePeriod:           cfg.GracePeriod,
		Location:              loc,
		ReleaseExpiredSnoozes: cfg.SnoozeAutoRelease,
	})
	engine.Start(ctx)

	// Initialize use cases (dependency injection)
	authUsecaseInstance := authUsecase.NewAuthUsecase(userRepo, fcmTokenRepo, cfg.JWTSecret)
	adherenceUsecaseInstance := adherenceUsecase.NewAdherenceUsecase(occurrenceRepo, medicineRepository, zlog, loc, nil)

	// Initialize HTTP handler
	gin.SetMode(gin.ReleaseMode)
	handler := api.NewHandler(authUsecaseInstance, adherenceUsecaseInstance, zlog)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		zlog.Info("server starting", zap.String("port", cfg.Port), zap.String("timezone", loc.String()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Error("server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	zlog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("server shutdown", zap.Error(err))
	}

	// Stop producing before draining the queue.
	engine.Stop()
	dispatcher.Stop()
}
