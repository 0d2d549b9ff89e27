package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"evaluation_notifier/internal/app"
	"evaluation_notifier/internal/infra/config"
	idb "evaluation_notifier/internal/infra/database"
	infraEmail "evaluation_notifier/internal/infra/email"
	"evaluation_notifier/internal/infra/httpapi"
	"evaluation_notifier/internal/infra/logger"
	"evaluation_notifier/internal/infra/scheduler"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("FATAL: Could not load application configuration: %v", err)
	}

	logger.Init(cfg)
	log := logger.Get()
	log.Infof("Configuration loaded. LogLevel: %s, Environment: %s", cfg.LogLevel, cfg.Environment)

	if cfg.Environment == "production" || cfg.Environment == "staging" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Database
	db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to database: %v", err)
	}
	defer db.Close()
	log.Info("Database connection established successfully")

	// Repositories
	evalRepo := idb.NewPostgresEvaluationRepository(db)
	dispatchRepo := idb.NewPostgresDispatchRepository(db)

	// Outbound email
	mailer := infraEmail.NewSMTPClient(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPSkipTLSVerify)

	// Services
	reminderService := app.NewReminderService(evalRepo, dispatchRepo, mailer, cfg.AppBaseURL, cfg.ResponseThreshold, log)
	evaluationService := app.NewEvaluationService(evalRepo, dispatchRepo, mailer, cfg.AppBaseURL, log)
	submissionService := app.NewSubmissionService(evalRepo, dispatchRepo, mailer, log)
	log.Info("Services initialized")

	// Scheduler
	reminderScheduler := scheduler.NewReminderScheduler(reminderService, log, cfg.CronSpecDailyRun)
	reminderScheduler.Start()

	// HTTP server
	router := httpapi.NewRouter(reminderService, evaluationService, submissionService, cfg.CronSecret, cfg.AppBaseURL, log)
	server := &http.Server{
		Addr:              cfg.HTTPListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Infof("HTTP server listening on %s", cfg.HTTPListenAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("FATAL: HTTP server error: %v", err)
		}
	}()

	log.Info("Application setup complete")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit // Block until a signal is received

	log.Info("Shutting down application...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("HTTP server shutdown error: %v", err)
	}
	reminderScheduler.Stop()
	// db.Close() is handled by defer
	log.Info("Application shut down gracefully")
}
