package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"fintrack/internal/amqp"
	"fintrack/internal/config"
	"fintrack/internal/export/sheets"
	"fintrack/internal/ledger"
	applog "fintrack/internal/log"
	"fintrack/internal/notify"
	"fintrack/internal/service"
	"fintrack/internal/storage"
	"fintrack/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentWorker)
	applog.SetDefault(logger)

	logger.Info("Starting fintrack-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	if err := storage.RunMigrations(cfg.SQLiteDBPath); err != nil {
		logger.Error("Failed to run migrations", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	svc, err := service.NewLedgerService(repo, nil, cfg.BudgetAlertPreset)
	if err != nil {
		logger.Error("Failed to initialize ledger service", "error", err)
		os.Exit(1)
	}

	// Mail and sheets export are optional side effects.
	var mailer worker.AlertSender
	if cfg.SMTPEnabled() {
		mailer = notify.NewMailer(cfg)
		logger.Info("SMTP notifications enabled", "host", cfg.SMTPHost)
	} else {
		logger.Info("SMTP notifications disabled - no SMTP_HOST provided")
	}

	var exporter worker.TransactionExporter
	if cfg.SheetsEnabled() {
		exp, err := sheets.New(context.Background(), cfg)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets exporter", "error", err)
			os.Exit(1)
		}
		exporter = exp
		logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets export disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	preset, _ := ledger.PresetByName(cfg.BudgetAlertPreset)
	w := worker.New(repo, svc, mailer, exporter, preset)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Consume ledger events, reconnecting on broker failures.
	go func() {
		if err := amqp.ConsumeWithReconnect(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, w.HandleLedgerEvent); err != nil {
			if err != context.Canceled {
				logger.Error("Event consumption failed", "error", err)
			}
			cancel()
		}
	}()

	// Monthly report schedule.
	var scheduler *cron.Cron
	if mailer != nil {
		scheduler = cron.New()
		_, err := scheduler.AddFunc(cfg.MonthlyReportCron, func() {
			jobCtx, jobCancel := context.WithTimeout(ctx, 10*time.Minute)
			defer jobCancel()
			if err := w.RunMonthlyReports(jobCtx, time.Now()); err != nil {
				logger.Error("Monthly report run failed", "error", err)
			}
		})
		if err != nil {
			logger.Error("Invalid monthly report schedule", "error", err, "cron", cfg.MonthlyReportCron)
			os.Exit(1)
		}
		scheduler.Start()
		logger.Info("Monthly report schedule active", "cron", cfg.MonthlyReportCron)
	} else {
		logger.Info("Monthly reports disabled - mailer not configured")
	}

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
	}

	if scheduler != nil {
		<-scheduler.Stop().Done()
	}
	cancel()
	logger.Info("Worker stopped gracefully")
}
