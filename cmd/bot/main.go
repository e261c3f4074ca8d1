package main

import (
	"context"
	"os/signal"
	"syscall"

	"school_reminder_bot/internal/app"
	"school_reminder_bot/internal/domain/notification"
	"school_reminder_bot/internal/infra/config"
	idb "school_reminder_bot/internal/infra/database"
	"school_reminder_bot/internal/infra/ledger"
	"school_reminder_bot/internal/infra/logger"
	"school_reminder_bot/internal/infra/scheduler"
	"school_reminder_bot/internal/infra/telegram"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("FATAL: Could not load application configuration: %v", err)
	}
	logger.Init(cfg)
	mainLogger := logger.Component("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize Database Connection
	db, err := idb.NewPostgresConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not connect to database")
	}
	defer db.Close()
	mainLogger.Info("Database connection established successfully.")

	// Initialize Repositories
	recordRepo := idb.NewPostgresRecordRepository(db)
	staffRepo := idb.NewPostgresStaffRepository(db)

	policies := ledger.DefaultPolicies()
	policies[notification.StreamAttendanceReminder] = ledger.Policy{Threshold: cfg.LedgerPruneThreshold}
	dedup := ledger.New(ledger.Options{
		RetentionDays: cfg.LedgerRetentionDays,
		Location:      cfg.Location,
		Policies:      policies,
	})

	// Initialize Telegram Bot. It only sends; no updates are polled.
	bot, err := telebot.NewBot(telebot.Settings{
		Token: cfg.TelegramToken,
		OnError: func(err error, c telebot.Context) { // Global error handler
			logger.Component("telebot").WithError(err).Error("Telegram error")
		},
	})
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not create Telegram bot")
	}
	dispatcher := telegram.NewDispatcher(telegram.NewTelebotAdapter(bot), cfg.DispatchRatePerSec, logger.Component("dispatcher"))

	// Initialize stream evaluators and the notification service
	evalLogger := logger.Component("evaluator")
	eligibility := app.NewEligibilityEvaluator(recordRepo, cfg.LookupTimeout, cfg.LookupConcurrency, evalLogger)
	notificationService := app.NewNotificationServiceImpl(
		dedup,
		dispatcher,
		logger.Component("notification_service"),
		app.NewAttendanceReminders(recordRepo, staffRepo, eligibility, cfg.LookupTimeout, evalLogger),
		app.NewPaymentReminders(recordRepo, staffRepo, cfg.LookupTimeout, evalLogger),
		app.NewAbsenceAlerts(recordRepo, staffRepo, cfg.LookupTimeout, evalLogger),
		app.NewBacklogReminders(recordRepo, staffRepo, cfg.LookupTimeout, evalLogger),
	)

	// Initialize NotificationScheduler
	notifScheduler := scheduler.NewNotificationScheduler(notificationService, logger.Component("scheduler"), scheduler.Options{
		Location:     cfg.Location,
		PollInterval: cfg.PollInterval,
		Triggers:     cfg.Triggers,
	})
	if err := notifScheduler.Start(); err != nil {
		mainLogger.WithError(err).Fatal("Could not start notification scheduler")
	}

	mainLogger.WithFields(logrus.Fields{
		"environment": cfg.Environment,
		"bot":         bot.Me.Username,
	}).Info("Application setup complete. Scheduler is running.")

	<-ctx.Done() // Block until a signal is received

	mainLogger.Info("Shutting down application...")
	notifScheduler.Stop()
	mainLogger.Info("Application shut down gracefully.")
}
