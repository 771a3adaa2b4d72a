package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"class_schedule_bot/internal/app"
	"class_schedule_bot/internal/domain/notification"
	"class_schedule_bot/internal/infra/clock"
	"class_schedule_bot/internal/infra/config"
	"class_schedule_bot/internal/infra/console"
	"class_schedule_bot/internal/infra/email"
	"class_schedule_bot/internal/infra/logger"
	"class_schedule_bot/internal/infra/scheduler"
	"class_schedule_bot/internal/infra/telegram"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

func main() {
	once := flag.Bool("once", false, "run one scheduling cycle, print the report and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("Could not load application configuration: %v", err)
	}
	logger.Init(cfg)
	mainLogger := logger.Component("main")

	classes, err := config.LoadClasses(cfg.ClassesFile)
	if err != nil {
		mainLogger.WithError(err).WithField("file", cfg.ClassesFile).Fatal("Could not load class configuration")
	}
	mainLogger.WithField("classes", classes.Catalog.Names()).Info("Class configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg, classes, mainLogger)
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not open store")
	}
	defer st.close()

	clk := clock.NewSystem(cfg.Location)

	channels := []notification.Channel{console.NewChannel(logger.Component("console"))}
	var bot *telebot.Bot
	if cfg.TelegramEnabled() {
		bot, err = newBot(cfg.TelegramToken)
		if err != nil {
			mainLogger.WithError(err).Fatal("Could not create Telegram bot")
		}
		channels = append(channels, telegram.NewChannel(telegram.NewTelebotAdapter(bot)))
	}
	if cfg.EmailEnabled() {
		channels = append(channels, email.NewChannel(cfg.SendGridAPIKey, cfg.EmailFromName, cfg.EmailFromAddress))
	}
	for _, ch := range channels {
		mainLogger.WithField("channel", ch.Kind()).Info("Reminder channel enabled")
	}

	batchService := app.NewBatchService(classes.Catalog, st.batches, logger.Log.WithField("service", "batch"))
	generator := app.NewSessionGenerator(
		classes.Catalog, st.batches, st.sessions, st.content, clk,
		app.GeneratorSettings{
			HorizonDays:      cfg.HorizonDays,
			ToppedUpSessions: cfg.ToppedUpSessions,
			MaxParallel:      cfg.MaxParallelBatches,
		},
		logger.Log.WithField("service", "sessions"),
	)
	reminders := app.NewReminderService(
		classes.Catalog, st.batches, st.sessions, st.records, clk,
		app.ReminderSettings{
			Offsets:        cfg.Offsets,
			Tolerance:      cfg.ReminderTolerance,
			ChannelTimeout: cfg.ChannelTimeout,
			RetryFailed:    cfg.RetryFailed,
			MaxParallel:    cfg.MaxParallelBatches,
		},
		logger.Log.WithField("service", "reminders"),
		channels...,
	)
	runner := app.NewCycleRunner(classes.Catalog, batchService, generator, reminders, clk, cfg.HorizonDays, logger.Log.WithField("service", "cycle"))

	if *once {
		report := runner.RunSchedulingCycle(context.Background())
		printReport(report)
		if report.Err() != nil {
			os.Exit(1)
		}
		return
	}

	cycleScheduler := scheduler.NewCycleScheduler(runner, cfg.Location, cfg.TriggerInterval, logger.Log.WithField("service", "trigger"))
	if err := cycleScheduler.Start(); err != nil {
		mainLogger.WithError(err).Fatal("Could not start cycle scheduler")
	}
	go runner.RunSchedulingCycle(context.Background())

	if bot != nil {
		sessionService := app.NewSessionService(st.sessions)
		accessService := app.NewAccessService(st.sessions, st.enrollments, st.content, app.NewAccessGate(classes.Catalog, cfg.FreePreviewAnon))
		adminService := app.NewAdminService(st.batches, st.sessions, st.enrollments, batchService, runner, clk, cfg.AdminTelegramID)

		botLogger := logger.Log.WithField("component", "telegram")
		telegram.RegisterAdminHandlers(ctx, bot, adminService, sessionService, cfg.AdminTelegramID, botLogger)
		telegram.RegisterBotCommands(ctx, bot, cfg.AdminTelegramID, accessService, sessionService, clk, botLogger)
		go bot.Start()
		mainLogger.Info("Telegram bot started")
	}

	mainLogger.Info("Application setup complete, waiting for shutdown signal")
	<-ctx.Done()

	mainLogger.Info("Shutting down application...")
	cycleScheduler.Stop()
	if bot != nil {
		bot.Stop()
	}
	mainLogger.Info("Application shut down gracefully")
}

func newBot(token string) (*telebot.Bot, error) {
	botLogger := logger.Component("telebot")
	return telebot.NewBot(telebot.Settings{
		Token:  token,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) { // Global error handler
			entry := botLogger.WithError(err)
			if c != nil && c.Sender() != nil && c.Chat() != nil {
				entry = entry.WithFields(logrus.Fields{
					"text":      c.Text(),
					"sender_id": c.Sender().ID,
					"chat_id":   c.Chat().ID,
				})
			}
			entry.Error("Telegram handler failed")
		},
	})
}

func printReport(r *app.CycleReport) {
	fmt.Printf("run:                  %s\n", r.RunID)
	fmt.Printf("duration:             %s\n", r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	fmt.Printf("batches created:      %d\n", r.BatchesCreated)
	fmt.Printf("sessions created:     %d\n", r.SessionsCreated)
	fmt.Printf("duplicates skipped:   %d\n", r.DuplicatesSkipped)
	fmt.Printf("notifications sent:   %d\n", r.NotificationsSent)
	fmt.Printf("notifications failed: %d\n", r.NotificationsFailed)
	for _, err := range r.Errors {
		fmt.Printf("error: %v\n", err)
	}
}
