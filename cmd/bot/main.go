package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go2office/internal/config"
	"go2office/internal/handler"
	"go2office/internal/jobs"
	"go2office/internal/logging"
	"go2office/internal/presence"
	"go2office/internal/repository"
	"go2office/internal/service"
	"go2office/pkg/telegram"

	"github.com/sirupsen/logrus"
)

func main() {
	logrus.Info("Initializing config...")
	cfg := config.GetBotConfig()

	if err := logging.Setup(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile}); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}
	defer logging.Close()
	logrus.Info("Config initialized...")

	db, err := repository.Open(cfg.DatabaseURL)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}

	userRepo, err := repository.NewGormUserRepository(db)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create user repository")
	}
	sessionRepo, err := repository.NewGormOfficeSessionRepository(db)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create office session repository")
	}
	entryRepo, err := repository.NewGormDailyEntryRepository(db)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create daily entry repository")
	}
	holidayRepo, err := repository.NewGormHolidayRepository(db)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create holiday repository")
	}
	settingsRepo, err := repository.NewGormOfficeSettingsRepository(db)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create office settings repository")
	}
	statRepo, err := repository.NewGormMonthlyStatRepository(db)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create monthly stat repository")
	}

	userService := service.NewUserService(userRepo)
	settingsService := service.NewSettingsService(settingsRepo)
	holidayService := service.NewHolidayService(holidayRepo)
	progressService := service.NewProgressService(settingsRepo, holidayRepo, entryRepo, statRepo)
	attendanceService := service.NewAttendanceService(sessionRepo, entryRepo, userRepo, cfg.Location)

	if err := userService.InitializeAdmin(cfg.BaseAdminChatID); err != nil {
		logrus.WithError(err).Warn("Failed to initialize admin")
	} else if cfg.BaseAdminChatID != 0 {
		logrus.Infof("Admin initialized with chat ID: %d", cfg.BaseAdminChatID)
	}

	if cfg.HolidaysFile != "" {
		if n, err := holidayService.LoadPublicCalendar(cfg.HolidaysFile); err != nil {
			logrus.WithError(err).WithField("file", cfg.HolidaysFile).Warn("Failed to load public holidays")
		} else {
			logrus.Infof("Loaded %d public holidays", n)
		}
	}

	geofence := presence.Geofence{
		Latitude:     cfg.OfficeLatitude,
		Longitude:    cfg.OfficeLongitude,
		RadiusMeters: cfg.OfficeRadiusMeters,
	}
	if err := geofence.Validate(); err != nil {
		logrus.WithError(err).Fatal("Invalid office geofence")
	}

	manager := presence.NewManager(presence.Config{
		Filter: presence.FilterConfig{
			Geofence:          geofence,
			MaxAccuracyMeters: cfg.MaxFixAccuracyMeters,
			EnterDwell:        cfg.EnterDwell,
			ExitDwell:         cfg.ExitDwell,
		},
		MaxSessionDuration: cfg.MaxSessionDuration,
		QueueSize:          cfg.PipelineQueueSize,
	}, attendanceService, sessionRepo, logging.New())

	client, err := telegram.NewClient(cfg.TelegramToken, cfg.Debug)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create Telegram client")
	}
	logrus.Infof("Authorized on account %s", client.Bot.Self.UserName)

	botHandler := handler.NewHandler(
		client,
		userService,
		settingsService,
		attendanceService,
		progressService,
		holidayService,
		manager,
		cfg,
	)
	attendanceService.SetAnomalyNotifier(botHandler.NotifyAnomaly)

	// sessions left open by a previous run are resumed so the stale guard sees them
	openSessions, err := sessionRepo.ListOpen()
	if err != nil {
		logrus.WithError(err).Warn("Failed to list open office sessions")
	}
	for _, s := range openSessions {
		if err := manager.Resume(s.UserID); err != nil {
			logrus.WithError(err).WithField("user_id", s.UserID).Warn("Failed to resume office session")
		}
	}

	scheduler := jobs.NewScheduler(cfg.Location)
	if err := scheduler.AddNightlyRecompute(cfg.RecomputeSchedule, attendanceService); err != nil {
		logrus.WithError(err).Fatal("Invalid RECOMPUTE_SCHEDULE")
	}
	scheduler.AddStaleSweep(cfg.StaleSweepInterval, manager)
	scheduler.Start()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	updates := client.Updates()
	go botHandler.HandleUpdates(ctx, updates)

	logrus.Info("Bot started. Press Ctrl+C to stop.")
	<-ctx.Done()

	client.Stop()

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	scheduler.Stop(stopCtx)
	manager.Shutdown()

	if err := repository.Close(db); err != nil {
		logrus.WithError(err).Warn("Error closing database")
	}

	logrus.Info("Bot stopped gracefully")
}
