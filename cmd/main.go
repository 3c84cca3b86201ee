package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/opscheck/internal/api"
	"github.com/opscheck/internal/auth"
	"github.com/opscheck/internal/config"
	"github.com/opscheck/internal/database"
	"github.com/opscheck/internal/ledger"
	"github.com/opscheck/internal/maintenance"
	"github.com/opscheck/internal/notify"
	"github.com/opscheck/internal/report"
	"github.com/opscheck/internal/telemetry"
)

func main() {
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

	// Initialize configuration
	cfg := config.LoadConfig()

	// Initialize database
	if err := database.Initialize(cfg.Database.Path); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer database.Close()

	db := database.GetDB()

	auth.Configure(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLHours)*time.Hour)

	// Ledger manager over the tabular store
	store := ledger.NewStore(db)
	manager := ledger.NewManager(store, ledger.SystemClock{})

	// Make sure today's ledger exists before the first submission.
	if _, err := manager.EnsureLedger(manager.CurrentKey()); err != nil {
		log.Fatal().Err(err).Msg("failed to create today's ledger")
	}

	// Day rollover watcher
	watcher := ledger.NewWatcher(manager, time.Duration(cfg.Rollover.IntervalSeconds)*time.Second)
	watcher.Start()
	defer watcher.Stop()
	go func() {
		for key := range watcher.C {
			log.Info().Str("key", key).Msg("new day has begun")
		}
	}()

	aggregator := report.NewAggregator(store)
	maintenanceSvc := maintenance.NewService(db)

	telemetryClient := telemetry.NewClient(telemetry.Config{
		URL:         cfg.Telemetry.URL,
		Username:    cfg.Telemetry.Username,
		Password:    cfg.Telemetry.Password,
		Host:        cfg.Telemetry.Host,
		TempKey:     cfg.Telemetry.TempKey,
		HumidityKey: cfg.Telemetry.HumidityKey,
		Timeout:     time.Duration(cfg.Telemetry.TimeoutSeconds) * time.Second,
		Thresholds: telemetry.Thresholds{
			TempCeiling: cfg.Telemetry.TempCeiling,
			HumidityMin: cfg.Telemetry.HumidityMin,
			HumidityMax: cfg.Telemetry.HumidityMax,
		},
	})

	emailSender := notify.NewEmailSender(notify.EmailConfig{
		SMTPHost: cfg.Email.SMTPHost,
		SMTPPort: cfg.Email.SMTPPort,
		From:     cfg.Email.From,
		Password: cfg.Email.Password,
	})
	slackNotifier := notify.NewSlackNotifier(cfg.Slack.Token, cfg.Slack.Channel)

	// Initialize and start API server
	server := api.NewServer(manager, aggregator, maintenanceSvc, telemetryClient,
		emailSender, slackNotifier, cfg.Checks)
	if err := server.Start(cfg.Server.Port); err != nil {
		log.Fatal().Err(err).Msg("failed to start server")
	}
}
