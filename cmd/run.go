package cmd

import (
	"context"
	"fmt"
	"time"

	"matchmaker/application"
	"matchmaker/bot"
	"matchmaker/config"
	"matchmaker/database"
	"matchmaker/domain/services"
	"matchmaker/infrastructure"
	"matchmaker/infrastructure/observability"

	log "github.com/sirupsen/logrus"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	cfg := config.Get()
	configureLogging(cfg)

	log.WithField("environment", cfg.Environment).Info("Starting matchmaker bot...")

	// Initialize database connection
	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := database.RunMigrationsWithURL(cfg.GetDatabaseURL()); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("Database ready")

	// Initialize metrics
	if err := observability.InitializeGlobalMetrics(ctx, cfg); err != nil {
		log.Warnf("Failed to initialize metrics, continuing without them: %v", err)
	}
	metrics := observability.GetMetrics()

	// Initialize NATS; without servers events stay in process
	var natsClient *infrastructure.NATSClient
	if cfg.NATSServers != "" {
		log.Infof("Connecting to NATS at %s...", cfg.NATSServers)
		natsClient = infrastructure.NewNATSClient(cfg.NATSServers)
		if err := natsClient.Connect(ctx); err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		defer natsClient.Close()
	} else {
		log.Info("NATS_SERVERS not set, domain events stay in process")
	}

	eventPublisher := infrastructure.NewNATSEventPublisher(natsClient, infrastructure.NewEventSubjectMapper())
	if metrics != nil {
		eventPublisher.SetPublishRecorder(metrics)
	}
	if err := eventPublisher.EnsureDomainEventStream(); err != nil {
		return fmt.Errorf("failed to ensure domain event stream: %w", err)
	}

	uowFactory := infrastructure.NewUnitOfWorkFactory(db, eventPublisher)

	// Initialize Discord bot
	log.Info("Initializing Discord bot...")
	botConfig := bot.Config{
		Token:          cfg.DiscordToken,
		GuildID:        cfg.GuildID,
		DebugAPIPort:   cfg.DebugAPIPort,
		StaleVoteGrace: cfg.StaleVoteGrace,
		Orchestrator: services.OrchestratorConfig{
			VoteDuration:      cfg.VoteDuration,
			PickTimeout:       cfg.PickTimeout,
			ResultPromptDelay: cfg.ResultPromptDelay,
			AbortCleanupDelay: cfg.AbortCleanupDelay,
			MapPool:           cfg.MapPool,
		},
	}
	discordBot, err := bot.New(botConfig, uowFactory, services.DefaultTierTable(), services.NewRandomizer(), metrics)
	if err != nil {
		return fmt.Errorf("failed to initialize Discord bot: %w", err)
	}

	var resultMetrics application.ResultMetrics
	if metrics != nil {
		resultMetrics = metrics
	}
	handler := application.NewMatchEventHandler(discordBot.Orchestrator(), discordBot.Transport(), discordBot.ResultPoster(), resultMetrics)
	application.RegisterApplicationSubscriptions(uowFactory, handler)
	log.Info("Discord bot initialized successfully")

	// Wait for context cancellation
	log.Infof("Bot is running in %s mode...", cfg.Environment)
	<-ctx.Done()

	log.Info("Shutting down bot...")
	if err := discordBot.Close(); err != nil {
		log.Errorf("Error closing Discord bot: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := observability.ShutdownGlobalMetrics(shutdownCtx); err != nil {
		log.Errorf("Error shutting down metrics: %v", err)
	}

	log.Info("Shutdown completed")
	return nil
}

func configureLogging(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warnf("Unknown LOG_LEVEL %q, using info", cfg.LogLevel)
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Environment == "production" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}
