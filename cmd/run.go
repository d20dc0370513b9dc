package cmd

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"cgbot/bot"
	"cgbot/bot/commands"
	"cgbot/bot/features/codingame"
	"cgbot/bot/features/general"
	"cgbot/bot/features/moderation"
	"cgbot/bot/features/module"
	"cgbot/bot/features/serverlog"
	cg "cgbot/codingame"
	"cgbot/config"
	"cgbot/database"
	"cgbot/docs"
	"cgbot/events"
	"cgbot/infrastructure"
	"cgbot/infrastructure/observability"
	"cgbot/repository"
)

const auditStream = "audit_events"

// Run initializes and starts the application
func Run(ctx context.Context) error {
	// Load configuration
	cfg := config.Get()
	configureLogging(cfg)
	log.WithField("environment", cfg.Environment).Info("Starting cgbot...")

	// Initialize metrics
	if err := observability.InitializeGlobalMetrics(ctx, cfg); err != nil {
		log.WithError(err).Warn("Failed to initialize metrics, continuing without them")
	}

	// Initialize database connection
	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("Database connection established successfully")

	eventBus := events.NewBus()
	if metrics := observability.GetMetrics(); metrics != nil {
		observability.AttachRecorder(eventBus, metrics)
	}

	// Initialize unit of work factory
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	// Forward events to NATS when configured
	natsClient, sink := connectNATS(ctx, cfg)
	infrastructure.NewEventBridge(sink).Attach(eventBus)

	// Initialize features
	codinGameClient := cg.NewClient(cfg.CodinGameBaseURL, nil)
	docsIndex := docs.NewIndex(cfg.DocsURL, nil)

	router := commands.NewRouter(cfg.Prefix,
		commands.WithEventPublisher(eventBus),
		commands.WithOwnerID(cfg.OwnerID),
	)
	codinGameFeature := codingame.NewFeature(codinGameClient)
	generalFeature := general.NewFeature(cfg.InvitePermissions)
	router.Register(router.HelpCommand())
	router.Register(codinGameFeature.Commands()...)
	router.Register(module.NewFeature(cfg.GitHubURL, cfg.PyPIURL, docsIndex).Commands()...)
	router.Register(generalFeature.Commands()...)
	router.Register(moderation.NewFeature(uowFactory, cfg.ModLogChannelID).Commands()...)

	serverLog := serverlog.NewFeature(cfg.GuildID, cfg.ServerLogChannelID, eventBus)

	// Initialize Discord bot
	log.Info("Initializing Discord bot...")
	botConfig := bot.Config{
		Token:   cfg.DiscordToken,
		GuildID: cfg.GuildID,
		OwnerID: cfg.OwnerID,
	}
	discordBot, err := bot.New(ctx, botConfig, router,
		[]bot.SlashCommand{codinGameFeature, generalFeature},
		[]bot.Listener{serverLog},
	)
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to initialize Discord bot: %w", err)
	}
	log.Info("Discord bot initialized successfully")

	// Wait for context cancellation
	log.Infof("Bot is running in %s mode...", cfg.Environment)
	<-ctx.Done()

	// Cleanup resources
	log.Info("Shutting down bot...")

	if err := discordBot.Close(); err != nil {
		log.WithError(err).Error("Error closing Discord bot")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if natsClient != nil {
		if err := natsClient.Close(); err != nil {
			log.WithError(err).Error("Error closing NATS connection")
		}
	}

	log.Info("Closing database connection...")
	db.Close()

	if err := observability.ShutdownGlobalMetrics(shutdownCtx); err != nil {
		log.WithError(err).Error("Error shutting down metrics")
	}

	log.Info("Shutdown completed")
	return nil
}

func configureLogging(cfg *config.Config) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("level", cfg.LogLevel).Warn("Unknown log level, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

// connectNATS returns the event sink to use. NATS failures fall back to a no-op sink.
func connectNATS(ctx context.Context, cfg *config.Config) (*infrastructure.NATSClient, infrastructure.EventSink) {
	if cfg.NATSServers == "" {
		log.Info("NATS_SERVERS not set, event forwarding disabled")
		return nil, infrastructure.NewNoopEventPublisher()
	}

	client := infrastructure.NewNATSClient(cfg.NATSServers)
	if err := client.Connect(ctx); err != nil {
		log.WithError(err).Error("Failed to connect to NATS, event forwarding disabled")
		return nil, infrastructure.NewNoopEventPublisher()
	}

	mapper := infrastructure.NewEventSubjectMapper()
	if err := client.EnsureStream(auditStream, mapper.GetAllSubjects()); err != nil {
		log.WithError(err).Warn("Failed to ensure NATS stream")
	}
	return client, infrastructure.NewNATSEventPublisher(client, mapper)
}
