package bot

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"matchmaker/application"
	"matchmaker/bot/common"
	"matchmaker/bot/features/admin"
	"matchmaker/bot/features/leaderboard"
	"matchmaker/bot/features/match"
	"matchmaker/bot/features/profile"
	"matchmaker/bot/features/queue"
	"matchmaker/domain/entities"
	"matchmaker/domain/events"
	"matchmaker/domain/services"
	"matchmaker/infrastructure/observability"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Config holds bot configuration
type Config struct {
	Token          string
	GuildID        string
	DebugAPIPort   int
	StaleVoteGrace time.Duration
	Orchestrator   services.OrchestratorConfig
}

// Bot manages the Discord session, the match lifecycle services and all feature modules
type Bot struct {
	// Core components
	config     Config
	session    *discordgo.Session
	uowFactory application.UnitOfWorkFactory
	metrics    *observability.MetricsProvider
	transport  *DiscordTransport

	// Match lifecycle
	queues       *services.QueueRegistry
	votes        *services.VoteCoordinator
	drafts       *services.TeamDraftEngine
	orchestrator *services.MatchOrchestrator

	// Feature modules
	queue       *queue.Feature
	match       *match.Feature
	profile     *profile.Feature
	leaderboard *leaderboard.Feature
	admin       *admin.Feature

	debugServer *http.Server
	stopWorkers func()
}

// New creates a new bot instance with all features and opens the gateway connection
func New(config Config, uowFactory application.UnitOfWorkFactory, tiers *services.TierTable, rng services.Randomizer, metrics *observability.MetricsProvider) (*Bot, error) {
	dg, err := discordgo.New("Bot " + config.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers | discordgo.IntentsGuildVoiceStates

	transport := NewDiscordTransport(dg)
	votes := services.NewVoteCoordinator(rng, metrics)
	drafts := services.NewTeamDraftEngine(rng, metrics)
	orchestrator := services.NewMatchOrchestrator(
		transport,
		votes,
		drafts,
		application.NewMatchWriter(uowFactory),
		rng,
		metrics,
		config.Orchestrator,
	)
	orchestrator.SetStateObserver(stateLogger{})
	queues := services.NewQueueRegistry(entities.DefaultQueueTypes(), metrics)

	bot := &Bot{
		config:       config,
		session:      dg,
		uowFactory:   uowFactory,
		metrics:      metrics,
		transport:    transport,
		queues:       queues,
		votes:        votes,
		drafts:       drafts,
		orchestrator: orchestrator,
	}

	bot.queue = queue.NewFeature(dg, uowFactory, queues, orchestrator, tiers)
	bot.match = match.NewFeature(dg, uowFactory, votes, drafts, transport, tiers)
	bot.profile = profile.NewFeature(uowFactory, transport, tiers)
	bot.leaderboard = leaderboard.NewFeature(dg, uowFactory, tiers)
	bot.admin = admin.NewFeature(uowFactory, transport, tiers)

	dg.AddHandler(bot.handleCommands)
	dg.AddHandler(bot.handleInteractions)
	dg.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		log.WithFields(log.Fields{
			"user":   r.User.Username,
			"guilds": len(r.Guilds),
		}).Info("Discord session ready")
	})

	if err := dg.Open(); err != nil {
		return nil, fmt.Errorf("error opening connection: %w", err)
	}

	if err := bot.registerCommands(); err != nil {
		dg.Close()
		return nil, fmt.Errorf("error registering commands: %w", err)
	}

	bot.stopWorkers = bot.StartCleanupWorker(context.Background())
	log.Info("Background workers started")

	if err := bot.StartDebugAPI(config.DebugAPIPort); err != nil {
		log.Warnf("Failed to start debug API on port %d: %v", config.DebugAPIPort, err)
	}

	return bot, nil
}

// ResultPoster returns the Discord side of the result event handlers
func (b *Bot) ResultPoster() application.ResultPoster {
	return &discordPoster{
		match:       b.match,
		leaderboard: b.leaderboard,
	}
}

// Orchestrator returns the match orchestrator
func (b *Bot) Orchestrator() *services.MatchOrchestrator {
	return b.orchestrator
}

// Transport returns the Discord match transport
func (b *Bot) Transport() *DiscordTransport {
	return b.transport
}

// Close gracefully shuts down the bot
func (b *Bot) Close() error {
	if b.stopWorkers != nil {
		b.stopWorkers()
	}
	log.Info("Background workers stopped")

	if b.debugServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := b.debugServer.Shutdown(ctx); err != nil {
			log.WithError(err).Warn("Failed to stop debug API")
		}
	}

	return b.session.Close()
}

// handleCommands routes slash commands to appropriate handlers
func (b *Bot) handleCommands(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	b.metrics.RecordInteraction(observability.InteractionTypeCommand)

	switch i.ApplicationCommandData().Name {
	case "register":
		b.profile.HandleRegister(s, i)
	case "profile":
		b.profile.HandleProfile(s, i)
	case "queue":
		b.queue.HandleQueue(s, i)
	case "queue-join":
		b.queue.HandleQueueJoin(s, i)
	case "queue-leave":
		b.queue.HandleQueueLeave(s, i)
	case "force-start":
		b.queue.HandleForceStart(s, i)
	case "leaderboard":
		b.leaderboard.HandleCommand(s, i)
	case "reset-elo":
		b.admin.HandleResetElo(s, i)
	case "set-elo":
		b.admin.HandleSetElo(s, i)
	}
}

// handleInteractions routes component interactions to appropriate features
func (b *Bot) handleInteractions(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionMessageComponent {
		return
	}
	b.metrics.RecordInteraction(observability.InteractionTypeComponent)
	b.routeComponentInteraction(s, i, i.MessageComponentData().CustomID)
}

// routeComponentInteraction routes button and select menu interactions
func (b *Bot) routeComponentInteraction(s *discordgo.Session, i *discordgo.InteractionCreate, customID string) {
	switch {
	case strings.HasPrefix(customID, common.PrefixQueue):
		b.queue.HandleInteraction(s, i)

	case strings.HasPrefix(customID, common.PrefixVote),
		strings.HasPrefix(customID, common.PrefixPick),
		strings.HasPrefix(customID, common.PrefixResult),
		strings.HasPrefix(customID, common.PrefixDispute),
		strings.HasPrefix(customID, common.PrefixAdminConfirm):
		b.match.HandleInteraction(s, i)

	default:
		log.WithField("customID", customID).Debug("Unrouted component interaction")
	}
}

// discordPoster implements application.ResultPoster by delegating to the
// feature that owns each channel
type discordPoster struct {
	match       *match.Feature
	leaderboard *leaderboard.Feature
}

// PostMatchResult delegates to the match feature
func (p *discordPoster) PostMatchResult(ctx context.Context, event events.MatchResultRecordedEvent) error {
	return p.match.PostMatchResult(ctx, event)
}

// PostDisputeReview delegates to the match feature
func (p *discordPoster) PostDisputeReview(ctx context.Context, event events.MatchDisputedEvent) error {
	return p.match.PostDisputeReview(ctx, event)
}

// RefreshLeaderboard delegates to the leaderboard feature
func (p *discordPoster) RefreshLeaderboard(ctx context.Context, guildID int64) error {
	return p.leaderboard.RefreshLeaderboard(ctx, guildID)
}

// stateLogger logs every match state transition
type stateLogger struct{}

func (stateLogger) StateChanged(run services.RunSnapshot, from, to services.MatchState) {
	log.WithFields(log.Fields{
		"runID":   run.ID,
		"guildID": run.GuildID,
		"matchID": run.MatchID,
		"from":    from,
		"to":      to,
	}).Debug("Match state changed")
}
