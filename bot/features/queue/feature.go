package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"matchmaker/application"
	"matchmaker/bot/common"
	"matchmaker/config"
	"matchmaker/domain/entities"
	"matchmaker/domain/interfaces"
	"matchmaker/domain/services"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// MatchStarter runs match setup for a drained group
type MatchStarter interface {
	Run(ctx context.Context, req services.MatchRequest) (*services.MatchRun, error)
}

// Feature owns the queue commands, the queue panels and match kick-off
type Feature struct {
	session    *discordgo.Session
	uowFactory application.UnitOfWorkFactory
	registry   *services.QueueRegistry
	starter    MatchStarter
	tiers      *services.TierTable
	panels     *panelTracker
}

// NewFeature creates a new queue feature instance
func NewFeature(session *discordgo.Session, uowFactory application.UnitOfWorkFactory, registry *services.QueueRegistry, starter MatchStarter, tiers *services.TierTable) *Feature {
	return &Feature{
		session:    session,
		uowFactory: uowFactory,
		registry:   registry,
		starter:    starter,
		tiers:      tiers,
		panels:     newPanelTracker(),
	}
}

// HandleQueue handles /queue by posting the queue type selector
func (f *Feature) HandleQueue(s *discordgo.Session, i *discordgo.InteractionCreate) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{BuildSelectorEmbed()},
			Components: BuildSelectorComponents(f.registry.QueueTypes()),
		},
	})
	if err != nil {
		log.WithError(err).Error("Failed to post queue selector")
	}
}

// HandleQueueJoin handles /queue-join
func (f *Feature) HandleQueueJoin(s *discordgo.Session, i *discordgo.InteractionCreate) {
	queueType := stringOption(i.ApplicationCommandData().Options, "queue_type")
	f.joinAndRespond(s, i, queueType)
}

// HandleQueueLeave handles /queue-leave
func (f *Feature) HandleQueueLeave(s *discordgo.Session, i *discordgo.InteractionCreate) {
	f.leaveAndRespond(s, i, true)
}

// HandleForceStart handles /force-start, draining a queue that is not full
func (f *Feature) HandleForceStart(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !common.IsAdmin(i) {
		common.HandleError(s, i, common.NewUserError("Only admins can force-start a match.", entities.ErrPermissionDenied.Error()), false)
		return
	}

	guildID, err := common.ParseSnowflake(i.GuildID)
	if err != nil {
		common.RespondWithError(s, i, "This command only works in a server.")
		return
	}
	queueType := stringOption(i.ApplicationCommandData().Options, "queue_type")

	entries, err := f.registry.ForGuild(guildID).ForceDrain(queueType)
	switch {
	case errors.Is(err, entities.ErrUnknownQueueType):
		common.RespondWithError(s, i, fmt.Sprintf("Unknown queue type %q.", queueType))
		return
	case errors.Is(err, entities.ErrQueueCapacityUnmet):
		common.RespondWithError(s, i, "At least 2 players must be waiting to force-start.")
		return
	case err != nil:
		common.HandleError(s, i, common.NewSystemError(err, "Failed to force-drain queue"), false)
		return
	}

	log.WithFields(log.Fields{
		"guildID":   guildID,
		"queueType": queueType,
		"players":   len(entries),
		"adminID":   common.InteractionUserID(i),
	}).Info("Queue force-started")

	f.startMatch(guildID, queueType, entries, initiatorOf(i), true)
	f.refreshPanels(guildID, queueType)

	common.RespondEphemeral(s, i, fmt.Sprintf("⚡ Force-started a %s match with %d players.", queueType, len(entries)))
}

// HandleInteraction routes queue panel components
func (f *Feature) HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.MessageComponentData()
	switch {
	case data.CustomID == common.QueueSelectID:
		if len(data.Values) == 0 {
			common.RespondWithError(s, i, "Please pick a queue type.")
			return
		}
		f.postPanel(s, i, data.Values[0])
	case data.CustomID == common.QueueLeaveID:
		f.leaveAndRespond(s, i, false)
	default:
		queueType, ok := common.ParseQueueJoinButtonID(data.CustomID)
		if !ok {
			log.WithField("customID", data.CustomID).Warn("Unknown queue component")
			return
		}
		f.joinAndRespond(s, i, queueType)
	}
}

func (f *Feature) postPanel(s *discordgo.Session, i *discordgo.InteractionCreate, queueType string) {
	guildID, err := common.ParseSnowflake(i.GuildID)
	if err != nil {
		common.RespondWithError(s, i, "This command only works in a server.")
		return
	}
	queue := f.registry.ForGuild(guildID)
	qt, ok := queue.QueueType(queueType)
	if !ok {
		common.RespondWithError(s, i, fmt.Sprintf("Unknown queue type %q.", queueType))
		return
	}
	entries, _ := queue.Snapshot(queueType)

	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{BuildPanelEmbed(qt, entries)},
			Components: BuildPanelComponents(queueType),
		},
	})
	if err != nil {
		log.WithError(err).Error("Failed to post queue panel")
		return
	}

	msg, err := s.InteractionResponse(i.Interaction)
	if err != nil {
		log.WithError(err).Warn("Failed to fetch queue panel message, it will not update live")
		return
	}
	f.panels.track(guildID, queueType, panelRef{ChannelID: msg.ChannelID, MessageID: msg.ID})
}

func (f *Feature) joinAndRespond(s *discordgo.Session, i *discordgo.InteractionCreate, queueType string) {
	ctx := context.Background()

	guildID, err := common.ParseSnowflake(i.GuildID)
	if err != nil || i.Member == nil {
		common.RespondWithError(s, i, "This command only works in a server.")
		return
	}
	playerID, err := common.ParseSnowflake(i.Member.User.ID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "Invalid member ID"), false)
		return
	}

	if err := f.requireRegistered(ctx, guildID, playerID); err != nil {
		if errors.Is(err, entities.ErrNotRegistered) {
			common.RespondWithError(s, i, "You need to /register before joining a queue.")
			return
		}
		common.HandleError(s, i, common.NewSystemError(err, "Failed to check registration"), false)
		return
	}

	result, err := f.registry.ForGuild(guildID).Join(entities.QueueEntry{
		PlayerID:    playerID,
		DisplayName: common.MemberDisplayName(i.Member),
		QueueType:   queueType,
		JoinedAt:    time.Now(),
	})
	if errors.Is(err, entities.ErrUnknownQueueType) {
		common.RespondWithError(s, i, fmt.Sprintf("Unknown queue type %q.", queueType))
		return
	}
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "Failed to join queue"), false)
		return
	}

	if result.Filled() {
		f.startMatch(guildID, result.QueueType, result.Drained, initiatorOf(i), false)
	}
	f.refreshPanels(guildID, result.QueueType, result.PreviousQueue)

	common.RespondEphemeral(s, i, JoinMessage(result))
}

func (f *Feature) leaveAndRespond(s *discordgo.Session, i *discordgo.InteractionCreate, requireEntry bool) {
	guildID, err := common.ParseSnowflake(i.GuildID)
	if err != nil || i.Member == nil {
		common.RespondWithError(s, i, "This command only works in a server.")
		return
	}
	playerID, err := common.ParseSnowflake(i.Member.User.ID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "Invalid member ID"), false)
		return
	}

	left, err := f.registry.ForGuild(guildID).Leave(playerID, requireEntry)
	if errors.Is(err, entities.ErrNotInQueue) {
		common.RespondWithError(s, i, "You are not in a queue.")
		return
	}
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "Failed to leave queue"), false)
		return
	}
	if left == "" {
		common.RespondEphemeral(s, i, "You are not in a queue.")
		return
	}

	f.refreshPanels(guildID, left)
	common.RespondEphemeral(s, i, fmt.Sprintf("👋 You left the %s queue.", left))
}

func (f *Feature) requireRegistered(ctx context.Context, guildID, playerID int64) error {
	uow := f.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	playerService := services.NewPlayerService(
		guildID,
		uow.PlayerRepository(),
		uow.EventBus(),
		f.tiers,
		config.Get().TierRoles(),
	)
	_, err := playerService.RequireRegistered(ctx, playerID)
	return err
}

// startMatch runs match setup in the background. Run blocks until the result
// prompt is posted or setup aborts.
func (f *Feature) startMatch(guildID int64, queueType string, entries []entities.QueueEntry, initiator interfaces.Initiator, forced bool) {
	req := services.MatchRequest{
		GuildID:   guildID,
		QueueType: queueType,
		Entries:   entries,
		Initiator: initiator,
		Forced:    forced,
	}
	go func() {
		run, err := f.starter.Run(context.Background(), req)
		fields := log.Fields{"guildID": guildID, "queueType": queueType}
		if run != nil {
			fields["runID"] = run.ID
		}
		if err != nil {
			log.WithFields(fields).WithError(err).Warn("Match setup aborted")
			return
		}
		log.WithFields(fields).Info("Match setup finished, awaiting result")
	}()
}

// refreshPanels edits every tracked panel of the given queue types
func (f *Feature) refreshPanels(guildID int64, queueTypes ...string) {
	queue := f.registry.ForGuild(guildID)
	for _, name := range queueTypes {
		if name == "" {
			continue
		}
		qt, ok := queue.QueueType(name)
		if !ok {
			continue
		}
		entries, _ := queue.Snapshot(name)
		embeds := []*discordgo.MessageEmbed{BuildPanelEmbed(qt, entries)}

		for _, ref := range f.panels.get(guildID, name) {
			_, err := f.session.ChannelMessageEditComplex(&discordgo.MessageEdit{
				Channel: ref.ChannelID,
				ID:      ref.MessageID,
				Embeds:  &embeds,
			})
			if err != nil {
				log.WithError(err).WithField("messageID", ref.MessageID).Debug("Dropping queue panel that can no longer be edited")
				f.panels.forget(guildID, name, ref)
			}
		}
	}
}

func initiatorOf(i *discordgo.InteractionCreate) interfaces.Initiator {
	userID, _ := common.ParseSnowflake(common.InteractionUserID(i))
	channelID, _ := common.ParseSnowflake(i.ChannelID)
	return interfaces.Initiator{UserID: userID, ChannelID: channelID}
}

func stringOption(options []*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	for _, opt := range options {
		if opt.Name == name {
			return opt.StringValue()
		}
	}
	return ""
}
