package leaderboard

import (
	"bytes"
	"context"
	"fmt"

	"matchmaker/application"
	"matchmaker/bot/common"
	"matchmaker/config"
	"matchmaker/domain/entities"
	"matchmaker/domain/services"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// stale leaderboard posts considered for cleanup on refresh
const cleanupScanLimit = 50

// Feature serves /leaderboard and keeps the leaderboard channel current
type Feature struct {
	session    *discordgo.Session
	uowFactory application.UnitOfWorkFactory
	tiers      *services.TierTable
	generator  *ImageGenerator
}

// NewFeature creates a new leaderboard feature instance
func NewFeature(session *discordgo.Session, uowFactory application.UnitOfWorkFactory, tiers *services.TierTable) *Feature {
	return &Feature{
		session:    session,
		uowFactory: uowFactory,
		tiers:      tiers,
		generator:  NewImageGenerator(),
	}
}

// HandleCommand handles /leaderboard
func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	guildID, err := common.ParseSnowflake(i.GuildID)
	if err != nil {
		common.RespondWithError(s, i, "This command only works in a server.")
		return
	}

	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}); err != nil {
		log.WithError(err).Error("Failed to defer leaderboard response")
		return
	}

	message, err := f.buildMessage(ctx, guildID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "Failed to build leaderboard"), true)
		return
	}

	if _, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Embeds: message.Embeds,
		Files:  message.Files,
	}); err != nil {
		log.WithError(err).Error("Failed to send leaderboard")
	}
}

// RefreshLeaderboard deletes the bot's previous posts in the leaderboard
// channel and posts the current standings
func (f *Feature) RefreshLeaderboard(ctx context.Context, guildID int64) error {
	channelID, err := common.FindTextChannel(f.session, common.Snowflake(guildID), config.Get().LeaderboardChannelName)
	if err != nil {
		return fmt.Errorf("failed to find leaderboard channel: %w", err)
	}

	message, err := f.buildMessage(ctx, guildID)
	if err != nil {
		return err
	}

	f.deletePreviousPosts(ctx, channelID)

	if _, err := f.session.ChannelMessageSendComplex(channelID, message, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to post leaderboard: %w", err)
	}
	return nil
}

func (f *Feature) deletePreviousPosts(ctx context.Context, channelID string) {
	messages, err := f.session.ChannelMessages(channelID, cleanupScanLimit, "", "", "", discordgo.WithContext(ctx))
	if err != nil {
		log.WithError(err).WithField("channelID", channelID).Warn("Failed to list leaderboard channel messages")
		return
	}

	botID := ""
	if f.session.State != nil && f.session.State.User != nil {
		botID = f.session.State.User.ID
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(3)
	for _, m := range messages {
		if m.Author == nil || m.Author.ID != botID {
			continue
		}
		messageID := m.ID
		g.Go(func() error {
			if err := f.session.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(gCtx)); err != nil {
				log.WithError(err).WithField("messageID", messageID).Warn("Failed to delete old leaderboard post")
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (f *Feature) buildMessage(ctx context.Context, guildID int64) (*discordgo.MessageSend, error) {
	entries, err := f.loadEntries(ctx, guildID)
	if err != nil {
		return nil, err
	}

	message := &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{BuildLeaderboardEmbed(entries)},
	}
	if len(entries) == 0 {
		return message, nil
	}

	image, err := f.generator.Generate(entries)
	if err != nil {
		// the embed alone still carries the standings
		log.WithError(err).Warn("Failed to render leaderboard image")
		return message, nil
	}
	message.Files = []*discordgo.File{{
		Name:        "leaderboard.png",
		ContentType: "image/png",
		Reader:      bytes.NewReader(image),
	}}
	message.Embeds[0].Image = &discordgo.MessageEmbedImage{URL: "attachment://leaderboard.png"}
	return message, nil
}

func (f *Feature) loadEntries(ctx context.Context, guildID int64) ([]entities.LeaderboardEntry, error) {
	uow := f.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	playerService := services.NewPlayerService(
		guildID,
		uow.PlayerRepository(),
		uow.EventBus(),
		f.tiers,
		config.Get().TierRoles(),
	)

	return playerService.GetLeaderboard(ctx, services.LeaderboardSize)
}
