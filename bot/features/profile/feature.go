package profile

import (
	"context"
	"errors"
	"fmt"

	"matchmaker/application"
	"matchmaker/bot/common"
	"matchmaker/config"
	"matchmaker/domain/entities"
	"matchmaker/domain/interfaces"
	"matchmaker/domain/services"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Feature handles /register and /profile
type Feature struct {
	uowFactory application.UnitOfWorkFactory
	roles      common.RoleSyncer
	tiers      *services.TierTable
}

// NewFeature creates a new profile feature instance
func NewFeature(uowFactory application.UnitOfWorkFactory, roles common.RoleSyncer, tiers *services.TierTable) *Feature {
	return &Feature{
		uowFactory: uowFactory,
		roles:      roles,
		tiers:      tiers,
	}
}

// HandleRegister handles /register
func (f *Feature) HandleRegister(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	guildID, discordID, err := interactionIDs(i)
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}

	username := common.UserDisplayName(i.Member.User)
	err = f.withPlayerService(ctx, guildID, func(svc interfaces.PlayerService) error {
		_, err := svc.Register(ctx, discordID, username)
		return err
	})
	if errors.Is(err, entities.ErrAlreadyRegistered) {
		common.RespondEphemeral(s, i, "⚠️ You're already registered!")
		return
	}
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "Failed to register player"), false)
		return
	}

	cfg := config.Get()
	if err := f.roles.ApplyRoleDelta(ctx, guildID, discordID, cfg.RegisteredRoleID, cfg.UnregisteredRoleID); err != nil {
		log.WithError(err).WithField("discordID", discordID).Warn("Failed to swap registration roles")
	}
	if tierRole := cfg.TierRoles().RoleFor(f.tiers.Lowest().Level); tierRole != 0 {
		if err := f.roles.ApplyRoleDelta(ctx, guildID, discordID, tierRole, 0); err != nil {
			log.WithError(err).WithField("discordID", discordID).Warn("Failed to grant starting tier role")
		}
	}

	log.WithFields(log.Fields{
		"guildID":   guildID,
		"discordID": discordID,
		"username":  username,
	}).Info("Player registered")

	respond(s, i, &discordgo.MessageEmbed{
		Title:       "✅ Registered",
		Description: fmt.Sprintf("%s joined the ladder at **0 ELO** (Level %d).", common.Mention(discordID), f.tiers.Lowest().Level),
		Color:       common.ColorSuccess,
	})
}

// HandleProfile handles /profile
func (f *Feature) HandleProfile(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	guildID, discordID, err := interactionIDs(i)
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}

	var profile *entities.PlayerProfile
	err = f.withPlayerService(ctx, guildID, func(svc interfaces.PlayerService) error {
		var getErr error
		profile, getErr = svc.GetProfile(ctx, discordID)
		return getErr
	})
	if errors.Is(err, entities.ErrNotRegistered) {
		common.RespondWithError(s, i, "You are not registered. Use /register first.")
		return
	}
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "Failed to load profile"), false)
		return
	}

	respond(s, i, BuildProfileEmbed(profile, common.MemberDisplayName(i.Member)))
}

// withPlayerService runs fn inside a guild unit of work and commits when it succeeds
func (f *Feature) withPlayerService(ctx context.Context, guildID int64, fn func(interfaces.PlayerService) error) error {
	uow := f.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	svc := services.NewPlayerService(
		guildID,
		uow.PlayerRepository(),
		uow.EventBus(),
		f.tiers,
		config.Get().TierRoles(),
	)
	if err := fn(svc); err != nil {
		return err
	}
	return uow.Commit()
}

// BuildProfileEmbed renders rating, tier, record and rank
func BuildProfileEmbed(profile *entities.PlayerProfile, displayName string) *discordgo.MessageEmbed {
	p := profile.Player
	if displayName == "" {
		displayName = p.Username
	}
	return &discordgo.MessageEmbed{
		Title: fmt.Sprintf("%s's profile", displayName),
		Color: common.ColorInfo,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "ELO", Value: fmt.Sprintf("%d", p.Rating), Inline: true},
			{Name: "Level", Value: fmt.Sprintf("%d", profile.Tier.Level), Inline: true},
			{Name: "Rank", Value: fmt.Sprintf("#%d", profile.Rank), Inline: true},
			{Name: "Wins", Value: fmt.Sprintf("%d", p.Wins), Inline: true},
			{Name: "Losses", Value: fmt.Sprintf("%d", p.Losses), Inline: true},
			{Name: "Win rate", Value: common.FormatWinRate(p.WinRate()), Inline: true},
		},
	}
}

func interactionIDs(i *discordgo.InteractionCreate) (int64, int64, error) {
	guildID, err := common.ParseSnowflake(i.GuildID)
	if err != nil || i.Member == nil || i.Member.User == nil {
		return 0, 0, common.NewUserError("This command only works in a server.", "interaction outside a guild")
	}
	discordID, err := common.ParseSnowflake(i.Member.User.ID)
	if err != nil {
		return 0, 0, common.NewSystemError(err, "Invalid member ID")
	}
	return guildID, discordID, nil
}

func respond(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.WithError(err).Error("Failed to respond to profile interaction")
	}
}
