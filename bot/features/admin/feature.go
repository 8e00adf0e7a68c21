package admin

import (
	"context"
	"errors"
	"fmt"

	"matchmaker/application"
	"matchmaker/bot/common"
	"matchmaker/config"
	"matchmaker/domain/entities"
	"matchmaker/domain/services"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Feature handles the rating overwrite commands
type Feature struct {
	uowFactory application.UnitOfWorkFactory
	roles      common.RoleSyncer
	tiers      *services.TierTable
}

// NewFeature creates a new admin feature instance
func NewFeature(uowFactory application.UnitOfWorkFactory, roles common.RoleSyncer, tiers *services.TierTable) *Feature {
	return &Feature{
		uowFactory: uowFactory,
		roles:      roles,
		tiers:      tiers,
	}
}

// ratingChange is a parsed /reset-elo or /set-elo invocation
type ratingChange struct {
	target int64
	rating int64
	reset  bool
}

// HandleResetElo handles /reset-elo
func (f *Feature) HandleResetElo(s *discordgo.Session, i *discordgo.InteractionCreate) {
	f.handle(s, i, true)
}

// HandleSetElo handles /set-elo
func (f *Feature) HandleSetElo(s *discordgo.Session, i *discordgo.InteractionCreate) {
	f.handle(s, i, false)
}

func (f *Feature) handle(s *discordgo.Session, i *discordgo.InteractionCreate, reset bool) {
	ctx := context.Background()

	if !common.IsAdmin(i) {
		common.HandleError(s, i, common.NewUserError("Only admins can change ratings.", entities.ErrPermissionDenied.Error()), false)
		return
	}

	guildID, err := common.ParseSnowflake(i.GuildID)
	if err != nil {
		common.RespondWithError(s, i, "This command only works in a server.")
		return
	}
	adminID, err := common.ParseSnowflake(common.InteractionUserID(i))
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "Invalid admin ID"), false)
		return
	}

	change, err := parseOptions(i.ApplicationCommandData().Options, reset)
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}

	instruction, err := f.apply(ctx, guildID, adminID, change)
	if errors.Is(err, entities.ErrNotRegistered) {
		common.RespondWithError(s, i, fmt.Sprintf("%s is not registered.", common.Mention(change.target)))
		return
	}
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "Failed to overwrite rating"), false)
		return
	}

	f.roles.ApplyRoleSync(ctx, guildID, []entities.RoleSyncInstruction{*instruction})

	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{BuildRatingChangedEmbed(change, instruction)},
		},
	})
	if err != nil {
		log.WithError(err).Error("Failed to respond to rating overwrite")
	}
}

func (f *Feature) apply(ctx context.Context, guildID, adminID int64, change ratingChange) (*entities.RoleSyncInstruction, error) {
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

	var instruction *entities.RoleSyncInstruction
	var err error
	if change.reset {
		instruction, err = playerService.ResetRating(ctx, adminID, change.target)
	} else {
		instruction, err = playerService.SetRating(ctx, adminID, change.target, change.rating)
	}
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return instruction, nil
}

func parseOptions(options []*discordgo.ApplicationCommandInteractionDataOption, reset bool) (ratingChange, error) {
	change := ratingChange{reset: reset}
	for _, opt := range options {
		switch opt.Name {
		case "user":
			user := opt.UserValue(nil)
			id, err := common.ParseSnowflake(user.ID)
			if err != nil {
				return change, common.NewUserError("Invalid user.", err.Error())
			}
			change.target = id
		case "value":
			change.rating = opt.IntValue()
		}
	}
	if change.target == 0 {
		return change, common.NewUserError("Please pick a user.", "missing user option")
	}
	return change, nil
}

// BuildRatingChangedEmbed confirms a rating overwrite
func BuildRatingChangedEmbed(change ratingChange, instruction *entities.RoleSyncInstruction) *discordgo.MessageEmbed {
	title := "ELO updated"
	description := fmt.Sprintf("%s is now at **%d ELO**.", common.Mention(change.target), change.rating)
	if change.reset {
		title = "ELO reset"
		description = fmt.Sprintf("%s was reset to **0 ELO** with a clean record.", common.Mention(change.target))
	}
	if instruction.Changed() {
		description += fmt.Sprintf("\nLevel %d → Level %d", instruction.OldTier, instruction.NewTier)
	}
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       common.ColorWarning,
	}
}
