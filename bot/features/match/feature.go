package match

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"matchmaker/application"
	"matchmaker/bot/common"
	"matchmaker/config"
	"matchmaker/domain/entities"
	"matchmaker/domain/interfaces"
	"matchmaker/domain/services"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Feature handles the in-match buttons and posts results for review
type Feature struct {
	session    *discordgo.Session
	uowFactory application.UnitOfWorkFactory
	votes      *services.VoteCoordinator
	drafts     *services.TeamDraftEngine
	roles      common.RoleSyncer
	tiers      *services.TierTable
}

// NewFeature creates a new match feature instance
func NewFeature(
	session *discordgo.Session,
	uowFactory application.UnitOfWorkFactory,
	votes *services.VoteCoordinator,
	drafts *services.TeamDraftEngine,
	roles common.RoleSyncer,
	tiers *services.TierTable,
) *Feature {
	return &Feature{
		session:    session,
		uowFactory: uowFactory,
		votes:      votes,
		drafts:     drafts,
		roles:      roles,
		tiers:      tiers,
	}
}

// HandleInteraction routes vote, pick, result, dispute and admin confirmation buttons
func (f *Feature) HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	customID := i.MessageComponentData().CustomID

	userID, err := common.ParseSnowflake(common.InteractionUserID(i))
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "Invalid user ID"), false)
		return
	}

	switch {
	case strings.HasPrefix(customID, common.PrefixVote):
		f.handleVote(s, i, customID, userID)
	case strings.HasPrefix(customID, common.PrefixPick):
		f.handlePick(s, i, customID, userID)
	case strings.HasPrefix(customID, common.PrefixResult):
		f.handleResult(s, i, customID, userID)
	case strings.HasPrefix(customID, common.PrefixDispute):
		f.handleDispute(s, i, customID, userID)
	case strings.HasPrefix(customID, common.PrefixAdminConfirm):
		f.handleAdminConfirm(s, i, customID, userID)
	}
}

func (f *Feature) handleVote(s *discordgo.Session, i *discordgo.InteractionCreate, customID string, userID int64) {
	sessionID, index, err := common.ParseVoteButtonID(customID)
	if err != nil {
		common.HandleError(s, i, common.NewUserError("This vote button is broken.", err.Error()), false)
		return
	}

	if !f.votes.Cast(sessionID, userID, index) {
		common.RespondWithError(s, i, "This vote is closed or you are not part of this match.")
		return
	}

	choice := fmt.Sprintf("option %d", index+1)
	if info, ok := f.votes.Info(sessionID); ok && index < len(info.Candidates) {
		choice = info.Candidates[index]
	}
	common.RespondEphemeral(s, i, fmt.Sprintf("🗳️ Your vote for **%s** was recorded.", choice))
}

func (f *Feature) handlePick(s *discordgo.Session, i *discordgo.InteractionCreate, customID string, userID int64) {
	turnID, position, err := common.ParsePickButtonID(customID)
	if err != nil {
		common.HandleError(s, i, common.NewUserError("This pick button is broken.", err.Error()), false)
		return
	}

	if !f.drafts.ResolvePick(turnID, userID, position) {
		common.RespondWithError(s, i, "It is not your turn to pick, or this pick is already over.")
		return
	}
	common.RespondEphemeral(s, i, "✅ Pick locked in.")
}

func (f *Feature) handleResult(s *discordgo.Session, i *discordgo.InteractionCreate, customID string, userID int64) {
	matchID, side, err := common.ParseResultButtonID(customID)
	if err != nil {
		common.HandleError(s, i, common.NewUserError("This result button is broken.", err.Error()), false)
		return
	}

	reporter := entities.Reporter{DiscordID: userID, Admin: common.IsAdmin(i)}
	f.record(s, i, matchID, func(ctx context.Context, uow application.UnitOfWork) (*entities.ResultOutcome, error) {
		return f.newLedger(uow).RecordResult(ctx, matchID, side, reporter)
	})
}

func (f *Feature) handleAdminConfirm(s *discordgo.Session, i *discordgo.InteractionCreate, customID string, userID int64) {
	matchID, side, err := common.ParseAdminConfirmButtonID(customID)
	if err != nil {
		common.HandleError(s, i, common.NewUserError("This confirmation button is broken.", err.Error()), false)
		return
	}
	if !common.IsAdmin(i) {
		common.RespondWithError(s, i, "You don't have permission!")
		return
	}

	reporter := entities.Reporter{DiscordID: userID, Admin: true}
	outcome := f.record(s, i, matchID, func(ctx context.Context, uow application.UnitOfWork) (*entities.ResultOutcome, error) {
		return services.NewDisputeWorkflow(uow.MatchRepository(), f.newLedger(uow), uow.EventBus()).
			Resolve(ctx, matchID, side, reporter)
	})
	if outcome == nil {
		return
	}

	content := fmt.Sprintf("✅ Team %s win confirmed by %s.", outcome.WinningTeam, common.Mention(userID))
	empty := []discordgo.MessageComponent{}
	if _, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Content:    &content,
		Components: &empty,
	}); err != nil {
		log.WithError(err).WithField("matchID", matchID).Warn("Failed to close dispute review message")
	}
}

// record acknowledges the button, runs fn in a unit of work and applies the
// role changes of the outcome. Returns nil when nothing was recorded.
func (f *Feature) record(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	matchID int64,
	fn func(ctx context.Context, uow application.UnitOfWork) (*entities.ResultOutcome, error),
) *entities.ResultOutcome {
	ctx := context.Background()

	// the match channel may be gone by the time recording finishes
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	}); err != nil {
		log.WithError(err).Error("Failed to acknowledge result interaction")
		return nil
	}

	guildID, err := common.ParseSnowflake(i.GuildID)
	if err != nil {
		common.FollowUpWithError(s, i, "This button only works in a server.")
		return nil
	}

	outcome, err := f.inUnitOfWork(ctx, guildID, fn)
	switch {
	case errors.Is(err, entities.ErrAlreadyRecorded):
		log.WithField("matchID", matchID).Info("Result already recorded")
		common.FollowUpWithError(s, i, "The result of this match was already recorded.")
		return nil
	case errors.Is(err, entities.ErrNotParticipant):
		common.FollowUpWithError(s, i, "Only players of this match can report its result.")
		return nil
	case errors.Is(err, entities.ErrMatchNotFound):
		common.FollowUpWithError(s, i, "This match no longer exists.")
		return nil
	case errors.Is(err, entities.ErrPermissionDenied):
		common.FollowUpWithError(s, i, "You don't have permission!")
		return nil
	case err != nil:
		common.HandleError(s, i, common.NewSystemError(err, "Failed to record match result"), true)
		return nil
	}

	f.roles.ApplyRoleSync(ctx, guildID, outcome.RoleSync)
	return outcome
}

func (f *Feature) handleDispute(s *discordgo.Session, i *discordgo.InteractionCreate, customID string, userID int64) {
	ctx := context.Background()

	matchID, err := common.ParseDisputeButtonID(customID)
	if err != nil {
		common.HandleError(s, i, common.NewUserError("This dispute button is broken.", err.Error()), false)
		return
	}
	guildID, err := common.ParseSnowflake(i.GuildID)
	if err != nil {
		common.RespondWithError(s, i, "This button only works in a server.")
		return
	}

	uow := f.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "Failed to begin transaction"), false)
		return
	}
	defer uow.Rollback()

	workflow := services.NewDisputeWorkflow(uow.MatchRepository(), f.newLedger(uow), uow.EventBus())
	_, err = workflow.Dispute(ctx, matchID, userID)
	switch {
	case errors.Is(err, entities.ErrNotParticipant):
		common.RespondWithError(s, i, "Only players of this match can dispute its result.")
		return
	case errors.Is(err, entities.ErrMatchNotFound):
		common.RespondWithError(s, i, "This match no longer exists.")
		return
	case err != nil:
		common.HandleError(s, i, common.NewSystemError(err, "Failed to dispute match"), false)
		return
	}

	if err := uow.Commit(); err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "Failed to commit dispute"), false)
		return
	}

	common.RespondEphemeral(s, i, "⚠️ The match result has been disputed and sent to admins for review.")
}

func (f *Feature) inUnitOfWork(
	ctx context.Context,
	guildID int64,
	fn func(ctx context.Context, uow application.UnitOfWork) (*entities.ResultOutcome, error),
) (*entities.ResultOutcome, error) {
	uow := f.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	outcome, err := fn(ctx, uow)
	if err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return outcome, nil
}

func (f *Feature) newLedger(uow application.UnitOfWork) interfaces.ResultRecorder {
	return services.NewResultLedger(
		uow.PlayerRepository(),
		uow.MatchRepository(),
		uow.EventBus(),
		f.tiers,
		config.Get().TierRoles(),
	)
}
