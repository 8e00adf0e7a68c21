package services

import (
	"context"
	"errors"
	"fmt"

	"matchmaker/config"
	"matchmaker/domain/entities"
	"matchmaker/domain/events"
	"matchmaker/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

type resultLedger struct {
	playerRepo     interfaces.PlayerRepository
	matchRepo      interfaces.MatchRepository
	eventPublisher interfaces.EventPublisher
	tiers          *TierTable
	roles          entities.TierRoles
	ratingDelta    int64
}

// NewResultLedger creates the single entry point for recording match winners
func NewResultLedger(
	playerRepo interfaces.PlayerRepository,
	matchRepo interfaces.MatchRepository,
	eventPublisher interfaces.EventPublisher,
	tiers *TierTable,
	roles entities.TierRoles,
) interfaces.ResultRecorder {
	return &resultLedger{
		playerRepo:     playerRepo,
		matchRepo:      matchRepo,
		eventPublisher: eventPublisher,
		tiers:          tiers,
		roles:          roles,
		ratingDelta:    config.Get().RatingDelta,
	}
}

// RecordResult writes the winner of a match and applies the rating delta to
// every participant. Participants and admins share this path, so the
// compare-and-set in the repository decides which of two racing reporters wins.
func (l *resultLedger) RecordResult(ctx context.Context, matchID int64, winner entities.TeamSide, reporter entities.Reporter) (*entities.ResultOutcome, error) {
	if !winner.Valid() {
		return nil, fmt.Errorf("invalid winning team %q", winner)
	}

	match, err := l.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w: %w", entities.ErrPersistenceFailure, err)
	}
	if match == nil {
		return nil, entities.ErrMatchNotFound
	}
	if !reporter.Admin && !match.IsParticipant(reporter.DiscordID) {
		return nil, entities.ErrNotParticipant
	}
	if match.IsResolved() {
		return nil, entities.ErrAlreadyRecorded
	}

	if err := l.matchRepo.RecordWinner(ctx, matchID, winner, reporter.DiscordID); err != nil {
		if errors.Is(err, entities.ErrAlreadyRecorded) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to record winner: %w: %w", entities.ErrPersistenceFailure, err)
	}
	match.WinningTeam = &winner
	match.ReportedBy = &reporter.DiscordID

	participants := match.Participants()
	players, err := l.playerRepo.GetByDiscordIDs(ctx, participants)
	if err != nil {
		return nil, fmt.Errorf("failed to load participants: %w: %w", entities.ErrPersistenceFailure, err)
	}
	usernames := make(map[int64]string, len(players))
	for _, p := range players {
		usernames[p.DiscordID] = p.Username
	}

	outcome := &entities.ResultOutcome{
		Match:              match,
		WinningTeam:        winner,
		Changes:            make([]entities.RatingChange, 0, len(participants)),
		RoleSync:           make([]entities.RoleSyncInstruction, 0, len(participants)),
		RefreshLeaderboard: true,
	}

	for _, playerID := range participants {
		side, _ := match.SideOf(playerID)
		won := side == winner
		delta := l.ratingDelta
		if !won {
			delta = -delta
		}

		newRating, err := l.playerRepo.ApplyMatchResult(ctx, playerID, delta, won)
		if err != nil {
			return nil, fmt.Errorf("failed to apply result for player %d: %w: %w", playerID, entities.ErrPersistenceFailure, err)
		}
		oldRating := newRating - delta

		outcome.Changes = append(outcome.Changes, entities.RatingChange{
			PlayerID:  playerID,
			Username:  usernames[playerID],
			Side:      side,
			Won:       won,
			OldRating: oldRating,
			NewRating: newRating,
			Delta:     delta,
		})
		outcome.RoleSync = append(outcome.RoleSync, l.tiers.RoleSync(playerID, oldRating, newRating, l.roles))
	}

	log.WithFields(log.Fields{
		"matchID":  matchID,
		"guildID":  match.GuildID,
		"winner":   winner,
		"reporter": reporter.DiscordID,
		"admin":    reporter.Admin,
	}).Info("Match result recorded")

	if err := l.eventPublisher.Publish(events.MatchResultRecordedEvent{
		MatchID:       match.ID,
		GuildID:       match.GuildID,
		QueueType:     match.QueueType,
		MapName:       match.MapName,
		WinningTeam:   winner,
		ReporterID:    reporter.DiscordID,
		AdminReported: reporter.Admin,
		Changes:       outcome.Changes,
		ChannelIDs:    match.ChannelIDs(),
	}); err != nil {
		log.WithError(err).WithField("matchID", matchID).Error("Failed to publish match result event")
	}

	return outcome, nil
}
