package services

import (
	"context"
	"fmt"

	"matchmaker/domain/entities"
	"matchmaker/domain/events"
	"matchmaker/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// LeaderboardSize is the number of players shown on the leaderboard
const LeaderboardSize = 10

type playerService struct {
	guildID        int64
	playerRepo     interfaces.PlayerRepository
	eventPublisher interfaces.EventPublisher
	tiers          *TierTable
	roles          entities.TierRoles
}

// NewPlayerService creates a new player service
func NewPlayerService(
	guildID int64,
	playerRepo interfaces.PlayerRepository,
	eventPublisher interfaces.EventPublisher,
	tiers *TierTable,
	roles entities.TierRoles,
) interfaces.PlayerService {
	return &playerService{
		guildID:        guildID,
		playerRepo:     playerRepo,
		eventPublisher: eventPublisher,
		tiers:          tiers,
		roles:          roles,
	}
}

// Register creates a player at rating 0
func (s *playerService) Register(ctx context.Context, discordID int64, username string) (*entities.Player, error) {
	existing, err := s.playerRepo.GetByDiscordID(ctx, discordID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing player: %w: %w", entities.ErrPersistenceFailure, err)
	}
	if existing != nil {
		return nil, entities.ErrAlreadyRegistered
	}

	player, err := s.playerRepo.Create(ctx, discordID, username)
	if err != nil {
		return nil, fmt.Errorf("failed to create player: %w: %w", entities.ErrPersistenceFailure, err)
	}

	if err := s.eventPublisher.Publish(events.PlayerRegisteredEvent{
		GuildID:   s.guildID,
		DiscordID: discordID,
		Username:  username,
	}); err != nil {
		log.WithError(err).WithField("discordID", discordID).Error("Failed to publish player registered event")
	}

	return player, nil
}

func (s *playerService) RequireRegistered(ctx context.Context, discordID int64) (*entities.Player, error) {
	player, err := s.playerRepo.GetByDiscordID(ctx, discordID)
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w: %w", entities.ErrPersistenceFailure, err)
	}
	if player == nil {
		return nil, entities.ErrNotRegistered
	}
	return player, nil
}

func (s *playerService) GetProfile(ctx context.Context, discordID int64) (*entities.PlayerProfile, error) {
	player, err := s.RequireRegistered(ctx, discordID)
	if err != nil {
		return nil, err
	}

	rank, err := s.playerRepo.GetRank(ctx, discordID)
	if err != nil {
		return nil, fmt.Errorf("failed to get rank: %w: %w", entities.ErrPersistenceFailure, err)
	}

	return &entities.PlayerProfile{
		Player: player,
		Tier:   s.tiers.Resolve(player.Rating),
		Rank:   rank,
	}, nil
}

func (s *playerService) GetLeaderboard(ctx context.Context, limit int) ([]entities.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = LeaderboardSize
	}
	players, err := s.playerRepo.GetTopByRating(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top players: %w: %w", entities.ErrPersistenceFailure, err)
	}

	entries := make([]entities.LeaderboardEntry, len(players))
	for i, p := range players {
		entries[i] = entities.LeaderboardEntry{
			Rank:     i + 1,
			Player:   p,
			TierInfo: s.tiers.Resolve(p.Rating),
		}
	}
	return entries, nil
}

// ResetRating puts a player back to rating 0 with a clean record
func (s *playerService) ResetRating(ctx context.Context, adminID int64, discordID int64) (*entities.RoleSyncInstruction, error) {
	return s.overwriteRating(ctx, adminID, discordID, 0, true)
}

// SetRating overwrites a player's rating, keeping their record
func (s *playerService) SetRating(ctx context.Context, adminID int64, discordID int64, rating int64) (*entities.RoleSyncInstruction, error) {
	return s.overwriteRating(ctx, adminID, discordID, rating, false)
}

func (s *playerService) overwriteRating(ctx context.Context, adminID int64, discordID int64, rating int64, resetRecord bool) (*entities.RoleSyncInstruction, error) {
	player, err := s.RequireRegistered(ctx, discordID)
	if err != nil {
		return nil, err
	}

	if err := s.playerRepo.SetRating(ctx, discordID, rating, resetRecord); err != nil {
		return nil, fmt.Errorf("failed to set rating: %w: %w", entities.ErrPersistenceFailure, err)
	}

	oldTier := s.tiers.Resolve(player.Rating)
	newTier := s.tiers.Resolve(rating)
	// always grant the new tier role
	instruction := &entities.RoleSyncInstruction{
		PlayerID: discordID,
		OldTier:  oldTier.Level,
		NewTier:  newTier.Level,
		AddRole:  s.roles.RoleFor(newTier.Level),
	}
	if oldTier.Level != newTier.Level {
		instruction.RemoveRole = s.roles.RoleFor(oldTier.Level)
	}

	log.WithFields(log.Fields{
		"adminID":     adminID,
		"discordID":   discordID,
		"oldRating":   player.Rating,
		"newRating":   rating,
		"resetRecord": resetRecord,
	}).Info("Player rating overwritten")

	if err := s.eventPublisher.Publish(events.RatingAdjustedEvent{
		GuildID:   s.guildID,
		DiscordID: discordID,
		OldRating: player.Rating,
		NewRating: rating,
		AdminID:   adminID,
	}); err != nil {
		log.WithError(err).WithField("discordID", discordID).Error("Failed to publish rating adjusted event")
	}

	return instruction, nil
}
