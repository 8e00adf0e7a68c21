package interfaces

import (
	"context"

	"matchmaker/domain/entities"
)

// PlayerService defines the interface for registration, profiles and admin rating changes
type PlayerService interface {
	// Register creates a player at rating 0
	Register(ctx context.Context, discordID int64, username string) (*entities.Player, error)

	// RequireRegistered returns the player or entities.ErrNotRegistered
	RequireRegistered(ctx context.Context, discordID int64) (*entities.Player, error)

	// GetProfile returns the player with their tier and leaderboard rank
	GetProfile(ctx context.Context, discordID int64) (*entities.PlayerProfile, error)

	// GetLeaderboard returns the top players by rating
	GetLeaderboard(ctx context.Context, limit int) ([]entities.LeaderboardEntry, error)

	// ResetRating sets rating to 0 and clears the win/loss record
	ResetRating(ctx context.Context, adminID int64, discordID int64) (*entities.RoleSyncInstruction, error)

	// SetRating overwrites the rating of a player
	SetRating(ctx context.Context, adminID int64, discordID int64, rating int64) (*entities.RoleSyncInstruction, error)
}

// ResultRecorder records the winner of a match exactly once
type ResultRecorder interface {
	RecordResult(ctx context.Context, matchID int64, winner entities.TeamSide, reporter entities.Reporter) (*entities.ResultOutcome, error)
}

// DisputeService defines the interface for contesting and adjudicating results
type DisputeService interface {
	// Dispute flags the match for admin review
	Dispute(ctx context.Context, matchID int64, disputerID int64) (*entities.DisputeTicket, error)

	// Resolve records the admin's decision through the result ledger
	Resolve(ctx context.Context, matchID int64, winner entities.TeamSide, reporter entities.Reporter) (*entities.ResultOutcome, error)
}
