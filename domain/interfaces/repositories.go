package interfaces

import (
	"context"

	"matchmaker/domain/entities"
	"matchmaker/domain/events"
)

// PlayerRepository defines the interface for player data access
type PlayerRepository interface {
	// GetByDiscordID retrieves a player, returning nil when not registered
	GetByDiscordID(ctx context.Context, discordID int64) (*entities.Player, error)

	// GetByDiscordIDs retrieves every registered player of the given IDs
	GetByDiscordIDs(ctx context.Context, discordIDs []int64) ([]*entities.Player, error)

	// Create registers a new player at rating 0
	Create(ctx context.Context, discordID int64, username string) (*entities.Player, error)

	// ApplyMatchResult adds delta to the rating and bumps wins or losses, returning the new rating
	ApplyMatchResult(ctx context.Context, discordID int64, delta int64, won bool) (int64, error)

	// SetRating overwrites a rating. When resetRecord is set wins and losses are zeroed.
	SetRating(ctx context.Context, discordID int64, rating int64, resetRecord bool) error

	// GetTopByRating returns the highest rated players
	GetTopByRating(ctx context.Context, limit int) ([]*entities.Player, error)

	// GetRank returns the 1-based leaderboard position of the player
	GetRank(ctx context.Context, discordID int64) (int, error)
}

// MatchRepository defines the interface for match data access
type MatchRepository interface {
	// Create inserts a pending match and fills in its ID and CreatedAt
	Create(ctx context.Context, match *entities.Match) error

	// GetByID retrieves a match, returning nil when it does not exist
	GetByID(ctx context.Context, id int64) (*entities.Match, error)

	// GetByIDForUpdate retrieves a match with a row lock
	GetByIDForUpdate(ctx context.Context, id int64) (*entities.Match, error)

	// RecordWinner sets the winning team only if none is set yet.
	// Returns entities.ErrAlreadyRecorded when another writer got there first.
	RecordWinner(ctx context.Context, id int64, winner entities.TeamSide, reporterID int64) error

	// MarkDisputed flags the match as disputed
	MarkDisputed(ctx context.Context, id int64) error

	// GetPending returns matches without a recorded winner
	GetPending(ctx context.Context) ([]*entities.Match, error)

	// GetRecent returns the most recently created matches
	GetRecent(ctx context.Context, limit int) ([]*entities.Match, error)
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	Publish(event events.Event) error
}

// TransactionalEventPublisher buffers events until the surrounding transaction settles
type TransactionalEventPublisher interface {
	EventPublisher
	Flush(ctx context.Context) error
	Discard()
}
