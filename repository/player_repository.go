package repository

import (
	"context"
	"errors"
	"fmt"

	"matchmaker/database"
	"matchmaker/domain/entities"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

const playerColumns = `discord_id, guild_id, username, rating, wins, losses, created_at, updated_at`

// PlayerRepository implements the PlayerRepository interface
type PlayerRepository struct {
	q       Queryable
	guildID int64
}

// NewPlayerRepository creates a new player repository
func NewPlayerRepository(db *database.DB) *PlayerRepository {
	return &PlayerRepository{q: db.Pool}
}

// NewPlayerRepositoryScoped creates a new player repository with a transaction and guild scope
func NewPlayerRepositoryScoped(tx Queryable, guildID int64) *PlayerRepository {
	return &PlayerRepository{
		q:       tx,
		guildID: guildID,
	}
}

func scanPlayer(row pgx.Row) (*entities.Player, error) {
	var p entities.Player
	err := row.Scan(
		&p.DiscordID,
		&p.GuildID,
		&p.Username,
		&p.Rating,
		&p.Wins,
		&p.Losses,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByDiscordID retrieves a player in the current guild
func (r *PlayerRepository) GetByDiscordID(ctx context.Context, discordID int64) (*entities.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE guild_id = $1 AND discord_id = $2`

	player, err := scanPlayer(r.q.QueryRow(ctx, query, r.guildID, discordID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	return player, nil
}

// GetByDiscordIDs retrieves the registered subset of the given players
func (r *PlayerRepository) GetByDiscordIDs(ctx context.Context, discordIDs []int64) ([]*entities.Player, error) {
	if len(discordIDs) == 0 {
		return nil, nil
	}

	query := `SELECT ` + playerColumns + ` FROM players WHERE guild_id = $1 AND discord_id = ANY($2) ORDER BY discord_id`
	return r.queryPlayers(ctx, query, r.guildID, discordIDs)
}

// Create registers a new player at rating 0
func (r *PlayerRepository) Create(ctx context.Context, discordID int64, username string) (*entities.Player, error) {
	query := `
		INSERT INTO players (guild_id, discord_id, username)
		VALUES ($1, $2, $3)
		RETURNING ` + playerColumns

	player, err := scanPlayer(r.q.QueryRow(ctx, query, r.guildID, discordID, username))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, entities.ErrAlreadyRegistered
		}
		return nil, fmt.Errorf("failed to create player: %w", err)
	}
	return player, nil
}

// ApplyMatchResult shifts the rating by delta and records the win or loss in one statement
func (r *PlayerRepository) ApplyMatchResult(ctx context.Context, discordID int64, delta int64, won bool) (int64, error) {
	query := `
		UPDATE players
		SET rating = rating + $3,
		    wins = wins + CASE WHEN $4::boolean THEN 1 ELSE 0 END,
		    losses = losses + CASE WHEN $4::boolean THEN 0 ELSE 1 END,
		    updated_at = NOW()
		WHERE guild_id = $1 AND discord_id = $2
		RETURNING rating
	`

	var rating int64
	err := r.q.QueryRow(ctx, query, r.guildID, discordID, delta, won).Scan(&rating)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, entities.ErrNotRegistered
	}
	if err != nil {
		return 0, fmt.Errorf("failed to apply match result: %w", err)
	}
	return rating, nil
}

// SetRating overwrites the rating, optionally clearing the win/loss record
func (r *PlayerRepository) SetRating(ctx context.Context, discordID int64, rating int64, resetRecord bool) error {
	query := `
		UPDATE players
		SET rating = $3,
		    wins = CASE WHEN $4::boolean THEN 0 ELSE wins END,
		    losses = CASE WHEN $4::boolean THEN 0 ELSE losses END,
		    updated_at = NOW()
		WHERE guild_id = $1 AND discord_id = $2
	`

	tag, err := r.q.Exec(ctx, query, r.guildID, discordID, rating, resetRecord)
	if err != nil {
		return fmt.Errorf("failed to set rating: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return entities.ErrNotRegistered
	}
	return nil
}

// GetTopByRating returns the leaderboard head, ties broken by wins then ID
func (r *PlayerRepository) GetTopByRating(ctx context.Context, limit int) ([]*entities.Player, error) {
	query := `
		SELECT ` + playerColumns + `
		FROM players
		WHERE guild_id = $1
		ORDER BY rating DESC, wins DESC, discord_id
		LIMIT $2
	`
	return r.queryPlayers(ctx, query, r.guildID, limit)
}

// GetRank returns the 1-based position of the player by rating
func (r *PlayerRepository) GetRank(ctx context.Context, discordID int64) (int, error) {
	query := `
		SELECT COUNT(*) + 1
		FROM players p, players me
		WHERE me.guild_id = $1 AND me.discord_id = $2
		  AND p.guild_id = me.guild_id
		  AND (p.rating > me.rating
		       OR (p.rating = me.rating AND p.wins > me.wins)
		       OR (p.rating = me.rating AND p.wins = me.wins AND p.discord_id < me.discord_id))
	`

	exists, err := r.GetByDiscordID(ctx, discordID)
	if err != nil {
		return 0, err
	}
	if exists == nil {
		return 0, entities.ErrNotRegistered
	}

	var rank int
	if err := r.q.QueryRow(ctx, query, r.guildID, discordID).Scan(&rank); err != nil {
		return 0, fmt.Errorf("failed to get rank: %w", err)
	}
	return rank, nil
}

func (r *PlayerRepository) queryPlayers(ctx context.Context, query string, args ...any) ([]*entities.Player, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query players: %w", err)
	}
	defer rows.Close()

	var players []*entities.Player
	for rows.Next() {
		player, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, player)
	}
	return players, rows.Err()
}
