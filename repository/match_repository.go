package repository

import (
	"context"
	"errors"
	"fmt"

	"matchmaker/database"
	"matchmaker/domain/entities"

	"github.com/jackc/pgx/v5"
)

const matchColumns = `id, guild_id, queue_type, team_a, team_b, map_name, room_creator_id, passphrase,
	winning_team, disputed, reported_by, resolved_at, text_channel_id, team_a_voice_id, team_b_voice_id, created_at`

// MatchRepository implements the MatchRepository interface
type MatchRepository struct {
	q       Queryable
	guildID int64
}

// NewMatchRepository creates a new match repository
func NewMatchRepository(db *database.DB) *MatchRepository {
	return &MatchRepository{q: db.Pool}
}

// NewMatchRepositoryScoped creates a new match repository with a transaction and guild scope
func NewMatchRepositoryScoped(tx Queryable, guildID int64) *MatchRepository {
	return &MatchRepository{
		q:       tx,
		guildID: guildID,
	}
}

func scanMatch(row pgx.Row) (*entities.Match, error) {
	var m entities.Match
	var winner *string
	err := row.Scan(
		&m.ID,
		&m.GuildID,
		&m.QueueType,
		&m.TeamA,
		&m.TeamB,
		&m.MapName,
		&m.RoomCreatorID,
		&m.Passphrase,
		&winner,
		&m.Disputed,
		&m.ReportedBy,
		&m.ResolvedAt,
		&m.TextChannelID,
		&m.TeamAVoiceID,
		&m.TeamBVoiceID,
		&m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if winner != nil {
		side := entities.TeamSide(*winner)
		m.WinningTeam = &side
	}
	return &m, nil
}

// Create inserts a pending match for the current guild
func (r *MatchRepository) Create(ctx context.Context, match *entities.Match) error {
	query := `
		INSERT INTO matches (guild_id, queue_type, team_a, team_b, map_name, room_creator_id, passphrase,
		                     text_channel_id, team_a_voice_id, team_b_voice_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`

	match.GuildID = r.guildID
	err := r.q.QueryRow(ctx, query,
		r.guildID,
		match.QueueType,
		match.TeamA,
		match.TeamB,
		match.MapName,
		match.RoomCreatorID,
		match.Passphrase,
		match.TextChannelID,
		match.TeamAVoiceID,
		match.TeamBVoiceID,
	).Scan(&match.ID, &match.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create match: %w", err)
	}
	return nil
}

// GetByID retrieves a match by ID
func (r *MatchRepository) GetByID(ctx context.Context, id int64) (*entities.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE guild_id = $1 AND id = $2`
	return r.getOne(ctx, query, id)
}

// GetByIDForUpdate retrieves a match and locks its row until the transaction ends
func (r *MatchRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE guild_id = $1 AND id = $2 FOR UPDATE`
	return r.getOne(ctx, query, id)
}

func (r *MatchRepository) getOne(ctx context.Context, query string, id int64) (*entities.Match, error) {
	match, err := scanMatch(r.q.QueryRow(ctx, query, r.guildID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	return match, nil
}

// RecordWinner sets the winner only while none is recorded
func (r *MatchRepository) RecordWinner(ctx context.Context, id int64, winner entities.TeamSide, reporterID int64) error {
	query := `
		UPDATE matches
		SET winning_team = $3, reported_by = $4, resolved_at = NOW()
		WHERE guild_id = $1 AND id = $2 AND winning_team IS NULL
	`

	tag, err := r.q.Exec(ctx, query, r.guildID, id, string(winner), reporterID)
	if err != nil {
		return fmt.Errorf("failed to record winner: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	match, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if match == nil {
		return entities.ErrMatchNotFound
	}
	return entities.ErrAlreadyRecorded
}

// MarkDisputed flags the match as disputed
func (r *MatchRepository) MarkDisputed(ctx context.Context, id int64) error {
	query := `UPDATE matches SET disputed = TRUE WHERE guild_id = $1 AND id = $2`

	tag, err := r.q.Exec(ctx, query, r.guildID, id)
	if err != nil {
		return fmt.Errorf("failed to mark match disputed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return entities.ErrMatchNotFound
	}
	return nil
}

// GetPending returns matches still waiting for a result, oldest first
func (r *MatchRepository) GetPending(ctx context.Context) ([]*entities.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE guild_id = $1 AND winning_team IS NULL ORDER BY created_at, id`
	return r.queryMatches(ctx, query, r.guildID)
}

// GetRecent returns the newest matches first
func (r *MatchRepository) GetRecent(ctx context.Context, limit int) ([]*entities.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE guild_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`
	return r.queryMatches(ctx, query, r.guildID, limit)
}

func (r *MatchRepository) queryMatches(ctx context.Context, query string, args ...any) ([]*entities.Match, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	var matches []*entities.Match
	for rows.Next() {
		match, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, match)
	}
	return matches, rows.Err()
}
