package testhelpers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"matchmaker/domain/entities"
)

// InMemoryMatchRepository is a MatchRepository backed by a map. RecordWinner
// has the same compare-and-set behaviour as the Postgres repository.
type InMemoryMatchRepository struct {
	mu      sync.Mutex
	nextID  int64
	matches map[int64]*entities.Match

	FailCreate bool
}

// NewInMemoryMatchRepository creates an empty repository
func NewInMemoryMatchRepository() *InMemoryMatchRepository {
	return &InMemoryMatchRepository{matches: make(map[int64]*entities.Match)}
}

func (r *InMemoryMatchRepository) Create(ctx context.Context, match *entities.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailCreate {
		return fmt.Errorf("connection refused")
	}
	r.nextID++
	match.ID = r.nextID
	match.CreatedAt = time.Now()
	stored := *match
	r.matches[match.ID] = &stored
	return nil
}

// CreateMatch lets the repository act as the orchestrator's MatchWriter
func (r *InMemoryMatchRepository) CreateMatch(ctx context.Context, match *entities.Match) error {
	return r.Create(ctx, match)
}

func (r *InMemoryMatchRepository) GetByID(ctx context.Context, id int64) (*entities.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[id]
	if !ok {
		return nil, nil
	}
	copied := *m
	return &copied, nil
}

func (r *InMemoryMatchRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.Match, error) {
	return r.GetByID(ctx, id)
}

func (r *InMemoryMatchRepository) RecordWinner(ctx context.Context, id int64, winner entities.TeamSide, reporterID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[id]
	if !ok || m.WinningTeam != nil {
		return entities.ErrAlreadyRecorded
	}
	now := time.Now()
	m.WinningTeam = &winner
	m.ReportedBy = &reporterID
	m.ResolvedAt = &now
	return nil
}

func (r *InMemoryMatchRepository) MarkDisputed(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.matches[id]; ok {
		m.Disputed = true
	}
	return nil
}

func (r *InMemoryMatchRepository) GetPending(ctx context.Context) ([]*entities.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entities.Match
	for _, m := range r.matches {
		if m.WinningTeam == nil {
			copied := *m
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *InMemoryMatchRepository) GetRecent(ctx context.Context, limit int) ([]*entities.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entities.Match
	for id := r.nextID; id > 0 && len(out) < limit; id-- {
		if m, ok := r.matches[id]; ok {
			copied := *m
			out = append(out, &copied)
		}
	}
	return out, nil
}

// InMemoryPlayerRepository is a PlayerRepository backed by a map
type InMemoryPlayerRepository struct {
	mu      sync.Mutex
	players map[int64]*entities.Player
}

// NewInMemoryPlayerRepository creates a repository with the given players registered at rating 0
func NewInMemoryPlayerRepository(discordIDs ...int64) *InMemoryPlayerRepository {
	r := &InMemoryPlayerRepository{players: make(map[int64]*entities.Player)}
	for _, id := range discordIDs {
		r.players[id] = &entities.Player{DiscordID: id, Username: fmt.Sprintf("player%d", id)}
	}
	return r
}

func (r *InMemoryPlayerRepository) GetByDiscordID(ctx context.Context, discordID int64) (*entities.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[discordID]
	if !ok {
		return nil, nil
	}
	copied := *p
	return &copied, nil
}

func (r *InMemoryPlayerRepository) GetByDiscordIDs(ctx context.Context, discordIDs []int64) ([]*entities.Player, error) {
	var out []*entities.Player
	for _, id := range discordIDs {
		p, _ := r.GetByDiscordID(ctx, id)
		if p != nil {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *InMemoryPlayerRepository) Create(ctx context.Context, discordID int64, username string) (*entities.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := &entities.Player{DiscordID: discordID, Username: username}
	r.players[discordID] = p
	copied := *p
	return &copied, nil
}

func (r *InMemoryPlayerRepository) ApplyMatchResult(ctx context.Context, discordID int64, delta int64, won bool) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[discordID]
	if !ok {
		return 0, entities.ErrNotRegistered
	}
	p.Rating += delta
	if won {
		p.Wins++
	} else {
		p.Losses++
	}
	return p.Rating, nil
}

func (r *InMemoryPlayerRepository) SetRating(ctx context.Context, discordID int64, rating int64, resetRecord bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[discordID]
	if !ok {
		return entities.ErrNotRegistered
	}
	p.Rating = rating
	if resetRecord {
		p.Wins, p.Losses = 0, 0
	}
	return nil
}

func (r *InMemoryPlayerRepository) GetTopByRating(ctx context.Context, limit int) ([]*entities.Player, error) {
	return nil, fmt.Errorf("not implemented")
}

func (r *InMemoryPlayerRepository) GetRank(ctx context.Context, discordID int64) (int, error) {
	return 0, fmt.Errorf("not implemented")
}
