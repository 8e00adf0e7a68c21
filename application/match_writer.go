package application

import (
	"context"
	"fmt"

	"matchmaker/domain/entities"
	"matchmaker/domain/events"

	log "github.com/sirupsen/logrus"
)

// MatchWriter persists newly set up matches through a unit of work and
// announces them with a MatchCreatedEvent
type MatchWriter struct {
	uowFactory UnitOfWorkFactory
}

// NewMatchWriter creates a new MatchWriter
func NewMatchWriter(uowFactory UnitOfWorkFactory) *MatchWriter {
	return &MatchWriter{uowFactory: uowFactory}
}

// CreateMatch inserts the match in its guild and fills in ID and CreatedAt
func (w *MatchWriter) CreateMatch(ctx context.Context, match *entities.Match) error {
	uow := w.uowFactory.CreateForGuild(match.GuildID)
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("%w: %w", entities.ErrPersistenceFailure, err)
	}
	defer uow.Rollback()

	if err := uow.MatchRepository().Create(ctx, match); err != nil {
		return fmt.Errorf("%w: %w", entities.ErrPersistenceFailure, err)
	}

	if err := uow.EventBus().Publish(events.MatchCreatedEvent{
		MatchID:       match.ID,
		GuildID:       match.GuildID,
		QueueType:     match.QueueType,
		TeamA:         match.TeamA,
		TeamB:         match.TeamB,
		MapName:       match.MapName,
		RoomCreatorID: match.RoomCreatorID,
	}); err != nil {
		return fmt.Errorf("failed to publish match created event: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("%w: %w", entities.ErrPersistenceFailure, err)
	}

	log.WithFields(log.Fields{
		"matchID":   match.ID,
		"guildID":   match.GuildID,
		"queueType": match.QueueType,
		"map":       match.MapName,
	}).Info("Match persisted")
	return nil
}
