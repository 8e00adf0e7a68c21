package services

import (
	"context"
	"fmt"

	"matchmaker/domain/entities"
	"matchmaker/domain/events"
	"matchmaker/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

type disputeWorkflow struct {
	matchRepo      interfaces.MatchRepository
	ledger         interfaces.ResultRecorder
	eventPublisher interfaces.EventPublisher
}

// NewDisputeWorkflow creates a dispute workflow that adjudicates through ledger
func NewDisputeWorkflow(
	matchRepo interfaces.MatchRepository,
	ledger interfaces.ResultRecorder,
	eventPublisher interfaces.EventPublisher,
) interfaces.DisputeService {
	return &disputeWorkflow{
		matchRepo:      matchRepo,
		ledger:         ledger,
		eventPublisher: eventPublisher,
	}
}

// Dispute flags a match for admin review. Allowed whether or not a result was already recorded.
func (w *disputeWorkflow) Dispute(ctx context.Context, matchID int64, disputerID int64) (*entities.DisputeTicket, error) {
	match, err := w.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w: %w", entities.ErrPersistenceFailure, err)
	}
	if match == nil {
		return nil, entities.ErrMatchNotFound
	}
	if !match.IsParticipant(disputerID) {
		return nil, entities.ErrNotParticipant
	}

	if err := w.matchRepo.MarkDisputed(ctx, matchID); err != nil {
		return nil, fmt.Errorf("failed to mark match disputed: %w: %w", entities.ErrPersistenceFailure, err)
	}
	match.Disputed = true

	log.WithFields(log.Fields{
		"matchID":  matchID,
		"disputer": disputerID,
		"resolved": match.IsResolved(),
	}).Info("Match result disputed")

	if err := w.eventPublisher.Publish(events.MatchDisputedEvent{
		MatchID:    match.ID,
		GuildID:    match.GuildID,
		DisputerID: disputerID,
		MapName:    match.MapName,
		TeamA:      match.TeamA,
		TeamB:      match.TeamB,
		Resolved:   match.IsResolved(),
	}); err != nil {
		log.WithError(err).WithField("matchID", matchID).Error("Failed to publish match disputed event")
	}

	return &entities.DisputeTicket{Match: match, DisputerID: disputerID}, nil
}

// Resolve records an admin decision for a disputed match
func (w *disputeWorkflow) Resolve(ctx context.Context, matchID int64, winner entities.TeamSide, reporter entities.Reporter) (*entities.ResultOutcome, error) {
	if !reporter.Admin {
		return nil, entities.ErrPermissionDenied
	}
	return w.ledger.RecordResult(ctx, matchID, winner, reporter)
}
