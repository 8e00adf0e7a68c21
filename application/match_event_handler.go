package application

import (
	"context"
	"errors"

	"matchmaker/domain/events"

	log "github.com/sirupsen/logrus"
)

// MatchEventHandler reacts to recorded results, disputes and rating adjustments
type MatchEventHandler struct {
	runs     RunTracker
	channels ChannelRemover
	poster   ResultPoster
	metrics  ResultMetrics
}

// NewMatchEventHandler creates a new MatchEventHandler. metrics may be nil.
func NewMatchEventHandler(runs RunTracker, channels ChannelRemover, poster ResultPoster, metrics ResultMetrics) *MatchEventHandler {
	return &MatchEventHandler{
		runs:     runs,
		channels: channels,
		poster:   poster,
		metrics:  metrics,
	}
}

// HandleMatchResultRecorded finishes a match once its winner is stored: the run
// is forgotten, its channels are deleted, the result is announced and the
// leaderboard is refreshed. Every step runs even when an earlier one fails.
func (h *MatchEventHandler) HandleMatchResultRecorded(ctx context.Context, event events.Event) error {
	e, err := AssertEventType[events.MatchResultRecordedEvent](event)
	if err != nil {
		return err
	}

	logger := log.WithFields(log.Fields{
		"matchID": e.MatchID,
		"guildID": e.GuildID,
		"winner":  e.WinningTeam,
	})

	if h.runs != nil && h.runs.MarkResolved(e.MatchID) {
		logger.Debug("Match run resolved")
	}
	if h.metrics != nil {
		h.metrics.RecordResult(ctx, e.QueueType, e.AdminReported)
	}

	var errs []error
	for _, channelID := range e.ChannelIDs {
		if err := h.channels.DeleteChannel(ctx, channelID); err != nil {
			logger.WithError(err).WithField("channelID", channelID).Warn("Failed to delete match channel")
			errs = append(errs, err)
		}
	}

	if err := h.poster.PostMatchResult(ctx, e); err != nil {
		logger.WithError(err).Error("Failed to post match result")
		errs = append(errs, err)
	}
	if err := h.poster.RefreshLeaderboard(ctx, e.GuildID); err != nil {
		logger.WithError(err).Error("Failed to refresh leaderboard")
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// HandleMatchDisputed escalates a dispute to the admins
func (h *MatchEventHandler) HandleMatchDisputed(ctx context.Context, event events.Event) error {
	e, err := AssertEventType[events.MatchDisputedEvent](event)
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"matchID":    e.MatchID,
		"guildID":    e.GuildID,
		"disputerID": e.DisputerID,
	}).Info("Match result disputed")

	return h.poster.PostDisputeReview(ctx, e)
}

// HandleRatingAdjusted refreshes the leaderboard after an admin rating change
func (h *MatchEventHandler) HandleRatingAdjusted(ctx context.Context, event events.Event) error {
	e, err := AssertEventType[events.RatingAdjustedEvent](event)
	if err != nil {
		return err
	}
	return h.poster.RefreshLeaderboard(ctx, e.GuildID)
}
