package application

import (
	"context"

	"matchmaker/domain/events"
)

// ResultPoster publishes match outcomes to the guild's shared channels.
// Implemented by the Discord layer.
type ResultPoster interface {
	// PostMatchResult posts the winner and per-player rating changes to the results channel
	PostMatchResult(ctx context.Context, event events.MatchResultRecordedEvent) error

	// PostDisputeReview asks admins to confirm a winner in the admin results channel
	PostDisputeReview(ctx context.Context, event events.MatchDisputedEvent) error

	// RefreshLeaderboard replaces the leaderboard post of the guild
	RefreshLeaderboard(ctx context.Context, guildID int64) error
}

// RunTracker forgets in-memory match runs once their result is in
type RunTracker interface {
	MarkResolved(matchID int64) bool
}

// ChannelRemover deletes Discord channels
type ChannelRemover interface {
	DeleteChannel(ctx context.Context, channelID int64) error
}

// ResultMetrics counts recorded results
type ResultMetrics interface {
	RecordResult(ctx context.Context, queueType string, adminReported bool)
}

// LocalHandlerRegistrar registers in-process event handlers
type LocalHandlerRegistrar interface {
	RegisterLocalHandler(eventType events.EventType, handler func(context.Context, events.Event) error)
}
