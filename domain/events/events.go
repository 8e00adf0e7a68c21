package events

import "matchmaker/domain/entities"

// EventType represents different types of events in the system
type EventType string

const (
	EventTypePlayerRegistered    EventType = "player_registered"
	EventTypeMatchCreated        EventType = "match_created"
	EventTypeMatchResultRecorded EventType = "match_result_recorded"
	EventTypeMatchDisputed       EventType = "match_disputed"
	EventTypeRatingAdjusted      EventType = "rating_adjusted"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// PlayerRegisteredEvent is published when a player joins the ladder
type PlayerRegisteredEvent struct {
	GuildID   int64
	DiscordID int64
	Username  string
}

func (e PlayerRegisteredEvent) Type() EventType {
	return EventTypePlayerRegistered
}

// MatchCreatedEvent is published once a match row has been persisted
type MatchCreatedEvent struct {
	MatchID       int64
	GuildID       int64
	QueueType     string
	TeamA         []int64
	TeamB         []int64
	MapName       string
	RoomCreatorID int64
}

func (e MatchCreatedEvent) Type() EventType {
	return EventTypeMatchCreated
}

// MatchResultRecordedEvent is published after the winner of a match is written
type MatchResultRecordedEvent struct {
	MatchID       int64
	GuildID       int64
	QueueType     string
	MapName       string
	WinningTeam   entities.TeamSide
	ReporterID    int64
	AdminReported bool
	Changes       []entities.RatingChange
	ChannelIDs    []int64
}

func (e MatchResultRecordedEvent) Type() EventType {
	return EventTypeMatchResultRecorded
}

// MatchDisputedEvent requests an admin review of a match result
type MatchDisputedEvent struct {
	MatchID    int64
	GuildID    int64
	DisputerID int64
	MapName    string
	TeamA      []int64
	TeamB      []int64
	Resolved   bool
}

func (e MatchDisputedEvent) Type() EventType {
	return EventTypeMatchDisputed
}

// RatingAdjustedEvent is published when an admin resets or sets a rating
type RatingAdjustedEvent struct {
	GuildID   int64
	DiscordID int64
	OldRating int64
	NewRating int64
	AdminID   int64
}

func (e RatingAdjustedEvent) Type() EventType {
	return EventTypeRatingAdjusted
}
