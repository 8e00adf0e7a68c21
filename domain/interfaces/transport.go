package interfaces

import (
	"context"
	"time"

	"matchmaker/domain/entities"
)

// Initiator identifies who triggered a match and where they did it. Used as the
// fallback surface when a match has no channel of its own yet.
type Initiator struct {
	UserID    int64
	ChannelID int64
}

// Prompt is something the transport renders to a channel
type Prompt interface {
	promptKind() string
}

// VotePrompt asks players to choose one candidate before the deadline
type VotePrompt struct {
	SessionID  string
	Title      string
	Candidates []string
	Deadline   time.Time
}

// PickTurnPrompt asks a captain to pick one player from the pool
type PickTurnPrompt struct {
	TurnID   string
	Turn     int
	Side     entities.TeamSide
	Captain  int64
	Pool     []int64
	Names    map[int64]string
	Deadline time.Time
}

// TextPrompt is a plain informational message
type TextPrompt struct {
	Title   string
	Body    string
	IsError bool
}

// MatchReadyPrompt announces teams, map and room details
type MatchReadyPrompt struct {
	Match *entities.Match
	Names map[int64]string
}

// ResultPrompt exposes the result-reporting controls for a match
type ResultPrompt struct {
	MatchID int64
}

func (VotePrompt) promptKind() string       { return "vote" }
func (PickTurnPrompt) promptKind() string   { return "pick_turn" }
func (TextPrompt) promptKind() string       { return "text" }
func (MatchReadyPrompt) promptKind() string { return "match_ready" }
func (ResultPrompt) promptKind() string     { return "result" }

// PromptKind returns a short name for the prompt type, used in logs
func PromptKind(p Prompt) string {
	if p == nil {
		return ""
	}
	return p.promptKind()
}

// MatchTransport is the messaging platform a match is run on
type MatchTransport interface {
	// CreateMatchChannel creates a private text channel visible to the participants
	CreateMatchChannel(ctx context.Context, guildID int64, name string, participants []int64) (int64, error)

	// CreateVoiceChannel creates a voice channel for one team
	CreateVoiceChannel(ctx context.Context, guildID int64, name string, participants []int64) (int64, error)

	// SendPrompt renders a prompt to a channel and returns the message reference
	SendPrompt(ctx context.Context, channelID int64, prompt Prompt) (string, error)

	// MovePlayer moves a connected player into a voice channel
	MovePlayer(ctx context.Context, guildID int64, playerID int64, channelID int64) error

	// DeleteChannel removes a channel
	DeleteChannel(ctx context.Context, channelID int64) error

	// ApplyRoleDelta adds and removes roles on a member. Zero role IDs are skipped.
	ApplyRoleDelta(ctx context.Context, guildID int64, playerID int64, addRole int64, removeRole int64) error

	// NotifyInitiator reports a message to whoever triggered the operation
	NotifyInitiator(ctx context.Context, initiator Initiator, message string) error
}

// MatchMetrics records match lifecycle measurements
type MatchMetrics interface {
	RecordStateTransition(ctx context.Context, queueType string, state string)
	RecordMatchAborted(ctx context.Context, queueType string, state string)
	RecordVoteCast(ctx context.Context)
	RecordPickTimeout(ctx context.Context)
	RecordQueueJoin(ctx context.Context, queueType string)
	RecordResult(ctx context.Context, queueType string, adminReported bool)
}
