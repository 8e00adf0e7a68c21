package entities

import (
	"fmt"
	"time"
)

// TeamSide identifies one of the two teams of a match
type TeamSide string

const (
	TeamA TeamSide = "A"
	TeamB TeamSide = "B"
)

// Valid reports whether the side is A or B
func (s TeamSide) Valid() bool {
	return s == TeamA || s == TeamB
}

// Opponent returns the other side
func (s TeamSide) Opponent() TeamSide {
	if s == TeamA {
		return TeamB
	}
	return TeamA
}

// ParseTeamSide parses "A"/"B" (case-insensitive)
func ParseTeamSide(value string) (TeamSide, error) {
	switch value {
	case "A", "a":
		return TeamA, nil
	case "B", "b":
		return TeamB, nil
	}
	return "", fmt.Errorf("invalid team side %q", value)
}

// Match is a persisted match between two teams
type Match struct {
	ID            int64      `db:"id"`
	GuildID       int64      `db:"guild_id"`
	QueueType     string     `db:"queue_type"`
	TeamA         []int64    `db:"team_a"`
	TeamB         []int64    `db:"team_b"`
	MapName       string     `db:"map_name"`
	RoomCreatorID int64      `db:"room_creator_id"`
	Passphrase    string     `db:"passphrase"`
	WinningTeam   *TeamSide  `db:"winning_team"`
	Disputed      bool       `db:"disputed"`
	ReportedBy    *int64     `db:"reported_by"`
	ResolvedAt    *time.Time `db:"resolved_at"`
	TextChannelID *int64     `db:"text_channel_id"`
	TeamAVoiceID  *int64     `db:"team_a_voice_id"`
	TeamBVoiceID  *int64     `db:"team_b_voice_id"`
	CreatedAt     time.Time  `db:"created_at"`
}

// IsResolved reports whether a winner has been recorded
func (m *Match) IsResolved() bool {
	return m.WinningTeam != nil
}

// Participants returns team A followed by team B
func (m *Match) Participants() []int64 {
	all := make([]int64, 0, len(m.TeamA)+len(m.TeamB))
	all = append(all, m.TeamA...)
	return append(all, m.TeamB...)
}

// SideOf returns the side a player is on, or false if they did not play
func (m *Match) SideOf(discordID int64) (TeamSide, bool) {
	for _, id := range m.TeamA {
		if id == discordID {
			return TeamA, true
		}
	}
	for _, id := range m.TeamB {
		if id == discordID {
			return TeamB, true
		}
	}
	return "", false
}

// IsParticipant reports whether the player is on either team
func (m *Match) IsParticipant(discordID int64) bool {
	_, ok := m.SideOf(discordID)
	return ok
}

// Team returns the roster of the given side
func (m *Match) Team(side TeamSide) []int64 {
	if side == TeamA {
		return m.TeamA
	}
	return m.TeamB
}

// ChannelIDs returns every Discord channel created for the match
func (m *Match) ChannelIDs() []int64 {
	var ids []int64
	for _, id := range []*int64{m.TextChannelID, m.TeamAVoiceID, m.TeamBVoiceID} {
		if id != nil && *id != 0 {
			ids = append(ids, *id)
		}
	}
	return ids
}
