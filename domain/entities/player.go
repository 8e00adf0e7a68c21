package entities

import (
	"time"
)

// Player represents a registered participant of the ranked queue in a guild
type Player struct {
	DiscordID int64     `db:"discord_id"`
	GuildID   int64     `db:"guild_id"`
	Username  string    `db:"username"`
	Rating    int64     `db:"rating"`
	Wins      int       `db:"wins"`
	Losses    int       `db:"losses"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// GamesPlayed returns the number of recorded matches for the player
func (p *Player) GamesPlayed() int {
	return p.Wins + p.Losses
}

// WinRate returns the win percentage (0-100), or 0 when no games were played
func (p *Player) WinRate() float64 {
	total := p.GamesPlayed()
	if total == 0 {
		return 0
	}
	return float64(p.Wins) / float64(total) * 100
}

// PlayerProfile is a player together with their resolved tier
type PlayerProfile struct {
	Player *Player
	Tier   Tier
	Rank   int
}

// LeaderboardEntry is one row of the rating leaderboard
type LeaderboardEntry struct {
	Rank     int
	Player   *Player
	TierInfo Tier
}
