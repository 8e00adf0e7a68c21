package leaderboard

import (
	"bytes"
	"image/png"
	"testing"

	"matchmaker/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEntries() []entities.LeaderboardEntry {
	return []entities.LeaderboardEntry{
		{Rank: 1, Player: &entities.Player{DiscordID: 1, Username: "alice", Rating: 420, Wins: 12, Losses: 3}, TierInfo: entities.Tier{Level: 4}},
		{Rank: 2, Player: &entities.Player{DiscordID: 2, Username: "bob", Rating: 210, Wins: 2, Losses: 0}, TierInfo: entities.Tier{Level: 3}},
		{Rank: 3, Player: &entities.Player{DiscordID: 3, Username: "carol", Rating: 150, Wins: 9, Losses: 8}, TierInfo: entities.Tier{Level: 2}},
		{Rank: 4, Player: &entities.Player{DiscordID: 4, Username: "a-very-long-username-indeed", Rating: 0}, TierInfo: entities.Tier{Level: 1}},
	}
}

func TestBuildLeaderboardEmbed(t *testing.T) {
	embed := BuildLeaderboardEmbed(sampleEntries())

	lines := bytes.Split([]byte(embed.Description), []byte("\n"))
	assert.Equal(t, "🥇 <@1> | Level 4 | 420 ELO | 12-3", string(lines[0]))
	assert.Equal(t, "**4.** <@4> | Level 1 | 0 ELO | 0-0", string(lines[3]))
}

func TestBuildLeaderboardEmbed_Empty(t *testing.T) {
	embed := BuildLeaderboardEmbed(nil)
	assert.Contains(t, embed.Description, "/register")
}

func TestBestWinRate(t *testing.T) {
	// bob has 100% but too few games to qualify
	assert.Equal(t, 0, bestWinRate(sampleEntries()))
	assert.Equal(t, -1, bestWinRate(sampleEntries()[1:2]))
}

func TestImageGenerator_Generate(t *testing.T) {
	data, err := NewImageGenerator().Generate(sampleEntries())
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 420, img.Bounds().Dx())
	assert.GreaterOrEqual(t, img.Bounds().Dy(), 120)
}
