package profile

import (
	"testing"

	"matchmaker/domain/entities"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildProfileEmbed(t *testing.T) {
	profile := &entities.PlayerProfile{
		Player: &entities.Player{DiscordID: 7, Username: "alice", Rating: 360, Wins: 3, Losses: 1},
		Tier:   entities.Tier{Level: 4, MinRating: 350},
		Rank:   2,
	}

	embed := BuildProfileEmbed(profile, "")
	assert.Equal(t, "alice's profile", embed.Title)

	values := map[string]string{}
	for _, f := range embed.Fields {
		values[f.Name] = f.Value
	}
	assert.Equal(t, "360", values["ELO"])
	assert.Equal(t, "4", values["Level"])
	assert.Equal(t, "#2", values["Rank"])
	assert.Equal(t, "75.0%", values["Win rate"])
}

func TestInteractionIDs(t *testing.T) {
	_, _, err := interactionIDs(&discordgo.InteractionCreate{Interaction: &discordgo.Interaction{}})
	require.Error(t, err)

	guildID, discordID, err := interactionIDs(&discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		GuildID: "10",
		Member:  &discordgo.Member{User: &discordgo.User{ID: "20"}},
	}})
	require.NoError(t, err)
	assert.Equal(t, int64(10), guildID)
	assert.Equal(t, int64(20), discordID)
}
