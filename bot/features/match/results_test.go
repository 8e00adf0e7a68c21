package match

import (
	"testing"

	"matchmaker/bot/common"
	"matchmaker/domain/entities"
	"matchmaker/domain/events"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldValues(embed *discordgo.MessageEmbed) map[string]string {
	values := make(map[string]string, len(embed.Fields))
	for _, f := range embed.Fields {
		values[f.Name] = f.Value
	}
	return values
}

func TestBuildResultEmbed(t *testing.T) {
	embed := BuildResultEmbed(events.MatchResultRecordedEvent{
		MatchID:     12,
		MapName:     "Sandstorm",
		WinningTeam: entities.TeamB,
		ReporterID:  3,
		Changes: []entities.RatingChange{
			{PlayerID: 1, Username: "alice", Side: entities.TeamA, NewRating: 75, Delta: -25},
			{PlayerID: 2, Side: entities.TeamA, NewRating: -25, Delta: -25},
			{PlayerID: 3, Username: "carol", Side: entities.TeamB, NewRating: 125, Delta: 25},
		},
	})

	assert.Equal(t, "🏆 Match #12 Results", embed.Title)
	values := fieldValues(embed)
	assert.Equal(t, "**Map:** Sandstorm", values["Team B Won"])
	assert.Equal(t, "alice - 75 (-25)\n<@2> - -25 (-25)", values["Team A"])
	assert.Equal(t, "carol - 125 (+25)", values["Team B"])
	assert.Equal(t, "<@3>", values["Reported by"])
}

func TestBuildResultEmbed_AdminReported(t *testing.T) {
	embed := BuildResultEmbed(events.MatchResultRecordedEvent{MatchID: 1, WinningTeam: entities.TeamA, ReporterID: 9, AdminReported: true})
	values := fieldValues(embed)
	assert.Equal(t, "<@9> (admin)", values["Reported by"])
	assert.Equal(t, "-", values["Team A"])
}

func TestBuildDisputeEmbed(t *testing.T) {
	embed := BuildDisputeEmbed(events.MatchDisputedEvent{
		MatchID:    4,
		DisputerID: 2,
		MapName:    "Iraq",
		TeamA:      []int64{1, 2},
		TeamB:      []int64{3, 4},
	})
	assert.Contains(t, embed.Description, "Match ID: 4")
	assert.Contains(t, embed.Description, "Disputed by: <@2>")
	assert.NotContains(t, embed.Description, "already recorded")

	values := fieldValues(embed)
	assert.Equal(t, "<@1>\n<@2>", values["Team A"])
	assert.Equal(t, "<@3>\n<@4>", values["Team B"])

	resolved := BuildDisputeEmbed(events.MatchDisputedEvent{MatchID: 4, Resolved: true})
	assert.Contains(t, resolved.Description, "already recorded")
}

func TestBuildDisputeComponents(t *testing.T) {
	components := BuildDisputeComponents(4)
	require.Len(t, components, 1)
	row := components[0].(discordgo.ActionsRow)
	require.Len(t, row.Components, 2)

	for idx, side := range []entities.TeamSide{entities.TeamA, entities.TeamB} {
		button := row.Components[idx].(discordgo.Button)
		matchID, parsed, err := common.ParseAdminConfirmButtonID(button.CustomID)
		require.NoError(t, err)
		assert.Equal(t, int64(4), matchID)
		assert.Equal(t, side, parsed)
	}
}
