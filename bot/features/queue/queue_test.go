package queue

import (
	"fmt"
	"testing"

	"matchmaker/bot/common"
	"matchmaker/domain/entities"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSelectorComponents(t *testing.T) {
	components := BuildSelectorComponents(entities.DefaultQueueTypes())
	require.Len(t, components, 1)

	row := components[0].(discordgo.ActionsRow)
	menu := row.Components[0].(discordgo.SelectMenu)
	assert.Equal(t, common.QueueSelectID, menu.CustomID)

	values := make([]string, len(menu.Options))
	for i, o := range menu.Options {
		values[i] = o.Value
	}
	assert.Equal(t, []string{"2v2", "3v3", "4v4", "5v5"}, values)
	assert.Equal(t, "4 players", menu.Options[0].Description)
}

func TestBuildPanelEmbed(t *testing.T) {
	qt := entities.DefaultQueueTypes()["2v2"]

	empty := BuildPanelEmbed(qt, nil)
	assert.Equal(t, "0/4", empty.Fields[0].Value)
	assert.Equal(t, "No one is waiting.", empty.Fields[2].Value)

	embed := BuildPanelEmbed(qt, []entities.QueueEntry{{PlayerID: 1}, {PlayerID: 2}, {PlayerID: 3}})
	assert.Equal(t, "2v2 queue", embed.Title)
	assert.Equal(t, "3/4", embed.Fields[0].Value)
	assert.Equal(t, "1. <@1>\n2. <@2>\n3. <@3>", embed.Fields[2].Value)
}

func TestBuildPanelComponents(t *testing.T) {
	row := BuildPanelComponents("3v3")[0].(discordgo.ActionsRow)
	join := row.Components[0].(discordgo.Button)
	leave := row.Components[1].(discordgo.Button)

	queueType, ok := common.ParseQueueJoinButtonID(join.CustomID)
	require.True(t, ok)
	assert.Equal(t, "3v3", queueType)
	assert.Equal(t, common.QueueLeaveID, leave.CustomID)
}

func TestJoinMessage(t *testing.T) {
	tests := []struct {
		name   string
		result *entities.JoinResult
		want   string
	}{
		{
			name:   "waiting",
			result: &entities.JoinResult{QueueType: "2v2", Count: 3, Required: 4},
			want:   "✅ You are in the 2v2 queue (3/4).",
		},
		{
			name:   "moved",
			result: &entities.JoinResult{QueueType: "2v2", Count: 1, Required: 4, PreviousQueue: "5v5"},
			want:   "✅ You are in the 2v2 queue (1/4). You left the 5v5 queue.",
		},
		{
			name:   "filled",
			result: &entities.JoinResult{QueueType: "2v2", Count: 4, Required: 4, Drained: make([]entities.QueueEntry, 4)},
			want:   "✅ The 2v2 queue is full! Match setup is starting.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, JoinMessage(tt.result))
		})
	}
}

func TestPanelTracker(t *testing.T) {
	tracker := newPanelTracker()
	for n := range maxPanelsPerQueue + 2 {
		tracker.track(1, "2v2", panelRef{ChannelID: "c", MessageID: fmt.Sprintf("m%d", n)})
	}

	refs := tracker.get(1, "2v2")
	require.Len(t, refs, maxPanelsPerQueue)
	assert.Equal(t, "m2", refs[0].MessageID)

	tracker.forget(1, "2v2", refs[0])
	refs = tracker.get(1, "2v2")
	assert.Len(t, refs, maxPanelsPerQueue-1)
	assert.Equal(t, "m3", refs[0].MessageID)

	assert.Empty(t, tracker.get(2, "2v2"))
}
