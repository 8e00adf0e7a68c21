package queue

import (
	"fmt"
	"strings"

	"matchmaker/bot/common"
	"matchmaker/domain/entities"

	"github.com/bwmarrin/discordgo"
)

// BuildSelectorEmbed is the header of the /queue selector
func BuildSelectorEmbed() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "🎮 Ranked queue",
		Description: "Pick a queue type to open its panel.",
		Color:       common.ColorPrimary,
	}
}

// BuildSelectorComponents lists the queue types smallest first
func BuildSelectorComponents(types map[string]entities.QueueType) []discordgo.MessageComponent {
	names := entities.SortedQueueTypeNames(types)
	options := make([]discordgo.SelectMenuOption, len(names))
	for i, name := range names {
		options[i] = discordgo.SelectMenuOption{
			Label:       name,
			Value:       name,
			Description: fmt.Sprintf("%d players", types[name].TotalPlayers),
		}
	}
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.SelectMenu{
				CustomID:    common.QueueSelectID,
				Placeholder: "Select a queue type",
				Options:     options,
			},
		}},
	}
}

// BuildPanelEmbed shows the fill level and waiting players of one queue
func BuildPanelEmbed(qt entities.QueueType, entries []entities.QueueEntry) *discordgo.MessageEmbed {
	players := "No one is waiting."
	if len(entries) > 0 {
		lines := make([]string, len(entries))
		for i, e := range entries {
			lines[i] = fmt.Sprintf("%d. %s", i+1, common.Mention(e.PlayerID))
		}
		players = strings.Join(lines, "\n")
	}

	return &discordgo.MessageEmbed{
		Title: fmt.Sprintf("%s queue", qt.Name),
		Color: common.ColorInfo,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Players", Value: fmt.Sprintf("%d/%d", len(entries), qt.TotalPlayers), Inline: true},
			{Name: "Team size", Value: fmt.Sprintf("%d", qt.TeamSize), Inline: true},
			{Name: "Waiting", Value: players},
		},
	}
}

// BuildPanelComponents returns the Join/Leave buttons of a queue panel
func BuildPanelComponents(queueType string) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{Label: "Join", Style: discordgo.SuccessButton, CustomID: common.QueueJoinButtonID(queueType)},
			discordgo.Button{Label: "Leave", Style: discordgo.DangerButton, CustomID: common.QueueLeaveID},
		}},
	}
}

// JoinMessage is the ephemeral reply to a join
func JoinMessage(result *entities.JoinResult) string {
	if result.Filled() {
		return fmt.Sprintf("✅ The %s queue is full! Match setup is starting.", result.QueueType)
	}
	msg := fmt.Sprintf("✅ You are in the %s queue (%d/%d).", result.QueueType, result.Count, result.Required)
	if result.PreviousQueue != "" {
		msg += fmt.Sprintf(" You left the %s queue.", result.PreviousQueue)
	}
	return msg
}
