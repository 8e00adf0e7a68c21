package bot

import (
	"fmt"
	"strings"

	"matchmaker/bot/common"
	"matchmaker/domain/entities"
	"matchmaker/domain/interfaces"

	"github.com/bwmarrin/discordgo"
)

// renderPrompt turns a transport prompt into a Discord message
func renderPrompt(prompt interfaces.Prompt) (*discordgo.MessageSend, error) {
	switch p := prompt.(type) {
	case interfaces.VotePrompt:
		return renderVotePrompt(p), nil
	case interfaces.PickTurnPrompt:
		return renderPickTurnPrompt(p), nil
	case interfaces.TextPrompt:
		return renderTextPrompt(p), nil
	case interfaces.MatchReadyPrompt:
		return renderMatchReadyPrompt(p), nil
	case interfaces.ResultPrompt:
		return renderResultPrompt(p), nil
	}
	return nil, fmt.Errorf("unsupported prompt kind %q", interfaces.PromptKind(prompt))
}

func renderVotePrompt(p interfaces.VotePrompt) *discordgo.MessageSend {
	lines := make([]string, len(p.Candidates))
	buttons := make([]discordgo.Button, len(p.Candidates))
	for i, candidate := range p.Candidates {
		lines[i] = fmt.Sprintf("**%d.** %s", i+1, candidate)
		buttons[i] = discordgo.Button{
			Label:    common.Truncate(candidate, common.MaxButtonLabel),
			Style:    discordgo.PrimaryButton,
			CustomID: common.VoteButtonID(p.SessionID, i),
		}
	}

	return &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{{
			Title:       p.Title,
			Description: strings.Join(lines, "\n"),
			Color:       common.ColorPrimary,
			Footer:      &discordgo.MessageEmbedFooter{Text: "Click to vote. You can change your vote until the vote closes."},
			Fields: []*discordgo.MessageEmbedField{{
				Name:  "Closes",
				Value: common.FormatDiscordTimestamp(p.Deadline, "R"),
			}},
		}},
		Components: buttonRows(buttons),
	}
}

func renderPickTurnPrompt(p interfaces.PickTurnPrompt) *discordgo.MessageSend {
	color := common.ColorTeamA
	if p.Side == entities.TeamB {
		color = common.ColorTeamB
	}

	buttons := make([]discordgo.Button, len(p.Pool))
	for i, playerID := range p.Pool {
		name := p.Names[playerID]
		if name == "" {
			name = fmt.Sprintf("Player %d", playerID)
		}
		buttons[i] = discordgo.Button{
			Label:    common.Truncate(name, common.MaxButtonLabel),
			Style:    discordgo.SecondaryButton,
			CustomID: common.PickButtonID(p.TurnID, i),
		}
	}

	return &discordgo.MessageSend{
		Content: common.Mention(p.Captain),
		Embeds: []*discordgo.MessageEmbed{{
			Title:       fmt.Sprintf("Pick %d - Team %s", p.Turn, p.Side),
			Description: fmt.Sprintf("%s, choose a player for Team %s. A random player is picked %s.", common.Mention(p.Captain), p.Side, common.FormatDiscordTimestamp(p.Deadline, "R")),
			Color:       color,
		}},
		Components: buttonRows(buttons),
	}
}

func renderTextPrompt(p interfaces.TextPrompt) *discordgo.MessageSend {
	color := common.ColorInfo
	if p.IsError {
		color = common.ColorError
	}
	return &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{{
			Title:       p.Title,
			Description: p.Body,
			Color:       color,
		}},
	}
}

func renderMatchReadyPrompt(p interfaces.MatchReadyPrompt) *discordgo.MessageSend {
	m := p.Match
	return &discordgo.MessageSend{
		Content: mentionAll(m.Participants()),
		Embeds: []*discordgo.MessageEmbed{{
			Title: fmt.Sprintf("Match #%d is ready", m.ID),
			Color: common.ColorSuccess,
			Fields: []*discordgo.MessageEmbedField{
				{Name: "Team A", Value: common.MentionList(m.TeamA), Inline: true},
				{Name: "Team B", Value: common.MentionList(m.TeamB), Inline: true},
				{Name: "Map", Value: m.MapName},
				{Name: "Room creator", Value: common.Mention(m.RoomCreatorID), Inline: true},
				{Name: "Password", Value: fmt.Sprintf("`%s`", m.Passphrase), Inline: true},
			},
		}},
	}
}

func renderResultPrompt(p interfaces.ResultPrompt) *discordgo.MessageSend {
	return &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{{
			Title:       "Report the result",
			Description: "Any player of the match can report the winner. Use Dispute if the reported result is wrong.",
			Color:       common.ColorWarning,
		}},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{Label: "Team A won", Style: discordgo.PrimaryButton, CustomID: common.ResultButtonID(p.MatchID, entities.TeamA)},
				discordgo.Button{Label: "Team B won", Style: discordgo.PrimaryButton, CustomID: common.ResultButtonID(p.MatchID, entities.TeamB)},
				discordgo.Button{Label: "Dispute", Style: discordgo.DangerButton, CustomID: common.DisputeButtonID(p.MatchID)},
			}},
		},
	}
}

// buttonRows lays buttons out five per row, dropping any beyond the Discord limit
func buttonRows(buttons []discordgo.Button) []discordgo.MessageComponent {
	var rows []discordgo.MessageComponent
	for start := 0; start < len(buttons) && len(rows) < common.MaxActionRows; start += common.MaxButtonsPerRow {
		end := min(start+common.MaxButtonsPerRow, len(buttons))
		row := make([]discordgo.MessageComponent, 0, end-start)
		for _, b := range buttons[start:end] {
			row = append(row, b)
		}
		rows = append(rows, discordgo.ActionsRow{Components: row})
	}
	return rows
}

func mentionAll(ids []int64) string {
	mentions := make([]string, len(ids))
	for i, id := range ids {
		mentions[i] = common.Mention(id)
	}
	return strings.Join(mentions, " ")
}
