package match

import (
	"context"
	"fmt"
	"strings"

	"matchmaker/bot/common"
	"matchmaker/config"
	"matchmaker/domain/entities"
	"matchmaker/domain/events"

	"github.com/bwmarrin/discordgo"
)

// PostMatchResult posts the winner and rating changes to the results channel
func (f *Feature) PostMatchResult(ctx context.Context, event events.MatchResultRecordedEvent) error {
	channelID, err := common.FindTextChannel(f.session, common.Snowflake(event.GuildID), config.Get().ResultsChannelName)
	if err != nil {
		return fmt.Errorf("failed to find results channel: %w", err)
	}

	_, err = f.session.ChannelMessageSendEmbed(channelID, BuildResultEmbed(event), discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to post match result: %w", err)
	}
	return nil
}

// PostDisputeReview posts the admin review request with confirmation buttons
func (f *Feature) PostDisputeReview(ctx context.Context, event events.MatchDisputedEvent) error {
	channelID, err := common.FindTextChannel(f.session, common.Snowflake(event.GuildID), config.Get().AdminResultsChannelName)
	if err != nil {
		return fmt.Errorf("failed to find admin results channel: %w", err)
	}

	_, err = f.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{BuildDisputeEmbed(event)},
		Components: BuildDisputeComponents(event.MatchID),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to post dispute review: %w", err)
	}
	return nil
}

// BuildResultEmbed lists each team's players with their new rating and delta
func BuildResultEmbed(event events.MatchResultRecordedEvent) *discordgo.MessageEmbed {
	teams := map[entities.TeamSide][]string{}
	for _, c := range event.Changes {
		name := c.Username
		if name == "" {
			name = common.Mention(c.PlayerID)
		}
		teams[c.Side] = append(teams[c.Side], fmt.Sprintf("%s - %d (%s)", name, c.NewRating, common.FormatRatingDelta(c.Delta)))
	}

	reportedBy := common.Mention(event.ReporterID)
	if event.AdminReported {
		reportedBy += " (admin)"
	}

	return &discordgo.MessageEmbed{
		Title: fmt.Sprintf("🏆 Match #%d Results", event.MatchID),
		Color: common.ColorSuccess,
		Fields: []*discordgo.MessageEmbedField{
			{Name: fmt.Sprintf("Team %s Won", event.WinningTeam), Value: fmt.Sprintf("**Map:** %s", event.MapName)},
			{Name: "Team A", Value: joinOrDash(teams[entities.TeamA]), Inline: true},
			{Name: "Team B", Value: joinOrDash(teams[entities.TeamB]), Inline: true},
			{Name: "Reported by", Value: reportedBy},
		},
	}
}

// BuildDisputeEmbed describes a disputed match for admins
func BuildDisputeEmbed(event events.MatchDisputedEvent) *discordgo.MessageEmbed {
	description := fmt.Sprintf("Match ID: %d\nDisputed by: %s\nMap: %s", event.MatchID, common.Mention(event.DisputerID), event.MapName)
	if event.Resolved {
		description += "\nA result is already recorded, so confirming has no effect."
	}
	return &discordgo.MessageEmbed{
		Title:       "⚠️ Match Result Disputed",
		Description: description,
		Color:       common.ColorDanger,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Team A", Value: joinOrDash(mentions(event.TeamA)), Inline: true},
			{Name: "Team B", Value: joinOrDash(mentions(event.TeamB)), Inline: true},
		},
	}
}

// BuildDisputeComponents returns the admin confirmation buttons
func BuildDisputeComponents(matchID int64) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{Label: "Confirm Team A Win", Style: discordgo.SuccessButton, CustomID: common.AdminConfirmButtonID(matchID, entities.TeamA)},
			discordgo.Button{Label: "Confirm Team B Win", Style: discordgo.DangerButton, CustomID: common.AdminConfirmButtonID(matchID, entities.TeamB)},
		}},
	}
}

func mentions(ids []int64) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = common.Mention(id)
	}
	return out
}

func joinOrDash(lines []string) string {
	if len(lines) == 0 {
		return "-"
	}
	return strings.Join(lines, "\n")
}
