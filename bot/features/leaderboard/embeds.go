package leaderboard

import (
	"fmt"
	"strings"

	"matchmaker/bot/common"
	"matchmaker/domain/entities"

	"github.com/bwmarrin/discordgo"
)

var podium = []string{"🥇", "🥈", "🥉"}

// BuildLeaderboardEmbed lists the entries as rank, mention, tier and rating
func BuildLeaderboardEmbed(entries []entities.LeaderboardEntry) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "🏆 Leaderboard",
		Color: common.ColorPrimary,
	}
	if len(entries) == 0 {
		embed.Description = "No registered players yet. Use /register to join the ladder."
		return embed
	}

	var sb strings.Builder
	for _, e := range entries {
		marker := fmt.Sprintf("**%d.**", e.Rank)
		if e.Rank <= len(podium) {
			marker = podium[e.Rank-1]
		}
		fmt.Fprintf(&sb, "%s %s | Level %d | %d ELO | %d-%d\n",
			marker, common.Mention(e.Player.DiscordID), e.TierInfo.Level, e.Player.Rating, e.Player.Wins, e.Player.Losses)
	}
	embed.Description = sb.String()
	return embed
}
