package common

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// FindTextChannel looks up a guild text channel by name, preferring the state cache
func FindTextChannel(s *discordgo.Session, guildID, name string) (string, error) {
	var channels []*discordgo.Channel
	if s.State != nil {
		if guild, err := s.State.Guild(guildID); err == nil {
			channels = guild.Channels
		}
	}
	if len(channels) == 0 {
		fetched, err := s.GuildChannels(guildID)
		if err != nil {
			return "", fmt.Errorf("failed to list channels of guild %s: %w", guildID, err)
		}
		channels = fetched
	}

	if id := MatchTextChannel(channels, name); id != "" {
		return id, nil
	}
	return "", fmt.Errorf("no text channel named %q in guild %s", name, guildID)
}

// MatchTextChannel returns the ID of the first text channel with the given name
func MatchTextChannel(channels []*discordgo.Channel, name string) string {
	for _, ch := range channels {
		if ch.Type == discordgo.ChannelTypeGuildText && strings.EqualFold(ch.Name, name) {
			return ch.ID
		}
	}
	return ""
}
