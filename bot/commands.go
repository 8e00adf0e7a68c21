package bot

import (
	"fmt"

	"matchmaker/domain/entities"

	"github.com/bwmarrin/discordgo"
)

var adminPermission int64 = discordgo.PermissionAdministrator

// registerCommands registers all slash commands with Discord
func (b *Bot) registerCommands() error {
	commands := buildCommands(b.queues.QueueTypes())

	for _, cmd := range commands {
		_, err := b.session.ApplicationCommandCreate(b.session.State.User.ID, b.config.GuildID, cmd)
		if err != nil {
			return fmt.Errorf("cannot create command %s: %w", cmd.Name, err)
		}
	}
	return nil
}

func buildCommands(queueTypes map[string]entities.QueueType) []*discordgo.ApplicationCommand {
	names := entities.SortedQueueTypeNames(queueTypes)
	choices := make([]*discordgo.ApplicationCommandOptionChoice, len(names))
	for i, name := range names {
		choices[i] = &discordgo.ApplicationCommandOptionChoice{Name: name, Value: name}
	}

	queueTypeOption := &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "queue_type",
		Description: "Queue type",
		Required:    true,
		Choices:     choices,
	}
	userOption := &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionUser,
		Name:        "user",
		Description: "Player",
		Required:    true,
	}

	return []*discordgo.ApplicationCommand{
		{
			Name:        "register",
			Description: "Join the ranked ladder",
		},
		{
			Name:        "queue",
			Description: "Open the queue selector",
		},
		{
			Name:        "queue-join",
			Description: "Join a queue",
			Options:     []*discordgo.ApplicationCommandOption{queueTypeOption},
		},
		{
			Name:        "queue-leave",
			Description: "Leave your queue",
		},
		{
			Name:        "profile",
			Description: "Show your rating, level and record",
		},
		{
			Name:        "leaderboard",
			Description: "Show the top players",
		},
		{
			Name:                     "force-start",
			Description:              "Start a match with the players currently queued",
			DefaultMemberPermissions: &adminPermission,
			Options:                  []*discordgo.ApplicationCommandOption{queueTypeOption},
		},
		{
			Name:                     "reset-elo",
			Description:              "Reset a player's rating and record",
			DefaultMemberPermissions: &adminPermission,
			Options:                  []*discordgo.ApplicationCommandOption{userOption},
		},
		{
			Name:                     "set-elo",
			Description:              "Set a player's rating",
			DefaultMemberPermissions: &adminPermission,
			Options: []*discordgo.ApplicationCommandOption{
				userOption,
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "value",
					Description: "New rating",
					Required:    true,
				},
			},
		},
	}
}
