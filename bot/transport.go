package bot

import (
	"context"
	"fmt"

	"matchmaker/bot/common"
	"matchmaker/config"
	"matchmaker/domain/entities"
	"matchmaker/domain/interfaces"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
)

const (
	matchChannelAllow = discordgo.PermissionViewChannel | discordgo.PermissionSendMessages | discordgo.PermissionReadMessageHistory
	voiceChannelAllow = discordgo.PermissionViewChannel | discordgo.PermissionVoiceConnect | discordgo.PermissionVoiceSpeak

	// burst operations (role sync, moves, channel cleanup) per second
	bulkOperationsPerSecond = 5
)

// DiscordTransport runs matches on Discord
type DiscordTransport struct {
	session *discordgo.Session
	limiter ratelimit.Limiter
}

var _ interfaces.MatchTransport = (*DiscordTransport)(nil)

// NewDiscordTransport creates a transport on an open session
func NewDiscordTransport(session *discordgo.Session) *DiscordTransport {
	return &DiscordTransport{
		session: session,
		limiter: ratelimit.New(bulkOperationsPerSecond),
	}
}

func transportError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, entities.ErrTransportOperationFailed, err)
}

// CreateMatchChannel creates a text channel only the participants and the bot can see
func (t *DiscordTransport) CreateMatchChannel(ctx context.Context, guildID int64, name string, participants []int64) (int64, error) {
	return t.createPrivateChannel(ctx, guildID, name, discordgo.ChannelTypeGuildText, participants, matchChannelAllow)
}

// CreateVoiceChannel creates a team voice channel
func (t *DiscordTransport) CreateVoiceChannel(ctx context.Context, guildID int64, name string, participants []int64) (int64, error) {
	return t.createPrivateChannel(ctx, guildID, name, discordgo.ChannelTypeGuildVoice, participants, voiceChannelAllow)
}

func (t *DiscordTransport) createPrivateChannel(ctx context.Context, guildID int64, name string, channelType discordgo.ChannelType, participants []int64, allow int64) (int64, error) {
	data := discordgo.GuildChannelCreateData{
		Name:                 name,
		Type:                 channelType,
		PermissionOverwrites: channelOverwrites(guildID, t.botUserID(), participants, allow),
	}
	if category := config.Get().MatchCategoryID; category != 0 {
		data.ParentID = common.Snowflake(category)
	}

	channel, err := t.session.GuildChannelCreateComplex(common.Snowflake(guildID), data, discordgo.WithContext(ctx))
	if err != nil {
		return 0, transportError("create channel "+name, err)
	}

	id, err := common.ParseSnowflake(channel.ID)
	if err != nil {
		return 0, transportError("create channel "+name, err)
	}

	log.WithFields(log.Fields{
		"guildID":   guildID,
		"channelID": id,
		"name":      name,
		"type":      channelType,
	}).Debug("Created match channel")
	return id, nil
}

// channelOverwrites hides the channel from @everyone and opens it to the bot and participants
func channelOverwrites(guildID int64, botUserID string, participants []int64, allow int64) []*discordgo.PermissionOverwrite {
	overwrites := []*discordgo.PermissionOverwrite{{
		ID:   common.Snowflake(guildID), // @everyone role shares the guild ID
		Type: discordgo.PermissionOverwriteTypeRole,
		Deny: discordgo.PermissionViewChannel,
	}}
	if botUserID != "" {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID:    botUserID,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: allow | discordgo.PermissionManageChannels | discordgo.PermissionVoiceMoveMembers,
		})
	}
	for _, id := range participants {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID:    common.Snowflake(id),
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: allow,
		})
	}
	return overwrites
}

func (t *DiscordTransport) botUserID() string {
	if t.session.State != nil && t.session.State.User != nil {
		return t.session.State.User.ID
	}
	return ""
}

// SendPrompt renders the prompt into the channel
func (t *DiscordTransport) SendPrompt(ctx context.Context, channelID int64, prompt interfaces.Prompt) (string, error) {
	message, err := renderPrompt(prompt)
	if err != nil {
		return "", transportError("render prompt", err)
	}

	sent, err := t.session.ChannelMessageSendComplex(common.Snowflake(channelID), message, discordgo.WithContext(ctx))
	if err != nil {
		return "", transportError("send "+interfaces.PromptKind(prompt)+" prompt", err)
	}
	return sent.ID, nil
}

// MovePlayer moves a member into a voice channel. Fails when the member is not connected to voice.
func (t *DiscordTransport) MovePlayer(ctx context.Context, guildID int64, playerID int64, channelID int64) error {
	target := common.Snowflake(channelID)
	t.limiter.Take()
	if err := t.session.GuildMemberMove(common.Snowflake(guildID), common.Snowflake(playerID), &target, discordgo.WithContext(ctx)); err != nil {
		return transportError("move player", err)
	}
	return nil
}

// DeleteChannel removes a channel
func (t *DiscordTransport) DeleteChannel(ctx context.Context, channelID int64) error {
	t.limiter.Take()
	if _, err := t.session.ChannelDelete(common.Snowflake(channelID), discordgo.WithContext(ctx)); err != nil {
		return transportError("delete channel", err)
	}
	return nil
}

// ApplyRoleDelta removes one role and adds another. Zero role IDs are skipped.
func (t *DiscordTransport) ApplyRoleDelta(ctx context.Context, guildID int64, playerID int64, addRole int64, removeRole int64) error {
	guild, user := common.Snowflake(guildID), common.Snowflake(playerID)
	t.limiter.Take()

	if removeRole != 0 && removeRole != addRole {
		if err := t.session.GuildMemberRoleRemove(guild, user, common.Snowflake(removeRole), discordgo.WithContext(ctx)); err != nil {
			return transportError("remove role", err)
		}
	}
	if addRole != 0 {
		if err := t.session.GuildMemberRoleAdd(guild, user, common.Snowflake(addRole), discordgo.WithContext(ctx)); err != nil {
			return transportError("add role", err)
		}
	}
	return nil
}

// NotifyInitiator posts to the channel the operation was triggered from, or
// DMs the user when there is no channel
func (t *DiscordTransport) NotifyInitiator(ctx context.Context, initiator interfaces.Initiator, message string) error {
	channelID := common.Snowflake(initiator.ChannelID)
	if initiator.ChannelID == 0 {
		dm, err := t.session.UserChannelCreate(common.Snowflake(initiator.UserID), discordgo.WithContext(ctx))
		if err != nil {
			return transportError("open DM", err)
		}
		channelID = dm.ID
	}

	content := message
	if initiator.UserID != 0 {
		content = fmt.Sprintf("%s %s", common.Mention(initiator.UserID), message)
	}
	if _, err := t.session.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx)); err != nil {
		return transportError("notify initiator", err)
	}
	return nil
}

// ApplyRoleSync applies tier role instructions, logging failures per player
func (t *DiscordTransport) ApplyRoleSync(ctx context.Context, guildID int64, instructions []entities.RoleSyncInstruction) {
	for _, ins := range instructions {
		if ins.AddRole == 0 && ins.RemoveRole == 0 {
			continue
		}
		if err := t.ApplyRoleDelta(ctx, guildID, ins.PlayerID, ins.AddRole, ins.RemoveRole); err != nil {
			log.WithFields(log.Fields{
				"guildID":  guildID,
				"playerID": ins.PlayerID,
				"oldTier":  ins.OldTier,
				"newTier":  ins.NewTier,
			}).WithError(err).Warn("Failed to sync tier role")
		}
	}
}
