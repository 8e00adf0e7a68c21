package common

import (
	"testing"

	"matchmaker/config"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
)

func TestIsAdmin(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	t.Cleanup(config.ResetConfig)

	interaction := func(userID string, perms int64) *discordgo.InteractionCreate {
		return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
			Member: &discordgo.Member{User: &discordgo.User{ID: userID}, Permissions: perms},
		}}
	}

	assert.True(t, IsAdmin(interaction("1", discordgo.PermissionAdministrator)))
	assert.True(t, IsAdmin(interaction("999999", 0)))
	assert.False(t, IsAdmin(interaction("2", discordgo.PermissionSendMessages)))
}

func TestDisplayNames(t *testing.T) {
	assert.Equal(t, "nick", MemberDisplayName(&discordgo.Member{Nick: "nick", User: &discordgo.User{Username: "user"}}))
	assert.Equal(t, "Global", MemberDisplayName(&discordgo.Member{User: &discordgo.User{Username: "user", GlobalName: "Global"}}))
	assert.Equal(t, "user", UserDisplayName(&discordgo.User{Username: "user"}))
	assert.Equal(t, "", MemberDisplayName(nil))
}
