package common

import (
	"strconv"

	"matchmaker/config"

	"github.com/bwmarrin/discordgo"
)

// MemberDisplayName returns the best name carried by an interaction member
func MemberDisplayName(member *discordgo.Member) string {
	if member == nil {
		return ""
	}
	if member.Nick != "" {
		return member.Nick
	}
	return UserDisplayName(member.User)
}

// UserDisplayName returns the global name of a user, or the username
func UserDisplayName(user *discordgo.User) string {
	if user == nil {
		return ""
	}
	if user.GlobalName != "" {
		return user.GlobalName
	}
	return user.Username
}

// IsAdmin reports whether the interaction user holds the Administrator
// permission or is listed in the configured admin IDs
func IsAdmin(i *discordgo.InteractionCreate) bool {
	if i.Member != nil && i.Member.Permissions&discordgo.PermissionAdministrator != 0 {
		return true
	}
	id, err := strconv.ParseInt(InteractionUserID(i), 10, 64)
	if err != nil {
		return false
	}
	return config.Get().IsAdmin(id)
}
