package commands

import (
	"github.com/bwmarrin/discordgo"
)

// GuildPermissions computes a member's guild-wide permissions from role
// permissions. The guild owner and administrators have everything.
func GuildPermissions(guild *discordgo.Guild, member *discordgo.Member) int64 {
	if guild == nil || member == nil || member.User == nil {
		return 0
	}
	if guild.OwnerID == member.User.ID {
		return discordgo.PermissionAll
	}

	var perms int64
	for _, role := range guild.Roles {
		// The @everyone role shares the guild's ID
		if role.ID == guild.ID {
			perms |= role.Permissions
			break
		}
	}
	for _, role := range guild.Roles {
		for _, roleID := range member.Roles {
			if role.ID == roleID {
				perms |= role.Permissions
				break
			}
		}
	}

	if perms&discordgo.PermissionAdministrator != 0 {
		return discordgo.PermissionAll
	}
	return perms
}

// MissingPermissions returns the bits of required not present in have
func MissingPermissions(have, required int64) int64 {
	return required &^ have
}

// TopRolePosition returns the highest role position of a member, 0 for @everyone only
func TopRolePosition(guild *discordgo.Guild, member *discordgo.Member) int {
	if guild == nil || member == nil {
		return 0
	}
	top := 0
	for _, role := range guild.Roles {
		for _, roleID := range member.Roles {
			if role.ID == roleID && role.Position > top {
				top = role.Position
			}
		}
	}
	return top
}
