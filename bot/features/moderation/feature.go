package moderation

import (
	"time"

	"cgbot/bot/commands"
	"cgbot/service"

	"github.com/bwmarrin/discordgo"
)

const category = "Moderation"

// Feature holds the moderation commands
type Feature struct {
	uowFactory      service.UnitOfWorkFactory
	modLogChannelID string
	now             func() time.Time
}

func NewFeature(uowFactory service.UnitOfWorkFactory, modLogChannelID string) *Feature {
	return &Feature{
		uowFactory:      uowFactory,
		modLogChannelID: modLogChannelID,
		now:             time.Now,
	}
}

func (f *Feature) Commands() []*commands.Command {
	return []*commands.Command{
		{
			Name:           "purge",
			Usage:          "<amount>",
			Description:    "Delete a number of messages (limit: 1000)",
			Category:       category,
			GuildOnly:      true,
			Permissions:    discordgo.PermissionManageMessages,
			BotPermissions: discordgo.PermissionManageMessages | discordgo.PermissionReadMessageHistory,
			Handler:        f.handlePurge,
		},
		{
			Name:           "kick",
			Usage:          "<member> [reason...]",
			Description:    "Kick a member with an optional reason",
			Category:       category,
			GuildOnly:      true,
			Permissions:    discordgo.PermissionKickMembers,
			BotPermissions: discordgo.PermissionKickMembers,
			Handler:        f.handleKick,
			OnError:        localErrors,
		},
		{
			Name:           "ban",
			Usage:          "<user> [delete_days=1] [reason...]",
			Description:    "Ban a user with an optional reason",
			Help:           "Ban a user with an optional reason. The user does not need to be in the server, use their ID. delete_days (0 to 7) is how many days of their messages to delete.",
			Category:       category,
			GuildOnly:      true,
			Permissions:    discordgo.PermissionBanMembers,
			BotPermissions: discordgo.PermissionBanMembers,
			Handler:        f.handleBan,
			OnError:        localErrors,
		},
		{
			Name:           "unban",
			Usage:          "<user> [reason...]",
			Description:    "Unban a user with an optional reason",
			Category:       category,
			GuildOnly:      true,
			Permissions:    discordgo.PermissionBanMembers,
			BotPermissions: discordgo.PermissionBanMembers,
			Handler:        f.handleUnban,
			OnError:        localErrors,
		},
		{
			Name:        "warn",
			Usage:       "<member> [reason...]",
			Description: "Warn a member with an optional reason",
			Category:    category,
			GuildOnly:   true,
			Permissions: discordgo.PermissionKickMembers,
			Handler:     f.handleWarn,
			OnError:     localErrors,
		},
		{
			Name:        "cases",
			Usage:       "[user]",
			Description: "Show the moderation history of a user, or the server summary",
			Category:    category,
			GuildOnly:   true,
			Permissions: discordgo.PermissionKickMembers,
			Handler:     f.handleCases,
			OnError:     localErrors,
		},
	}
}
