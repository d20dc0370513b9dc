package common

import (
	"strings"

	"github.com/bwmarrin/discordgo"
)

type permissionName struct {
	bit  int64
	name string
}

// Ordered by bit
var permissionNames = []permissionName{
	{discordgo.PermissionCreateInstantInvite, "create_instant_invite"},
	{discordgo.PermissionKickMembers, "kick_members"},
	{discordgo.PermissionBanMembers, "ban_members"},
	{discordgo.PermissionAdministrator, "administrator"},
	{discordgo.PermissionManageChannels, "manage_channels"},
	{discordgo.PermissionManageGuild, "manage_guild"},
	{discordgo.PermissionAddReactions, "add_reactions"},
	{discordgo.PermissionViewAuditLogs, "view_audit_log"},
	{discordgo.PermissionVoicePrioritySpeaker, "priority_speaker"},
	{discordgo.PermissionVoiceStreamVideo, "stream"},
	{discordgo.PermissionViewChannel, "read_messages"},
	{discordgo.PermissionSendMessages, "send_messages"},
	{discordgo.PermissionSendTTSMessages, "send_tts_messages"},
	{discordgo.PermissionManageMessages, "manage_messages"},
	{discordgo.PermissionEmbedLinks, "embed_links"},
	{discordgo.PermissionAttachFiles, "attach_files"},
	{discordgo.PermissionReadMessageHistory, "read_message_history"},
	{discordgo.PermissionMentionEveryone, "mention_everyone"},
	{discordgo.PermissionUseExternalEmojis, "external_emojis"},
	{discordgo.PermissionViewGuildInsights, "view_guild_insights"},
	{discordgo.PermissionVoiceConnect, "connect"},
	{discordgo.PermissionVoiceSpeak, "speak"},
	{discordgo.PermissionVoiceMuteMembers, "mute_members"},
	{discordgo.PermissionVoiceDeafenMembers, "deafen_members"},
	{discordgo.PermissionVoiceMoveMembers, "move_members"},
	{discordgo.PermissionVoiceUseVAD, "use_voice_activation"},
	{discordgo.PermissionChangeNickname, "change_nickname"},
	{discordgo.PermissionManageNicknames, "manage_nicknames"},
	{discordgo.PermissionManageRoles, "manage_roles"},
	{discordgo.PermissionManageWebhooks, "manage_webhooks"},
	{discordgo.PermissionManageEmojis, "manage_emojis"},
	{discordgo.PermissionUseApplicationCommands, "use_application_commands"},
	{discordgo.PermissionVoiceRequestToSpeak, "request_to_speak"},
	{discordgo.PermissionManageEvents, "manage_events"},
	{discordgo.PermissionManageThreads, "manage_threads"},
	{discordgo.PermissionCreatePublicThreads, "create_public_threads"},
	{discordgo.PermissionCreatePrivateThreads, "create_private_threads"},
	{discordgo.PermissionUseExternalStickers, "external_stickers"},
	{discordgo.PermissionSendMessagesInThreads, "send_messages_in_threads"},
	{discordgo.PermissionUseEmbeddedActivities, "use_embedded_activities"},
	{discordgo.PermissionModerateMembers, "moderate_members"},
}

// PermissionRawNames lists the snake_case names of the bits set in perms
func PermissionRawNames(perms int64) []string {
	var names []string
	for _, p := range permissionNames {
		if perms&p.bit != 0 {
			names = append(names, p.name)
		}
	}
	return names
}

// PermissionNames lists the bits set in perms as "Kick Members", "Ban Members", ...
func PermissionNames(perms int64) []string {
	raw := PermissionRawNames(perms)
	names := make([]string, len(raw))
	for i, name := range raw {
		names[i] = PermissionTitle(name)
	}
	return names
}

// PermissionTitle turns "manage_messages" into "Manage Messages"
func PermissionTitle(raw string) string {
	return titleWords(strings.ReplaceAll(raw, "_", " "))
}

// AllPermissionNames returns every known permission name in bit order with whether it is set
func AllPermissionNames(perms int64) ([]string, []bool) {
	names := make([]string, len(permissionNames))
	values := make([]bool, len(permissionNames))
	for i, p := range permissionNames {
		names[i] = p.name
		values[i] = perms&p.bit != 0
	}
	return names, values
}

func titleWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
