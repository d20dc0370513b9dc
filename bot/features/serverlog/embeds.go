package serverlog

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"cgbot/bot/common"

	"github.com/bwmarrin/discordgo"
)

// Entry kinds, also used as the audit event kind
const (
	KindMessageEdit       = "message_edit"
	KindMessageDelete     = "message_delete"
	KindMessageBulkDelete = "message_bulk_delete"
	KindChannelCreate     = "channel_create"
	KindChannelDelete     = "channel_delete"
	KindRoleCreate        = "role_create"
	KindRoleDelete        = "role_delete"
	KindRoleUpdate        = "role_update"
	KindGuildAvailable    = "guild_available"
	KindGuildUnavailable  = "guild_unavailable"
	KindMemberJoin        = "member_join"
	KindMemberRemove      = "member_remove"
	KindMemberBan         = "member_ban"
	KindMemberUnban       = "member_unban"
	KindNickChange        = "member_nick_change"
	KindRolesAdded        = "member_roles_added"
	KindRolesRemoved      = "member_roles_removed"
	KindVoiceJoin         = "voice_join"
	KindVoiceLeave        = "voice_leave"
	KindVoiceMove         = "voice_move"
	KindVoiceMute         = "voice_mute"
	KindVoiceUnmute       = "voice_unmute"
	KindVoiceDeafen       = "voice_deafen"
	KindVoiceUndeafen     = "voice_undeafen"
)

const (
	colorCreate = common.ColorSuccess
	colorEdit   = common.ColorInfo
	colorDelete = common.ColorDanger

	editFieldLimit     = 1021
	deleteContentLimit = 1972
	permissionPadding  = 22
	noContent          = "*No content*"
)

// Entry is one server log message and the audit event it produces
type Entry struct {
	Kind      string
	ChannelID string
	UserID    string
	Summary   string
	Embed     *discordgo.MessageEmbed
}

func newEntry(kind string, embed *discordgo.MessageEmbed) *Entry {
	summary, _, _ := strings.Cut(embed.Description, "\n")
	return &Entry{
		Kind:    kind,
		Summary: strings.Trim(summary, "*:"),
		Embed:   embed,
	}
}

func logEmbed(color int, description, footer string, now time.Time) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Description: description,
		Color:       color,
		Timestamp:   now.UTC().Format(time.RFC3339),
	}
	if footer != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: footer}
	}
	return embed
}

func userAuthor(user *discordgo.User) *discordgo.MessageEmbedAuthor {
	if user == nil {
		return nil
	}
	return &discordgo.MessageEmbedAuthor{Name: user.String(), IconURL: user.AvatarURL("")}
}

func guildAuthor(guild *discordgo.Guild) *discordgo.MessageEmbedAuthor {
	if guild == nil {
		return nil
	}
	return &discordgo.MessageEmbedAuthor{Name: guild.Name, IconURL: guild.IconURL("")}
}

// clip keeps the first n runes and appends "..." when something was cut
func clip(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}

func firstRunes(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n])
}

func orNoContent(text string) string {
	if text == "" {
		return noContent
	}
	return text
}

func messageFooter(channelID, messageID string) string {
	return fmt.Sprintf("Channel ID: %s • Message ID: %s", channelID, messageID)
}

// MessageEditEntry returns nil for bots, uncached messages, partial updates and unchanged content
func MessageEditEntry(before, after *discordgo.Message, now time.Time) *Entry {
	if before == nil || before.Author == nil || before.Author.Bot {
		return nil
	}
	// Embed unfurls arrive as updates without an author
	if after.Author == nil {
		return nil
	}
	if before.Content == after.Content {
		return nil
	}

	guildID := after.GuildID
	if guildID == "" {
		guildID = before.GuildID
	}
	embed := logEmbed(colorEdit, fmt.Sprintf(
		"**Message sent by %s edited in <#%s>**\n[Jump to message](%s)",
		before.Author.Mention(), before.ChannelID, common.MessageURL(guildID, after.ChannelID, after.ID),
	), messageFooter(before.ChannelID, before.ID), now)
	embed.Author = userAuthor(before.Author)
	embed.Fields = []*discordgo.MessageEmbedField{
		{Name: "Before", Value: orNoContent(clip(before.Content, editFieldLimit))},
		{Name: "After", Value: orNoContent(clip(after.Content, editFieldLimit))},
	}

	entry := newEntry(KindMessageEdit, embed)
	entry.ChannelID = before.ChannelID
	entry.UserID = before.Author.ID
	return entry
}

// MessageDeleteEntry logs a cached message. Bot messages are skipped.
func MessageDeleteEntry(message *discordgo.Message, now time.Time) *Entry {
	if message.Author == nil || message.Author.Bot {
		return nil
	}

	embed := logEmbed(colorDelete, fmt.Sprintf(
		"**Message sent by %s deleted in <#%s>**\n%s",
		message.Author.Mention(), message.ChannelID, firstRunes(message.Content, deleteContentLimit),
	), messageFooter(message.ChannelID, message.ID), now)
	embed.Author = userAuthor(message.Author)

	entry := newEntry(KindMessageDelete, embed)
	entry.ChannelID = message.ChannelID
	entry.UserID = message.Author.ID
	return entry
}

// UncachedMessageDeleteEntry logs a deleted message the state never saw
func UncachedMessageDeleteEntry(channelID, messageID string, guild *discordgo.Guild, now time.Time) *Entry {
	embed := logEmbed(colorDelete, fmt.Sprintf("**Message %s deleted in <#%s>**", messageID, channelID),
		messageFooter(channelID, messageID), now)
	embed.Author = guildAuthor(guild)

	entry := newEntry(KindMessageDelete, embed)
	entry.ChannelID = channelID
	return entry
}

func BulkDeleteEntry(channelID string, count int, guild *discordgo.Guild, now time.Time) *Entry {
	embed := logEmbed(colorDelete, fmt.Sprintf(
		"**Bulk message delete in <#%s>**\n%s deleted", channelID, common.Plural(count, "message"),
	), "Channel ID: "+channelID, now)
	embed.Author = guildAuthor(guild)

	entry := newEntry(KindMessageBulkDelete, embed)
	entry.ChannelID = channelID
	return entry
}

// ChannelTypeName is the readable name of a guild channel type
func ChannelTypeName(t discordgo.ChannelType) string {
	switch t {
	case discordgo.ChannelTypeGuildText:
		return "Text channel"
	case discordgo.ChannelTypeGuildVoice:
		return "Voice channel"
	case discordgo.ChannelTypeGuildCategory:
		return "Category"
	case discordgo.ChannelTypeGuildNews:
		return "News channel"
	case discordgo.ChannelTypeGuildStageVoice:
		return "Stage channel"
	case discordgo.ChannelTypeGuildForum:
		return "Forum channel"
	case discordgo.ChannelTypeGuildMedia:
		return "Media channel"
	case discordgo.ChannelTypeGuildNewsThread, discordgo.ChannelTypeGuildPublicThread, discordgo.ChannelTypeGuildPrivateThread:
		return "Thread"
	}
	return "Channel"
}

func ChannelEntry(created bool, channel *discordgo.Channel, guild *discordgo.Guild, now time.Time) *Entry {
	kind, verb, color := KindChannelDelete, "deleted", colorDelete
	if created {
		kind, verb, color = KindChannelCreate, "created", colorCreate
	}

	embed := logEmbed(color, fmt.Sprintf("**Channel %s: #%s (%s)**", verb, channel.Name, ChannelTypeName(channel.Type)),
		"ID: "+channel.ID, now)
	embed.Author = guildAuthor(guild)

	entry := newEntry(kind, embed)
	entry.ChannelID = channel.ID
	return entry
}

// roleAttributes are the non-permission lines of a role description
func roleAttributes(role discordgo.Role) []string {
	return []string{
		fmt.Sprintf("Name: `%s`", role.Name),
		fmt.Sprintf("Hoist: `%t`", role.Hoist),
		fmt.Sprintf("Position (counted from the bottom): `%d`", role.Position),
		fmt.Sprintf("Mentionable: `%t`", role.Mentionable),
		fmt.Sprintf("Color: `%s`", common.ColorHex(role.Color)),
	}
}

// PermissionLines lists every permission as "Manage Messages ...... true", sorted by name
func PermissionLines(perms int64) []string {
	names, values := common.AllPermissionNames(perms)
	type line struct {
		name  string
		value bool
	}
	lines := make([]line, len(names))
	for i := range names {
		lines[i] = line{name: common.PermissionTitle(names[i]), value: values[i]}
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].name < lines[j].name })

	out := make([]string, len(lines))
	for i, l := range lines {
		label := l.name + " "
		if n := len(label); n < permissionPadding {
			label += strings.Repeat(".", permissionPadding-n)
		}
		out[i] = fmt.Sprintf("%s %t", label, l.value)
	}
	return out
}

func permissionBlock(lines []string) string {
	return "Permissions:```prolog\n" + strings.Join(lines, "\n") + "```"
}

// RoleDescription renders a role's attributes and its full permission table
func RoleDescription(role discordgo.Role) string {
	return strings.Join(roleAttributes(role), "\n") + "\n" + permissionBlock(PermissionLines(role.Permissions))
}

// RoleDiff renders only the lines that differ between two roles, for both sides
func RoleDiff(before, after discordgo.Role) (string, string) {
	beforeAttrs, afterAttrs := roleAttributes(before), roleAttributes(after)
	beforePerms, afterPerms := PermissionLines(before.Permissions), PermissionLines(after.Permissions)

	var oldLines, newLines, oldPerms, newPerms []string
	for i := range beforeAttrs {
		if beforeAttrs[i] != afterAttrs[i] {
			oldLines = append(oldLines, beforeAttrs[i])
			newLines = append(newLines, afterAttrs[i])
		}
	}
	for i := range beforePerms {
		if beforePerms[i] != afterPerms[i] {
			oldPerms = append(oldPerms, beforePerms[i])
			newPerms = append(newPerms, afterPerms[i])
		}
	}
	if len(oldPerms) > 0 {
		oldLines = append(oldLines, permissionBlock(oldPerms))
		newLines = append(newLines, permissionBlock(newPerms))
	}
	return strings.Join(oldLines, "\n"), strings.Join(newLines, "\n")
}

// RoleCreateEntry puts the role description in the embed body, the permission table is too long for a field
func RoleCreateEntry(role discordgo.Role, guild *discordgo.Guild, now time.Time) *Entry {
	embed := logEmbed(colorCreate, fmt.Sprintf("**Role created: %s (%s)**\n\n%s", role.Name, role.Mention(), RoleDescription(role)),
		"ID: "+role.ID, now)
	embed.Author = guildAuthor(guild)
	return newEntry(KindRoleCreate, embed)
}

// RoleDeleteEntry names the role from the cached copy, falling back to its ID
func RoleDeleteEntry(roleID string, role *discordgo.Role, guild *discordgo.Guild, now time.Time) *Entry {
	name := roleID
	if role != nil {
		name = role.Name
	}
	description := fmt.Sprintf("**Role deleted: %s**", name)
	if role != nil {
		description += "\n\n" + RoleDescription(*role)
	}

	embed := logEmbed(colorDelete, description, "ID: "+roleID, now)
	embed.Author = guildAuthor(guild)
	return newEntry(KindRoleDelete, embed)
}

// RoleUpdateEntry returns nil when nothing shown in a role description changed
func RoleUpdateEntry(before, after discordgo.Role, guild *discordgo.Guild, now time.Time) *Entry {
	oldText, newText := RoleDiff(before, after)
	if oldText == "" {
		return nil
	}

	embed := logEmbed(colorEdit, fmt.Sprintf("**Role edited: %s (%s)**", after.Name, after.Mention()), "ID: "+after.ID, now)
	embed.Author = guildAuthor(guild)
	embed.Fields = []*discordgo.MessageEmbedField{
		{Name: "Before", Value: common.Truncate(oldText, common.MaxFieldValue)},
		{Name: "After", Value: common.Truncate(newText, common.MaxFieldValue)},
	}
	return newEntry(KindRoleUpdate, embed)
}

func GuildAvailabilityEntry(available bool, guild *discordgo.Guild, now time.Time) *Entry {
	kind, description, color := KindGuildUnavailable, "**Guild is unavailable**", colorDelete
	if available {
		kind, description, color = KindGuildAvailable, "**Guild is available again**", colorCreate
	}
	embed := logEmbed(color, description, "ID: "+guild.ID, now)
	embed.Author = guildAuthor(guild)
	return newEntry(kind, embed)
}

func MemberJoinEntry(user *discordgo.User, now time.Time) *Entry {
	embed := logEmbed(colorCreate, fmt.Sprintf("**Member joined: %s (%s)**", user.Mention(), user.String()), "ID: "+user.ID, now)
	embed.Author = userAuthor(user)
	embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: user.AvatarURL("")}
	embed.Fields = []*discordgo.MessageEmbedField{
		{Name: "Account age", Value: common.HumanizeDuration(now.Sub(common.CreatedAt(user.ID)))},
	}

	entry := newEntry(KindMemberJoin, embed)
	entry.UserID = user.ID
	return entry
}

// MemberRemoveEntry uses the last snapshot of the member, known is false when there was none
func MemberRemoveEntry(user *discordgo.User, guildID string, snapshot MemberSnapshot, known bool, now time.Time) *Entry {
	stayed := "Unknown"
	if known && !snapshot.JoinedAt.IsZero() {
		stayed = common.HumanizeDuration(now.Sub(snapshot.JoinedAt))
	}

	embed := logEmbed(colorDelete, fmt.Sprintf("**Member left: %s (%s)**", user.Mention(), user.String()), "ID: "+user.ID, now)
	embed.Author = userAuthor(user)
	embed.Fields = []*discordgo.MessageEmbedField{
		{Name: "Time stayed", Value: stayed},
		{Name: "Roles", Value: common.Truncate(roleMentions(snapshot.Roles, guildID), common.MaxFieldValue)},
	}

	entry := newEntry(KindMemberRemove, embed)
	entry.UserID = user.ID
	return entry
}

// roleMentions skips the @everyone role, which shares the guild ID
func roleMentions(roleIDs []string, guildID string) string {
	var mentions []string
	for _, id := range roleIDs {
		if id == guildID {
			continue
		}
		mentions = append(mentions, "<@&"+id+">")
	}
	if len(mentions) == 0 {
		return "None"
	}
	return strings.Join(mentions, ", ")
}

func BanEntry(banned bool, user *discordgo.User, now time.Time) *Entry {
	kind, verb, color := KindMemberUnban, "unbanned", colorCreate
	if banned {
		kind, verb, color = KindMemberBan, "banned", colorDelete
	}

	embed := logEmbed(color, fmt.Sprintf("**User %s: %s (%s)**", verb, user.Mention(), user.String()), "ID: "+user.ID, now)
	embed.Author = userAuthor(user)
	embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: user.AvatarURL("")}

	entry := newEntry(kind, embed)
	entry.UserID = user.ID
	return entry
}

func nickOrNone(nick string) string {
	if nick == "" {
		return "None"
	}
	return nick
}

// MemberUpdateEntry reports a nickname change first, then role changes. Other updates return nil.
func MemberUpdateEntry(before MemberSnapshot, after *discordgo.Member, now time.Time) *Entry {
	user := after.User
	embed := logEmbed(colorEdit, "", "ID: "+user.ID, now)
	embed.Author = userAuthor(user)

	var kind string
	added, removed := diffRoles(before.Roles, after.Roles)
	switch {
	case before.Nick != after.Nick:
		kind = KindNickChange
		embed.Description = fmt.Sprintf("**Nickname changed: %s**", user.Mention())
		embed.Fields = []*discordgo.MessageEmbedField{
			{Name: "Before", Value: nickOrNone(before.Nick)},
			{Name: "After", Value: nickOrNone(after.Nick)},
		}
	case len(added) > 0:
		kind = KindRolesAdded
		embed.Color = colorCreate
		embed.Description = fmt.Sprintf("**%s added to %s:**", rolesWord(len(added)), user.Mention())
		embed.Fields = []*discordgo.MessageEmbedField{
			{Name: "Added roles", Value: roleMentions(added, "")},
		}
	case len(removed) > 0:
		kind = KindRolesRemoved
		embed.Color = colorDelete
		embed.Description = fmt.Sprintf("**%s removed from %s**", rolesWord(len(removed)), user.Mention())
		embed.Fields = []*discordgo.MessageEmbedField{
			{Name: "Removed roles", Value: roleMentions(removed, "")},
		}
	default:
		return nil
	}

	entry := newEntry(kind, embed)
	entry.UserID = user.ID
	return entry
}

func rolesWord(n int) string {
	if n > 1 {
		return "Roles"
	}
	return "Role"
}

func diffRoles(before, after []string) (added, removed []string) {
	had := make(map[string]bool, len(before))
	for _, id := range before {
		had[id] = true
	}
	has := make(map[string]bool, len(after))
	for _, id := range after {
		has[id] = true
		if !had[id] {
			added = append(added, id)
		}
	}
	for _, id := range before {
		if !has[id] {
			removed = append(removed, id)
		}
	}
	return added, removed
}

// VoiceEntry reports the first of: channel change, server mute change, server deafen change.
// before is nil when the member was not in voice as far as the state knows.
func VoiceEntry(user *discordgo.User, before, after *discordgo.VoiceState, now time.Time) *Entry {
	var old discordgo.VoiceState
	if before != nil {
		old = *before
	}
	mention := user.Mention()

	var kind, description string
	switch {
	case old.ChannelID == "" && after.ChannelID != "":
		kind = KindVoiceJoin
		description = fmt.Sprintf("Member **%s** joined voice channel **<#%s>**", mention, after.ChannelID)
	case old.ChannelID != "" && after.ChannelID == "":
		kind = KindVoiceLeave
		description = fmt.Sprintf("Member **%s** left voice channel **<#%s>**", mention, old.ChannelID)
	case old.ChannelID != after.ChannelID:
		kind = KindVoiceMove
		description = fmt.Sprintf("Member **%s** moved from voice channel **<#%s>** to **<#%s>**", mention, old.ChannelID, after.ChannelID)
	case !old.Mute && after.Mute:
		kind = KindVoiceMute
		description = fmt.Sprintf("Member **%s** was muted in **<#%s>**", mention, after.ChannelID)
	case old.Mute && !after.Mute:
		kind = KindVoiceUnmute
		description = fmt.Sprintf("Member **%s** was unmuted in **<#%s>**", mention, after.ChannelID)
	case !old.Deaf && after.Deaf:
		kind = KindVoiceDeafen
		description = fmt.Sprintf("Member **%s** was deafened in **<#%s>**", mention, after.ChannelID)
	case old.Deaf && !after.Deaf:
		kind = KindVoiceUndeafen
		description = fmt.Sprintf("Member **%s** was undeafened in **<#%s>**", mention, after.ChannelID)
	default:
		return nil
	}

	embed := logEmbed(colorEdit, description, "ID: "+user.ID, now)
	embed.Author = userAuthor(user)

	entry := newEntry(kind, embed)
	entry.UserID = user.ID
	entry.ChannelID = after.ChannelID
	if entry.ChannelID == "" {
		entry.ChannelID = old.ChannelID
	}
	return entry
}
