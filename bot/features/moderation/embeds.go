package moderation

import (
	"fmt"
	"strings"
	"time"

	"cgbot/bot/commands"
	"cgbot/bot/common"
	"cgbot/models"

	"github.com/bwmarrin/discordgo"
)

// ActionColor is the mod log colour of an action
func ActionColor(action models.ModAction) int {
	switch action {
	case models.ModActionWarn:
		return common.ColorWarning
	case models.ModActionKick:
		return common.ColorOrange
	case models.ModActionBan:
		return common.ColorDanger
	case models.ModActionUnban:
		return common.ColorSuccess
	}
	return common.ColorInfo
}

// ModLogEmbed is posted to the mod log channel after an action. caseNumber 0 means the case was not stored.
func ModLogEmbed(action models.ModAction, user, moderator *discordgo.User, reason string, extra []*discordgo.MessageEmbedField, caseNumber int, now time.Time) *discordgo.MessageEmbed {
	footer := "ID: " + user.ID
	if caseNumber > 0 {
		footer += fmt.Sprintf(" • Case #%d", caseNumber)
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: "User", Value: user.String(), Inline: true},
		{Name: "Moderator", Value: moderator.Mention(), Inline: true},
		{Name: "Reason", Value: common.Truncate(reason, common.MaxFieldValue), Inline: true},
	}

	return &discordgo.MessageEmbed{
		Title:       "**" + action.Title() + "**",
		Description: user.Mention(),
		Color:       ActionColor(action),
		Timestamp:   now.UTC().Format(time.RFC3339),
		Fields:      append(fields, extra...),
		Author:      &discordgo.MessageEmbedAuthor{Name: user.String(), IconURL: user.AvatarURL("")},
		Footer:      &discordgo.MessageEmbedFooter{Text: footer},
	}
}

// SuccessEmbed confirms an action in the invocation channel
func SuccessEmbed(action models.ModAction, user *discordgo.User) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: fmt.Sprintf("**%s** was %s.", user.String(), action.Verb()),
		Color: common.ColorSuccess,
	}
}

// DMText is sent to the target before the action
func DMText(action models.ModAction, guildName, reason string) string {
	if action == models.ModActionWarn {
		return fmt.Sprintf("You were warned in %s for reason: %s", guildName, reason)
	}
	return fmt.Sprintf("You were %s from %s for reason: %s", action.Verb(), guildName, reason)
}

// CaseLine renders one case of a user's history
func CaseLine(modCase *models.ModCase) string {
	moderator := modCase.ModeratorName
	if moderator == "" {
		moderator = fmt.Sprintf("<@%d>", modCase.ModeratorID)
	}
	return fmt.Sprintf("**#%d** %s by %s %s: %s",
		modCase.CaseNumber,
		modCase.Action,
		moderator,
		common.FormatDiscordTimestamp(modCase.CreatedAt, "R"),
		modCase.Reason,
	)
}

// CasesEmbed lists a user's recent cases, newest first
func CasesEmbed(user *discordgo.User, cases []*models.ModCase, caller *discordgo.User, now time.Time) *discordgo.MessageEmbed {
	if len(cases) == 0 {
		return commands.NewEmbed("Cases for "+user.String(), fmt.Sprintf("No cases recorded for **%s**.", user.String()), caller, now)
	}

	lines := make([]string, 0, len(cases))
	for _, modCase := range cases {
		lines = append(lines, CaseLine(modCase))
	}
	embed := commands.NewEmbed("Cases for "+user.String(), common.Truncate(strings.Join(lines, "\n"), common.MaxEmbedDescription), caller, now)
	embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: user.AvatarURL("")}
	return embed
}

// SummaryEmbed shows per-action case counts for the guild
func SummaryEmbed(guildName string, counts []models.ActionCount, caller *discordgo.User, now time.Time) *discordgo.MessageEmbed {
	title := "Moderation summary for " + guildName
	if len(counts) == 0 {
		return commands.NewEmbed(title, "No cases recorded yet.", caller, now)
	}

	total := 0
	fields := make([]*discordgo.MessageEmbedField, 0, len(counts))
	for _, count := range counts {
		total += count.Count
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   count.Action.Title(),
			Value:  fmt.Sprint(count.Count),
			Inline: true,
		})
	}
	embed := commands.NewEmbed(title, common.Plural(total, "case")+" recorded.", caller, now)
	embed.Fields = fields
	return embed
}
