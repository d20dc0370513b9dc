package codingame

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"cgbot/bot/commands"
	"cgbot/bot/common"
	cg "cgbot/codingame"

	"github.com/bwmarrin/discordgo"
)

// CodinGamerEmbed renders a CodinGamer profile
func CodinGamerEmbed(codinGamer *cg.CodinGamer, caller *discordgo.User, now time.Time) *discordgo.MessageEmbed {
	description := strings.TrimSpace(codinGamer.Tagline + "\n\n" + codinGamer.Biography)

	embed := commands.NewEmbed(
		"**Codingamer:** "+common.Clean(codinGamer.DisplayName()),
		common.Clean(description),
		caller, now,
	)
	embed.URL = codinGamer.ProfileURL()

	if avatar := codinGamer.AvatarURL(); avatar != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: avatar}
	}
	embed.Author = &discordgo.MessageEmbedAuthor{
		Name: fmt.Sprintf("%s | %d", codinGamer.PublicHandle, codinGamer.ID),
	}

	embed.Fields = []*discordgo.MessageEmbedField{
		{Name: "Rank", Value: strconv.Itoa(codinGamer.Rank), Inline: true},
		{Name: "Level", Value: strconv.Itoa(codinGamer.Level), Inline: true},
		{Name: "Country", Value: orNone(codinGamer.CountryID), Inline: true},
	}
	if category := codinGamer.CategoryTitle(); category != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Category", Value: category, Inline: true})
	}
	if codinGamer.School != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "School", Value: common.Clean(codinGamer.School), Inline: true})
	}
	if codinGamer.Company != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Company", Value: common.Clean(codinGamer.Company), Inline: true})
	}

	return embed
}

// ClashOfCodeEmbed renders a Clash of Code with a join link
func ClashOfCodeEmbed(clash *cg.ClashOfCode, caller *discordgo.User, now time.Time) *discordgo.MessageEmbed {
	embed := commands.NewEmbed(
		"**Clash of Code:** "+clash.PublicHandle,
		fmt.Sprintf("**[Join here](%s)**", clash.JoinURL()),
		caller, now,
	)

	modes := "Any"
	if len(clash.Modes) > 0 {
		modes = strings.Join(clash.Modes, ", ")
	}
	languages := "All"
	if len(clash.ProgrammingLanguages) > 0 {
		languages = strings.Join(clash.ProgrammingLanguages, ", ")
	}

	embed.Fields = []*discordgo.MessageEmbedField{
		{Name: "Public", Value: common.YesNo(clash.PublicClash), Inline: true},
		{Name: "Min players", Value: strconv.Itoa(clash.MinPlayers), Inline: true},
		{Name: "Max players", Value: strconv.Itoa(clash.MaxPlayers), Inline: true},
		{Name: "Possible modes", Value: modes, Inline: true},
		{Name: "Programming languages", Value: common.Truncate(languages, common.MaxFieldValue), Inline: true},
		{Name: "Started", Value: common.YesNo(clash.Started), Inline: true},
		{Name: "Finished", Value: common.YesNo(clash.Finished), Inline: true},
	}
	if clash.Started && clash.Mode != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Mode", Value: clash.Mode, Inline: true})
	}

	players := make([]string, 0, len(clash.Players))
	for _, player := range clash.Players {
		players = append(players, common.Clean(player.Nickname))
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:  "Players",
		Value: common.Truncate(orNone(strings.Join(players, ", ")), common.MaxFieldValue),
	})

	return embed
}

func orNone(s string) string {
	if s == "" {
		return "None"
	}
	return s
}
