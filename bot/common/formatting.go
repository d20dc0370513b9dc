package common

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

var cleanReplacer = strings.NewReplacer(
	"_", `\_`,
	"*", `\*`,
	"`", "`\u200b",
)

// Clean escapes markdown and neutralises mentions in user-controlled text
func Clean(text string) string {
	text = cleanReplacer.Replace(text)
	text = strings.ReplaceAll(text, "@", `\@`)
	return strings.ReplaceAll(text, "@everyone", "@\u200beveryone")
}

// Truncate shortens text to at most max runes, ending with "..." when cut
func Truncate(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

// HumanizeDuration formats d as "2 days, 3 hours, 4 mins, 5 sec", skipping zero parts
func HumanizeDuration(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	total := int64(d / time.Second)
	days := total / 86400
	hours := total % 86400 / 3600
	mins := total % 3600 / 60
	secs := total % 60

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%d days", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%d hours", hours))
	}
	if mins > 0 {
		parts = append(parts, fmt.Sprintf("%d mins", mins))
	}
	if secs > 0 {
		parts = append(parts, fmt.Sprintf("%d sec", secs))
	}
	if len(parts) == 0 {
		return "0 sec"
	}
	return strings.Join(parts, ", ")
}

// Plural returns "1 message" or "3 messages"
func Plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// YesNo renders a boolean for embed fields
func YesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// FormatDiscordTimestamp formats a time as a Discord timestamp that displays in user's local timezone
// Format types: "t" = short time, "T" = long time, "d" = short date, "D" = long date,
// "f" = short date/time, "F" = long date/time, "R" = relative time
func FormatDiscordTimestamp(t time.Time, format string) string {
	return fmt.Sprintf("<t:%d:%s>", t.Unix(), format)
}

// MessageURL builds the jump link of a message. An empty guild ID means a DM.
func MessageURL(guildID, channelID, messageID string) string {
	if guildID == "" {
		guildID = "@me"
	}
	return fmt.Sprintf("https://discord.com/channels/%s/%s/%s", guildID, channelID, messageID)
}

// CreatedAt returns the creation time encoded in a snowflake ID
func CreatedAt(id string) time.Time {
	t, err := discordgo.SnowflakeTimestamp(id)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

// ColorHex formats a role colour as #RRGGBB
func ColorHex(color int) string {
	return fmt.Sprintf("#%06X", color)
}
