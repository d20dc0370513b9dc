package commands

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/bwmarrin/discordgo"
)

// argument is one parsed word and where it starts in the raw text
type argument struct {
	value string
	start int
}

// splitArgs splits text on whitespace. Double quotes group words.
func splitArgs(text string) []argument {
	var (
		args    []argument
		current strings.Builder
		start   = -1
		quoted  bool
	)

	flush := func() {
		if start >= 0 {
			args = append(args, argument{value: current.String(), start: start})
		}
		current.Reset()
		start = -1
	}

	for i, r := range text {
		switch {
		case r == '"':
			if start < 0 {
				start = i
			}
			if quoted {
				quoted = false
				// An empty quoted string is still an argument
				args = append(args, argument{value: current.String(), start: start})
				current.Reset()
				start = -1
				continue
			}
			quoted = true
		case unicode.IsSpace(r) && !quoted:
			flush()
		default:
			if start < 0 {
				start = i
			}
			current.WriteRune(r)
		}
	}
	flush()

	return args
}

var (
	idPattern      = regexp.MustCompile(`^([0-9]{15,20})$`)
	mentionPattern = regexp.MustCompile(`^<@!?([0-9]{15,20})>$`)
)

// parseUserID extracts a snowflake from a raw ID or a user mention
func parseUserID(arg string) (string, bool) {
	if m := mentionPattern.FindStringSubmatch(arg); m != nil {
		return m[1], true
	}
	if m := idPattern.FindStringSubmatch(arg); m != nil {
		return m[1], true
	}
	return "", false
}

// findMember looks a member up by ID, "name#discrim", username, global name or nick
func findMember(members []*discordgo.Member, arg string) *discordgo.Member {
	if id, ok := parseUserID(arg); ok {
		for _, m := range members {
			if m.User != nil && m.User.ID == id {
				return m
			}
		}
		return nil
	}

	if name, discrim, ok := strings.Cut(arg, "#"); ok && len(discrim) == 4 {
		for _, m := range members {
			if m.User != nil && m.User.Username == name && m.User.Discriminator == discrim {
				return m
			}
		}
	}

	for _, m := range members {
		if m.User != nil && m.User.Username == arg {
			return m
		}
	}
	for _, m := range members {
		if m.User != nil && m.User.GlobalName == arg {
			return m
		}
	}
	for _, m := range members {
		if m.Nick == arg {
			return m
		}
	}
	return nil
}
