package module

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cgbot/bot/commands"
	"cgbot/bot/common"
	"cgbot/docs"

	"github.com/bwmarrin/discordgo"
)

const noMatches = "No matches found."

func (f *Feature) handleGitHub(c *commands.Context) error {
	return sendWithReference(c, &common.Reply{Content: f.githubURL})
}

func (f *Feature) handlePyPI(c *commands.Context) error {
	return sendWithReference(c, &common.Reply{Content: f.pypiURL})
}

func (f *Feature) handleDocs(c *commands.Context) error {
	reply, err := f.docsReply(c.Context(), c.Rest(0), c.Author())
	if err != nil {
		return err
	}
	if reply.Content == noMatches {
		_, err = c.SendComplex(reply.MessageSend())
		return err
	}
	return sendWithReference(c, reply)
}

func (f *Feature) docsReply(ctx context.Context, query string, caller *discordgo.User) (*common.Reply, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return &common.Reply{Content: f.docs.BaseURL()}, nil
	}

	matches, err := f.docs.Search(ctx, query, docs.DefaultLimit)
	if err != nil {
		return nil, common.NewSystemError(err, "failed to search docs")
	}
	if len(matches) == 0 {
		return &common.Reply{Content: noMatches}, nil
	}

	return &common.Reply{Embed: DocsEmbed(matches, caller, f.now())}, nil
}

// sendWithReference answers in the same thread as the message the author replied to
func sendWithReference(c *commands.Context, reply *common.Reply) error {
	data := reply.MessageSend()
	data.Reference = RepliedReference(c.Message)
	_, err := c.SendComplex(data)
	return err
}

// RepliedReference returns a reference to the message msg replies to, or nil
func RepliedReference(msg *discordgo.Message) *discordgo.MessageReference {
	if msg == nil || msg.MessageReference == nil || msg.ReferencedMessage == nil {
		return nil
	}
	return msg.ReferencedMessage.Reference()
}

// DocsEmbed lists documentation matches as links
func DocsEmbed(matches []docs.Entry, caller *discordgo.User, now time.Time) *discordgo.MessageEmbed {
	lines := make([]string, len(matches))
	for i, entry := range matches {
		lines[i] = fmt.Sprintf("[`%s`](%s)", strings.TrimPrefix(entry.DisplayName, moduleName), entry.URL)
	}
	return commands.NewEmbed(moduleName+" docs best matches", strings.Join(lines, "\n"), caller, now)
}
