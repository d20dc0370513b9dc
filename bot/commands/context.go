package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"cgbot/bot/common"

	"github.com/bwmarrin/discordgo"
)

// Context carries everything a command handler needs
type Context struct {
	Session     *discordgo.Session
	Message     *discordgo.Message
	Command     *Command
	Prefix      string
	InvokedWith string
	Router      *Router

	ctx  context.Context
	raw  string
	args []argument
}

// Context returns the invocation's context.Context
func (c *Context) Context() context.Context {
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

// Author is the user who sent the command
func (c *Context) Author() *discordgo.User {
	return c.Message.Author
}

// GuildID is empty in private messages
func (c *Context) GuildID() string {
	return c.Message.GuildID
}

// ChannelID is where the command was sent
func (c *Context) ChannelID() string {
	return c.Message.ChannelID
}

// Guild returns the cached guild
func (c *Context) Guild() (*discordgo.Guild, error) {
	if c.GuildID() == "" {
		return nil, &NoPrivateMessageError{}
	}
	return c.Session.State.Guild(c.GuildID())
}

// Member returns the author's guild member
func (c *Context) Member() (*discordgo.Member, error) {
	if c.Message.Member != nil {
		// Gateway message members carry no user
		member := *c.Message.Member
		member.User = c.Author()
		member.GuildID = c.GuildID()
		return &member, nil
	}
	return c.lookupMember(c.Author().ID)
}

// BotUser is the bot's own user
func (c *Context) BotUser() *discordgo.User {
	return c.Session.State.User
}

// Send posts content to the invocation channel
func (c *Context) Send(content string) (*discordgo.Message, error) {
	return c.SendComplex(&discordgo.MessageSend{Content: content})
}

// Reply answers the invoking message and mentions its author
func (c *Context) Reply(content string) (*discordgo.Message, error) {
	return c.SendComplex(&discordgo.MessageSend{
		Content:   content,
		Reference: c.Message.Reference(),
		AllowedMentions: &discordgo.MessageAllowedMentions{
			Parse:       []discordgo.AllowedMentionType{discordgo.AllowedMentionTypeUsers},
			RepliedUser: true,
		},
	})
}

func (c *Context) SendEmbed(embed *discordgo.MessageEmbed) (*discordgo.Message, error) {
	return c.SendComplex(&discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{embed}})
}

func (c *Context) ReplyEmbed(embed *discordgo.MessageEmbed) (*discordgo.Message, error) {
	return c.SendComplex(&discordgo.MessageSend{
		Embeds:    []*discordgo.MessageEmbed{embed},
		Reference: c.Message.Reference(),
	})
}

// SendComplex posts a full message. Mentions are limited to users unless set.
func (c *Context) SendComplex(data *discordgo.MessageSend) (*discordgo.Message, error) {
	if data.AllowedMentions == nil {
		data.AllowedMentions = common.UserMentionsOnly()
	}
	msg, err := c.Session.ChannelMessageSendComplex(c.ChannelID(), data)
	if err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}
	return msg, nil
}

// Embed builds the default embed: primary colour, timestamp and a "Called by" footer
func (c *Context) Embed(title, description string) *discordgo.MessageEmbed {
	return NewEmbed(title, description, c.Author(), time.Now())
}

// NewEmbed builds the default embed for a caller
func NewEmbed(title, description string, caller *discordgo.User, now time.Time) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       common.ColorPrimary,
		Timestamp:   now.UTC().Format(time.RFC3339),
	}
	if caller != nil {
		embed.Footer = &discordgo.MessageEmbedFooter{
			Text:    "Called by: " + caller.String(),
			IconURL: caller.AvatarURL(""),
		}
	}
	return embed
}

// SendHelp sends the help of the invoked command
func (c *Context) SendHelp() error {
	_, err := c.SendEmbed(c.Router.CommandHelpEmbed(c, c.Command))
	return err
}

// NArgs is the number of parsed arguments
func (c *Context) NArgs() int {
	return len(c.args)
}

// Arg returns argument i or a MissingArgumentError naming the parameter
func (c *Context) Arg(i int) (string, error) {
	if i >= len(c.args) {
		return "", &MissingArgumentError{Param: c.paramName(i)}
	}
	return c.args[i].value, nil
}

// OptionalArg returns argument i or fallback
func (c *Context) OptionalArg(i int, fallback string) string {
	if i >= len(c.args) {
		return fallback
	}
	return c.args[i].value
}

// Rest returns the raw text from argument i to the end, or ""
func (c *Context) Rest(i int) string {
	if i >= len(c.args) {
		return ""
	}
	return strings.TrimSpace(c.raw[c.args[i].start:])
}

// IntArg parses argument i as an integer
func (c *Context) IntArg(i int) (int, error) {
	value, err := c.Arg(i)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, &BadArgumentError{
			Param:   c.paramName(i),
			Value:   value,
			Message: fmt.Sprintf("Converting to \"int\" failed for parameter \"%s\".", c.paramName(i)),
		}
	}
	return n, nil
}

// MemberArg resolves argument i to a guild member by mention, ID or name
func (c *Context) MemberArg(i int) (*discordgo.Member, error) {
	value, err := c.Arg(i)
	if err != nil {
		return nil, err
	}
	guild, err := c.Guild()
	if err != nil {
		return nil, &NoPrivateMessageError{}
	}

	if member := findMember(guild.Members, value); member != nil {
		return member, nil
	}
	if id, ok := parseUserID(value); ok {
		if member, err := c.lookupMember(id); err == nil {
			return member, nil
		}
	}
	return nil, &MemberNotFoundError{Argument: value}
}

// UserArg resolves argument i to a user. Unknown IDs are fetched over REST.
func (c *Context) UserArg(i int) (*discordgo.User, error) {
	value, err := c.Arg(i)
	if err != nil {
		return nil, err
	}

	if guild, err := c.Guild(); err == nil {
		if member := findMember(guild.Members, value); member != nil {
			return member.User, nil
		}
	}

	if id, ok := parseUserID(value); ok {
		user, err := c.Session.User(id)
		if err == nil {
			return user, nil
		}
	}
	return nil, &UserNotFoundError{Argument: value}
}

// lookupMember checks state first, then the API
func (c *Context) lookupMember(userID string) (*discordgo.Member, error) {
	if member, err := c.Session.State.Member(c.GuildID(), userID); err == nil {
		return member, nil
	}
	member, err := c.Session.GuildMember(c.GuildID(), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch member %s: %w", userID, err)
	}
	return member, nil
}

func (c *Context) paramName(i int) string {
	names := c.Command.ParamNames()
	if i < len(names) {
		return names[i]
	}
	return fmt.Sprintf("argument %d", i+1)
}

// HasGuildPermissions returns the permissions the author is missing
func (c *Context) HasGuildPermissions(required int64) (int64, error) {
	guild, err := c.Guild()
	if err != nil {
		return 0, err
	}
	member, err := c.Member()
	if err != nil {
		return 0, err
	}
	return MissingPermissions(GuildPermissions(guild, member), required), nil
}

// BotHasGuildPermissions returns the permissions the bot is missing
func (c *Context) BotHasGuildPermissions(required int64) (int64, error) {
	guild, err := c.Guild()
	if err != nil {
		return 0, err
	}
	member, err := c.lookupMember(c.BotUser().ID)
	if err != nil {
		return 0, err
	}
	return MissingPermissions(GuildPermissions(guild, member), required), nil
}
