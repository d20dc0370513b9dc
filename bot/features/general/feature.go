package general

import (
	"fmt"
	"time"

	"cgbot/bot/commands"
	"cgbot/bot/common"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Feature holds general bot commands
type Feature struct {
	invitePermissions int64
	now               func() time.Time
}

func NewFeature(invitePermissions int64) *Feature {
	return &Feature{
		invitePermissions: invitePermissions,
		now:               time.Now,
	}
}

func (f *Feature) Commands() []*commands.Command {
	return []*commands.Command{{
		Name:        "invite",
		Description: "Get the link to invite the bot to your server.",
		Category:    "General",
		Handler: func(c *commands.Context) error {
			embed := InviteEmbed(c.BotUser().ID, f.invitePermissions, GuildCount(c.Session.State), c.Author(), f.now())
			_, err := c.SendEmbed(embed)
			return err
		},
	}}
}

// ApplicationCommand is the /invite slash command
func (f *Feature) ApplicationCommand() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "invite",
		Description: "Get the link to invite the bot to your server",
	}
}

// HandleCommand serves the /invite slash command
func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	embed := InviteEmbed(s.State.User.ID, f.invitePermissions, GuildCount(s.State), common.InteractionUser(i), f.now())
	if err := common.RespondWithEmbed(s, i, embed, false); err != nil {
		log.Errorf("Error responding to invite command: %v", err)
	}
}

// GuildCount reads the number of cached guilds under the state lock
func GuildCount(state *discordgo.State) int {
	if state == nil {
		return 0
	}
	state.RLock()
	defer state.RUnlock()
	return len(state.Guilds)
}

// InviteURL is the OAuth2 bot authorization link
func InviteURL(clientID string, permissions int64) string {
	return fmt.Sprintf("https://discord.com/oauth2/authorize?client_id=%s&permissions=%d&scope=bot", clientID, permissions)
}

// InviteEmbed links to InviteURL and shows the guild count
func InviteEmbed(clientID string, permissions int64, guildCount int, caller *discordgo.User, now time.Time) *discordgo.MessageEmbed {
	return commands.NewEmbed(
		"Invite me to your server",
		fmt.Sprintf("[**Invite me here**](%s)\nCurrently in %s.", InviteURL(clientID, permissions), common.Plural(guildCount, "server")),
		caller, now,
	)
}
