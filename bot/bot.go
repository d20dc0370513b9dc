package bot

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"cgbot/bot/commands"

	"github.com/bwmarrin/discordgo"
)

// Config holds bot configuration
type Config struct {
	Token   string
	GuildID string
	OwnerID string
}

// SlashCommand is a feature that also serves an application command
type SlashCommand interface {
	ApplicationCommand() *discordgo.ApplicationCommand
	HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate)
}

// Listener is a feature that reacts to gateway events
type Listener interface {
	Register(s *discordgo.Session)
}

type Bot struct {
	config  Config
	ctx     context.Context
	session *discordgo.Session
	router  *commands.Router
	slash   map[string]SlashCommand
}

// New connects to Discord, registers the listeners and the slash commands. ctx is the parent of every command context.
func New(ctx context.Context, config Config, router *commands.Router, slashCommands []SlashCommand, listeners []Listener) (*Bot, error) {
	dg, err := discordgo.New("Bot " + config.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsAll
	// Edits and deletes need the cached previous content
	dg.State.MaxMessageCount = 1000
	dg.State.TrackMembers = true

	bot := &Bot{
		config:  config,
		ctx:     ctx,
		session: dg,
		router:  router,
		slash:   make(map[string]SlashCommand, len(slashCommands)),
	}
	for _, cmd := range slashCommands {
		bot.slash[cmd.ApplicationCommand().Name] = cmd
	}

	dg.AddHandler(bot.onReady)
	dg.AddHandler(bot.onMessageCreate)
	dg.AddHandler(bot.onInteractionCreate)
	for _, listener := range listeners {
		listener.Register(dg)
	}

	// Open websocket connection
	if err := dg.Open(); err != nil {
		return nil, fmt.Errorf("error opening connection: %w", err)
	}

	if err := bot.registerCommands(slashCommands); err != nil {
		dg.Close()
		return nil, fmt.Errorf("error registering commands: %w", err)
	}

	if config.OwnerID == "" {
		bot.resolveOwner()
	}

	return bot, nil
}

func (b *Bot) Close() error {
	return b.session.Close()
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	log.WithFields(log.Fields{
		"user":   r.User.String(),
		"guilds": len(r.Guilds),
	}).Info("Logged in")

	if err := s.UpdateGameStatus(0, b.router.Prefix()+"help"); err != nil {
		log.WithError(err).Warn("Failed to set presence")
	}
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	log.WithFields(log.Fields{
		"guild_id":   m.GuildID,
		"channel_id": m.ChannelID,
		"user":       m.Author.String(),
		"content":    m.Content,
	}).Debug("Message received")

	b.router.Dispatch(b.ctx, s, m)
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	name := i.ApplicationCommandData().Name
	cmd, ok := b.slash[name]
	if !ok {
		log.WithField("command", name).Warn("Unknown slash command")
		return
	}
	cmd.HandleCommand(s, i)
}

// registerCommands overwrites the guild's slash commands with ours
func (b *Bot) registerCommands(slashCommands []SlashCommand) error {
	appCommands := make([]*discordgo.ApplicationCommand, 0, len(slashCommands))
	for _, cmd := range slashCommands {
		appCommands = append(appCommands, cmd.ApplicationCommand())
	}

	created, err := b.session.ApplicationCommandBulkOverwrite(b.session.State.User.ID, b.config.GuildID, appCommands)
	if err != nil {
		return err
	}
	log.Infof("Registered %d slash commands", len(created))
	return nil
}

// resolveOwner sends error reports to the application owner, or the team owner
func (b *Bot) resolveOwner() {
	app, err := b.session.Application("@me")
	if err != nil {
		log.WithError(err).Warn("Failed to fetch application, error reports disabled")
		return
	}
	ownerID := ApplicationOwnerID(app)
	if ownerID == "" {
		return
	}
	b.router.SetOwnerID(ownerID)
	log.WithField("owner_id", ownerID).Info("Resolved bot owner")
}

// ApplicationOwnerID prefers the team owner over the application owner
func ApplicationOwnerID(app *discordgo.Application) string {
	switch {
	case app == nil:
		return ""
	case app.Team != nil && app.Team.OwnerID != "":
		return app.Team.OwnerID
	case app.Owner != nil:
		return app.Owner.ID
	}
	return ""
}
