package codingame

import (
	"context"
	"time"

	"cgbot/bot/commands"
	cg "cgbot/codingame"

	"github.com/bwmarrin/discordgo"
)

// API is the part of the CodinGame client the feature uses
type API interface {
	CodinGamer(ctx context.Context, handle string) (*cg.CodinGamer, error)
	ClashOfCode(ctx context.Context, handle string) (*cg.ClashOfCode, error)
	PendingClashes(ctx context.Context) ([]cg.ClashOfCode, error)
}

type Feature struct {
	client API
	cards  *CardGenerator
	now    func() time.Time
}

func NewFeature(client API) *Feature {
	return &Feature{
		client: client,
		cards:  NewCardGenerator(),
		now:    time.Now,
	}
}

// Commands returns the codingame command group
func (f *Feature) Commands() []*commands.Command {
	return []*commands.Command{{
		Name:        "codingame",
		Aliases:     []string{"cg"},
		Description: "Commands for the CodinGame API.",
		Category:    "CodinGame",
		Handler: func(c *commands.Context) error {
			return c.SendHelp()
		},
		Subcommands: []*commands.Command{
			{
				Name:        "codingamer",
				Aliases:     []string{"user", "c"},
				Usage:       "<handle>",
				Description: "Get a CodinGamer from their public handle.",
				Handler:     f.handleCodinGamer,
			},
			{
				Name:        "clash_of_code",
				Aliases:     []string{"clash", "coc"},
				Usage:       "<handle>",
				Description: "Get a Clash of Code from its public handle.",
				Handler:     f.handleClashOfCode,
			},
			{
				Name:        "pending_clash_of_code",
				Aliases:     []string{"pending", "pcoc"},
				Description: "Get a pending public Clash of Code.",
				Handler:     f.handlePending,
			},
			{
				Name:        "card",
				Aliases:     []string{"profile"},
				Usage:       "<handle>",
				Description: "Render a CodinGamer's profile card.",
				Cooldown:    &commands.Cooldown{Rate: 1, Per: 5 * time.Second},
				Handler:     f.handleCard,
			},
		},
	}}
}

// ApplicationCommand is the /codingame slash command
func (f *Feature) ApplicationCommand() *discordgo.ApplicationCommand {
	handleOption := func(description string) []*discordgo.ApplicationCommandOption {
		return []*discordgo.ApplicationCommandOption{{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "handle",
			Description: description,
			Required:    true,
		}}
	}

	return &discordgo.ApplicationCommand{
		Name:        "codingame",
		Description: "Query the CodinGame API",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "codingamer",
				Description: "Get a CodinGamer from their public handle",
				Options:     handleOption("Public handle of the CodinGamer"),
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "clash",
				Description: "Get a Clash of Code from its public handle",
				Options:     handleOption("Public handle of the Clash of Code"),
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "pending",
				Description: "Get a pending public Clash of Code",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "card",
				Description: "Render a CodinGamer's profile card",
				Options:     handleOption("Public handle of the CodinGamer"),
			},
		},
	}
}
