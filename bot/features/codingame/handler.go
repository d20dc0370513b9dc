package codingame

import (
	"context"
	"errors"
	"fmt"

	"cgbot/bot/commands"
	"cgbot/bot/common"
	cg "cgbot/codingame"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

const noPendingClashes = "No pending clashes currently, try again later."

func (f *Feature) handleCodinGamer(c *commands.Context) error {
	handle, err := c.Arg(0)
	if err != nil {
		return err
	}
	reply, err := f.codinGamerReply(c.Context(), handle, c.Author())
	return send(c, reply, err)
}

func (f *Feature) handleClashOfCode(c *commands.Context) error {
	handle, err := c.Arg(0)
	if err != nil {
		return err
	}
	reply, err := f.clashOfCodeReply(c.Context(), handle, c.Author())
	return send(c, reply, err)
}

func (f *Feature) handlePending(c *commands.Context) error {
	reply, err := f.pendingReply(c.Context(), c.Author())
	return send(c, reply, err)
}

func (f *Feature) handleCard(c *commands.Context) error {
	handle, err := c.Arg(0)
	if err != nil {
		return err
	}
	reply, err := f.cardReply(c.Context(), handle, c.Author())
	return send(c, reply, err)
}

func send(c *commands.Context, reply *common.Reply, err error) error {
	if err != nil {
		return err
	}
	_, err = c.SendComplex(reply.MessageSend())
	return err
}

// HandleCommand serves the /codingame slash command
func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	if len(data.Options) == 0 {
		common.RespondWithError(s, i, "Unknown subcommand.")
		return
	}
	sub := data.Options[0]

	var handle string
	for _, opt := range sub.Options {
		if opt.Name == "handle" {
			handle = opt.StringValue()
		}
	}

	if err := common.DeferResponse(s, i, false); err != nil {
		log.Errorf("Error deferring codingame response: %v", err)
		return
	}

	ctx := context.Background()
	caller := common.InteractionUser(i)

	var (
		reply *common.Reply
		err   error
	)
	switch sub.Name {
	case "codingamer":
		reply, err = f.codinGamerReply(ctx, handle, caller)
	case "clash":
		reply, err = f.clashOfCodeReply(ctx, handle, caller)
	case "pending":
		reply, err = f.pendingReply(ctx, caller)
	case "card":
		reply, err = f.cardReply(ctx, handle, caller)
	default:
		err = common.NewUserError("Unknown subcommand.", "unknown codingame subcommand "+sub.Name)
	}
	if err != nil {
		common.HandleError(s, i, err, true)
		return
	}

	if err := common.FollowUpWithReply(s, i, reply); err != nil {
		log.Errorf("Error sending codingame follow-up: %v", err)
	}
}

// userFacing turns handle format and not found errors into a plain reply
func userFacing(err error) (*common.Reply, bool) {
	var (
		formatErr   *cg.FormatError
		notFoundErr *cg.NotFoundError
	)
	if errors.As(err, &formatErr) || errors.As(err, &notFoundErr) {
		return &common.Reply{Content: common.Clean(err.Error())}, true
	}
	return nil, false
}

func (f *Feature) codinGamerReply(ctx context.Context, handle string, caller *discordgo.User) (*common.Reply, error) {
	codinGamer, err := f.client.CodinGamer(ctx, handle)
	if err != nil {
		if reply, ok := userFacing(err); ok {
			return reply, nil
		}
		return nil, common.NewSystemError(err, "failed to fetch CodinGamer")
	}
	return &common.Reply{Embed: CodinGamerEmbed(codinGamer, caller, f.now())}, nil
}

func (f *Feature) clashOfCodeReply(ctx context.Context, handle string, caller *discordgo.User) (*common.Reply, error) {
	clash, err := f.client.ClashOfCode(ctx, handle)
	if err != nil {
		if reply, ok := userFacing(err); ok {
			return reply, nil
		}
		return nil, common.NewSystemError(err, "failed to fetch Clash of Code")
	}
	return &common.Reply{Embed: ClashOfCodeEmbed(clash, caller, f.now())}, nil
}

func (f *Feature) pendingReply(ctx context.Context, caller *discordgo.User) (*common.Reply, error) {
	clashes, err := f.client.PendingClashes(ctx)
	if err != nil {
		return nil, common.NewSystemError(err, "failed to fetch pending clashes")
	}
	if len(clashes) == 0 {
		return &common.Reply{Content: noPendingClashes}, nil
	}
	return &common.Reply{Embed: ClashOfCodeEmbed(&clashes[0], caller, f.now())}, nil
}

func (f *Feature) cardReply(ctx context.Context, handle string, caller *discordgo.User) (*common.Reply, error) {
	codinGamer, err := f.client.CodinGamer(ctx, handle)
	if err != nil {
		if reply, ok := userFacing(err); ok {
			return reply, nil
		}
		return nil, common.NewSystemError(err, "failed to fetch CodinGamer")
	}

	file, err := f.cards.Render(codinGamer)
	if err != nil {
		return nil, common.NewSystemError(err, fmt.Sprintf("failed to render card for %s", handle))
	}

	embed := commands.NewEmbed(
		"**Codingamer:** "+common.Clean(codinGamer.DisplayName()),
		fmt.Sprintf("[View profile](%s)", codinGamer.ProfileURL()),
		caller, f.now(),
	)
	embed.Image = &discordgo.MessageEmbedImage{URL: "attachment://" + cardFileName}

	return &common.Reply{Embed: embed, Files: []*discordgo.File{file}}, nil
}
