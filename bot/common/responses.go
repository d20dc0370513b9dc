package common

import (
	"github.com/bwmarrin/discordgo"
)

// DeferResponse sends a deferred response to give more time for processing
func DeferResponse(s *discordgo.Session, i *discordgo.InteractionCreate, ephemeral bool) error {
	var flags discordgo.MessageFlags
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}

	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: flags,
		},
	})
}

// RespondWithEmbed sends an embed as an interaction response
func RespondWithEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, ephemeral bool) error {
	data := &discordgo.InteractionResponseData{
		Embeds:          []*discordgo.MessageEmbed{embed},
		AllowedMentions: UserMentionsOnly(),
	}

	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}

	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
}

// RespondWithContent sends plain text as an interaction response
func RespondWithContent(s *discordgo.Session, i *discordgo.InteractionCreate, content string) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content:         content,
			AllowedMentions: UserMentionsOnly(),
		},
	})
}

// UserMentionsOnly lets messages ping users but never roles or @everyone
func UserMentionsOnly() *discordgo.MessageAllowedMentions {
	return &discordgo.MessageAllowedMentions{
		Parse: []discordgo.AllowedMentionType{discordgo.AllowedMentionTypeUsers},
	}
}

// Reply is a rendered command result. Prefix commands send it as a message,
// slash commands as an interaction follow-up.
type Reply struct {
	Content string
	Embed   *discordgo.MessageEmbed
	Files   []*discordgo.File
}

// MessageSend converts the reply for ChannelMessageSendComplex
func (r *Reply) MessageSend() *discordgo.MessageSend {
	data := &discordgo.MessageSend{
		Content:         r.Content,
		Files:           r.Files,
		AllowedMentions: UserMentionsOnly(),
	}
	if r.Embed != nil {
		data.Embeds = []*discordgo.MessageEmbed{r.Embed}
	}
	return data
}

// FollowUpWithReply sends a reply as the follow-up of a deferred interaction
func FollowUpWithReply(s *discordgo.Session, i *discordgo.InteractionCreate, r *Reply) error {
	params := &discordgo.WebhookParams{
		Content:         r.Content,
		Files:           r.Files,
		AllowedMentions: UserMentionsOnly(),
	}
	if r.Embed != nil {
		params.Embeds = []*discordgo.MessageEmbed{r.Embed}
	}
	_, err := s.FollowupMessageCreate(i.Interaction, true, params)
	return err
}
