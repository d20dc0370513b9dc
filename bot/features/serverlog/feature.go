package serverlog

import (
	"sync/atomic"
	"time"

	"cgbot/events"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// EventPublisher receives an AuditLoggedEvent for every posted entry
type EventPublisher interface {
	Publish(event events.Event)
}

// Sender posts embeds to a channel
type Sender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Feature mirrors events of one guild into its server log channel
type Feature struct {
	guildID      string
	logChannelID string
	cache        *Cache
	publisher    EventPublisher
	now          func() time.Time

	unavailable atomic.Bool
}

func NewFeature(guildID, logChannelID string, publisher EventPublisher) *Feature {
	return &Feature{
		guildID:      guildID,
		logChannelID: logChannelID,
		cache:        NewCache(),
		publisher:    publisher,
		now:          time.Now,
	}
}

// Register attaches every listener to the session
func (f *Feature) Register(s *discordgo.Session) {
	s.AddHandler(f.onGuildCreate)
	s.AddHandler(f.onGuildDelete)
	s.AddHandler(f.onGuildMembersChunk)
	s.AddHandler(f.onMessageUpdate)
	s.AddHandler(f.onMessageDelete)
	s.AddHandler(f.onMessageDeleteBulk)
	s.AddHandler(f.onChannelCreate)
	s.AddHandler(f.onChannelDelete)
	s.AddHandler(f.onGuildRoleCreate)
	s.AddHandler(f.onGuildRoleUpdate)
	s.AddHandler(f.onGuildRoleDelete)
	s.AddHandler(f.onGuildMemberAdd)
	s.AddHandler(f.onGuildMemberRemove)
	s.AddHandler(f.onGuildMemberUpdate)
	s.AddHandler(f.onGuildBanAdd)
	s.AddHandler(f.onGuildBanRemove)
	s.AddHandler(f.onVoiceStateUpdate)

	log.WithFields(log.Fields{
		"guildID":   f.guildID,
		"channelID": f.logChannelID,
	}).Info("Server log listeners registered")
}

// post sends the entry to the log channel and publishes its audit event
func (f *Feature) post(sender Sender, entry *Entry) {
	if entry == nil {
		return
	}

	logger := log.WithFields(log.Fields{
		"kind":      entry.Kind,
		"guildID":   f.guildID,
		"channelID": entry.ChannelID,
		"userID":    entry.UserID,
	})
	logger.Info(entry.Summary)

	if _, err := sender.ChannelMessageSendEmbed(f.logChannelID, entry.Embed); err != nil {
		logger.WithError(err).Error("Failed to post server log entry")
		return
	}

	if f.publisher != nil {
		f.publisher.Publish(events.AuditLoggedEvent{
			Kind:      entry.Kind,
			GuildID:   f.guildID,
			ChannelID: entry.ChannelID,
			UserID:    entry.UserID,
			Summary:   entry.Summary,
			At:        f.now().UTC(),
		})
	}
}

// guild returns the cached guild, or nil
func (f *Feature) guild(state *discordgo.State) *discordgo.Guild {
	if state == nil {
		return nil
	}
	guild, err := state.Guild(f.guildID)
	if err != nil {
		return nil
	}
	return guild
}
