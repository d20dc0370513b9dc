package moderation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cgbot/bot/commands"
	"cgbot/bot/common"
	"cgbot/models"
	"cgbot/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

const (
	maxPurge       = 1000
	maxDeleteDays  = 7
	defaultDelDays = 1
	historyPage    = 100
)

var errNotBanned = errors.New("user is not banned")

// actionError is a failed kick, ban or unban call
type actionError struct {
	kind models.ModAction
	err  error
}

func (e *actionError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.kind, e.err)
}

func (e *actionError) Unwrap() error {
	return e.err
}

// action is one kick, ban, unban or warn in progress
type action struct {
	kind     models.ModAction
	target   *discordgo.User
	reason   string
	extra    []*discordgo.MessageEmbedField
	metadata map[string]any
	// perform is nil for actions that only record a case
	perform func() error
	// notifyAfter DMs the target once the action succeeded
	notifyAfter bool
}

func (f *Feature) handleKick(c *commands.Context) error {
	member, err := c.MemberArg(0)
	if err != nil {
		return err
	}
	if stop, err := f.refuse(c, models.ModActionKick, member.User, member); stop || err != nil {
		return err
	}

	reason := reasonFrom(c.Rest(1))
	return f.run(c, action{
		kind:   models.ModActionKick,
		target: member.User,
		reason: reason,
		perform: func() error {
			return c.Session.GuildMemberDeleteWithReason(c.GuildID(), member.User.ID, reason)
		},
	})
}

func (f *Feature) handleWarn(c *commands.Context) error {
	member, err := c.MemberArg(0)
	if err != nil {
		return err
	}
	if stop, err := f.refuse(c, models.ModActionWarn, member.User, member); stop || err != nil {
		return err
	}

	return f.run(c, action{
		kind:   models.ModActionWarn,
		target: member.User,
		reason: reasonFrom(c.Rest(1)),
	})
}

func (f *Feature) handleBan(c *commands.Context) error {
	user, err := c.UserArg(0)
	if err != nil {
		return err
	}
	days, reason := ParseBanArgs(c.Rest(1))
	reason = reasonFrom(reason)

	// Only members are subject to the role hierarchy
	member, _ := c.Session.State.Member(c.GuildID(), user.ID)
	if stop, err := f.refuse(c, models.ModActionBan, user, member); stop || err != nil {
		return err
	}

	if _, err := c.Session.GuildBan(c.GuildID(), user.ID); err == nil {
		_, err = c.Send("User is already banned")
		return err
	} else if common.RESTStatus(err) != http.StatusNotFound {
		return fmt.Errorf("failed to look up ban of %s: %w", user.ID, err)
	}

	return f.run(c, action{
		kind:     models.ModActionBan,
		target:   user,
		reason:   reason,
		extra:    []*discordgo.MessageEmbedField{{Name: "Delete days", Value: strconv.Itoa(days), Inline: true}},
		metadata: map[string]any{"delete_days": days},
		perform: func() error {
			return c.Session.GuildBanCreateWithReason(c.GuildID(), user.ID, reason, days)
		},
	})
}

func (f *Feature) handleUnban(c *commands.Context) error {
	user, err := c.UserArg(0)
	if err != nil {
		return err
	}

	return f.run(c, action{
		kind:   models.ModActionUnban,
		target: user,
		reason: reasonFrom(c.Rest(1)),
		perform: func() error {
			err := c.Session.GuildBanDelete(c.GuildID(), user.ID)
			if common.RESTStatus(err) == http.StatusNotFound {
				return errNotBanned
			}
			return err
		},
		// An unbanned user shares no server with the bot before the unban
		notifyAfter: true,
	})
}

// refuse sends the reason the author may not act on target. member is nil when the target is not in the guild.
func (f *Feature) refuse(c *commands.Context, kind models.ModAction, target *discordgo.User, member *discordgo.Member) (bool, error) {
	guild, err := c.Guild()
	if err != nil {
		return true, err
	}
	author, err := c.Member()
	if err != nil {
		return true, err
	}

	refusal := TargetRefusal(kind, Hierarchy{
		TargetID:       target.ID,
		AuthorID:       c.Author().ID,
		BotID:          c.BotUser().ID,
		TargetTop:      commands.TopRolePosition(guild, member),
		AuthorTop:      commands.TopRolePosition(guild, author),
		AuthorIsOwner:  guild.OwnerID == c.Author().ID,
		TargetIsMember: member != nil,
	})
	if refusal == "" {
		return false, nil
	}
	_, err = c.Send(refusal)
	return true, err
}

// run deletes the command message, notifies the target, performs the action, then confirms, records and logs it
func (f *Feature) run(c *commands.Context, a action) error {
	guild, err := c.Guild()
	if err != nil {
		return err
	}
	logger := log.WithFields(log.Fields{
		"action":      a.kind,
		"guildID":     c.GuildID(),
		"targetID":    a.target.ID,
		"moderatorID": c.Author().ID,
	})

	if err := c.Session.ChannelMessageDelete(c.ChannelID(), c.Message.ID); err != nil {
		logger.WithError(err).Warn("Failed to delete command message")
	}

	dm := DMText(a.kind, guild.Name, a.reason)
	if !a.notifyAfter {
		notify(c.Session, a.target, dm, logger)
	}
	if a.perform != nil {
		if err := a.perform(); err != nil {
			return &actionError{kind: a.kind, err: err}
		}
	}
	if a.notifyAfter {
		notify(c.Session, a.target, dm, logger)
	}

	if _, err := c.SendEmbed(SuccessEmbed(a.kind, a.target)); err != nil {
		logger.WithError(err).Warn("Failed to send confirmation")
	}

	modCase, recordErr := f.recordCase(c.Context(), c.GuildID(), service.CaseInput{
		Action:        a.kind,
		TargetID:      snowflake(a.target.ID),
		TargetName:    a.target.String(),
		ModeratorID:   snowflake(c.Author().ID),
		ModeratorName: c.Author().String(),
		Reason:        a.reason,
		Metadata:      a.metadata,
	})
	caseNumber := 0
	if modCase != nil {
		caseNumber = modCase.CaseNumber
	}

	f.postModLog(c.Session, ModLogEmbed(a.kind, a.target, c.Author(), a.reason, a.extra, caseNumber, f.now()), logger)

	if recordErr != nil {
		return common.NewSystemError(recordErr, "failed to record moderation case")
	}
	logger.WithFields(log.Fields{
		"caseNumber": caseNumber,
		"reason":     a.reason,
	}).Info("Moderation action completed")
	return nil
}

// notify DMs the target. Users with closed DMs are only logged.
func notify(s *discordgo.Session, target *discordgo.User, text string, logger *log.Entry) {
	channel, err := s.UserChannelCreate(target.ID)
	if err == nil {
		_, err = s.ChannelMessageSend(channel.ID, text)
	}
	if err == nil {
		return
	}
	if common.RESTStatus(err) == http.StatusForbidden {
		logger.Info("Couldn't DM the target")
		return
	}
	logger.WithError(err).Warn("Failed to DM the target")
}

func (f *Feature) postModLog(s *discordgo.Session, embed *discordgo.MessageEmbed, logger *log.Entry) {
	if f.modLogChannelID == "" {
		return
	}
	if _, err := s.ChannelMessageSendEmbed(f.modLogChannelID, embed); err != nil {
		logger.WithError(err).Error("Failed to post mod log entry")
	}
}

func (f *Feature) handlePurge(c *commands.Context) error {
	amount, err := c.IntArg(0)
	if err != nil {
		return err
	}
	if amount < 1 || amount > maxPurge {
		return &commands.BadArgumentError{
			Param:   "amount",
			Value:   strconv.Itoa(amount),
			Message: fmt.Sprintf("amount must be between 1 and %d.", maxPurge),
		}
	}

	messages, err := fetchHistory(c.Session, c.ChannelID(), c.Message.ID, amount)
	if err != nil {
		return err
	}

	bulk, single := PurgePlan(messages, f.now())
	for _, ids := range bulk {
		if err := c.Session.ChannelMessagesBulkDelete(c.ChannelID(), ids); err != nil {
			return fmt.Errorf("failed to bulk delete %d messages: %w", len(ids), err)
		}
	}
	for _, id := range single {
		if err := c.Session.ChannelMessageDelete(c.ChannelID(), id); err != nil {
			return fmt.Errorf("failed to delete message %s: %w", id, err)
		}
	}
	if err := c.Session.ChannelMessageDelete(c.ChannelID(), c.Message.ID); err != nil {
		log.WithError(err).Warn("Failed to delete purge command message")
	}

	channelName := c.ChannelID()
	if channel, err := c.Session.State.Channel(c.ChannelID()); err == nil {
		channelName = channel.Name
	}

	logger := log.WithFields(log.Fields{
		"guildID":     c.GuildID(),
		"channelID":   c.ChannelID(),
		"moderatorID": c.Author().ID,
		"deleted":     len(messages),
	})
	logger.Info("Channel purged")

	_, err = f.recordCase(c.Context(), c.GuildID(), service.CaseInput{
		Action:        models.ModActionPurge,
		TargetID:      snowflake(c.Author().ID),
		TargetName:    "#" + channelName,
		ModeratorID:   snowflake(c.Author().ID),
		ModeratorName: c.Author().String(),
		Reason:        fmt.Sprintf("%d messages in #%s", len(messages), channelName),
		Metadata: map[string]any{
			"channel_id": c.ChannelID(),
			"count":      len(messages),
		},
	})
	if err != nil {
		return common.NewSystemError(err, "failed to record purge case")
	}
	return nil
}

// fetchHistory pages backwards from before until amount messages or the start of the channel
func fetchHistory(s *discordgo.Session, channelID, before string, amount int) ([]*discordgo.Message, error) {
	var messages []*discordgo.Message
	for len(messages) < amount {
		limit := min(historyPage, amount-len(messages))
		page, err := s.ChannelMessages(channelID, limit, before, "", "")
		if err != nil {
			return nil, fmt.Errorf("failed to fetch channel history: %w", err)
		}
		messages = append(messages, page...)
		if len(page) < limit {
			break
		}
		before = page[len(page)-1].ID
	}
	return messages, nil
}

func (f *Feature) handleCases(c *commands.Context) error {
	if c.NArgs() == 0 {
		counts, err := f.summary(c.Context(), c.GuildID())
		if err != nil {
			return common.NewSystemError(err, "failed to load case summary")
		}
		guildName := c.GuildID()
		if guild, err := c.Guild(); err == nil {
			guildName = guild.Name
		}
		_, err = c.SendEmbed(SummaryEmbed(guildName, counts, c.Author(), f.now()))
		return err
	}

	user, err := c.UserArg(0)
	if err != nil {
		return err
	}
	cases, err := f.history(c.Context(), c.GuildID(), user.ID)
	if err != nil {
		return common.NewSystemError(err, "failed to load case history")
	}
	_, err = c.SendEmbed(CasesEmbed(user, cases, c.Author(), f.now()))
	return err
}

// recordCase stores a case in its own unit of work. The case event is published on commit.
func (f *Feature) recordCase(ctx context.Context, guildID string, input service.CaseInput) (*models.ModCase, error) {
	uow := f.uowFactory.CreateForGuild(snowflake(guildID))
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	moderationService := service.NewModerationService(uow.ModCaseRepository(), uow.EventBus())
	modCase, err := moderationService.RecordCase(ctx, input)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit case: %w", err)
	}
	return modCase, nil
}

func (f *Feature) history(ctx context.Context, guildID, userID string) ([]*models.ModCase, error) {
	uow := f.uowFactory.CreateForGuild(snowflake(guildID))
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	moderationService := service.NewModerationService(uow.ModCaseRepository(), uow.EventBus())
	cases, err := moderationService.History(ctx, snowflake(userID), service.DefaultHistoryLimit)
	if err != nil {
		return nil, err
	}
	return cases, uow.Commit()
}

func (f *Feature) summary(ctx context.Context, guildID string) ([]models.ActionCount, error) {
	uow := f.uowFactory.CreateForGuild(snowflake(guildID))
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	moderationService := service.NewModerationService(uow.ModCaseRepository(), uow.EventBus())
	counts, err := moderationService.Summary(ctx)
	if err != nil {
		return nil, err
	}
	return counts, uow.Commit()
}

// snowflake parses a Discord ID, 0 when malformed
func snowflake(id string) int64 {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func reasonFrom(text string) string {
	if text = strings.TrimSpace(text); text == "" {
		return service.DefaultReason
	}
	return text
}

// Hierarchy is what TargetRefusal needs to know about the author and the target
type Hierarchy struct {
	TargetID       string
	AuthorID       string
	BotID          string
	TargetTop      int
	AuthorTop      int
	AuthorIsOwner  bool
	TargetIsMember bool
}

// TargetRefusal returns why the author may not act on the target, or ""
func TargetRefusal(kind models.ModAction, h Hierarchy) string {
	switch {
	case h.TargetID == h.BotID:
		return fmt.Sprintf("I can't %s myself", kind)
	case h.TargetID == h.AuthorID:
		return fmt.Sprintf("You can't %s yourself", kind)
	case h.TargetIsMember && !h.AuthorIsOwner && h.TargetTop >= h.AuthorTop:
		return fmt.Sprintf("You can't %s a user who has a higher role than you", kind)
	}
	return ""
}

// ParseBanArgs splits "[delete_days] [reason...]". A first word that is not a number starts the reason.
func ParseBanArgs(rest string) (int, string) {
	rest = strings.TrimSpace(rest)
	first, remainder, _ := strings.Cut(rest, " ")
	days, err := strconv.Atoi(first)
	if err != nil || strings.HasPrefix(first, "-") || strings.HasPrefix(first, "+") {
		return defaultDelDays, rest
	}
	return min(days, maxDeleteDays), strings.TrimSpace(remainder)
}

// PurgePlan splits messages into bulk-deletable chunks and messages that must be deleted one by one.
// Bulk deletes take 2 to 100 messages younger than two weeks.
func PurgePlan(messages []*discordgo.Message, now time.Time) (bulk [][]string, single []string) {
	cutoff := now.Add(-common.BulkDeleteMaxAge * time.Second)

	var recent []string
	for _, msg := range messages {
		if common.CreatedAt(msg.ID).After(cutoff) {
			recent = append(recent, msg.ID)
		} else {
			single = append(single, msg.ID)
		}
	}

	for len(recent) > 0 {
		n := min(historyPage, len(recent))
		chunk := recent[:n]
		recent = recent[n:]
		if len(chunk) == 1 {
			single = append(single, chunk[0])
			continue
		}
		bulk = append(bulk, chunk)
	}
	return bulk, single
}

// LocalErrorReply maps the errors moderation commands answer themselves.
// help means the command help should be sent instead of a message.
func LocalErrorReply(err error) (message string, help bool, handled bool) {
	var missing *commands.MissingArgumentError
	var memberNotFound *commands.MemberNotFoundError
	var userNotFound *commands.UserNotFoundError
	var failedAction *actionError

	switch {
	case errors.As(err, &missing):
		return "", true, true
	case errors.As(err, &memberNotFound):
		return "User not found", false, true
	case errors.As(err, &userNotFound):
		return "User not found, you should use their id", false, true
	case errors.Is(err, errNotBanned):
		return "User isn't banned", false, true
	case errors.As(err, &failedAction) && common.RESTStatus(failedAction.err) == http.StatusForbidden:
		return "User is higher than the bot", false, true
	}
	return "", false, false
}

// localErrors is the OnError handler of the moderation commands
func localErrors(c *commands.Context, err error) error {
	message, help, handled := LocalErrorReply(err)
	if !handled {
		return err
	}
	log.WithFields(log.Fields{
		"command": c.Command.QualifiedName(),
		"error":   err.Error(),
	}).Warn("Moderation command raised an error")

	if help {
		return c.SendHelp()
	}
	_, sendErr := c.Send(message)
	return sendErr
}
