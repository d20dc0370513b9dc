package commands

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"cgbot/bot/common"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type OutcomeKind int

const (
	// OutcomeIgnore drops the error silently
	OutcomeIgnore OutcomeKind = iota
	// OutcomeReply answers the author with Message
	OutcomeReply
	// OutcomeReport answers the author and reports the error to the owner
	OutcomeReport
)

// Outcome is what the error pipeline does with an error
type Outcome struct {
	Kind    OutcomeKind
	Message string
}

// Resolve maps a command error to its outcome
func Resolve(err error) Outcome {
	var (
		checkErr      *CheckFailureError
		noPMErr       *NoPrivateMessageError
		pmOnlyErr     *PrivateMessageOnlyError
		cooldownErr   *CommandOnCooldownError
		missingArgErr *MissingArgumentError
		badArgErr     *BadArgumentError
		memberErr     *MemberNotFoundError
		userErr       *UserNotFoundError
		botPermsErr   *BotMissingPermissionsError
		permsErr      *MissingPermissionsError
		roleErr       *MissingRoleError
		panicErr      *PanicError
		botErr        *common.BotError
	)

	switch {
	case err == nil:
		return Outcome{Kind: OutcomeIgnore}
	case errors.As(err, &checkErr):
		return Outcome{Kind: OutcomeIgnore}
	case errors.As(err, &noPMErr):
		return Outcome{Kind: OutcomeReply, Message: noPMErr.Error()}
	case errors.As(err, &pmOnlyErr):
		return Outcome{Kind: OutcomeReply, Message: pmOnlyErr.Error()}
	case errors.As(err, &cooldownErr):
		return Outcome{Kind: OutcomeReply, Message: cooldownErr.Error()}
	case errors.As(err, &missingArgErr):
		return Outcome{Kind: OutcomeReply, Message: missingArgErr.Error()}
	case errors.As(err, &badArgErr):
		return Outcome{Kind: OutcomeReply, Message: badArgErr.Error()}
	case errors.As(err, &memberErr):
		return Outcome{Kind: OutcomeReply, Message: memberErr.Error()}
	case errors.As(err, &userErr):
		return Outcome{Kind: OutcomeReply, Message: userErr.Error()}
	case errors.As(err, &botPermsErr):
		return Outcome{
			Kind:    OutcomeReply,
			Message: "I am missing these permissions to do this command:\n" + strings.Join(common.PermissionNames(botPermsErr.Missing), ", "),
		}
	case errors.As(err, &permsErr):
		return Outcome{
			Kind:    OutcomeReply,
			Message: "You are missing these permissions to do this command:\n" + strings.Join(common.PermissionNames(permsErr.Missing), ", "),
		}
	case errors.As(err, &roleErr):
		return Outcome{
			Kind:    OutcomeReply,
			Message: "You are missing these roles to do this command:\n" + strings.Join(roleErr.Roles, ", "),
		}
	case errors.As(err, &panicErr):
		return Outcome{Kind: OutcomeReport, Message: common.GenericErrorMessage}
	case errors.As(err, &botErr):
		if botErr.UserMessage == "" || botErr.UserMessage == common.GenericErrorMessage {
			return Outcome{Kind: OutcomeReport, Message: common.GenericErrorMessage}
		}
		return Outcome{Kind: OutcomeReply, Message: botErr.UserMessage}
	default:
		return Outcome{Kind: OutcomeReport, Message: common.GenericErrorMessage}
	}
}

// HandleCommandError is the global error handler for prefix commands
func (r *Router) HandleCommandError(c *Context, err error) {
	log.WithFields(log.Fields{
		"command":    c.Command.QualifiedName(),
		"user_id":    c.Author().ID,
		"error_type": ErrorType(err),
		"error":      err.Error(),
	}).Warn("Command raised an error")

	outcome := Resolve(err)
	if outcome.Kind == OutcomeIgnore {
		return
	}

	if _, sendErr := c.Reply(outcome.Message); sendErr != nil {
		log.WithError(sendErr).Error("Failed to send error reply")
	}

	if outcome.Kind == OutcomeReport {
		r.reportToOwner(c, err)
	}
}

func (r *Router) reportToOwner(c *Context, err error) {
	report := ErrorReport{
		ID:        uuid.NewString(),
		Command:   c.Command.QualifiedName(),
		GuildID:   c.GuildID(),
		ChannelID: c.ChannelID(),
		MessageID: c.Message.ID,
		Author:    c.Author().String(),
		Err:       err,
		At:        r.now(),
	}

	log.WithFields(log.Fields{
		"error_id":   report.ID,
		"command":    report.Command,
		"author":     report.Author,
		"error_type": ErrorType(err),
		"error":      err.Error(),
		"trace":      report.Trace(),
	}).Error("Unhandled error")

	ownerID := r.OwnerID()
	if ownerID == "" {
		log.WithField("error_id", report.ID).Warn("No owner configured, error report not sent")
		return
	}

	channel, dmErr := c.Session.UserChannelCreate(ownerID)
	if dmErr != nil {
		log.WithError(dmErr).WithField("error_id", report.ID).Error("Failed to open DM with owner")
		return
	}
	if _, sendErr := c.Session.ChannelMessageSendEmbed(channel.ID, report.Embed()); sendErr != nil {
		log.WithError(sendErr).WithField("error_id", report.ID).Error("Failed to send error report to owner")
	}
}

// ErrorReport describes an unhandled command error for the owner
type ErrorReport struct {
	ID        string
	Command   string
	GuildID   string
	ChannelID string
	MessageID string
	Author    string
	Err       error
	At        time.Time
}

// Trace renders the panic stack or the error chain
func (r ErrorReport) Trace() string {
	var panicErr *PanicError
	if errors.As(r.Err, &panicErr) && len(panicErr.Stack) > 0 {
		return string(panicErr.Stack)
	}

	var b strings.Builder
	for err := r.Err; err != nil; err = errors.Unwrap(err) {
		fmt.Fprintf(&b, "%s: %v\n", typeName(err), err)
	}
	return b.String()
}

func (r ErrorReport) Embed() *discordgo.MessageEmbed {
	channel := "DM"
	if r.GuildID != "" {
		channel = "<#" + r.ChannelID + ">"
	}

	const fence = "```"
	trace := common.Truncate(r.Trace(), common.MaxFieldValue-len(fence)*2-1)

	return &discordgo.MessageEmbed{
		Title:       "Unhandled error",
		Description: fmt.Sprintf("`%s` command raised an unhandled error", r.Command),
		Color:       common.ColorDanger,
		Timestamp:   r.At.UTC().Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Channel", Value: channel, Inline: true},
			{Name: "Message", Value: fmt.Sprintf("[%s](%s)", r.MessageID, common.MessageURL(r.GuildID, r.ChannelID, r.MessageID)), Inline: true},
			{Name: "Type", Value: "`" + ErrorType(r.Err) + "`", Inline: true},
			{Name: "Error", Value: "`" + common.Truncate(r.Err.Error(), common.MaxFieldValue-2) + "`", Inline: true},
			{Name: "Error ID", Value: "`" + r.ID + "`", Inline: true},
			{Name: "Full trace", Value: fence + "\n" + trace + fence, Inline: false},
		},
	}
}

// ErrorType names an error's concrete type without package or pointer, e.g.
// "RESTError". fmt.Errorf wrappers are skipped.
func ErrorType(err error) string {
	for err != nil {
		name := typeName(err)
		next := errors.Unwrap(err)
		if (name != "wrapError" && name != "wrapErrors") || next == nil {
			return name
		}
		err = next
	}
	return ""
}

func typeName(err error) string {
	name := strings.TrimLeft(fmt.Sprintf("%T", err), "*")
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return name
}
