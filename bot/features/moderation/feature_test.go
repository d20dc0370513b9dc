package moderation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"testing"
	"time"

	"cgbot/bot/commands"
	"cgbot/bot/common"
	"cgbot/events"
	"cgbot/models"
	"cgbot/service"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testGuildID = "754028526079836251"

var testNow = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

func snowflakeAt(t time.Time, seq int64) string {
	return strconv.FormatInt((t.UnixMilli()-1420070400000)<<22|seq, 10)
}

func TestTargetRefusal(t *testing.T) {
	base := Hierarchy{
		TargetID:       "3",
		AuthorID:       "2",
		BotID:          "1",
		TargetTop:      1,
		AuthorTop:      5,
		TargetIsMember: true,
	}

	tests := []struct {
		name     string
		kind     models.ModAction
		modify   func(h *Hierarchy)
		expected string
	}{
		{"allowed", models.ModActionKick, func(h *Hierarchy) {}, ""},
		{"bot", models.ModActionKick, func(h *Hierarchy) { h.TargetID = "1" }, "I can't kick myself"},
		{"self", models.ModActionBan, func(h *Hierarchy) { h.TargetID = "2" }, "You can't ban yourself"},
		{"equal role", models.ModActionKick, func(h *Hierarchy) { h.TargetTop = 5 }, "You can't kick a user who has a higher role than you"},
		{"higher role", models.ModActionWarn, func(h *Hierarchy) { h.TargetTop = 9 }, "You can't warn a user who has a higher role than you"},
		{"owner outranks everyone", models.ModActionBan, func(h *Hierarchy) { h.TargetTop, h.AuthorIsOwner = 9, true }, ""},
		{"not a member", models.ModActionBan, func(h *Hierarchy) { h.TargetTop, h.TargetIsMember = 9, false }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := base
			tt.modify(&h)
			assert.Equal(t, tt.expected, TargetRefusal(tt.kind, h))
		})
	}
}

func TestParseBanArgs(t *testing.T) {
	tests := []struct {
		rest   string
		days   int
		reason string
	}{
		{"", 1, ""},
		{"3", 3, ""},
		{"0 spam bot", 0, "spam bot"},
		{"  7   raiding  ", 7, "raiding"},
		{"30 too many", 7, "too many"},
		{"spamming links", 1, "spamming links"},
		{"-2 days", 1, "-2 days"},
		{"2nd warning", 1, "2nd warning"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.rest), func(t *testing.T) {
			days, reason := ParseBanArgs(tt.rest)
			assert.Equal(t, tt.days, days)
			assert.Equal(t, tt.reason, reason)
		})
	}
}

func TestPurgePlan(t *testing.T) {
	recent := func(n int) []*discordgo.Message {
		messages := make([]*discordgo.Message, n)
		for i := range messages {
			messages[i] = &discordgo.Message{ID: snowflakeAt(testNow.Add(-time.Duration(i+1)*time.Minute), 0)}
		}
		return messages
	}
	old := &discordgo.Message{ID: snowflakeAt(testNow.Add(-20*24*time.Hour), 0)}

	t.Run("splits by age", func(t *testing.T) {
		messages := append(recent(3), old)
		bulk, single := PurgePlan(messages, testNow)

		require.Len(t, bulk, 1)
		assert.Equal(t, []string{messages[0].ID, messages[1].ID, messages[2].ID}, bulk[0])
		assert.Equal(t, []string{old.ID}, single)
	})

	t.Run("chunks of 100", func(t *testing.T) {
		bulk, single := PurgePlan(recent(201), testNow)

		require.Len(t, bulk, 2)
		assert.Len(t, bulk[0], 100)
		assert.Len(t, bulk[1], 100)
		assert.Len(t, single, 1, "a lone message cannot be bulk deleted")
	})

	t.Run("single message", func(t *testing.T) {
		bulk, single := PurgePlan(recent(1), testNow)
		assert.Empty(t, bulk)
		assert.Len(t, single, 1)
	})
}

func TestLocalErrorReply(t *testing.T) {
	forbidden := &discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusForbidden}}

	tests := []struct {
		name    string
		err     error
		message string
		help    bool
		handled bool
	}{
		{"missing argument", &commands.MissingArgumentError{Param: "member"}, "", true, true},
		{"member not found", &commands.MemberNotFoundError{Argument: "bob"}, "User not found", false, true},
		{"user not found", &commands.UserNotFoundError{Argument: "bob"}, "User not found, you should use their id", false, true},
		{"not banned", errNotBanned, "User isn't banned", false, true},
		{"forbidden action", &actionError{kind: models.ModActionKick, err: forbidden}, "User is higher than the bot", false, true},
		{"forbidden send", fmt.Errorf("failed to send cases: %w", forbidden), "", false, false},
		{"failed action", &actionError{kind: models.ModActionBan, err: errors.New("timeout")}, "", false, false},
		{"not banned through the action", &actionError{kind: models.ModActionUnban, err: errNotBanned}, "User isn't banned", false, true},
		{"other", errors.New("boom"), "", false, false},
		{"bad argument", &commands.BadArgumentError{Param: "amount"}, "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			message, help, handled := LocalErrorReply(tt.err)
			assert.Equal(t, tt.message, message)
			assert.Equal(t, tt.help, help)
			assert.Equal(t, tt.handled, handled)
		})
	}
}

func TestEmbeds(t *testing.T) {
	user := &discordgo.User{ID: "30", Username: "takos", Discriminator: "0"}
	moderator := &discordgo.User{ID: "40", Username: "mod", Discriminator: "0"}

	t.Run("mod log", func(t *testing.T) {
		extra := []*discordgo.MessageEmbedField{{Name: "Delete days", Value: "1", Inline: true}}
		embed := ModLogEmbed(models.ModActionBan, user, moderator, "spam", extra, 12, testNow)

		assert.Equal(t, "**Ban**", embed.Title)
		assert.Equal(t, "<@30>", embed.Description)
		assert.Equal(t, common.ColorDanger, embed.Color)
		assert.Equal(t, "ID: 30 • Case #12", embed.Footer.Text)
		assert.Equal(t, "takos", embed.Author.Name)
		require.Len(t, embed.Fields, 4)
		assert.Equal(t, "takos", embed.Fields[0].Value)
		assert.Equal(t, "<@40>", embed.Fields[1].Value)
		assert.Equal(t, "spam", embed.Fields[2].Value)
		assert.Equal(t, "Delete days", embed.Fields[3].Name)
	})

	t.Run("mod log without case", func(t *testing.T) {
		embed := ModLogEmbed(models.ModActionWarn, user, moderator, "rude", nil, 0, testNow)
		assert.Equal(t, "ID: 30", embed.Footer.Text)
		assert.Equal(t, common.ColorWarning, embed.Color)
		assert.Len(t, embed.Fields, 3)
	})

	t.Run("colours", func(t *testing.T) {
		assert.Equal(t, 0xF1C40F, ActionColor(models.ModActionWarn))
		assert.Equal(t, 0xE67E22, ActionColor(models.ModActionKick))
		assert.Equal(t, common.ColorDanger, ActionColor(models.ModActionBan))
		assert.Equal(t, common.ColorSuccess, ActionColor(models.ModActionUnban))
	})

	t.Run("success", func(t *testing.T) {
		embed := SuccessEmbed(models.ModActionKick, user)
		assert.Equal(t, "**takos** was kicked.", embed.Title)
		assert.Equal(t, common.ColorSuccess, embed.Color)
	})

	t.Run("dm", func(t *testing.T) {
		assert.Equal(t, "You were banned from CodinGame for reason: spam", DMText(models.ModActionBan, "CodinGame", "spam"))
		assert.Equal(t, "You were unbanned from CodinGame for reason: appeal", DMText(models.ModActionUnban, "CodinGame", "appeal"))
		assert.Equal(t, "You were warned in CodinGame for reason: rude", DMText(models.ModActionWarn, "CodinGame", "rude"))
	})

	t.Run("cases", func(t *testing.T) {
		cases := []*models.ModCase{
			{CaseNumber: 2, Action: models.ModActionKick, ModeratorName: "mod", Reason: "spam", CreatedAt: testNow},
			{CaseNumber: 1, Action: models.ModActionWarn, ModeratorID: 40, Reason: "rude", CreatedAt: testNow},
		}
		embed := CasesEmbed(user, cases, moderator, testNow)

		assert.Equal(t, "Cases for takos", embed.Title)
		assert.Equal(t, "**#2** kick by mod <t:1705320000:R>: spam\n**#1** warn by <@40> <t:1705320000:R>: rude", embed.Description)
		assert.Equal(t, common.ColorPrimary, embed.Color)

		empty := CasesEmbed(user, nil, moderator, testNow)
		assert.Equal(t, "No cases recorded for **takos**.", empty.Description)
	})

	t.Run("summary", func(t *testing.T) {
		embed := SummaryEmbed("CodinGame", []models.ActionCount{
			{Action: models.ModActionBan, Count: 2},
			{Action: models.ModActionWarn, Count: 1},
		}, moderator, testNow)

		assert.Equal(t, "Moderation summary for CodinGame", embed.Title)
		assert.Equal(t, "3 cases recorded.", embed.Description)
		require.Len(t, embed.Fields, 2)
		assert.Equal(t, "Ban", embed.Fields[0].Name)
		assert.Equal(t, "2", embed.Fields[0].Value)

		assert.Equal(t, "No cases recorded yet.", SummaryEmbed("CodinGame", nil, moderator, testNow).Description)
	})
}

type uowFixture struct {
	factory   *service.MockUnitOfWorkFactory
	uow       *service.MockUnitOfWork
	repo      *service.MockModCaseRepository
	publisher *service.MockEventPublisher
}

func newUOWFixture() *uowFixture {
	fx := &uowFixture{
		factory:   new(service.MockUnitOfWorkFactory),
		uow:       new(service.MockUnitOfWork),
		repo:      new(service.MockModCaseRepository),
		publisher: new(service.MockEventPublisher),
	}
	fx.uow.SetRepositories(fx.repo, fx.publisher)
	fx.factory.On("CreateForGuild", int64(754028526079836251)).Return(fx.uow)
	fx.uow.On("Begin", mock.Anything).Return(nil)
	fx.uow.On("Rollback").Return(nil)
	return fx
}

func TestRecordCase(t *testing.T) {
	input := service.CaseInput{
		Action:        models.ModActionKick,
		TargetID:      30,
		TargetName:    "takos",
		ModeratorID:   40,
		ModeratorName: "mod",
		Reason:        "spam",
	}

	t.Run("commits and publishes", func(t *testing.T) {
		fx := newUOWFixture()
		fx.uow.On("Commit").Return(nil)
		fx.repo.On("Create", mock.Anything, mock.AnythingOfType("*models.ModCase")).
			Run(func(args mock.Arguments) {
				modCase := args.Get(1).(*models.ModCase)
				modCase.GuildID = 754028526079836251
				modCase.CaseNumber = 4
			}).
			Return(nil)
		fx.publisher.On("Publish", mock.MatchedBy(func(e events.Event) bool {
			caseEvent, ok := e.(events.ModerationCaseEvent)
			return ok && caseEvent.CaseNumber == 4 && caseEvent.Action == "kick"
		})).Once()

		f := NewFeature(fx.factory, "mod-log")
		modCase, err := f.recordCase(context.Background(), testGuildID, input)
		require.NoError(t, err)
		assert.Equal(t, 4, modCase.CaseNumber)

		fx.uow.AssertCalled(t, "Commit")
		fx.publisher.AssertExpectations(t)
	})

	t.Run("repository failure rolls back", func(t *testing.T) {
		fx := newUOWFixture()
		fx.repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("connection reset"))

		f := NewFeature(fx.factory, "mod-log")
		_, err := f.recordCase(context.Background(), testGuildID, input)
		assert.ErrorContains(t, err, "connection reset")

		fx.uow.AssertNotCalled(t, "Commit")
		fx.uow.AssertCalled(t, "Rollback")
		fx.publisher.AssertNotCalled(t, "Publish", mock.Anything)
	})

	t.Run("invalid target never reaches the repository", func(t *testing.T) {
		fx := newUOWFixture()

		f := NewFeature(fx.factory, "mod-log")
		bad := input
		bad.TargetID = snowflake("not-an-id")
		_, err := f.recordCase(context.Background(), testGuildID, bad)
		assert.ErrorIs(t, err, service.ErrInvalidTarget)
		fx.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestHistoryAndSummary(t *testing.T) {
	fx := newUOWFixture()
	fx.uow.On("Commit").Return(nil)
	fx.repo.On("ListByTarget", mock.Anything, int64(30), service.DefaultHistoryLimit).
		Return([]*models.ModCase{{CaseNumber: 1, Action: models.ModActionWarn}}, nil)
	fx.repo.On("CountByAction", mock.Anything).
		Return([]models.ActionCount{{Action: models.ModActionWarn, Count: 1}}, nil)

	f := NewFeature(fx.factory, "")

	cases, err := f.history(context.Background(), testGuildID, "30")
	require.NoError(t, err)
	require.Len(t, cases, 1)

	counts, err := f.summary(context.Background(), testGuildID)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[0].Count)
}

func TestCommands(t *testing.T) {
	f := NewFeature(nil, "")
	cmds := f.Commands()

	names := make([]string, len(cmds))
	for i, cmd := range cmds {
		names[i] = cmd.Name
		assert.True(t, cmd.GuildOnly, cmd.Name)
		assert.NotZero(t, cmd.Permissions, cmd.Name)
		assert.Equal(t, "Moderation", cmd.Category)
	}
	assert.Equal(t, []string{"purge", "kick", "ban", "unban", "warn", "cases"}, names)

	ban := cmds[2]
	assert.Equal(t, "<user> [delete_days=1] [reason...]", ban.Usage)
	assert.NotEmpty(t, ban.Help)
	assert.Equal(t, int64(discordgo.PermissionBanMembers), ban.Permissions)
}

func TestReasonFrom(t *testing.T) {
	assert.Equal(t, service.DefaultReason, reasonFrom("   "))
	assert.Equal(t, "spam", reasonFrom(" spam "))
}
