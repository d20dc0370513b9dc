package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"cgbot/events"
	"cgbot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestModerationService_RecordCase(t *testing.T) {
	ctx := context.Background()
	createdAt := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	mockRepo := new(MockModCaseRepository)
	mockPublisher := new(MockEventPublisher)
	service := NewModerationService(mockRepo, mockPublisher)

	mockRepo.On("Create", ctx, mock.MatchedBy(func(c *models.ModCase) bool {
		return c.Action == models.ModActionKick && c.TargetID == 111 && c.Reason == "spamming"
	})).Run(func(args mock.Arguments) {
		c := args.Get(1).(*models.ModCase)
		c.ID = 1
		c.GuildID = 999
		c.CaseNumber = 4
		c.CreatedAt = createdAt
	}).Return(nil)

	mockPublisher.On("Publish", events.ModerationCaseEvent{
		GuildID:     999,
		CaseNumber:  4,
		Action:      "kick",
		TargetID:    111,
		ModeratorID: 222,
		Reason:      "spamming",
		CreatedAt:   createdAt,
	}).Return()

	modCase, err := service.RecordCase(ctx, CaseInput{
		Action:        models.ModActionKick,
		TargetID:      111,
		TargetName:    "spammer",
		ModeratorID:   222,
		ModeratorName: "mod",
		Reason:        "  spamming  ",
	})

	require.NoError(t, err)
	assert.Equal(t, 4, modCase.CaseNumber)
	assert.NotNil(t, modCase.Metadata)
	mockRepo.AssertExpectations(t)
	mockPublisher.AssertExpectations(t)
}

func TestModerationService_RecordCase_DefaultsReason(t *testing.T) {
	ctx := context.Background()

	mockRepo := new(MockModCaseRepository)
	mockPublisher := new(MockEventPublisher)
	service := NewModerationService(mockRepo, mockPublisher)

	mockRepo.On("Create", ctx, mock.MatchedBy(func(c *models.ModCase) bool {
		return c.Reason == DefaultReason
	})).Return(nil)
	mockPublisher.On("Publish", mock.AnythingOfType("events.ModerationCaseEvent")).Return()

	_, err := service.RecordCase(ctx, CaseInput{Action: models.ModActionWarn, TargetID: 1, ModeratorID: 2})
	require.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestModerationService_RecordCase_TruncatesReason(t *testing.T) {
	ctx := context.Background()

	mockRepo := new(MockModCaseRepository)
	mockPublisher := new(MockEventPublisher)
	service := NewModerationService(mockRepo, mockPublisher)

	mockRepo.On("Create", ctx, mock.MatchedBy(func(c *models.ModCase) bool {
		return len(c.Reason) == maxReasonLength
	})).Return(nil)
	mockPublisher.On("Publish", mock.Anything).Return()

	_, err := service.RecordCase(ctx, CaseInput{
		Action:      models.ModActionBan,
		TargetID:    1,
		ModeratorID: 2,
		Reason:      strings.Repeat("a", maxReasonLength+50),
	})
	require.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestModerationService_RecordCase_TruncatesMultibyteReason(t *testing.T) {
	tests := []struct {
		name        string
		reason      string
		expectedLen int
	}{
		{"short accented reason is kept", "a" + strings.Repeat("é", 300), 301},
		{"long accented reason is cut on a rune", "a" + strings.Repeat("é", maxReasonLength), maxReasonLength},
		{"emoji", strings.Repeat("🔨", maxReasonLength+10), maxReasonLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			mockRepo := new(MockModCaseRepository)
			mockPublisher := new(MockEventPublisher)
			service := NewModerationService(mockRepo, mockPublisher)

			var stored string
			mockRepo.On("Create", ctx, mock.AnythingOfType("*models.ModCase")).Run(func(args mock.Arguments) {
				stored = args.Get(1).(*models.ModCase).Reason
			}).Return(nil)
			mockPublisher.On("Publish", mock.Anything).Return()

			_, err := service.RecordCase(ctx, CaseInput{
				Action:      models.ModActionBan,
				TargetID:    1,
				ModeratorID: 2,
				Reason:      tt.reason,
			})
			require.NoError(t, err)
			assert.True(t, utf8.ValidString(stored))
			assert.Equal(t, tt.expectedLen, utf8.RuneCountInString(stored))
			assert.True(t, strings.HasPrefix(tt.reason, stored))
		})
	}
}

func TestModerationService_RecordCase_Validation(t *testing.T) {
	tests := []struct {
		name     string
		input    CaseInput
		expected error
	}{
		{
			name:     "unknown action",
			input:    CaseInput{Action: "mute", TargetID: 1, ModeratorID: 2},
			expected: ErrInvalidAction,
		},
		{
			name:     "missing target",
			input:    CaseInput{Action: models.ModActionKick, ModeratorID: 2},
			expected: ErrInvalidTarget,
		},
		{
			name:     "self target",
			input:    CaseInput{Action: models.ModActionBan, TargetID: 2, ModeratorID: 2},
			expected: ErrInvalidTarget,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockModCaseRepository)
			mockPublisher := new(MockEventPublisher)
			service := NewModerationService(mockRepo, mockPublisher)

			_, err := service.RecordCase(context.Background(), tt.input)
			assert.ErrorIs(t, err, tt.expected)
			mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			mockPublisher.AssertNotCalled(t, "Publish", mock.Anything)
		})
	}
}

func TestModerationService_RecordCase_PurgeAllowsSelfTarget(t *testing.T) {
	ctx := context.Background()

	mockRepo := new(MockModCaseRepository)
	mockPublisher := new(MockEventPublisher)
	service := NewModerationService(mockRepo, mockPublisher)

	mockRepo.On("Create", ctx, mock.Anything).Return(nil)
	mockPublisher.On("Publish", mock.Anything).Return()

	_, err := service.RecordCase(ctx, CaseInput{
		Action:      models.ModActionPurge,
		TargetID:    2,
		ModeratorID: 2,
		Metadata:    map[string]any{"count": 20},
	})
	require.NoError(t, err)
}

func TestModerationService_RecordCase_RepositoryError(t *testing.T) {
	ctx := context.Background()

	mockRepo := new(MockModCaseRepository)
	mockPublisher := new(MockEventPublisher)
	service := NewModerationService(mockRepo, mockPublisher)

	mockRepo.On("Create", ctx, mock.Anything).Return(errors.New("connection refused"))

	_, err := service.RecordCase(ctx, CaseInput{Action: models.ModActionKick, TargetID: 1, ModeratorID: 2})
	assert.ErrorContains(t, err, "failed to record kick case")
	mockPublisher.AssertNotCalled(t, "Publish", mock.Anything)
}

func TestModerationService_History(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name          string
		limit         int
		expectedLimit int
	}{
		{name: "default limit", limit: 0, expectedLimit: DefaultHistoryLimit},
		{name: "custom limit", limit: 5, expectedLimit: 5},
		{name: "clamped limit", limit: 100, expectedLimit: MaxHistoryLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockModCaseRepository)
			service := NewModerationService(mockRepo, new(MockEventPublisher))

			cases := []*models.ModCase{{CaseNumber: 2}, {CaseNumber: 1}}
			mockRepo.On("ListByTarget", ctx, int64(111), tt.expectedLimit).Return(cases, nil)

			got, err := service.History(ctx, 111, tt.limit)
			require.NoError(t, err)
			assert.Equal(t, cases, got)
			mockRepo.AssertExpectations(t)
		})
	}

	t.Run("invalid target", func(t *testing.T) {
		service := NewModerationService(new(MockModCaseRepository), new(MockEventPublisher))
		_, err := service.History(ctx, 0, 10)
		assert.ErrorIs(t, err, ErrInvalidTarget)
	})
}

func TestModerationService_Summary(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockModCaseRepository)
	service := NewModerationService(mockRepo, new(MockEventPublisher))

	counts := []models.ActionCount{{Action: models.ModActionBan, Count: 3}}
	mockRepo.On("CountByAction", ctx).Return(counts, nil)

	got, err := service.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, counts, got)
}
