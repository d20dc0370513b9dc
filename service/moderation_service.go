package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"cgbot/events"
	"cgbot/models"
)

const (
	DefaultHistoryLimit = 10
	MaxHistoryLimit     = 25
	DefaultReason       = "No reason provided"
	maxReasonLength     = 512
)

var (
	ErrInvalidAction = errors.New("invalid moderation action")
	ErrInvalidTarget = errors.New("invalid moderation target")
)

// CaseInput is what a moderation command knows when it records a case
type CaseInput struct {
	Action        models.ModAction
	TargetID      int64
	TargetName    string
	ModeratorID   int64
	ModeratorName string
	Reason        string
	Metadata      map[string]any
}

// moderationService implements the ModerationService interface
type moderationService struct {
	caseRepo       ModCaseRepository
	eventPublisher EventPublisher
}

// NewModerationService creates a moderation service bound to one unit of work
func NewModerationService(caseRepo ModCaseRepository, eventPublisher EventPublisher) ModerationService {
	return &moderationService{
		caseRepo:       caseRepo,
		eventPublisher: eventPublisher,
	}
}

// RecordCase stores a moderation case
func (s *moderationService) RecordCase(ctx context.Context, input CaseInput) (*models.ModCase, error) {
	if !input.Action.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAction, input.Action)
	}
	if input.TargetID <= 0 || input.ModeratorID <= 0 {
		return nil, fmt.Errorf("%w: target and moderator are required", ErrInvalidTarget)
	}
	// Purge targets the channel, so the moderator is recorded as both
	if input.Action != models.ModActionPurge && input.TargetID == input.ModeratorID {
		return nil, fmt.Errorf("%w: moderators cannot target themselves", ErrInvalidTarget)
	}

	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		reason = DefaultReason
	}
	// Counted in runes so the cut stays valid UTF-8
	if utf8.RuneCountInString(reason) > maxReasonLength {
		reason = string([]rune(reason)[:maxReasonLength])
	}

	metadata := input.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	modCase := &models.ModCase{
		Action:        input.Action,
		TargetID:      input.TargetID,
		TargetName:    input.TargetName,
		ModeratorID:   input.ModeratorID,
		ModeratorName: input.ModeratorName,
		Reason:        reason,
		Metadata:      metadata,
	}

	if err := s.caseRepo.Create(ctx, modCase); err != nil {
		return nil, fmt.Errorf("failed to record %s case: %w", input.Action, err)
	}

	s.eventPublisher.Publish(events.ModerationCaseEvent{
		GuildID:     modCase.GuildID,
		CaseNumber:  modCase.CaseNumber,
		Action:      string(modCase.Action),
		TargetID:    modCase.TargetID,
		ModeratorID: modCase.ModeratorID,
		Reason:      modCase.Reason,
		CreatedAt:   modCase.CreatedAt,
	})

	return modCase, nil
}

// History returns a user's recent cases
func (s *moderationService) History(ctx context.Context, targetID int64, limit int) ([]*models.ModCase, error) {
	if targetID <= 0 {
		return nil, fmt.Errorf("%w: target is required", ErrInvalidTarget)
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	cases, err := s.caseRepo.ListByTarget(ctx, targetID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list cases for %d: %w", targetID, err)
	}
	return cases, nil
}

// Summary returns per-action counts for the guild
func (s *moderationService) Summary(ctx context.Context) ([]models.ActionCount, error) {
	counts, err := s.caseRepo.CountByAction(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count cases: %w", err)
	}
	return counts, nil
}
