package service

import (
	"context"

	"cgbot/events"
	"cgbot/models"
)

// ModCaseRepository defines data access for moderation cases.
// Every method is scoped to the guild the unit of work was created for.
type ModCaseRepository interface {
	// Create allocates the next case number for the guild and stores the case
	Create(ctx context.Context, modCase *models.ModCase) error

	// GetByNumber returns nil when the case does not exist
	GetByNumber(ctx context.Context, caseNumber int) (*models.ModCase, error)

	// ListByTarget returns the newest cases first
	ListByTarget(ctx context.Context, targetID int64, limit int) ([]*models.ModCase, error)

	// CountByAction returns how many cases exist per action
	CountByAction(ctx context.Context) ([]models.ActionCount, error)
}

// ModerationService records and queries moderation cases
type ModerationService interface {
	// RecordCase validates and stores a case, then publishes a ModerationCaseEvent
	RecordCase(ctx context.Context, input CaseInput) (*models.ModCase, error)

	// History returns the most recent cases for a user
	History(ctx context.Context, targetID int64, limit int) ([]*models.ModCase, error)

	// Summary returns per-action case counts
	Summary(ctx context.Context) ([]models.ActionCount, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and releases queued events
	Commit() error

	// Rollback rolls back the transaction and drops queued events
	Rollback() error

	ModCaseRepository() ModCaseRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	// CreateForGuild creates a new UnitOfWork instance scoped to a specific guild
	CreateForGuild(guildID int64) UnitOfWork
}
