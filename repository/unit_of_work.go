package repository

import (
	"context"
	"errors"
	"fmt"

	"cgbot/database"
	"cgbot/events"
	"cgbot/service"

	"github.com/jackc/pgx/v5"
)

// unitOfWork implements the UnitOfWork interface
type unitOfWork struct {
	db               *database.DB
	guildID          int64
	tx               pgx.Tx
	ctx              context.Context
	transactionalBus *events.TransactionalBus
	modCaseRepo      service.ModCaseRepository
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB, eventBus *events.Bus) service.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		db:       db,
		eventBus: eventBus,
	}
}

type unitOfWorkFactory struct {
	db       *database.DB
	eventBus *events.Bus
}

// CreateForGuild creates a unit of work whose repositories are scoped to guildID
func (f *unitOfWorkFactory) CreateForGuild(guildID int64) service.UnitOfWork {
	return &unitOfWork{
		db:               f.db,
		guildID:          guildID,
		transactionalBus: events.NewTransactionalBus(f.eventBus),
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx
	u.modCaseRepo = NewModCaseRepositoryScoped(tx, u.guildID)

	return nil
}

// Commit commits the transaction, then releases events queued during it
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	if err := u.tx.Commit(u.ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	u.tx = nil

	return u.transactionalBus.Flush(u.ctx)
}

// Rollback rolls back the transaction. It is a no-op after Commit,
// so callers can always defer it.
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}
	u.tx = nil
	u.transactionalBus.Discard()

	return nil
}

// ModCaseRepository returns the case repository for this unit of work
func (u *unitOfWork) ModCaseRepository() service.ModCaseRepository {
	if u.modCaseRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.modCaseRepo
}

// EventBus returns the transactional event bus for this unit of work
func (u *unitOfWork) EventBus() service.EventPublisher {
	return u.transactionalBus
}
