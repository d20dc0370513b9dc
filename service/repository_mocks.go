package service

import (
	"context"

	"cgbot/events"
	"cgbot/models"

	"github.com/stretchr/testify/mock"
)

// MockModCaseRepository is a mock implementation of ModCaseRepository
type MockModCaseRepository struct {
	mock.Mock
}

func (m *MockModCaseRepository) Create(ctx context.Context, modCase *models.ModCase) error {
	args := m.Called(ctx, modCase)
	return args.Error(0)
}

func (m *MockModCaseRepository) GetByNumber(ctx context.Context, caseNumber int) (*models.ModCase, error) {
	args := m.Called(ctx, caseNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ModCase), args.Error(1)
}

func (m *MockModCaseRepository) ListByTarget(ctx context.Context, targetID int64, limit int) ([]*models.ModCase, error) {
	args := m.Called(ctx, targetID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ModCase), args.Error(1)
}

func (m *MockModCaseRepository) CountByAction(ctx context.Context) ([]models.ActionCount, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ActionCount), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// MockUnitOfWork is a mock implementation of UnitOfWork
type MockUnitOfWork struct {
	mock.Mock
	caseRepo  ModCaseRepository
	publisher EventPublisher
}

// SetRepositories sets what the repository getters return
func (m *MockUnitOfWork) SetRepositories(caseRepo ModCaseRepository, publisher EventPublisher) {
	m.caseRepo = caseRepo
	m.publisher = publisher
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) ModCaseRepository() ModCaseRepository {
	return m.caseRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	return m.publisher
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) CreateForGuild(guildID int64) UnitOfWork {
	args := m.Called(guildID)
	return args.Get(0).(UnitOfWork)
}
