package events

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeAuditLogged    EventType = "audit_logged"
	EventTypeModerationCase EventType = "moderation_case"
	EventTypeCommandInvoked EventType = "command_invoked"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// AuditLoggedEvent is emitted after a guild event was mirrored into the server log
type AuditLoggedEvent struct {
	Kind      string    `json:"kind"` // e.g. "message_delete", "member_join"
	GuildID   string    `json:"guild_id"`
	ChannelID string    `json:"channel_id,omitempty"`
	UserID    string    `json:"user_id,omitempty"`
	Summary   string    `json:"summary"`
	At        time.Time `json:"at"`
}

func (e AuditLoggedEvent) Type() EventType {
	return EventTypeAuditLogged
}

// ModerationCaseEvent is emitted after a moderation case was committed
type ModerationCaseEvent struct {
	GuildID     int64     `json:"guild_id"`
	CaseNumber  int       `json:"case_number"`
	Action      string    `json:"action"`
	TargetID    int64     `json:"target_id"`
	ModeratorID int64     `json:"moderator_id"`
	Reason      string    `json:"reason"`
	CreatedAt   time.Time `json:"created_at"`
}

func (e ModerationCaseEvent) Type() EventType {
	return EventTypeModerationCase
}

// CommandInvokedEvent is emitted once a prefix or slash command finished
type CommandInvokedEvent struct {
	Command   string `json:"command"`
	GuildID   string `json:"guild_id,omitempty"`
	UserID    string `json:"user_id"`
	ErrorType string `json:"error_type,omitempty"` // empty on success
}

func (e CommandInvokedEvent) Type() EventType {
	return EventTypeCommandInvoked
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit calls every handler registered for the event type, each on its own goroutine
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event")

	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// Publish emits the event immediately, so a Bus can stand in wherever a
// publisher is expected outside of a unit of work.
func (b *Bus) Publish(event Event) {
	b.Emit(context.Background(), event)
}

// TransactionalBus holds events raised inside a unit of work until it commits
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
	log.WithFields(log.Fields{
		"eventType":    e.Type(),
		"pendingCount": len(b.pending),
	}).Debug("Queued event until commit")
}

// Flush is called after a successful commit.
// Events get a fresh context since the transaction context may already be done.
func (b *TransactionalBus) Flush(ctx context.Context) error {
	eventCtx := context.WithoutCancel(ctx)
	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
	return nil
}

// Discard drops pending events after a rollback
func (b *TransactionalBus) Discard() {
	b.pending = nil
}

// Pending returns the number of queued events
func (b *TransactionalBus) Pending() int {
	return len(b.pending)
}
