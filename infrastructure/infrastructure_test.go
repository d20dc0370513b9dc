package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"cgbot/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	args := m.Called(ctx, subject, data)
	return args.Error(0)
}

func TestEventSubjectMapper_MapEventToSubject(t *testing.T) {
	mapper := NewEventSubjectMapper()

	tests := []struct {
		name     string
		event    events.Event
		expected string
	}{
		{"audit event", events.AuditLoggedEvent{Kind: "message_delete"}, "audit.message_delete"},
		{"audit kind with dots", events.AuditLoggedEvent{Kind: "voice.move"}, "audit.voice_move"},
		{"empty audit kind", events.AuditLoggedEvent{}, "audit.unknown"},
		{"moderation case", events.ModerationCaseEvent{Action: "ban"}, "moderation.case.ban"},
		{"command invoked", events.CommandInvokedEvent{Command: "help"}, "commands.invoked"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, mapper.MapEventToSubject(tt.event))
		})
	}
}

func TestNATSEventPublisher_PublishEvent(t *testing.T) {
	ctx := context.Background()
	client := new(mockPublisher)
	publisher := NewNATSEventPublisher(client, NewEventSubjectMapper())
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	publisher.now = func() time.Time { return fixed }

	var captured []byte
	client.On("Publish", ctx, "moderation.case.kick", mock.Anything).
		Run(func(args mock.Arguments) { captured = args.Get(2).([]byte) }).
		Return(nil)

	event := events.ModerationCaseEvent{GuildID: 1, CaseNumber: 3, Action: "kick", TargetID: 2, ModeratorID: 4}
	require.NoError(t, publisher.PublishEvent(ctx, event))

	var envelope EventEnvelope
	require.NoError(t, json.Unmarshal(captured, &envelope))
	assert.NotEmpty(t, envelope.EventID)
	assert.Equal(t, "moderation_case", envelope.EventType)
	assert.Equal(t, "cgbot", envelope.SourceService)
	assert.Equal(t, fixed, envelope.Timestamp)

	var payload events.ModerationCaseEvent
	require.NoError(t, json.Unmarshal(envelope.Payload, &payload))
	assert.Equal(t, 3, payload.CaseNumber)
	assert.Equal(t, int64(2), payload.TargetID)
}

func TestNATSEventPublisher_PublishError(t *testing.T) {
	ctx := context.Background()
	client := new(mockPublisher)
	publisher := NewNATSEventPublisher(client, NewEventSubjectMapper())

	client.On("Publish", ctx, "audit.member_join", mock.Anything).Return(errors.New("nats: timeout"))

	err := publisher.PublishEvent(ctx, events.AuditLoggedEvent{Kind: "member_join"})
	assert.ErrorContains(t, err, "failed to publish event to NATS")
}

type recordingSink struct {
	mu     sync.Mutex
	events []events.Event
	done   chan struct{}
}

func (s *recordingSink) PublishEvent(ctx context.Context, event events.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	s.done <- struct{}{}
	return nil
}

func TestEventBridge_ForwardsBusEvents(t *testing.T) {
	bus := events.NewBus()
	sink := &recordingSink{done: make(chan struct{}, 2)}
	NewEventBridge(sink).Attach(bus)

	bus.Publish(events.AuditLoggedEvent{Kind: "role_create"})
	bus.Publish(events.ModerationCaseEvent{Action: "warn"})

	for i := 0; i < 2; i++ {
		select {
		case <-sink.done:
		case <-time.After(2 * time.Second):
			t.Fatal("event was not forwarded")
		}
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Len(t, sink.events, 2)
}

func TestNoopEventPublisher(t *testing.T) {
	assert.NoError(t, NewNoopEventPublisher().PublishEvent(context.Background(), events.AuditLoggedEvent{}))
}
