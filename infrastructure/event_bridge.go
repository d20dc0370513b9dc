package infrastructure

import (
	"context"

	"cgbot/events"

	log "github.com/sirupsen/logrus"
)

// EventSink receives events forwarded from the in-process bus
type EventSink interface {
	PublishEvent(ctx context.Context, event events.Event) error
}

// EventBridge forwards bus events to an external sink
type EventBridge struct {
	sink EventSink
}

// NewEventBridge creates a bridge to sink
func NewEventBridge(sink EventSink) *EventBridge {
	return &EventBridge{sink: sink}
}

// Attach subscribes the bridge to every event type worth forwarding
func (b *EventBridge) Attach(bus *events.Bus) {
	for _, eventType := range []events.EventType{
		events.EventTypeAuditLogged,
		events.EventTypeModerationCase,
		events.EventTypeCommandInvoked,
	} {
		bus.Subscribe(eventType, b.forward)
	}
}

func (b *EventBridge) forward(ctx context.Context, event events.Event) {
	if err := b.sink.PublishEvent(ctx, event); err != nil {
		log.WithFields(log.Fields{
			"eventType": event.Type(),
			"error":     err,
		}).Error("Failed to forward event")
	}
}
