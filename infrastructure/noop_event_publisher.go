package infrastructure

import (
	"context"

	"cgbot/events"
)

// NoopEventPublisher drops every event.
// It stands in for NATS when NATS_SERVERS is not configured.
type NoopEventPublisher struct{}

// NewNoopEventPublisher creates a new no-op event publisher
func NewNoopEventPublisher() *NoopEventPublisher {
	return &NoopEventPublisher{}
}

// PublishEvent does nothing with the event
func (n *NoopEventPublisher) PublishEvent(ctx context.Context, event events.Event) error {
	return nil
}
