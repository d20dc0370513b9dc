package observability

import (
	"context"

	"cgbot/events"
)

// AttachRecorder counts command and server log events published on the bus
func AttachRecorder(bus *events.Bus, mp *MetricsProvider) {
	bus.Subscribe(events.EventTypeCommandInvoked, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.CommandInvokedEvent); ok {
			mp.RecordCommand(e.Command, e.ErrorType)
		}
	})
	bus.Subscribe(events.EventTypeAuditLogged, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.AuditLoggedEvent); ok {
			mp.RecordAuditEvent(e.Kind)
		}
	})
}
