package infrastructure

import (
	"fmt"

	"cgbot/events"
)

const AuditStreamName = "audit_events"

// EventSubjectMapper maps bus events to NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts an event to its NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	switch e := event.(type) {
	case events.AuditLoggedEvent:
		return "audit." + subjectToken(e.Kind)
	case events.ModerationCaseEvent:
		return "moderation.case." + subjectToken(e.Action)
	case events.CommandInvokedEvent:
		return "commands.invoked"
	default:
		return fmt.Sprintf("unknown.%s", event.Type())
	}
}

// GetAllSubjects returns the wildcard subjects the stream must capture
func (m *EventSubjectMapper) GetAllSubjects() []string {
	return []string{"audit.*", "moderation.case.*", "commands.invoked"}
}

// subjectToken keeps a value usable as a single subject token
func subjectToken(value string) string {
	if value == "" {
		return "unknown"
	}
	out := []byte(value)
	for i, c := range out {
		if c == '.' || c == '*' || c == '>' || c == ' ' {
			out[i] = '_'
		}
	}
	return string(out)
}
