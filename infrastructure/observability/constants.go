package observability

// Metric name prefixes
const (
	MetricPrefix = "cgbot"
)

// Metric names
const (
	// Command pipeline metrics
	CommandsInvokedTotal = MetricPrefix + ".commands.invoked_total"
	CommandErrorsTotal   = MetricPrefix + ".commands.errors_total"

	// CodinGame API metrics
	CodinGameRequestsTotal   = MetricPrefix + ".codingame.requests_total"
	CodinGameRequestDuration = MetricPrefix + ".codingame.request_duration"

	// Server log metrics
	AuditEventsTotal = MetricPrefix + ".audit.events_total"

	// NATS metrics
	NATSMessagesPublishedTotal = MetricPrefix + ".nats.messages_published_total"

	// Database metrics
	DatabaseQueriesTotal  = MetricPrefix + ".database.queries_total"
	DatabaseQueryDuration = MetricPrefix + ".database.query_duration"
)

// Label keys
const (
	LabelType       = "type"
	LabelEventType  = "event_type"
	LabelCommand    = "command"
	LabelErrorType  = "error_type"
	LabelEndpoint   = "endpoint"
	LabelOutcome    = "outcome"
	LabelRepository = "repository"
	LabelMethod     = "method"
)

// Request outcomes
const (
	OutcomeSuccess  = "success"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)
