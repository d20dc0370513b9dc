package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cgbot/config"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// MetricsProvider manages OpenTelemetry metrics for the bot.
// A nil *MetricsProvider is valid and records nothing.
type MetricsProvider struct {
	config        *config.Config
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	initialized   bool
	exporting     bool
	mu            sync.RWMutex

	commandsInvokedCounter    metric.Int64Counter
	commandErrorsCounter      metric.Int64Counter
	codingameRequestsCounter  metric.Int64Counter
	codingameDurationHist     metric.Float64Histogram
	auditEventsCounter        metric.Int64Counter
	natsPublishedCounter      metric.Int64Counter
	databaseQueriesCounter    metric.Int64Counter
	databaseQueryDurationHist metric.Float64Histogram
}

// NewMetricsProvider creates a new metrics provider
func NewMetricsProvider(cfg *config.Config) *MetricsProvider {
	return &MetricsProvider{
		config: cfg,
	}
}

// Initialize sets up the OpenTelemetry meter provider and instruments
func (mp *MetricsProvider) Initialize(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.initialized {
		return nil
	}
	mp.initialized = true

	if !mp.config.OTelEnabled {
		log.Info("OpenTelemetry metrics disabled")
		return nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(mp.config.OTelServiceName),
			attribute.String("environment", mp.config.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	var exporter sdkmetric.Exporter
	switch mp.config.OTelExporterType {
	case "console":
		exporter, err = stdoutmetric.New()
		if err != nil {
			return fmt.Errorf("failed to create console exporter: %w", err)
		}
		log.Info("Using console metric exporter")

	case "otlp":
		dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		exporter, err = otlpmetricgrpc.New(dialCtx,
			otlpmetricgrpc.WithEndpoint(mp.config.OTelOTLPEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		log.WithField("endpoint", mp.config.OTelOTLPEndpoint).Info("Using OTLP metric exporter")

	case "none":
		log.Info("Metrics export disabled (exporter_type='none')")
		return nil

	default:
		return fmt.Errorf("unknown exporter type: %s", mp.config.OTelExporterType)
	}

	mp.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(
				exporter,
				sdkmetric.WithInterval(time.Duration(mp.config.OTelExportIntervalMillis)*time.Millisecond),
			),
		),
	)
	otel.SetMeterProvider(mp.meterProvider)
	mp.meter = mp.meterProvider.Meter("cgbot")

	if err := mp.createInstruments(); err != nil {
		return fmt.Errorf("failed to create instruments: %w", err)
	}

	mp.exporting = true
	log.Info("Metrics provider initialized")
	return nil
}

func (mp *MetricsProvider) createInstruments() error {
	var err error

	if mp.commandsInvokedCounter, err = mp.meter.Int64Counter(
		CommandsInvokedTotal,
		metric.WithDescription("Total number of commands invoked"),
		metric.WithUnit("1"),
	); err != nil {
		return fmt.Errorf("failed to create commands invoked counter: %w", err)
	}

	if mp.commandErrorsCounter, err = mp.meter.Int64Counter(
		CommandErrorsTotal,
		metric.WithDescription("Total number of commands that returned an error"),
		metric.WithUnit("1"),
	); err != nil {
		return fmt.Errorf("failed to create command errors counter: %w", err)
	}

	if mp.codingameRequestsCounter, err = mp.meter.Int64Counter(
		CodinGameRequestsTotal,
		metric.WithDescription("Total number of CodinGame API requests"),
		metric.WithUnit("1"),
	); err != nil {
		return fmt.Errorf("failed to create CodinGame requests counter: %w", err)
	}

	if mp.codingameDurationHist, err = mp.meter.Float64Histogram(
		CodinGameRequestDuration,
		metric.WithDescription("Duration of CodinGame API requests in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0),
	); err != nil {
		return fmt.Errorf("failed to create CodinGame duration histogram: %w", err)
	}

	if mp.auditEventsCounter, err = mp.meter.Int64Counter(
		AuditEventsTotal,
		metric.WithDescription("Total number of guild events written to the server log"),
		metric.WithUnit("1"),
	); err != nil {
		return fmt.Errorf("failed to create audit events counter: %w", err)
	}

	if mp.natsPublishedCounter, err = mp.meter.Int64Counter(
		NATSMessagesPublishedTotal,
		metric.WithDescription("Total number of NATS messages published"),
		metric.WithUnit("1"),
	); err != nil {
		return fmt.Errorf("failed to create NATS published counter: %w", err)
	}

	if mp.databaseQueriesCounter, err = mp.meter.Int64Counter(
		DatabaseQueriesTotal,
		metric.WithDescription("Total number of database queries"),
		metric.WithUnit("1"),
	); err != nil {
		return fmt.Errorf("failed to create database queries counter: %w", err)
	}

	if mp.databaseQueryDurationHist, err = mp.meter.Float64Histogram(
		DatabaseQueryDuration,
		metric.WithDescription("Duration of database queries in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0),
	); err != nil {
		return fmt.Errorf("failed to create database query duration histogram: %w", err)
	}

	return nil
}

// Shutdown flushes and stops the meter provider
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	if mp == nil {
		return nil
	}

	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.meterProvider != nil {
		return mp.meterProvider.Shutdown(ctx)
	}
	return nil
}

// RecordCommand records a finished command. errorType is empty on success.
func (mp *MetricsProvider) RecordCommand(command, errorType string) {
	if !mp.isEnabled() {
		return
	}

	mp.commandsInvokedCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(LabelCommand, command)),
	)
	if errorType != "" {
		mp.commandErrorsCounter.Add(context.Background(), 1,
			metric.WithAttributes(
				attribute.String(LabelCommand, command),
				attribute.String(LabelErrorType, errorType),
			),
		)
	}
}

// RecordCodinGameRequest records one API call
func (mp *MetricsProvider) RecordCodinGameRequest(endpoint, outcome string, duration time.Duration) {
	if !mp.isEnabled() {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(LabelEndpoint, endpoint),
		attribute.String(LabelOutcome, outcome),
	)
	mp.codingameRequestsCounter.Add(context.Background(), 1, attrs)
	mp.codingameDurationHist.Record(context.Background(), duration.Seconds(), attrs)
}

// RecordAuditEvent records a guild event mirrored to the server log
func (mp *MetricsProvider) RecordAuditEvent(kind string) {
	if !mp.isEnabled() {
		return
	}

	mp.auditEventsCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(LabelType, kind)),
	)
}

// RecordNATSMessagePublished records a NATS message being published
func (mp *MetricsProvider) RecordNATSMessagePublished(eventType string) {
	if !mp.isEnabled() {
		return
	}

	mp.natsPublishedCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(LabelEventType, eventType)),
	)
}

// RecordDatabaseQuery records a database query with duration
func (mp *MetricsProvider) RecordDatabaseQuery(repository, method string, duration time.Duration) {
	if !mp.isEnabled() {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(LabelRepository, repository),
		attribute.String(LabelMethod, method),
	)
	mp.databaseQueriesCounter.Add(context.Background(), 1, attrs)
	mp.databaseQueryDurationHist.Record(context.Background(), duration.Seconds(), attrs)
}

// MeasureDatabaseQuery returns a function to measure database query duration
// Usage:
//
//	defer mp.MeasureDatabaseQuery("mod_case", "Create")()
func (mp *MetricsProvider) MeasureDatabaseQuery(repository, method string) func() {
	start := time.Now()
	return func() {
		mp.RecordDatabaseQuery(repository, method, time.Since(start))
	}
}

func (mp *MetricsProvider) isEnabled() bool {
	if mp == nil {
		return false
	}
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.exporting
}

// Global metrics provider instance
var (
	globalMetrics *MetricsProvider
	metricsOnce   sync.Once
)

// InitializeGlobalMetrics initializes the global metrics provider
func InitializeGlobalMetrics(ctx context.Context, cfg *config.Config) error {
	var err error
	metricsOnce.Do(func() {
		globalMetrics = NewMetricsProvider(cfg)
		err = globalMetrics.Initialize(ctx)
	})
	return err
}

// GetMetrics returns the global metrics provider, nil before initialization
func GetMetrics() *MetricsProvider {
	return globalMetrics
}

// ShutdownGlobalMetrics shuts down the global metrics provider
func ShutdownGlobalMetrics(ctx context.Context) error {
	return globalMetrics.Shutdown(ctx)
}
