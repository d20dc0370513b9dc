package observability

import (
	"context"
	"testing"
	"time"

	"cgbot/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsProvider_NilIsNoop(t *testing.T) {
	var mp *MetricsProvider

	assert.NotPanics(t, func() {
		mp.RecordCommand("help", "")
		mp.RecordCodinGameRequest("CodinGamer/findCodingamePointsStatsByHandle", OutcomeSuccess, time.Second)
		mp.RecordAuditEvent("message_delete")
		mp.RecordNATSMessagePublished("audit_logged")
		mp.MeasureDatabaseQuery("mod_case", "Create")()
		require.NoError(t, mp.Shutdown(context.Background()))
	})
}

func TestMetricsProvider_Disabled(t *testing.T) {
	cfg := config.NewTestConfig()
	cfg.OTelEnabled = false

	mp := NewMetricsProvider(cfg)
	require.NoError(t, mp.Initialize(context.Background()))

	assert.False(t, mp.isEnabled())
	assert.NotPanics(t, func() {
		mp.RecordCommand("kick", "MissingPermissionsError")
	})
}

func TestMetricsProvider_ExporterNone(t *testing.T) {
	cfg := config.NewTestConfig()
	cfg.OTelEnabled = true
	cfg.OTelExporterType = "none"

	mp := NewMetricsProvider(cfg)
	require.NoError(t, mp.Initialize(context.Background()))
	assert.False(t, mp.isEnabled())
}

func TestMetricsProvider_Console(t *testing.T) {
	cfg := config.NewTestConfig()
	cfg.OTelEnabled = true
	cfg.OTelExporterType = "console"
	cfg.OTelExportIntervalMillis = 60000

	mp := NewMetricsProvider(cfg)
	require.NoError(t, mp.Initialize(context.Background()))
	t.Cleanup(func() {
		_ = mp.Shutdown(context.Background())
	})

	assert.True(t, mp.isEnabled())
	assert.NotPanics(t, func() {
		mp.RecordCommand("codingame codingamer", "")
		mp.RecordCommand("ban", "UserNotFoundError")
		mp.RecordAuditEvent("member_join")
		mp.MeasureDatabaseQuery("mod_case", "ListByTarget")()
	})
}

func TestMetricsProvider_UnknownExporter(t *testing.T) {
	cfg := config.NewTestConfig()
	cfg.OTelEnabled = true
	cfg.OTelExporterType = "carrier-pigeon"

	mp := NewMetricsProvider(cfg)
	err := mp.Initialize(context.Background())
	assert.ErrorContains(t, err, "unknown exporter type")
}
