package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap/zaptest"

	"github.com/hostpanel/backend/internal/domain/billing"
	"github.com/hostpanel/backend/internal/infrastructure/telemetry"
)

func TestNewMeterProvider_Disabled(t *testing.T) {
	logger := zaptest.NewLogger(t)
	ctx := context.Background()

	cfg := telemetry.MetricsConfig{
		Enabled:           false,
		CollectorEndpoint: "localhost:14317",
		ExportInterval:    60 * time.Second,
		ServiceName:       "test-service",
	}

	mp, err := telemetry.NewMeterProvider(ctx, cfg, logger)
	require.NoError(t, err)
	require.NotNil(t, mp)

	assert.False(t, mp.IsEnabled())
	assert.NoError(t, mp.Shutdown(ctx))
}

func TestNewTracerProvider_Disabled(t *testing.T) {
	logger := zaptest.NewLogger(t)
	ctx := context.Background()

	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:     false,
		ServiceName: "test-service",
	}, logger)
	require.NoError(t, err)
	require.NotNil(t, tp)

	assert.False(t, tp.IsEnabled())
	assert.NoError(t, tp.Shutdown(ctx))
}

func TestBillingMetrics_RecordSweep(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")

	bm, err := telemetry.NewBillingMetrics(meter, zaptest.NewLogger(t))
	require.NoError(t, err)

	result := billing.NewSweepResult(time.Now())
	result.RecordSkipped()

	// All paths are exercised against the no-op meter without panicking
	bm.RecordSweep(context.Background(), billing.KindVirtualMachine.String(), result, 250*time.Millisecond)
	bm.RecordSweep(context.Background(), billing.KindVirtualMachine.String(), nil, 0)
}
