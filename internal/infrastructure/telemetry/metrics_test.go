package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/gcs/crm/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap/zaptest"
)

// newTestMeter returns a meter backed by a manual reader for assertions.
func newTestMeter(t *testing.T) (metric.Meter, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	return provider.Meter("test"), reader
}

// collectMetric returns the named metric from a fresh collection.
func collectMetric(t *testing.T, reader *sdkmetric.ManualReader, name string) (metricdata.Metrics, bool) {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m, true
			}
		}
	}
	return metricdata.Metrics{}, false
}

// sumByAttr sums int64 sum data points, keyed by the value of attribute key.
func sumByAttr(t *testing.T, m metricdata.Metrics, key attribute.Key) map[string]int64 {
	t.Helper()

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)

	out := map[string]int64{}
	for _, dp := range sum.DataPoints {
		v, _ := dp.Attributes.Value(key)
		out[v.AsString()] += dp.Value
	}
	return out
}

func TestNewMeterProvider_Disabled(t *testing.T) {
	ctx := context.Background()

	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           false,
		CollectorEndpoint: "localhost:14317",
		ServiceName:       "gcs-crm-test",
	}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, mp.IsEnabled())
	assert.NotNil(t, mp.Meter("test"))
	assert.NoError(t, mp.ForceFlush(ctx))
	assert.NoError(t, mp.Shutdown(ctx))
}

func TestCounter(t *testing.T) {
	meter, reader := newTestMeter(t)
	ctx := context.Background()

	counter, err := telemetry.NewCounter(meter, "test_counter", "Test counter", "1")
	require.NoError(t, err)

	counter.Add(ctx, 5, telemetry.AttrDBOperation.String("SELECT"))
	counter.Inc(ctx, telemetry.AttrDBOperation.String("SELECT"))
	counter.Inc(ctx, telemetry.AttrDBOperation.String("INSERT"))

	m, ok := collectMetric(t, reader, "test_counter")
	require.True(t, ok)
	assert.Equal(t, map[string]int64{"SELECT": 6, "INSERT": 1}, sumByAttr(t, m, telemetry.AttrDBOperation))
}

func TestHistogram(t *testing.T) {
	meter, reader := newTestMeter(t)
	ctx := context.Background()

	histogram, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "test_duration_seconds",
		Description: "Test duration",
		Unit:        "s",
		Boundaries:  telemetry.RenderDurationBuckets,
	})
	require.NoError(t, err)

	histogram.Record(ctx, 0.2)
	histogram.RecordDuration(ctx, 1500*time.Millisecond)

	m, ok := collectMetric(t, reader, "test_duration_seconds")
	require.True(t, ok)

	data, ok := m.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, data.DataPoints, 1)
	dp := data.DataPoints[0]
	assert.Equal(t, uint64(2), dp.Count)
	assert.InDelta(t, 1.7, dp.Sum, 1e-9)
	assert.Equal(t, telemetry.RenderDurationBuckets, dp.Bounds)
}

func TestHistogram_NoBoundaries(t *testing.T) {
	meter, _ := newTestMeter(t)

	histogram, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{Name: "plain"})
	require.NoError(t, err)
	histogram.Record(context.Background(), 1)
}

func TestGauge(t *testing.T) {
	meter, reader := newTestMeter(t)
	ctx := context.Background()

	gauge, err := telemetry.NewGauge(meter, "test_gauge", "Test gauge", "1")
	require.NoError(t, err)

	gauge.Record(ctx, 10)
	gauge.Record(ctx, 4)

	m, ok := collectMetric(t, reader, "test_gauge")
	require.True(t, ok)
	data, ok := m.Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, data.DataPoints, 1)
	assert.Equal(t, int64(4), data.DataPoints[0].Value)
}

func TestBuckets_Ascending(t *testing.T) {
	for _, buckets := range [][]float64{
		telemetry.DBDurationBuckets,
		telemetry.RenderDurationBuckets,
		telemetry.InvoiceAmountBuckets,
	} {
		for i := 1; i < len(buckets); i++ {
			assert.Less(t, buckets[i-1], buckets[i])
		}
	}
}
